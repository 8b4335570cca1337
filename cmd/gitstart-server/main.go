// Package main GitStart Analyzer API Server
//
//	@title			GitStart Analyzer API
//	@version		1.0
//	@description	An API for code complexity analysis, issue difficulty classification, and issue discovery
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/
package main

import (
	"log"

	"github.com/joho/godotenv"

	_ "gitstart-analyzer/docs" // This imports the docs package to initialize swagger
	"gitstart-analyzer/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	log.Println("Starting GitStart Analyzer Server...")
	srv := server.NewServer()
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
