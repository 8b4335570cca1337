package config

import (
	"encoding/json"
	"os"

	"gitstart-analyzer/internal/models"
)

// LoadIssuesFromFile reads a JSON array of issues used to seed an empty store
func LoadIssuesFromFile(path string) ([]models.Issue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var issues []models.Issue
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&issues); err != nil {
		return nil, err
	}

	return issues, nil
}
