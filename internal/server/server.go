package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"gitstart-analyzer/config"
	"gitstart-analyzer/internal/db"
	"gitstart-analyzer/internal/handlers"
	"gitstart-analyzer/internal/repositories"
	"gitstart-analyzer/internal/routes"
	"gitstart-analyzer/internal/services"
	"gitstart-analyzer/internal/workers"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func NewServer() *http.Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	completer := initializeInsightService(logger)
	analyzer := services.NewCodeAnalyzer(completer, logger)
	classifier := initializeClassifier(logger)

	issueRepo, vectorRepo, jobRepo := initializeRepositories(logger)

	analysisHandler := handlers.NewAnalysisHandler(analyzer, completer, logger)

	var classifierHandler *handlers.ClassifierHandler
	var issueHandler *handlers.IssueHandler

	if classifier != nil {
		classifierHandler = handlers.NewClassifierHandler(classifier, jobRepo, logger)
	} else {
		logger.Println("⚠️  Classification endpoints disabled - encoder not available")
	}

	if issueRepo != nil {
		issueHandler = handlers.NewIssueHandler(issueRepo, vectorRepo, classifier, logger)
		seedIssues(issueRepo, logger)
	} else {
		logger.Println("⚠️  Issue endpoints disabled - Redis not available")
	}

	if jobRepo != nil && issueRepo != nil && classifier != nil {
		startWorkers(jobRepo, issueRepo, classifier, logger)
	} else {
		logger.Println("⚠️  Training worker disabled - requires Redis and the classifier")
	}

	h := &routes.Handlers{
		Health:     handlers.HealthCheckHandler,
		Home:       handlers.HomeHandler,
		Analysis:   analysisHandler,
		Classifier: classifierHandler,
		Issues:     issueHandler,
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	// Add Swagger endpoints
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	return &http.Server{
		Addr:    ":8080",
		Handler: corsMiddleware(router),
	}
}

// initializeInsightService configures the upstream model client from the
// environment
func initializeInsightService(logger *log.Logger) *services.InsightService {
	baseURL := os.Getenv("INSIGHT_BASE_URL")
	if baseURL == "" {
		baseURL = services.DefaultInsightBaseURL
	}

	model := os.Getenv("INSIGHT_MODEL")
	if model == "" {
		model = services.DefaultInsightModel
	}

	logger.Printf("Initializing insight service: %s (model: %s)", baseURL, model)
	return services.NewInsightServiceWithOptions(baseURL, model)
}

// initializeClassifier wires the ONNX encoder and the dense head. Returns nil
// when the encoder cannot be loaded; classification endpoints are skipped then.
func initializeClassifier(logger *log.Logger) *services.IssueClassifier {
	modelPath := os.Getenv("ENCODER_MODEL_PATH")
	if modelPath == "" {
		modelPath = services.DefaultEncoderModelPath
	}

	tokenizerPath := os.Getenv("TOKENIZER_PATH")
	if tokenizerPath == "" {
		tokenizerPath = services.DefaultTokenizerPath
	}

	dim := services.DefaultEmbeddingDim
	if dimStr := os.Getenv("ENCODER_DIM"); dimStr != "" {
		if parsed, err := strconv.Atoi(dimStr); err == nil && parsed > 0 {
			dim = parsed
		}
	}

	headPath := os.Getenv("CLASSIFIER_HEAD_PATH")
	if headPath == "" {
		headPath = services.DefaultHeadPath
	}

	encoder, err := services.NewONNXEncoder(modelPath, tokenizerPath, dim)
	if err != nil {
		logger.Printf("❌ Failed to load encoder from %s: %v", modelPath, err)
		return nil
	}
	logger.Printf("✅ Encoder loaded: %s (dim: %d)", modelPath, dim)

	return services.NewIssueClassifier(encoder, headPath, logger)
}

// initializeRepositories creates repository instances with Redis and ChromaDB
func initializeRepositories(logger *log.Logger) (repositories.IssueRepository, repositories.VectorRepository, repositories.JobRepository) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisConfig := getRedisConfig()
	logger.Printf("Connecting to Redis: %s:%d (DB: %d)", redisConfig.Host, redisConfig.Port, redisConfig.DB)

	redisClient, err := db.NewRedisClient(redisConfig)
	if err != nil {
		logger.Printf("❌ Failed to create Redis client: %v", err)
		return nil, nil, nil
	}

	if err := redisClient.Ping(ctx); err != nil {
		logger.Printf("❌ Redis connection failed: %v", err)
		logger.Println("   Hint: Ensure Redis is running (docker run -d -p 6379:6379 redis:7-alpine)")
		return nil, nil, nil
	}
	logger.Println("✅ Redis connected successfully")

	issueRepo := repositories.NewRedisIssueRepository(redisClient.GetClient())
	jobRepo := repositories.NewRedisJobRepository(redisClient.GetClient())

	chromaConfig := getChromaConfig()
	logger.Printf("Connecting to ChromaDB: %s:%d", chromaConfig.Host, chromaConfig.Port)

	chromaClient := db.NewChromaDBClient(chromaConfig)

	// Similarity search degrades without Chroma; issue storage still works
	var vectorRepo repositories.VectorRepository
	if err := chromaClient.Heartbeat(ctx); err != nil {
		logger.Printf("⚠️  ChromaDB connection failed: %v", err)
		logger.Println("   Similarity search will be disabled")
		logger.Println("   Hint: Ensure ChromaDB is running (docker run -d -p 8000:8000 chromadb/chroma)")
	} else {
		logger.Println("✅ ChromaDB connected successfully")
		chromaRepo := repositories.NewChromaVectorRepository(chromaClient)
		if err := chromaRepo.EnsureCollection(ctx); err != nil {
			logger.Printf("⚠️  Failed to prepare issue collection: %v", err)
			logger.Println("   Similarity search will be disabled")
		} else {
			vectorRepo = chromaRepo
		}
	}

	return issueRepo, vectorRepo, jobRepo
}

// getRedisConfig reads Redis configuration from environment variables
func getRedisConfig() db.RedisConfig {
	cfg := db.DefaultRedisConfig()

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Host = host
	}

	if portStr := os.Getenv("REDIS_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if dbNum, err := strconv.Atoi(dbStr); err == nil {
			cfg.DB = dbNum
		}
	}

	if poolSizeStr := os.Getenv("REDIS_POOL_SIZE"); poolSizeStr != "" {
		if poolSize, err := strconv.Atoi(poolSizeStr); err == nil {
			cfg.PoolSize = poolSize
		}
	}

	return cfg
}

// getChromaConfig reads ChromaDB configuration from environment variables
func getChromaConfig() db.ChromaDBConfig {
	cfg := db.ChromaDBConfig{
		Host:     "localhost",
		Port:     8000,
		Tenant:   "default_tenant",
		Database: "default_database",
		Timeout:  30 * time.Second,
	}

	if host := os.Getenv("CHROMA_HOST"); host != "" {
		cfg.Host = host
	}

	if portStr := os.Getenv("CHROMA_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}

	if tenant := os.Getenv("CHROMA_TENANT"); tenant != "" {
		cfg.Tenant = tenant
	}

	if database := os.Getenv("CHROMA_DATABASE"); database != "" {
		cfg.Database = database
	}

	return cfg
}

// seedIssues loads the bundled example issues into an empty store so the demo
// endpoints have data on first boot
func seedIssues(issueRepo repositories.IssueRepository, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := issueRepo.Count(ctx)
	if err != nil || count > 0 {
		return
	}

	seedPath := os.Getenv("SEED_ISSUES_PATH")
	if seedPath == "" {
		seedPath = "config/example_issues.json"
	}

	issues, err := config.LoadIssuesFromFile(seedPath)
	if err != nil {
		logger.Printf("⚠️  Could not load seed issues from %s: %v", seedPath, err)
		return
	}

	seeded := 0
	for i := range issues {
		if err := issueRepo.Create(ctx, &issues[i]); err != nil {
			logger.Printf("⚠️  Failed to seed issue %s: %v", issues[i].Id, err)
			continue
		}
		seeded++
	}
	logger.Printf("✅ Seeded %d example issues", seeded)
}

// startWorkers launches the background training worker
func startWorkers(jobRepo repositories.JobRepository, issueRepo repositories.IssueRepository, classifier *services.IssueClassifier, logger *log.Logger) {
	headPath := os.Getenv("CLASSIFIER_HEAD_PATH")
	if headPath == "" {
		headPath = services.DefaultHeadPath
	}

	worker := workers.NewTrainingWorker(workers.TrainingWorkerConfig{
		WorkerConfig: workers.DefaultWorkerConfig("training-worker"),
		JobRepo:      jobRepo,
		IssueRepo:    issueRepo,
		Classifier:   classifier,
		HeadPath:     headPath,
		Logger:       &simpleLogger{logger: logger},
	})

	if err := worker.Start(context.Background()); err != nil {
		logger.Printf("⚠️  Failed to start training worker: %v", err)
	} else {
		logger.Println("✅ Training worker started successfully")
	}
}

// simpleLogger wraps log.Logger to implement workers.Logger interface
type simpleLogger struct {
	logger *log.Logger
}

func (l *simpleLogger) Info(msg string, args ...interface{}) {
	l.logger.Printf("[INFO] "+msg, args...)
}

func (l *simpleLogger) Error(msg string, args ...interface{}) {
	l.logger.Printf("[ERROR] "+msg, args...)
}

func (l *simpleLogger) Warn(msg string, args ...interface{}) {
	l.logger.Printf("[WARN] "+msg, args...)
}

func (l *simpleLogger) Debug(msg string, args ...interface{}) {
	l.logger.Printf("[DEBUG] "+msg, args...)
}
