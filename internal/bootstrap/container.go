package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"guest-assistant-be/internal/config"
	"guest-assistant-be/internal/controller"
	"guest-assistant-be/internal/pkg/logger"
	"guest-assistant-be/internal/repository/vector"
	"guest-assistant-be/internal/service"
	"guest-assistant-be/pkg/embedding"
	"guest-assistant-be/pkg/llm"
	"guest-assistant-be/pkg/llm/factory"
	"guest-assistant-be/pkg/retrieval"
	"guest-assistant-be/pkg/retrieval/compose"
	"guest-assistant-be/pkg/retrieval/curate"
	"guest-assistant-be/pkg/retrieval/expand"
	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/retrieval/plan"
	"guest-assistant-be/pkg/retrieval/search"
	"guest-assistant-be/pkg/semcache"
	"guest-assistant-be/pkg/session"
	"guest-assistant-be/pkg/store"

	pktNats "guest-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const embedTopicName = "content.embed"

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	ContentController   controller.IContentController

	// Background services (exposed for main.go to run)
	IngestService   service.IIngestService
	ArchiverService service.IArchiverService // nil when NATS is unavailable

	// Connections main.go must close on shutdown
	NatsPublisher  *pktNats.Publisher
	NatsSubscriber *pktNats.Subscriber
	Logger         logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := initPipelineLogger()

	// Event Bus (in-process, for the ingest path)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)

	// Only the Gemini embedder supports truncatable output dimensions, which
	// the tier system depends on.
	if cfg.Ai.EmbeddingProvider != "gemini" {
		log.Printf("[WARN] Embedding provider %q does not support tiered dimensions, using gemini", cfg.Ai.EmbeddingProvider)
	}
	embeddingProvider := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	log.Printf("[INFO] Using Embedding Provider: GEMINI")

	rawLLM, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	llmProvider := llm.NewBreakerProvider(rawLLM)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// NATS (turn archive bus). The assistant works without it.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis (semantic cache L2). The cache degrades to in-process only.
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Retrieval pipeline
	sessions := session.NewStore(time.Duration(cfg.Retrieval.SessionTTLHours) * time.Hour)
	cache := semcache.New(
		rdb,
		semcache.DefaultGroups(),
		time.Duration(cfg.Retrieval.CacheTTLMinutes)*time.Minute,
		pipelineLogger,
	)

	classifier := intent.NewClassifier(llmProvider, cfg.Retrieval.MinIntentConfidence, pipelineLogger)
	selector := plan.NewSelector(plan.Config{
		FastDimensions:      cfg.Retrieval.FastDimensions,
		BalancedDimensions:  cfg.Retrieval.BalancedDimensions,
		FullDimensions:      cfg.Retrieval.FullDimensions,
		MaxPerDomain:        cfg.Retrieval.MaxContextChunks - 2,
		DisableShortCircuit: cfg.Retrieval.DisableShortCircuit,
	}, pipelineLogger)
	expander := expand.NewExpander(llmProvider, pipelineLogger)
	retriever := search.NewRetriever(embeddingProvider, vector.NewGormGateway(db), pipelineLogger)
	curator := curate.NewCurator(llmProvider, pipelineLogger)

	pipeline := retrieval.NewPipeline(
		classifier,
		selector,
		expander,
		retriever,
		curator,
		sessions,
		cache,
		pipelineLogger,
	)
	composer := compose.NewComposer(llmProvider, pipelineLogger)

	// Services
	dimsByDomain := map[store.Domain]int{
		store.DomainAccommodation: cfg.Retrieval.FastDimensions,
		store.DomainTourism:       cfg.Retrieval.FullDimensions,
		store.DomainRegulatory:    cfg.Retrieval.BalancedDimensions,
	}

	assistantService := service.NewAssistantService(
		pipeline,
		composer,
		natsPub,
		cfg.Retrieval.HistoryMaxTurns,
		sysLogger,
	)
	ingestService := service.NewIngestService(
		pubSub,
		embedTopicName,
		db,
		embeddingProvider,
		dimsByDomain,
	)

	var archiverService service.IArchiverService
	if natsSub != nil {
		archiverService = service.NewArchiverService(natsSub, db, sysLogger)
	}

	return &Container{
		AssistantController: controller.NewAssistantController(assistantService),
		ContentController:   controller.NewContentController(ingestService),

		IngestService:   ingestService,
		ArchiverService: archiverService,

		NatsPublisher:  natsPub,
		NatsSubscriber: natsSub,
		Logger:         sysLogger,
	}
}

func initPipelineLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_pipeline.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[PIPELINE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
