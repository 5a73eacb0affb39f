package bootstrap

import (
	"context"
	"log"

	"regen-advisor-be/internal/config"
	"regen-advisor-be/internal/constant"
	"regen-advisor-be/internal/controller"
	"regen-advisor-be/internal/handler"
	"regen-advisor-be/internal/pkg/logger"
	"regen-advisor-be/internal/repository/memory"
	"regen-advisor-be/internal/repository/unitofwork"
	"regen-advisor-be/internal/service"
	"regen-advisor-be/internal/websocket"
	"regen-advisor-be/pkg/advisor/pipeline"
	"regen-advisor-be/pkg/advisor/selector"
	"regen-advisor-be/pkg/embedding"
	"regen-advisor-be/pkg/embedding/jina"
	"regen-advisor-be/pkg/extractor"
	"regen-advisor-be/pkg/extractor/anthropic"
	"regen-advisor-be/pkg/kb"
	"regen-advisor-be/pkg/kb/pgstore"
	"regen-advisor-be/pkg/llm/factory"

	pkgNats "regen-advisor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController   controller.ISessionController
	KnowledgeController controller.IKnowledgeController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	AuditService    service.IAuditService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	stdLogger := log.Default()

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	documentProvider := anthropic.NewAnthropicProvider(cfg.Keys.Anthropic, cfg.Ai.ExtractorModel)
	outcomeExtractor := extractor.NewOutcomeExtractor(
		documentProvider,
		constant.OutcomeExtractionInstructionV1,
		constant.OutcomeSchemaHintV1,
		stdLogger,
	)

	// 4. Knowledge retrieval with retry over the pgvector store
	retriever := kb.WithRetry(
		pgstore.NewStore(uowFactory, embeddingProvider, llmProvider, pgstore.DefaultConfig(), stdLogger),
		stdLogger,
	)

	// 5. Advisor pipeline
	pipelineCfg := pipeline.DefaultConfig()
	if cfg.Ai.PipelineWorkers > 0 {
		pipelineCfg.MaxWorkers = cfg.Ai.PipelineWorkers
	}
	orchestrator := pipeline.NewOrchestrator(outcomeExtractor, retriever, pipelineCfg, stdLogger)
	methodSelector := selector.New(stdLogger)

	// 6. In-memory session storage
	sessionRepo := memory.NewSessionRepository()

	// 7. Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

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

	wsLogger := logger.NewIsolatedLogger("logs/progress.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 8. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.EmbedEntryTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedEntryTopic,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	sessionService := service.NewSessionService(
		uowFactory,
		sessionRepo,
		orchestrator,
		methodSelector,
		retriever,
		llmProvider,
		natsPub,
		wsHub,
		sysLogger,
		cfg.App.UploadsDir,
	)
	knowledgeService := service.NewKnowledgeService(uowFactory, publisherService, natsPub, sysLogger)

	var auditService service.IAuditService
	if natsSub != nil {
		auditLog := logger.NewIsolatedLogger("logs/audit.log")
		auditService = service.NewAuditService(natsSub, auditLog)
	}

	progressHandler := handler.NewProgressHandler(wsHub, wsLogger)

	return &Container{
		SessionController:   controller.NewSessionController(sessionService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),

		ConsumerService: consumerService,
		AuditService:    auditService,

		ProgressHandler: progressHandler,
		WebSocketHub:    wsHub,
	}
}
