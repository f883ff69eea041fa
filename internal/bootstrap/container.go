package bootstrap

import (
	"context"
	"log"
	"time"

	"clinical-scribe-be/internal/config"
	"clinical-scribe-be/internal/controller"
	"clinical-scribe-be/internal/pkg/logger"
	"clinical-scribe-be/internal/pkg/mailer"
	"clinical-scribe-be/internal/repository/memory"
	"clinical-scribe-be/internal/repository/unitofwork"
	"clinical-scribe-be/internal/service"
	"clinical-scribe-be/internal/websocket"
	"clinical-scribe-be/pkg/generation"
	"clinical-scribe-be/pkg/llm/factory"

	pktNats "clinical-scribe-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	PatientController      controller.IPatientController
	ReportController       controller.IReportController
	BatchController        controller.IBatchController
	PreceptorController    controller.IPreceptorController
	NotificationController controller.INotificationController

	// Background services (exposed for main.go to run)
	ArchiveConsumerService service.IArchiveConsumerService

	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderEmail,
		cfg.App.ClientURL,
	)

	// 2. In-process event bus for archive rendering
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		cfg.Ai.Model,
		cfg.Ai.OllamaURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)
	generator := generation.NewAdapter(llmProvider)

	// In-memory stores: per-user batch workspaces and pending MFA challenges
	batchRepo := memory.NewBatchRepository()
	mfaRepo := memory.NewMfaRepository(time.Duration(cfg.Auth.OTPTTLMin) * time.Minute)

	// 3.5 Infrastructure
	// NATS. A dead broker degrades the app (no notifications) but does not
	// prevent it from serving requests.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS subscriber: %v", err)
	}

	// Redis
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

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Archive.ArchiveTopic, pubSub)
	archiveConsumerService := service.NewArchiveConsumerService(
		pubSub,
		cfg.Archive.ArchiveTopic,
		uowFactory,
		cfg.Archive.Dir,
	)

	authService := service.NewAuthService(uowFactory, emailService, mfaRepo, natsPub, cfg.Auth)
	patientService := service.NewPatientService(uowFactory)
	reportService := service.NewReportService(uowFactory)
	ingestService := service.NewIngestService(uowFactory, publisherService, natsPub, sysLogger)
	batchService := service.NewBatchService(batchRepo, generator, ingestService, wsHub, natsPub, sysLogger)
	preceptorService := service.NewPreceptorService(uowFactory, llmProvider, cfg.Archive.Dir, natsPub, sysLogger)

	notifService := service.NewNotificationService(uowFactory, natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	// 5. Controllers
	return &Container{
		AuthController:         controller.NewAuthController(authService),
		PatientController:      controller.NewPatientController(patientService),
		ReportController:       controller.NewReportController(reportService),
		BatchController:        controller.NewBatchController(batchService),
		PreceptorController:    controller.NewPreceptorController(preceptorService),
		NotificationController: controller.NewNotificationController(notifService, wsHub, wsLogger),

		ArchiveConsumerService: archiveConsumerService,
		WebSocketHub:           wsHub,
	}
}
