package bootstrap

import (
	"log"

	"linkchat-be/internal/chat"
	"linkchat-be/internal/config"
	"linkchat-be/internal/controller"
	"linkchat-be/internal/pkg/logger"
	"linkchat-be/internal/pkg/mailer"
	"linkchat-be/internal/repository/blob"
	"linkchat-be/internal/repository/contract"
	"linkchat-be/internal/repository/implementation"
	"linkchat-be/internal/repository/memory"
	"linkchat-be/internal/service"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.ChatController
	FileController controller.FileController
	MailController controller.MailController

	// Background services (exposed for main.go to run)
	NotifierService *service.NotifierService

	Logger logger.ILogger
}

// NewContainer wires the whole dependency graph. db may be nil when the
// memory backend is configured; the postgres backend requires it.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// Event bus: in-process pub/sub decouples chat rooms from mail
	// delivery.
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// Stores
	var chatStore contract.ChatStore
	var unsubscribeStore contract.UnsubscribeStore
	switch cfg.Storage.Backend {
	case "postgres":
		if db == nil {
			log.Fatal("[FATAL] STORAGE_BACKEND=postgres requires DB_CONNECTION_STRING")
		}
		if err := implementation.AutoMigrate(db); err != nil {
			log.Fatalf("[FATAL] Failed to migrate schema: %v", err)
		}
		chatStore = implementation.NewChatStore(db)
		unsubscribeStore = implementation.NewUnsubscribeStore(db)
		log.Println("[INFO] Using storage backend: POSTGRES")
	default:
		chatStore = memory.NewChatStore()
		unsubscribeStore = memory.NewUnsubscribeStore()
		log.Println("[INFO] Using storage backend: MEMORY")
	}

	fileStore, err := blob.NewFileStore(cfg.Storage.FileDir)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open attachment directory: %v", err)
	}

	registry := chat.NewRegistry(chat.RegistryOptions{
		Store:       chatStore,
		Files:       fileStore,
		Unsubscribe: unsubscribeStore,
		Publisher:   pubSub,
		Logger:      sysLogger,
		IdleTimeout: cfg.Chat.IdleTimeout,
		DropEvicted: cfg.Chat.DropEvicted,
	})

	notifier := service.NewNotifierService(pubSub, unsubscribeStore, emailService, cfg.App.BaseURL, sysLogger)

	return &Container{
		ChatController:  controller.NewChatController(registry, cfg.Chat.HandshakeTimeout, sysLogger),
		FileController:  controller.NewFileController(chatStore, fileStore, sysLogger),
		MailController:  controller.NewMailController(unsubscribeStore, sysLogger),
		NotifierService: notifier,
		Logger:          sysLogger,
	}
}
