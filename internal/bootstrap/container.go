package bootstrap

import (
	"time"

	"cyclone-bot/internal/command"
	"cyclone-bot/internal/config"
	"cyclone-bot/internal/discord"
	"cyclone-bot/internal/handler"
	"cyclone-bot/internal/pkg/logger"
	"cyclone-bot/internal/repository/memory"
	"cyclone-bot/internal/scheduler"
	"cyclone-bot/internal/service"
	"cyclone-bot/pkg/clock"
	"cyclone-bot/pkg/gemini"
	"cyclone-bot/pkg/googlecal"
	"cyclone-bot/pkg/notion"
	"cyclone-bot/pkg/pdftext"
	"cyclone-bot/pkg/scraper"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// notifyTopic is the in-process channel every outbound Discord
// notification flows through.
const notifyTopic = "discord.notifications"

type Container struct {
	Logger  logger.ILogger
	Session *discord.Session

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Scheduler       *scheduler.Scheduler

	// Discord surface
	MessageHandler     *handler.MessageHandler
	InteractionHandler *handler.InteractionHandler
	CommandRouter      *command.Router
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	botClock := clock.NewZoneClock(cfg.App.Timezone)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure Clients
	analysisRepo := memory.NewAnalysisRepository(
		time.Duration(cfg.Cache.TTL)*time.Second,
		time.Duration(cfg.Cache.CheckPeriod)*time.Second,
		time.Duration(cfg.Cache.RecordTTL)*time.Second,
	)

	geminiClient := gemini.NewClient(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		time.Duration(cfg.Gemini.RequestTimeout)*time.Second,
	)
	extractor := gemini.NewExtractor(geminiClient, pdftext.New(), botClock)

	notionSvc := notion.NewService(
		cfg.Notion.APIKey,
		cfg.Notion.InfoDatabaseID,
		cfg.Notion.CalendarDBID,
		botClock,
	)

	googleSvc := googlecal.NewService(googlecal.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RefreshToken: cfg.Google.RefreshToken,
		CalendarID:   cfg.Google.CalendarID,
	})

	scrapeSvc := scraper.NewService(scraper.Config{
		APIToken:       cfg.Apify.APIKey,
		Timeout:        time.Duration(cfg.Apify.RequestTimeout) * time.Second,
		FacebookActor:  cfg.Apify.FacebookActor,
		InstagramActor: cfg.Apify.InstagramActor,
		ThreadsActor:   cfg.Apify.ThreadsActor,
	})

	// 4. Discord Session
	session, err := discord.NewSession(cfg.Discord.Token, sysLogger)
	if err != nil {
		return nil, err
	}

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, notifyTopic)
	consumerService := service.NewConsumerService(pubSub, notifyTopic, session, sysLogger)

	calendarService := service.NewCalendarService(extractor, analysisRepo, sysLogger)
	resolverService := service.NewResolverService(analysisRepo, googleSvc, notionSvc, sysLogger)
	infoCollectService := service.NewInfoCollectService(scrapeSvc, extractor, notionSvc, analysisRepo, sysLogger)
	reportService := service.NewReportService(notionSvc, publisherService, botClock, cfg.Discord.NotifyChannelID, cfg.Discord.NotifyUserID, sysLogger)
	reminderService := service.NewReminderService(notionSvc, publisherService, botClock, cfg.Discord.NotifyChannelID, sysLogger)

	// 6. Discord Surface
	messageHandler := handler.NewMessageHandler(session, calendarService, infoCollectService, cfg.Discord, sysLogger)
	interactionHandler := handler.NewInteractionHandler(session, resolverService, sysLogger)
	commandRouter := command.NewRouter(
		session,
		calendarService,
		resolverService,
		reportService,
		botClock,
		cfg,
		sysLogger,
	)

	// 7. Schedules
	cronScheduler := scheduler.New(reportService, reminderService, cfg.App.Timezone, sysLogger)

	return &Container{
		Logger:             sysLogger,
		Session:            session,
		ConsumerService:    consumerService,
		Scheduler:          cronScheduler,
		MessageHandler:     messageHandler,
		InteractionHandler: interactionHandler,
		CommandRouter:      commandRouter,
	}, nil
}
