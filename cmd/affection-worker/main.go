// Package main 好感度分析执行器入口（affection-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sekaichat/internal/application/affection"
	"sekaichat/internal/config"
	"sekaichat/internal/infrastructure/generation"
	"sekaichat/internal/infrastructure/messaging"
	"sekaichat/internal/wire"
	"sekaichat/pkg/logger"
	"sekaichat/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "affection-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	data, cleanup, err := wire.InitializeDataLayer(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize data layer", err)
	}
	defer cleanup()

	genClient := generation.NewClient(&cfg.Generation)
	engine := affection.NewEngine(data.AffectionRepo)
	analyzer := affection.NewAnalyzer(engine, data.MessageRepo, genClient, cfg.Affection.AnalyzeWindow, cfg.Affection.MaxAutoDelta)

	consumer := messaging.NewConsumer(data.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamAffectionAnalyze,
		Group:        messaging.ConsumerGroupAffectionWorker,
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: cfg.Messaging.ConsumerBlock,
	})

	consumer.RegisterHandler(messaging.MessageTypeAffectionAnalyze, func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.AffectionAnalysisMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}

		conv, err := data.ConversationRepo.GetByID(ctx, payload.ConversationID)
		if err != nil {
			return err
		}
		// 会话已删除或好感度系统已关闭时直接确认消息
		if conv == nil || !conv.UseAffectionSys {
			return nil
		}

		participants, err := data.ParticipantRepo.ListByConversation(ctx, conv.ID)
		if err != nil {
			return err
		}

		for _, p := range participants {
			state, err := analyzer.Analyze(ctx, conv.ID, p.CharacterID)
			if err != nil {
				logger.Warn(ctx, "affection analysis failed",
					"conversation_id", conv.ID,
					"character_id", p.CharacterID,
					"error", err.Error(),
				)
				continue
			}
			logger.Info(ctx, "affection analyzed",
				"conversation_id", conv.ID,
				"character_id", p.CharacterID,
				"level", state.Level,
				"user_message_count", payload.UserMessageCount,
			)
		}
		return nil
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	go consumer.MonitorDLQ(ctx, 100)

	log := logger.FromContext(ctx)
	log.Info("affection-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("affection-worker shutting down")
	consumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
