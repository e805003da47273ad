//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"sekaichat/internal/application/affection"
	"sekaichat/internal/application/autoreply"
	"sekaichat/internal/application/cooldown"
	"sekaichat/internal/config"
	"sekaichat/internal/domain/repository"
	"sekaichat/internal/infrastructure/generation"
	"sekaichat/internal/infrastructure/messaging"
	"sekaichat/internal/infrastructure/persistence/postgres"
	"sekaichat/internal/infrastructure/persistence/redis"
	"sekaichat/internal/interfaces/http/handler"
	"sekaichat/internal/interfaces/http/middleware"
	"sekaichat/internal/interfaces/http/router"
)

// DataLayer 数据层依赖容器
type DataLayer struct {
	// PostgreSQL
	PgClient         *postgres.Client
	TxManager        *postgres.TxManager
	UserRepo         *postgres.UserRepository
	CharacterRepo    *postgres.CharacterRepository
	ConversationRepo *postgres.ConversationRepository
	ParticipantRepo  *postgres.ParticipantRepository
	MessageRepo      *postgres.MessageRepository
	AffectionRepo    *postgres.AffectionRepository

	// Redis
	RedisClient   *redis.Client
	Cache         *redis.Cache
	RateLimiter   *redis.RateLimiter
	CooldownStore *redis.CooldownStore

	// Messaging
	Producer *messaging.Producer
}

// InitializeDataLayer 初始化数据层
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		wire.Struct(new(DataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		GenerationSet,
		AffectionSet,
		AutoReplySet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewCharacterRepository,
	postgres.NewConversationRepository,
	postgres.NewParticipantRepository,
	postgres.NewMessageRepository,
	postgres.NewAffectionRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.CharacterRepository), new(*postgres.CharacterRepository)),
	wire.Bind(new(repository.ConversationRepository), new(*postgres.ConversationRepository)),
	wire.Bind(new(repository.ParticipantRepository), new(*postgres.ParticipantRepository)),
	wire.Bind(new(repository.MessageRepository), new(*postgres.MessageRepository)),
	wire.Bind(new(repository.AffectionRepository), new(*postgres.AffectionRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	ProvideCooldownStore,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(cooldown.Store), new(*redis.CooldownStore)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
)

// GenerationSet 生成服务客户端提供者集合
var GenerationSet = wire.NewSet(
	ProvideGenerationClient,
	wire.Bind(new(autoreply.SpeakerSelector), new(*generation.Client)),
	wire.Bind(new(autoreply.Generator), new(*generation.Client)),
	wire.Bind(new(affection.DeltaEstimator), new(*generation.Client)),
)

// AffectionSet 好感度引擎提供者集合
var AffectionSet = wire.NewSet(
	affection.NewEngine,
)

// AutoReplySet 自动回复核心提供者集合
var AutoReplySet = wire.NewSet(
	ProvideCooldownGate,
	ProvideControllerOptions,
	autoreply.NewSessionManager,
	autoreply.NewRepoMessageStore,
	wire.Bind(new(autoreply.MessageStore), new(*autoreply.RepoMessageStore)),
	autoreply.NewController,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideJWTConfig,
	ProvideAffectionConfig,
	handler.NewHealthHandler,
	handler.NewAuthHandler,
	handler.NewUserHandler,
	handler.NewCharacterHandler,
	handler.NewConversationHandler,
	handler.NewChatHandler,
	handler.NewAffectionHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.StreamMaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), maxLen)
}

// ProvideCooldownStore 提供冷却触发时间存储
func ProvideCooldownStore(redisClient *redis.Client, cfg *config.Config) *redis.CooldownStore {
	return redis.NewCooldownStore(redisClient, cfg.AutoReply.ImageCooldown)
}

// ProvideCooldownGate 提供图片生成冷却闸门
func ProvideCooldownGate(store cooldown.Store, cfg *config.Config) *cooldown.Gate {
	return cooldown.NewGate(store, cfg.AutoReply.ImageCooldown)
}

// ProvideGenerationClient 提供生成服务客户端
func ProvideGenerationClient(cfg *config.Config) *generation.Client {
	return generation.NewClient(&cfg.Generation)
}

// ProvideControllerOptions 提供循环控制器选项
func ProvideControllerOptions(cfg *config.Config) autoreply.Options {
	return autoreply.Options{
		MaxSequenceLimit: cfg.AutoReply.MaxSequenceLimit,
		IterationDelay:   cfg.AutoReply.IterationDelay,
	}
}

// ProvideJWTConfig 提供 JWT 配置
func ProvideJWTConfig(cfg *config.Config) config.JWTConfig {
	return cfg.Security.JWT
}

// ProvideAffectionConfig 提供好感度配置
func ProvideAffectionConfig(cfg *config.Config) config.AffectionConfig {
	return cfg.Affection
}
