package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"creditmemo/internal/ai"
	"creditmemo/internal/cache"
	"creditmemo/internal/config"
	postgresClient "creditmemo/internal/platform/postgres"
	rabbitmqClient "creditmemo/internal/platform/rabbitmq"
	redisClient "creditmemo/internal/platform/redis"
	s3Client "creditmemo/internal/platform/s3"
	"creditmemo/internal/repository"
	"creditmemo/internal/telemetry"
	"creditmemo/internal/worker"
)

type App struct {
	Config       *config.Config
	DB           *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	S3           *s3.Client
	LLM          *ai.OpenAICompatibleClient
	MemoHistory  *cache.MemoHistoryCache
	MemoWorker   *worker.MemoPersistWorker
	tracerCloser func(context.Context) error

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	shutdownTracer, err := telemetry.InitJaeger(cfg.Telemetry.ServiceName, cfg.Telemetry.JaegerEndpoint)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, tracerCloser: shutdownTracer}

	a.DB, err = postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, a.abort(err)
	}
	if err := postgresClient.Migrate(a.DB); err != nil {
		return nil, a.abort(err)
	}

	a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, a.abort(err)
	}

	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, a.abort(err)
	}

	a.S3, err = s3Client.New(ctx, s3Client.Config{
		Endpoint:     cfg.Storage.Endpoint,
		Region:       cfg.Storage.Region,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
		UsePathStyle: cfg.Storage.UsePathStyle,
	}, cfg.Storage.Bucket)
	if err != nil {
		return nil, a.abort(err)
	}

	a.LLM = ai.NewOpenAICompatibleClient(ai.ClientConfig{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		ChatModel:      cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
		Timeout:        time.Duration(cfg.LLM.RequestTimeoutSeconds) * time.Second,
	})

	a.MemoHistory = cache.NewMemoHistoryCache(
		a.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	memoRepo := repository.NewMemoRepository(a.DB)
	a.MemoWorker = worker.NewMemoPersistWorker(a.MQConn, memoRepo, a.MemoHistory, cfg.RabbitMQ.MemoPersistQueue)
	if err := a.MemoWorker.Start(ctx); err != nil {
		return nil, a.abort(fmt.Errorf("start memo worker failed: %w", err))
	}

	a.StartedAt = time.Now()
	return a, nil
}

// abort releases whatever was opened before a bootstrap step failed.
func (a *App) abort(err error) error {
	if closeErr := a.Close(); closeErr != nil {
		log.Printf("close after bootstrap failure: %v", closeErr)
	}
	return err
}

func (a *App) Close() error {
	var closeErr error
	if a.MemoWorker != nil {
		a.MemoWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.tracerCloser != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerCloser(ctx); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
