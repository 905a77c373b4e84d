package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"cybershield-quiz-service/internal/app"
	"cybershield-quiz-service/internal/config"
	"cybershield-quiz-service/internal/infra/amqp"
	"cybershield-quiz-service/internal/infra/memory"
	infmongo "cybershield-quiz-service/internal/infra/mongo"
	"cybershield-quiz-service/internal/infra/postgres"
	infraredis "cybershield-quiz-service/internal/infra/redis"
	transport "cybershield-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// services is everything built from config, plus the cleanup that releases it.
type services struct {
	quizzes  *app.QuizService
	attempts *app.AttemptService
	limiter  transport.Limiter
	closers  []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

type stores struct {
	quizzes  app.QuizStore
	attempts app.AttemptRepository
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	svc := &services{}

	st, err := openStores(ctx, cfg, svc)
	if err != nil {
		svc.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, func() { _ = redisClient.Close() })
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, st.quizzes, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(st.quizzes, quizTTL)
	}
	// feeds hold live channels, so they stay in the process that owns the socket
	feeds := memory.NewFeedStore()

	if cfg.RateLimit.Requests > 0 {
		window := config.TTLDuration(cfg.RateLimit.Window, time.Minute)
		if redisClient != nil {
			svc.limiter = infraredis.NewRateLimiter(redisClient, cfg.RateLimit.Requests, window)
		} else {
			limiter := memory.NewRateLimiter(cfg.RateLimit.Requests, window, cfg.RateLimit.MaxKeys)
			sweepCtx, cancel := context.WithCancel(context.Background())
			go limiter.Run(sweepCtx, window)
			svc.closers = append(svc.closers, cancel)
			svc.limiter = limiter
		}
	}

	publisher, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.closers = append(svc.closers, func() { _ = publisher.Close() })

	svc.quizzes = app.NewQuizService(quizRepo)
	svc.attempts = app.NewAttemptService(st.attempts, quizRepo, publisher, feeds,
		app.WithQuizPassingScore(cfg.Scoring.UseQuizPassingScore),
	)
	return svc, nil
}

func openStores(ctx context.Context, cfg config.Config, svc *services) (stores, error) {
	driver := cfg.StorageDriver()
	log.Printf("storage driver: %s", driver)

	switch driver {
	case "memory":
		return stores{quizzes: memory.NewQuizStore(nil), attempts: memory.NewAttemptStore()}, nil

	case "postgres":
		if cfg.Postgres.URL == "" {
			return stores{}, fmt.Errorf("postgres url not configured")
		}
		db := openBun(cfg.Postgres.URL)
		svc.closers = append(svc.closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db); err != nil {
			return stores{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return stores{}, err
		}
		svc.closers = append(svc.closers, pool.Close)
		return stores{quizzes: postgres.NewQuizStore(pool), attempts: postgres.NewAttemptStore(db)}, nil

	case "mongo":
		if cfg.Mongo.URI == "" {
			return stores{}, fmt.Errorf("mongo uri not configured")
		}
		client, err := infmongo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return stores{}, err
		}
		svc.closers = append(svc.closers, func() { _ = client.Disconnect(context.Background()) })
		name := cfg.Mongo.Database
		if name == "" {
			name = "cybershield"
		}
		db := client.Database(name)
		if err := infmongo.EnsureIndexes(ctx, db); err != nil {
			return stores{}, err
		}
		return stores{quizzes: infmongo.NewQuizStore(db), attempts: infmongo.NewAttemptStore(db)}, nil

	default:
		return stores{}, fmt.Errorf("unknown storage driver %q", driver)
	}
}
