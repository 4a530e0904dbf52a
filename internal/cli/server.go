package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/infra/memory"
	"timed-quiz-service/internal/infra/postgres"
	redisinfra "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/infra/sqlite"
	"timed-quiz-service/internal/quiz"
	transport "timed-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	loader, cleanup, err := buildBankLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	bankTTL := config.TTLDuration(cfg.Quiz.TTL, config.DefaultBankTTL)
	var banks app.BankRepository
	if redisClient != nil {
		banks = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, config.DefaultSessionTTL))
	} else {
		store = memory.NewSessionStore()
	}

	bankID := cfg.Quiz.BankID
	if bankID == "" {
		bankID = quiz.DefaultBankID
	}
	count := cfg.QuestionCount()
	if bank, err := banks.GetBank(ctx, bankID); err != nil {
		log.Printf("default bank %s unavailable: %v", bankID, err)
	} else if err := quiz.CheckBank(bank, count); err != nil {
		log.Printf("default bank %s: %v", bankID, err)
	}

	service := app.NewQuizService(store, banks, count)
	wsHandler := transport.NewWSHandler(service, bankID, config.TTLDuration(cfg.Server.TickInterval, config.DefaultTickInterval))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(banks, wsHandler, count),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildBankLoader chains every configured bank source, falling back to the
// bank compiled into the binary.
func buildBankLoader(ctx context.Context, cfg config.Config) (memory.BankLoader, func(), error) {
	var (
		loaders memory.FallbackLoader
		closers []func()
		cleanup = func() {
			for _, c := range closers {
				c()
			}
		}
	)

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, pool.Close)
		loaders = append(loaders, postgres.NewBankLoader(pool))
	}
	if cfg.SQLite.Path != "" {
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = store.Close() })
		loaders = append(loaders, store)
	}
	if len(cfg.Quiz.BankFiles) > 0 {
		loaders = append(loaders, memory.NewFileBankLoader(cfg.Quiz.BankFiles))
	}
	loaders = append(loaders, memory.NewStaticBankLoader(map[string]string{
		quiz.DefaultBankID: quiz.DefaultBank,
	}))
	return loaders, cleanup, nil
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
