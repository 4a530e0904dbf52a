package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/infra/memory"
	"timed-quiz-service/internal/infra/postgres"
	redisinfra "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/infra/sqlite"

	"github.com/spf13/cobra"
)

// NewSeedCmd stores a CSV bank where the server can load it.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		bankID string
		file   string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store a CSV question bank in Postgres or SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, bankID, file)
		},
	}
	cmd.Flags().StringVar(&bankID, "id", "", "bank id to store under")
	cmd.Flags().StringVar(&file, "file", "", "path to the CSV bank")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, bankID, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read bank: %w", err)
	}
	raw := string(data)

	var stored int
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		stored, err = postgres.NewBankWriter(db).SaveBank(ctx, bankID, raw)
	} else {
		if cfg.SQLite.Path == "" {
			return fmt.Errorf("no bank store configured: set postgres.url or sqlite.path")
		}
		store, openErr := sqlite.Open(ctx, cfg.SQLite.Path)
		if openErr != nil {
			return openErr
		}
		defer store.Close()
		stored, err = store.SaveBank(ctx, bankID, raw)
	}
	if err != nil {
		return err
	}

	if client := newRedisClient(cfg); client != nil {
		defer client.Close()
		repo := redisinfra.NewBankRepository(client, memory.NewStaticBankLoader(nil), time.Minute)
		if err := repo.Invalidate(ctx, bankID); err != nil {
			log.Printf("invalidate cached bank %s: %v", bankID, err)
		}
	}

	log.Printf("stored bank %s with %d questions", bankID, stored)
	return nil
}
