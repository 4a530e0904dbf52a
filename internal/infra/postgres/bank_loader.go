package postgres

import (
	"context"
	"errors"
	"fmt"

	"timed-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader loads raw CSV banks from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, bankID string) (string, error) {
	var raw string
	err := l.pool.QueryRow(ctx, `SELECT raw FROM question_banks WHERE id=$1`, bankID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrBankNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load bank: %w", err)
	}
	return raw, nil
}
