package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/quiz"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// QuestionBank is the stored form of a raw CSV bank.
type QuestionBank struct {
	bun.BaseModel `bun:"table:question_banks"`

	ID        string    `bun:"id,pk"`
	Raw       string    `bun:"raw,notnull"`
	Questions int       `bun:"questions,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// BankWriter upserts raw banks so loaders can serve them.
type BankWriter struct {
	db *bun.DB
}

func NewBankWriter(db *bun.DB) *BankWriter {
	return &BankWriter{db: db}
}

// SaveBank validates raw and stores it under bankID, returning the usable question count.
func (w *BankWriter) SaveBank(ctx context.Context, bankID, raw string) (int, error) {
	bank := quiz.Parse(raw)
	if len(bank) == 0 {
		return 0, fmt.Errorf("bank %s: %w", bankID, domain.ErrEmptyBank)
	}

	row := &QuestionBank{
		ID:        bankID,
		Raw:       raw,
		Questions: len(bank),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := w.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("raw = EXCLUDED.raw").
		Set("questions = EXCLUDED.questions").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("save bank: %w", err)
	}
	return len(bank), nil
}
