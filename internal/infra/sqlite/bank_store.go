package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/quiz"

	_ "modernc.org/sqlite" // driver: sqlite
)

const schema = `
CREATE TABLE IF NOT EXISTS question_banks (
  id TEXT PRIMARY KEY,
  raw TEXT NOT NULL,
  questions INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);`

// BankStore keeps raw CSV banks in a local SQLite file.
type BankStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*BankStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &BankStore{db: db}, nil
}

func (s *BankStore) Close() error {
	return s.db.Close()
}

func (s *BankStore) LoadBank(ctx context.Context, bankID string) (string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT raw FROM question_banks WHERE id = ?`, bankID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrBankNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load bank: %w", err)
	}
	return raw, nil
}

// SaveBank validates raw and upserts it, returning the usable question count.
func (s *BankStore) SaveBank(ctx context.Context, bankID, raw string) (int, error) {
	bank := quiz.Parse(raw)
	if len(bank) == 0 {
		return 0, fmt.Errorf("bank %s: %w", bankID, domain.ErrEmptyBank)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO question_banks (id, raw, questions, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			raw = excluded.raw,
			questions = excluded.questions,
			updated_at = excluded.updated_at`,
		bankID, raw, len(bank), time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("save bank: %w", err)
	}
	return len(bank), nil
}
