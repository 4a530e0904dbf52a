package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrEmptyBank is returned when a bank parses to zero usable questions.
	ErrEmptyBank = errors.New("question bank has no valid questions")
	// ErrInsufficientBank signals a bank smaller than the requested session size.
	// Sessions still open with the questions that are available.
	ErrInsufficientBank = errors.New("question bank smaller than session size")
)
