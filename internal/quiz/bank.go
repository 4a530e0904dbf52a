package quiz

import _ "embed"

// DefaultBankID names the bank compiled into the binary.
const DefaultBankID = "default"

// DefaultBank is the raw CSV bank used when no other source is configured.
//
//go:embed default_bank.csv
var DefaultBank string
