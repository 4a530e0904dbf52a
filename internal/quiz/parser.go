package quiz

import (
	"strings"

	"timed-quiz-service/internal/domain"
)

// fieldsPerRecord is question text, four options, answer letter.
const fieldsPerRecord = 6

// Parse turns raw CSV bank text into validated questions.
// Malformed records are dropped; Parse never fails.
func Parse(raw string) domain.Bank {
	bank, _ := ParseReport(raw)
	return bank
}

// ParseReport is Parse plus the number of non-blank records that were dropped.
func ParseReport(raw string) (domain.Bank, int) {
	lines := strings.Split(raw, "\n")
	bank := make(domain.Bank, 0, len(lines))
	dropped := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		question, ok := parseRecord(line)
		if !ok {
			dropped++
			continue
		}
		bank = append(bank, question)
	}
	return bank, dropped
}

func parseRecord(line string) (domain.Question, bool) {
	fields, ok := splitFields(line)
	if !ok || len(fields) != fieldsPerRecord {
		return domain.Question{}, false
	}

	answer := domain.Label(strings.ToUpper(fields[5]))
	if !answer.Valid() {
		return domain.Question{}, false
	}

	options := make(map[domain.Label]string, len(domain.Labels))
	for i, label := range domain.Labels {
		options[label] = fields[i+1]
	}
	return domain.Question{
		Text:    fields[0],
		Options: options,
		Correct: answer,
	}, true
}

// splitFields breaks one line into trimmed fields. Whitespace is allowed
// around delimiters. Inside a quoted field a doubled quote is a literal
// quote, and a quote that is not followed by a delimiter or the end of the
// line is kept as text. A quoted field that never closes is malformed.
func splitFields(line string) ([]string, bool) {
	var fields []string
	i := 0
	for {
		i = skipSpace(line, i)
		if i < len(line) && line[i] == '"' {
			field, next, ok := readQuoted(line, i+1)
			if !ok {
				return nil, false
			}
			fields = append(fields, strings.TrimSpace(field))
			i = next
		} else {
			end := strings.IndexByte(line[i:], ',')
			if end < 0 {
				end = len(line) - i
			}
			fields = append(fields, strings.TrimSpace(line[i:i+end]))
			i += end
		}

		if i >= len(line) {
			return fields, true
		}
		// line[i] is the delimiter.
		i++
	}
}

// readQuoted reads from just after an opening quote and returns the field
// content and the index of the delimiter (or len(line)) that follows it.
func readQuoted(line string, i int) (string, int, bool) {
	var b strings.Builder
	for i < len(line) {
		c := line[i]
		if c != '"' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(line) && line[i+1] == '"' {
			b.WriteByte('"')
			i += 2
			continue
		}
		next := skipSpace(line, i+1)
		if next >= len(line) || line[next] == ',' {
			return b.String(), next, true
		}
		b.WriteByte(c)
		i++
	}
	return "", 0, false
}

func skipSpace(line string, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}

// NormalizeLabel trims and upper-cases a clicked or typed label.
// The result may still be invalid; check with Label.Valid.
func NormalizeLabel(raw string) domain.Label {
	return domain.Label(strings.ToUpper(strings.TrimSpace(raw)))
}
