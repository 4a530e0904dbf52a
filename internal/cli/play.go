package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
	"timed-quiz-service/internal/quiz"

	"github.com/spf13/cobra"
)

// NewPlayCmd runs a single-player quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		file   string
		bankID string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			if count <= 0 {
				count = cfg.QuestionCount()
			}
			if bankID == "" {
				bankID = cfg.Quiz.BankID
			}
			if bankID == "" {
				bankID = quiz.DefaultBankID
			}

			bank, err := loadPlayBank(cmd.Context(), cfg, bankID, file)
			if err != nil {
				return err
			}
			if err := quiz.CheckBank(bank, count); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			p := newPlayer(cmd.InOrStdin(), cmd.OutOrStdout(), quiz.NewMachine(bank, count, nil))
			return p.run()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV bank to play instead of a stored one")
	cmd.Flags().StringVar(&bankID, "bank", "", "stored bank id (defaults to quiz.bank_id)")
	cmd.Flags().IntVar(&count, "count", 0, "questions per play-through (defaults to quiz.question_count)")
	return cmd
}

func loadPlayBank(ctx context.Context, cfg config.Config, bankID, file string) (domain.Bank, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read bank: %w", err)
		}
		bank := quiz.Parse(string(data))
		if len(bank) == 0 {
			return nil, fmt.Errorf("%s: %w", file, domain.ErrEmptyBank)
		}
		return bank, nil
	}

	loader, cleanup, err := buildBankLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return memory.NewBankRepository(loader, config.DefaultBankTTL).GetBank(ctx, bankID)
}

// player drives a Machine from line-based input. Feedback is held on screen
// by polling Tick at frame cadence, the same way the socket handler does.
type player struct {
	in      *bufio.Scanner
	out     io.Writer
	machine *quiz.Machine
	now     func() time.Time
	sleep   func(time.Duration)
	frame   time.Duration
}

func newPlayer(in io.Reader, out io.Writer, machine *quiz.Machine) *player {
	return &player{
		in:      bufio.NewScanner(in),
		out:     out,
		machine: machine,
		now:     time.Now,
		sleep:   time.Sleep,
		frame:   config.DefaultTickInterval,
	}
}

func (p *player) run() error {
	for {
		switch p.machine.Phase() {
		case domain.PhaseStart:
			fmt.Fprintln(p.out, "Press Enter to start the quiz.")
			if _, ok := p.readLine(); !ok {
				return p.in.Err()
			}
			if !p.machine.Begin() {
				return fmt.Errorf("no questions to play: %w", domain.ErrEmptyBank)
			}

		case domain.PhaseQuiz:
			p.renderQuestion(p.machine.Snapshot())
			line, ok := p.readLine()
			if !ok {
				return p.in.Err()
			}
			if !p.machine.SubmitAnswer(domain.Label(line)) {
				fmt.Fprintln(p.out, "Please enter a letter A-D.")
			}

		case domain.PhaseFeedback:
			if fb := p.machine.Snapshot().Feedback; fb != nil {
				fmt.Fprintln(p.out, fb.Message)
			}
			for !p.machine.Tick(p.now()) {
				p.sleep(p.frame)
			}

		case domain.PhaseResult:
			snap := p.machine.Snapshot()
			if g := snap.Grade; g != nil {
				fmt.Fprintf(p.out, "Score: %d/%d (%d%%)\n%s\n", g.Score, g.Total, g.Percent, g.Message)
			}
			fmt.Fprintln(p.out, "Play again? [y/N]")
			line, ok := p.readLine()
			if !ok || !strings.EqualFold(line, "y") {
				return p.in.Err()
			}
			p.machine.Restart()
		}
	}
}

func (p *player) renderQuestion(snap domain.Snapshot) {
	if snap.Question == nil {
		return
	}
	fmt.Fprintf(p.out, "\nQuestion %d/%d (score %d)\n%s\n", snap.Index+1, snap.Total, snap.Score, snap.Question.Text)
	for _, label := range domain.Labels {
		fmt.Fprintf(p.out, "  %s) %s\n", label, snap.Question.Options[label])
	}
}

func (p *player) readLine() (string, bool) {
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}
