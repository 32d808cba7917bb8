package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"notequiz/internal/app"
	"notequiz/internal/domain"
)

func newPlayCmd(opts *rootOptions) *cobra.Command {
	flags := &materialFlags{}
	var moduleID string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a module in the terminal",
		Long: "Play a timed session in the terminal. With --notes or --image a module is generated first;\n" +
			"otherwise --module selects a seeded module, defaulting to the newest one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if !flags.empty() {
				if flags.notes == "-" {
					return fmt.Errorf("%w: play reads answers from stdin, pass notes as a file", domain.ErrInvalidRequest)
				}
				module, err := generateModule(cmd.Context(), rt.service, flags, nil)
				if err != nil {
					return err
				}
				moduleID = module.ID
			}
			if moduleID == "" {
				modules := rt.service.Modules()
				if len(modules) == 0 {
					return domain.ErrModuleNotFound
				}
				moduleID = modules[0].ID
			}
			return playModule(cmd.Context(), rt.service, moduleID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&moduleID, "module", "", "id of the module to play")
	return cmd
}

// playModule runs one session, reading option numbers and Enter presses from in.
func playModule(ctx context.Context, service *app.Service, moduleID string, in io.Reader, out io.Writer) error {
	done := make(chan domain.SessionResult, 1)
	session, err := service.StartGame(moduleID, func(result domain.SessionResult) {
		done <- result
	})
	if err != nil {
		return err
	}
	defer session.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var last domain.SessionState
	finish := func(result domain.SessionResult) {
		// the subscription is closed before the result is emitted
		if updates != nil {
			for state := range updates {
				render(out, last, state)
				last = state
			}
		}
		fmt.Fprintf(out, "\nFinal score: %d over %d questions\n", result.Score, result.Total)
		if module, err := service.Module(moduleID); err == nil {
			fmt.Fprintf(out, "High score for %q: %d\n", module.Title, module.HighScore)
		}
	}

	for {
		select {
		case state, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			render(out, last, state)
			last = state
		case line, ok := <-lines:
			if !ok {
				select {
				case result := <-done:
					finish(result)
					return nil
				default:
					return errors.New("input closed before the session completed")
				}
			}
			if err := handleInput(session, line); err != nil {
				fmt.Fprintf(out, "  %v\n", err)
			}
		case result := <-done:
			finish(result)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func handleInput(session *app.GameSession, line string) error {
	state := session.State()
	switch state.Phase {
	case domain.PhaseActive:
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(state.Options) {
			return fmt.Errorf("type a number between 1 and %d", len(state.Options))
		}
		_, err = session.Answer(n - 1)
		return err
	case domain.PhaseFeedback:
		_, err := session.Continue()
		return err
	default:
		return nil
	}
}

func render(out io.Writer, last, state domain.SessionState) {
	switch state.Phase {
	case domain.PhaseActive:
		if last.Phase == domain.PhaseActive && last.QuestionIndex == state.QuestionIndex {
			if state.TimeLeft <= 5 && state.TimeLeft != last.TimeLeft {
				fmt.Fprintf(out, "  %ds left\n", state.TimeLeft)
			}
			return
		}
		fmt.Fprintf(out, "\nQuestion %d/%d (score %d)\n%s\n", state.QuestionIndex+1, state.TotalQuestions, state.Score, state.Prompt)
		for i, opt := range state.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}
	case domain.PhaseFeedback:
		if last.Phase == domain.PhaseFeedback && last.QuestionIndex == state.QuestionIndex {
			return
		}
		switch {
		case state.Selected == nil:
			fmt.Fprintln(out, "Time's up!")
		case state.Correct:
			fmt.Fprintf(out, "Correct! +%d\n", state.Points)
		default:
			fmt.Fprintln(out, "Wrong.")
		}
		if state.CorrectAnswer != nil && !state.Correct {
			fmt.Fprintf(out, "The answer was %d) %s\n", *state.CorrectAnswer+1, state.Options[*state.CorrectAnswer])
		}
		if state.IsLastQuestion {
			fmt.Fprintln(out, "Press Enter to see your result.")
		} else {
			fmt.Fprintln(out, "Press Enter to continue.")
		}
	}
}
