package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/conorfennell/leitner/internal/leitner"
	"github.com/conorfennell/leitner/internal/storage"
	"github.com/conorfennell/leitner/internal/study"
)

func newStudyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "study <deck>",
		Short: "Review the due cards of a deck",
		Long: `Review the due cards of a deck, lowest level first.

Press Enter to reveal the answer, then y if you knew it or n to see it again
tomorrow. q abandons the session; answers already given are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStudy(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

type studyPrompt struct {
	out     io.Writer
	lines   *bufio.Scanner
	hints   bool
	changed atomic.Bool
	// quietUntil suppresses change notices caused by our own saves.
	quietUntil atomic.Int64
}

func (p *studyPrompt) onChange() {
	if time.Now().UnixNano() > p.quietUntil.Load() {
		p.changed.Store(true)
	}
}

func (p *studyPrompt) ownWrite() {
	p.quietUntil.Store(time.Now().Add(2 * storage.DefaultSettle).UnixNano())
}

// read returns the next trimmed, lowercased input line. ok is false at EOF.
func (p *studyPrompt) read(prompt string) (string, bool) {
	if p.changed.Swap(false) {
		fmt.Fprintln(p.out, "(the collection changed on disk; this session keeps its cards)")
	}
	if p.hints {
		fmt.Fprint(p.out, prompt)
	}
	if !p.lines.Scan() {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(p.lines.Text())), true
}

func (a *app) runStudy(ctx context.Context, out io.Writer, deckRef string) error {
	deck, err := a.catalog.ResolveDeck(ctx, deckRef)
	if err != nil {
		return err
	}
	view, err := a.study.Start(ctx, deck.ID)
	if errors.Is(err, study.ErrEmptyDueSet) {
		fmt.Fprintf(out, "No cards due in %q. Come back later.\n", deck.Name)
		return nil
	}
	if err != nil {
		return err
	}

	p := &studyPrompt{out: out, lines: bufio.NewScanner(a.in), hints: isInteractive(a.in)}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go watchDatabase(watchCtx, a.db.Path(), p.onChange)

	fmt.Fprintf(out, "Studying %q: %d cards due\n", deck.Name, view.Total)
	for view.State != study.Completed {
		card := view.Card
		fmt.Fprintf(out, "\n[%s] %s\nQ: %s\n", view.Progress, leitner.LevelLabel(card.Level), card.Front)

		input, ok := p.read("Enter to reveal, q to quit > ")
		if !ok || input == "q" {
			return a.abandonStudy(out, view)
		}
		if view, err = a.study.Reveal(ctx, view.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "A: %s\n", view.Card.Back)

		var correct bool
		for {
			input, ok = p.read("y = knew it, n = again, q = quit > ")
			if !ok || input == "q" {
				return a.abandonStudy(out, view)
			}
			if input == "y" || input == "n" {
				correct = input == "y"
				break
			}
		}
		p.ownWrite()
		if view, err = a.study.Answer(ctx, view.ID, correct); err != nil {
			return err
		}
	}

	s := view.Summary
	fmt.Fprintf(out, "\nSession complete: %d correct, %d to review again (%d%%) in %s\n",
		s.Correct, s.Incorrect, s.Percentage, s.Elapsed.Round(time.Second))
	return nil
}

func (a *app) abandonStudy(out io.Writer, view *study.View) error {
	if err := a.study.Abandon(view.ID); err != nil {
		return err
	}
	answered := view.Stats.Correct + view.Stats.Incorrect
	fmt.Fprintf(out, "\nSession abandoned after %d of %d cards.\n", answered, view.Total)
	return nil
}

func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
