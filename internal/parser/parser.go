// Package parser extracts question/answer notes from markdown files.
//
// A note starts with a "Q:" line, followed by "A:" and an optional "C:"
// (context) line. Each field may continue over several lines. Notes are
// separated by a "---" line or by the next "Q:".
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/leitner/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

type field int

const (
	fieldNone field = iota
	fieldQuestion
	fieldAnswer
	fieldContext
)

type noteBuilder struct {
	notes   []domain.Note
	current domain.Note
	field   field
	block   []string
}

// flushField stores the lines collected for the field being read.
func (b *noteBuilder) flushField() {
	if b.field == fieldNone || len(b.block) == 0 {
		b.block = nil
		return
	}
	content := strings.TrimRight(strings.Join(b.block, "\n"), " \t\n")
	switch b.field {
	case fieldQuestion:
		b.current.Question = content
	case fieldAnswer:
		b.current.Answer = content
	case fieldContext:
		b.current.Context = content
	}
	b.block = nil
}

// finish closes the current note. Notes without a question are dropped.
func (b *noteBuilder) finish() {
	b.flushField()
	if b.current.Question != "" {
		b.notes = append(b.notes, b.current)
	}
	b.current = domain.Note{}
	b.field = fieldNone
}

func (b *noteBuilder) start(f field, rest string) {
	b.flushField()
	if f == fieldQuestion && b.field != fieldNone {
		b.finish()
	}
	b.field = f
	b.block = append(b.block, strings.TrimPrefix(rest, " "))
}

// ParseFile reads the markdown file at path and extracts its notes.
func ParseFile(path string) ([]domain.Note, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	notes, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return notes, nil
}

// Parse extracts all notes from r.
func Parse(r io.Reader) ([]domain.Note, error) {
	scanner := bufio.NewScanner(r)
	var b noteBuilder

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == separator:
			b.finish()
		case strings.HasPrefix(line, questionPrefix):
			b.start(fieldQuestion, line[len(questionPrefix):])
		case strings.HasPrefix(line, answerPrefix):
			b.start(fieldAnswer, line[len(answerPrefix):])
		case strings.HasPrefix(line, contextPrefix):
			b.start(fieldContext, line[len(contextPrefix):])
		case b.field != fieldNone:
			b.block = append(b.block, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	b.finish()
	return b.notes, nil
}
