package domain

import "time"

// Level bounds for the Leitner boxes.
const (
	MinLevel = 1
	MaxLevel = 3
)

// Card is a single front/back flashcard and its review state.
type Card struct {
	ID           string     `json:"id" validate:"required"`
	DeckID       string     `json:"deckId" validate:"required"`
	Front        string     `json:"front" validate:"required"`
	Back         string     `json:"back" validate:"required"`
	Level        int        `json:"level" validate:"min=1,max=3"`
	CorrectCount int        `json:"correctCount" validate:"min=0"`
	LastReviewed *time.Time `json:"lastReviewed"`
	// NextReview is the zero time for a card that has never been scheduled;
	// such a card is due.
	NextReview time.Time `json:"nextReview"`
	Created    time.Time `json:"created"`
	// SourceHash is set for cards that came from a markdown source.
	SourceHash string `json:"sourceHash,omitempty"`
}

// Deck is a named collection of cards.
type Deck struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
	CardCount   int       `json:"cardCount"`
}

// ReviewLog records a single answer given during a study session.
type ReviewLog struct {
	CardID    string
	Timestamp time.Time
	Correct   bool
	Level     int // level after the answer
}

// Note is a question/answer/context entry parsed from a markdown file.
type Note struct {
	Question string
	Answer   string
	Context  string
	Hash     string
}
