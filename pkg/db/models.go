package db

import "time"

// RawArticle is a fetched page, deduplicated by (url, raw_html).
type RawArticle struct {
	ID        string    `db:"id"`
	URL       string    `db:"url"`
	RawHTML   string    `db:"raw_html"`
	CreatedAt time.Time `db:"created_at"`
}

// Sentence is deduplicated by its trimmed text.
type Sentence struct {
	ID        string    `db:"id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

// Word is deduplicated by its trimmed surface text.
type Word struct {
	ID        string    `db:"id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

// WordLookup caches the contextual translation of a word within a sentence.
// A nil Text is a recorded negative result, not a missing row.
type WordLookup struct {
	ID         string    `db:"id"`
	SentenceID string    `db:"sentence_id"`
	WordID     string    `db:"word_id"`
	Language   string    `db:"language"`
	Text       *string   `db:"text"`
	CreatedAt  time.Time `db:"created_at"`
}

// Mindmap caches a generated summary tree; Data holds the tree as JSON.
type Mindmap struct {
	ID        string    `db:"id"`
	Text      string    `db:"text"`
	Language  string    `db:"language"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}
