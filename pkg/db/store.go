package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by lookups that match no row. Lookups never create.
var ErrNotFound = errors.New("db: not found")

// Store is the content-addressed store: every entity's identity is derived
// from its natural key, and GetOrCreate* is an atomic insert-or-fetch backed
// by the table's unique constraint, so concurrent callers converge on one row.
type Store struct {
	db sqlx.ExtContext
}

// NewStore wraps a *sqlx.DB or *sqlx.Tx.
func NewStore(db sqlx.ExtContext) *Store {
	return &Store{db: db}
}

// now is truncated so values round-trip through SQLite unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// getOrInsert is the shared insert-or-fetch: select by natural key, insert
// with ON CONFLICT DO NOTHING when absent, then select again so a row written
// by a concurrent caller wins.
func (s *Store) getOrInsert(ctx context.Context, dest any, selectQ string, selectArgs []any, insertQ string, insertArgs []any) error {
	err := sqlx.GetContext(ctx, s.db, dest, selectQ, selectArgs...)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertQ, insertArgs...); err != nil {
		return err
	}
	return sqlx.GetContext(ctx, s.db, dest, selectQ, selectArgs...)
}

func (s *Store) getOne(ctx context.Context, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, s.db, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// GetOrCreateSentence returns the sentence with the given trimmed text, creating it if needed.
func (s *Store) GetOrCreateSentence(ctx context.Context, text string) (Sentence, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Sentence{}, fmt.Errorf("sentence text must be non-empty")
	}
	var out Sentence
	err := s.getOrInsert(ctx, &out,
		`SELECT id, text, created_at FROM sentences WHERE text = ?`, []any{trimmed},
		`INSERT INTO sentences (id, text, created_at) VALUES (?, ?, ?) ON CONFLICT(text) DO NOTHING`,
		[]any{uuid.NewString(), trimmed, now()},
	)
	if err != nil {
		return Sentence{}, fmt.Errorf("get or create sentence: %w", err)
	}
	return out, nil
}

func (s *Store) GetSentence(ctx context.Context, id string) (Sentence, error) {
	var out Sentence
	if err := s.getOne(ctx, &out, `SELECT id, text, created_at FROM sentences WHERE id = ?`, id); err != nil {
		return Sentence{}, err
	}
	return out, nil
}

// GetOrCreateWord returns the word with the given trimmed text, creating it if needed.
func (s *Store) GetOrCreateWord(ctx context.Context, text string) (Word, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Word{}, fmt.Errorf("word must be non-empty")
	}
	var out Word
	err := s.getOrInsert(ctx, &out,
		`SELECT id, text, created_at FROM words WHERE text = ?`, []any{trimmed},
		`INSERT INTO words (id, text, created_at) VALUES (?, ?, ?) ON CONFLICT(text) DO NOTHING`,
		[]any{uuid.NewString(), trimmed, now()},
	)
	if err != nil {
		return Word{}, fmt.Errorf("get or create word: %w", err)
	}
	return out, nil
}

func (s *Store) GetWord(ctx context.Context, id string) (Word, error) {
	var out Word
	if err := s.getOne(ctx, &out, `SELECT id, text, created_at FROM words WHERE id = ?`, id); err != nil {
		return Word{}, err
	}
	return out, nil
}

// GetOrCreateRawArticle returns the article stored for exactly this (url, rawHTML) pair.
func (s *Store) GetOrCreateRawArticle(ctx context.Context, url, rawHTML string) (RawArticle, error) {
	var out RawArticle
	err := s.getOrInsert(ctx, &out,
		`SELECT id, url, raw_html, created_at FROM raw_articles WHERE url = ? AND raw_html = ?`, []any{url, rawHTML},
		`INSERT INTO raw_articles (id, url, raw_html, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(url, raw_html) DO NOTHING`,
		[]any{uuid.NewString(), url, rawHTML, now()},
	)
	if err != nil {
		return RawArticle{}, fmt.Errorf("get or create raw article: %w", err)
	}
	return out, nil
}

func (s *Store) GetRawArticle(ctx context.Context, id string) (RawArticle, error) {
	var out RawArticle
	if err := s.getOne(ctx, &out, `SELECT id, url, raw_html, created_at FROM raw_articles WHERE id = ?`, id); err != nil {
		return RawArticle{}, err
	}
	return out, nil
}

// GetOrCreateWordLookup stores text for (sentenceID, wordID, language) unless a
// row already exists, in which case the existing row is returned unchanged.
// The referenced sentence and word must already exist.
func (s *Store) GetOrCreateWordLookup(ctx context.Context, sentenceID, wordID string, text *string, language string) (WordLookup, error) {
	var out WordLookup
	err := s.getOrInsert(ctx, &out,
		`SELECT id, sentence_id, word_id, language, text, created_at FROM word_lookups
		 WHERE sentence_id = ? AND word_id = ? AND language = ?`, []any{sentenceID, wordID, language},
		`INSERT INTO word_lookups (id, sentence_id, word_id, language, text, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sentence_id, word_id, language) DO NOTHING`,
		[]any{uuid.NewString(), sentenceID, wordID, language, text, now()},
	)
	if err != nil {
		return WordLookup{}, fmt.Errorf("get or create word lookup: %w", err)
	}
	return out, nil
}

// GetWordLookup returns the cached lookup for the triple or ErrNotFound.
func (s *Store) GetWordLookup(ctx context.Context, sentenceID, wordID, language string) (WordLookup, error) {
	var out WordLookup
	err := s.getOne(ctx, &out,
		`SELECT id, sentence_id, word_id, language, text, created_at FROM word_lookups
		 WHERE sentence_id = ? AND word_id = ? AND language = ?`, sentenceID, wordID, language)
	if err != nil {
		return WordLookup{}, err
	}
	return out, nil
}

// GetOrCreateMindmap stores the tree JSON for (text, language, data).
func (s *Store) GetOrCreateMindmap(ctx context.Context, text, language, data string) (Mindmap, error) {
	var out Mindmap
	err := s.getOrInsert(ctx, &out,
		`SELECT id, text, language, data, created_at FROM mindmaps WHERE text = ? AND language = ? AND data = ?`,
		[]any{text, language, data},
		`INSERT INTO mindmaps (id, text, language, data, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(text, language, data) DO NOTHING`,
		[]any{uuid.NewString(), text, language, data, now()},
	)
	if err != nil {
		return Mindmap{}, fmt.Errorf("get or create mindmap: %w", err)
	}
	return out, nil
}

// GetMindmapByTextAndLanguage returns the earliest mindmap cached for the pair.
func (s *Store) GetMindmapByTextAndLanguage(ctx context.Context, text, language string) (Mindmap, error) {
	var out Mindmap
	err := s.getOne(ctx, &out,
		`SELECT id, text, language, data, created_at FROM mindmaps
		 WHERE text = ? AND language = ? ORDER BY created_at, id LIMIT 1`, text, language)
	if err != nil {
		return Mindmap{}, err
	}
	return out, nil
}

func (s *Store) GetMindmap(ctx context.Context, id string) (Mindmap, error) {
	var out Mindmap
	if err := s.getOne(ctx, &out, `SELECT id, text, language, data, created_at FROM mindmaps WHERE id = ?`, id); err != nil {
		return Mindmap{}, err
	}
	return out, nil
}

// Count returns the number of rows in one of the store's tables.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	switch table {
	case "raw_articles", "sentences", "words", "word_lookups", "mindmaps":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := sqlx.GetContext(ctx, s.db, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, err
	}
	return n, nil
}
