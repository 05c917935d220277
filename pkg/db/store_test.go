package db

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	return NewStore(openMemory(t))
}

func TestGetOrCreateSentenceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	first, err := s.GetOrCreateSentence(ctx, "The cat sat on the mat.")
	require.NoError(t, err)
	second, err := s.GetOrCreateSentence(ctx, "  The cat sat on the mat.\n")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "The cat sat on the mat.", second.Text)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	n, err := s.Count(ctx, "sentences")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetOrCreateWordIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	id1, err := s.GetOrCreateWord(ctx, "犬")
	require.NoError(t, err)
	id2, err := s.GetOrCreateWord(ctx, "犬")
	require.NoError(t, err)
	other, err := s.GetOrCreateWord(ctx, "猫")
	require.NoError(t, err)

	assert.Equal(t, id1.ID, id2.ID)
	assert.NotEqual(t, id1.ID, other.ID)

	n, err := s.Count(ctx, "words")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGetOrCreateRejectsBlankText(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetOrCreateWord(ctx, "   ")
	assert.Error(t, err)
	_, err = s.GetOrCreateSentence(ctx, "")
	assert.Error(t, err)
}

func TestGetByIDNeverCreates(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetSentence(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetWord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetRawArticle(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetMindmap(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, table := range []string{"sentences", "words", "raw_articles", "mindmaps"} {
		n, err := s.Count(ctx, table)
		require.NoError(t, err)
		assert.Zero(t, n, table)
	}

	w, err := s.GetOrCreateWord(ctx, "dog")
	require.NoError(t, err)
	got, err := s.GetWord(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, got)
}

func TestGetOrCreateRawArticleKeyIsURLAndHTML(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	a, err := s.GetOrCreateRawArticle(ctx, "https://example.com/a", "<p>one</p>")
	require.NoError(t, err)
	b, err := s.GetOrCreateRawArticle(ctx, "https://example.com/a", "<p>one</p>")
	require.NoError(t, err)
	c, err := s.GetOrCreateRawArticle(ctx, "https://example.com/a", "<p>two</p>")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestWordLookupFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	sent, err := s.GetOrCreateSentence(ctx, "I went to the bank.")
	require.NoError(t, err)
	word, err := s.GetOrCreateWord(ctx, "bank")
	require.NoError(t, err)

	_, err = s.GetWordLookup(ctx, sent.ID, word.ID, "ja")
	assert.ErrorIs(t, err, ErrNotFound)

	first := "銀行"
	created, err := s.GetOrCreateWordLookup(ctx, sent.ID, word.ID, &first, "ja")
	require.NoError(t, err)
	require.NotNil(t, created.Text)
	assert.Equal(t, "銀行", *created.Text)

	second := "土手"
	again, err := s.GetOrCreateWordLookup(ctx, sent.ID, word.ID, &second, "ja")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "銀行", *again.Text)

	other, err := s.GetOrCreateWordLookup(ctx, sent.ID, word.ID, nil, "zh")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)
	assert.Nil(t, other.Text)

	cached, err := s.GetWordLookup(ctx, sent.ID, word.ID, "zh")
	require.NoError(t, err)
	assert.Nil(t, cached.Text)
}

func TestWordLookupRequiresExistingReferences(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	text := "x"
	_, err := s.GetOrCreateWordLookup(ctx, "no-sentence", "no-word", &text, "en")
	assert.Error(t, err)
}

func TestMindmapLookupByTextAndLanguage(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetMindmapByTextAndLanguage(ctx, "body", "en")
	assert.ErrorIs(t, err, ErrNotFound)

	m, err := s.GetOrCreateMindmap(ctx, "body", "en", `{"text":"root","children":[]}`)
	require.NoError(t, err)
	again, err := s.GetOrCreateMindmap(ctx, "body", "en", `{"text":"root","children":[]}`)
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)

	got, err := s.GetMindmapByTextAndLanguage(ctx, "body", "en")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = s.GetMindmapByTextAndLanguage(ctx, "body", "ja")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrCreateWordConcurrency(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := s.GetOrCreateWord(ctx, "犬")
			if err != nil {
				t.Errorf("create or get word: %v", err)
				return
			}
			ids[i] = w.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i])
	}
	cnt, err := s.Count(ctx, "words")
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
}

func TestCountRejectsUnknownTable(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Count(context.Background(), "sqlite_master")
	assert.Error(t, err)
}
