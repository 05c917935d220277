// Package lookup translates a word as it is used in one sentence, caching
// each (sentence, word, language) result.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/japaniel/lector/pkg/apperr"
	"github.com/japaniel/lector/pkg/db"
	"github.com/japaniel/lector/pkg/llm"
	"github.com/japaniel/lector/pkg/logger"
	"github.com/japaniel/lector/pkg/nlp"
)

const systemPrompt = `You are a translation disambiguation assistant.
Given:
- a sentence
- a target word from that sentence
- an output language code: %s
Task:
Give the most accurate translation of the target word as it is used in the sentence, taking its contextual meaning into account.
Constraints:
- Output ONLY the translation, no explanations.
- The translation must be written in the language %s.
- Keep the output short: ideally around 20 tokens or fewer.
- Do NOT translate the whole sentence; only the given word in context.`

const userPrompt = "sentence: %s\nword: %s"

// Store is the part of the content-addressed store lookups need.
type Store interface {
	GetSentence(ctx context.Context, id string) (db.Sentence, error)
	GetWord(ctx context.Context, id string) (db.Word, error)
	GetWordLookup(ctx context.Context, sentenceID, wordID, language string) (db.WordLookup, error)
	GetOrCreateWordLookup(ctx context.Context, sentenceID, wordID string, text *string, language string) (db.WordLookup, error)
}

// Request asks for the meaning of WordID inside SentenceID. An empty
// Language means the service default.
type Request struct {
	SentenceID string `json:"sentenceId" binding:"required"`
	WordID     string `json:"wordId" binding:"required"`
	Language   string `json:"language,omitempty"`
}

// Result carries a nil Text when the translation is unavailable.
type Result struct {
	WordID string  `json:"wordId"`
	Text   *string `json:"text"`
}

type Service struct {
	store           Store
	gateway         llm.Gateway
	tier            llm.Tier
	defaultLanguage string
	log             *logger.Logger
}

func NewService(store Store, gateway llm.Gateway, tier llm.Tier, defaultLanguage string, log *logger.Logger) *Service {
	if tier == "" {
		tier = llm.TierSpeed
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:           store,
		gateway:         gateway,
		tier:            tier,
		defaultLanguage: defaultLanguage,
		log:             log,
	}
}

// indexedResult tags a result with its request position.
type indexedResult struct {
	Index  int
	Result Result
}

// LookupBatch resolves all requests concurrently and returns one result per
// request, in request order. A failing item yields a nil text; it never
// fails the batch.
func (s *Service) LookupBatch(ctx context.Context, reqs []Request) []Result {
	s.log.Info("lookup batch", "size", len(reqs))

	resultCh := make(chan indexedResult, len(reqs))
	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			text, err := s.Lookup(ctx, req)
			if err != nil {
				s.log.Warn("lookup failed",
					"sentence_id", req.SentenceID,
					"word_id", req.WordID,
					"error", err,
				)
			}
			resultCh <- indexedResult{Index: i, Result: Result{WordID: req.WordID, Text: text}}
			return nil
		})
	}
	_ = g.Wait()
	close(resultCh)

	results := make([]Result, len(reqs))
	for r := range resultCh {
		results[r.Index] = r.Result
	}
	return results
}

// Lookup returns the cached translation or computes and caches it. A cached
// nil text is a hit. Unknown ids fail with NotFound.
func (s *Service) Lookup(ctx context.Context, req Request) (*string, error) {
	lang := req.Language
	if lang == "" {
		lang = s.defaultLanguage
	}
	lang = nlp.NormalizeLanguage(lang)

	sentence, err := s.store.GetSentence(ctx, req.SentenceID)
	if err != nil {
		return nil, notFound("sentence", req.SentenceID, err)
	}
	word, err := s.store.GetWord(ctx, req.WordID)
	if err != nil {
		return nil, notFound("word", req.WordID, err)
	}

	cached, err := s.store.GetWordLookup(ctx, sentence.ID, word.ID, lang)
	if err == nil {
		s.log.Debug("lookup cache hit", "sentence_id", sentence.ID, "word_id", word.ID, "language", lang)
		return cached.Text, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("GetWordLookup > %w", err)
	}
	s.log.Debug("lookup cache miss", "sentence_id", sentence.ID, "word_id", word.ID, "language", lang)

	text, err := s.gateway.CompleteText(ctx, s.tier,
		fmt.Sprintf(systemPrompt, lang, lang),
		fmt.Sprintf(userPrompt, sentence.Text, word.Text),
	)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.New(apperr.LLMInvocationFailed, err)
		}
		return nil, err
	}

	stored, err := s.store.GetOrCreateWordLookup(ctx, sentence.ID, word.ID, &text, lang)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateWordLookup > %w", err)
	}
	return stored.Text, nil
}

func notFound(what, id string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperr.Newf(apperr.NotFound, "%s %q", what, id)
	}
	return fmt.Errorf("get %s %q > %w", what, id, err)
}
