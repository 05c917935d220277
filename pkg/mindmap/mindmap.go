// Package mindmap summarizes an article into a tree of short phrases and
// caches the tree by (article text, language).
package mindmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/japaniel/lector/pkg/apperr"
	"github.com/japaniel/lector/pkg/db"
	"github.com/japaniel/lector/pkg/extract"
	"github.com/japaniel/lector/pkg/llm"
	"github.com/japaniel/lector/pkg/logger"
	"github.com/japaniel/lector/pkg/nlp"
)

const systemPrompt = `You are a hierarchical knowledge decomposition assistant.
Your task:
- Read an input text.
- Produce a structured mindmap that organizes the key ideas into a tree.
- Output MUST be a valid JSON object following the node schema.
- Each node contains:
  - "text": a short phrase summarizing the concept.
  - "children": a list of subtopics.
- Keep the structure concise but meaningful.
- All node texts must be in the target language: %s.`

const userPrompt = `Input text:
%s

Generate a mindmap describing the structure of this content.`

// Node is one concept of the tree.
type Node struct {
	Text     string `json:"text" yaml:"text"`
	Children []Node `json:"children" yaml:"children,omitempty"`
}

// NodeSchema is the recursive JSON Schema of Node.
var NodeSchema = llm.Schema{
	Name: "mind_node",
	Schema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "text": {"type": "string"},
    "children": {"type": "array", "items": {"$ref": "#"}}
  },
  "required": ["text", "children"],
  "additionalProperties": false
}`),
}

// Mindmap is a cached tree.
type Mindmap struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Root     Node   `json:"data"`
}

type Store interface {
	GetRawArticle(ctx context.Context, id string) (db.RawArticle, error)
	GetMindmapByTextAndLanguage(ctx context.Context, text, language string) (db.Mindmap, error)
	GetOrCreateMindmap(ctx context.Context, text, language, data string) (db.Mindmap, error)
}

type Extractor interface {
	Extract(rawHTML, pageURL string) (*extract.Article, error)
}

type Service struct {
	store           Store
	extractor       Extractor
	gateway         llm.Gateway
	tier            llm.Tier
	defaultLanguage string
	log             *logger.Logger
}

func NewService(store Store, extractor Extractor, gateway llm.Gateway, tier llm.Tier, defaultLanguage string, log *logger.Logger) *Service {
	if tier == "" {
		tier = llm.TierSpeed
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:           store,
		extractor:       extractor,
		gateway:         gateway,
		tier:            tier,
		defaultLanguage: defaultLanguage,
		log:             log,
	}
}

// GetMindmap returns the mindmap of a stored raw article in language,
// generating and caching it on a miss. Every failure is returned.
func (s *Service) GetMindmap(ctx context.Context, rawArticleID, language string) (*Mindmap, error) {
	if language == "" {
		language = s.defaultLanguage
	}
	language = nlp.NormalizeLanguage(language)

	raw, err := s.store.GetRawArticle(ctx, rawArticleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "article %q", rawArticleID)
		}
		return nil, fmt.Errorf("GetRawArticle > %w", err)
	}
	article, err := s.extractor.Extract(raw.RawHTML, raw.URL)
	if err != nil {
		return nil, err
	}
	text := article.PlainText()

	cached, err := s.store.GetMindmapByTextAndLanguage(ctx, text, language)
	if err == nil {
		s.log.Debug("mindmap cache hit", "article_id", rawArticleID, "language", language)
		return decode(cached)
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("GetMindmapByTextAndLanguage > %w", err)
	}
	s.log.Debug("mindmap cache miss", "article_id", rawArticleID, "language", language)

	root, err := s.generate(ctx, text, language)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal > %w", err)
	}
	stored, err := s.store.GetOrCreateMindmap(ctx, text, language, string(data))
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateMindmap > %w", err)
	}
	s.log.Info("mindmap generated", "article_id", rawArticleID, "language", language, "nodes", root.size())
	return decode(stored)
}

func (s *Service) generate(ctx context.Context, text, language string) (Node, error) {
	out, err := s.gateway.CompleteJSON(ctx, s.tier,
		fmt.Sprintf(systemPrompt, language),
		fmt.Sprintf(userPrompt, text),
		NodeSchema,
	)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.New(apperr.LLMInvocationFailed, err)
		}
		return Node{}, err
	}
	var root Node
	if err := json.Unmarshal(out, &root); err != nil {
		return Node{}, apperr.Newf(apperr.LLMInvocationFailed, "decode mindmap: %w", err)
	}
	if strings.TrimSpace(root.Text) == "" {
		return Node{}, apperr.Newf(apperr.LLMInvocationFailed, "mindmap has an empty root")
	}
	return root.normalize(), nil
}

func decode(m db.Mindmap) (*Mindmap, error) {
	var root Node
	if err := json.Unmarshal([]byte(m.Data), &root); err != nil {
		return nil, fmt.Errorf("decode stored mindmap %s: %w", m.ID, err)
	}
	return &Mindmap{ID: m.ID, Language: m.Language, Root: root.normalize()}, nil
}

// normalize trims texts and replaces nil child lists with empty ones, so the
// stored JSON is stable.
func (n Node) normalize() Node {
	out := Node{Text: strings.TrimSpace(n.Text), Children: make([]Node, 0, len(n.Children))}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.normalize())
	}
	return out
}

func (n Node) size() int {
	total := 1
	for _, c := range n.Children {
		total += c.size()
	}
	return total
}
