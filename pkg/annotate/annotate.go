// Package annotate rewrites article HTML so every sentence and word of its
// text is wrapped in identifiable spans:
//
//	<span class="sent" sent-id="…"><span class="word hard-word" word-id="…">…</span> …</span>
//
// Whitespace stays in plain text nodes, so the visible text is unchanged.
package annotate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/japaniel/lector/pkg/db"
	"github.com/japaniel/lector/pkg/logger"
	"github.com/japaniel/lector/pkg/nlp"
)

const (
	SentenceClass  = "sent"
	WordClass      = "word"
	HardWordClass  = "hard-word"
	SentenceIDAttr = "sent-id"
	WordIDAttr     = "word-id"
)

// Store assigns content-derived identities to sentences and words.
type Store interface {
	GetOrCreateSentence(ctx context.Context, text string) (db.Sentence, error)
	GetOrCreateWord(ctx context.Context, text string) (db.Word, error)
}

type Annotator struct {
	tokens nlp.Provider
	store  Store
	log    *logger.Logger
}

func New(tokens nlp.Provider, store Store, log *logger.Logger) *Annotator {
	if log == nil {
		log = logger.Nop()
	}
	return &Annotator{tokens: tokens, store: store, log: log}
}

// IsWordToken reports whether tok is wrapped as a word: alphabetic, or a
// numeral written as a word, and never whitespace, punctuation, a URL, an
// email address or a run of digits.
func IsWordToken(tok nlp.Token) bool {
	numeralWord := tok.PartOfSpeech == "NUM" && !tok.LikeNumber
	return (tok.IsAlpha || numeralWord) &&
		!tok.IsSpace && !tok.IsPunct && !tok.LikeURL && !tok.LikeEmail &&
		!nlp.IsDigits(tok.Text)
}

// skip reports elements whose subtree is left untouched.
func skip(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Pre
}

// run holds the state of one Annotate call.
type run struct {
	*Annotator
	lang      string
	hard      map[string]bool
	sentences map[string]string
	words     map[string]string
	nSent     int
	nWord     int
}

// Annotate wraps the text of contentHTML written in lang. Words whose lemma
// is in hard carry the hard-word class. It returns the annotated inner HTML
// of the document body.
func (a *Annotator) Annotate(ctx context.Context, contentHTML, lang string, hard map[string]bool) (string, error) {
	doc, err := html.Parse(strings.NewReader(contentHTML))
	if err != nil {
		return "", fmt.Errorf("parse content html: %w", err)
	}
	body := findBody(doc)
	if body == nil {
		return "", nil
	}

	r := &run{
		Annotator: a,
		lang:      lang,
		hard:      hard,
		sentences: make(map[string]string),
		words:     make(map[string]string),
	}

	// Depth-first in document order with an explicit stack.
	stack := []*html.Node{body}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Type {
		case html.TextNode:
			if err := r.replaceText(ctx, n); err != nil {
				return "", err
			}
		case html.ElementNode, html.DocumentNode:
			if skip(n) {
				continue
			}
			var children []*html.Node
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				children = append(children, c)
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}

	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("render annotated html: %w", err)
		}
	}
	a.log.Debug("annotated content", "lang", lang, "sentences", r.nSent, "words", r.nWord, "hard_words", len(hard))
	return b.String(), nil
}

// replaceText swaps a text node for its rendered sentences.
func (r *run) replaceText(ctx context.Context, n *html.Node) error {
	if strings.TrimSpace(n.Data) == "" {
		return nil
	}
	sents, err := r.tokens.Tokenize(ctx, n.Data, r.lang)
	if err != nil {
		return err
	}
	parent := n.Parent
	for _, s := range sents {
		node, err := r.renderSentence(ctx, s)
		if err != nil {
			return err
		}
		parent.InsertBefore(node, n)
	}
	parent.RemoveChild(n)
	return nil
}

func (r *run) renderSentence(ctx context.Context, s nlp.Sentence) (*html.Node, error) {
	var sentID string
	if text := strings.TrimSpace(s.Text()); text != "" {
		id, err := r.sentenceID(ctx, text)
		if err != nil {
			return nil, err
		}
		sentID = id
	}

	hasWord := false
	for _, tok := range s.Tokens {
		if IsWordToken(tok) {
			hasWord = true
			break
		}
	}
	if !hasWord {
		return textNode(s.Text()), nil
	}

	span := element(atom.Span, html.Attribute{Key: "class", Val: SentenceClass}, html.Attribute{Key: SentenceIDAttr, Val: sentID})
	for _, tok := range s.Tokens {
		if IsWordToken(tok) {
			w, err := r.wordNode(ctx, tok)
			if err != nil {
				return nil, err
			}
			span.AppendChild(w)
		} else {
			span.AppendChild(textNode(tok.Text))
		}
		if tok.TrailingWhitespace != "" {
			span.AppendChild(textNode(tok.TrailingWhitespace))
		}
	}
	r.nSent++
	return span, nil
}

func (r *run) wordNode(ctx context.Context, tok nlp.Token) (*html.Node, error) {
	id, err := r.wordID(ctx, strings.TrimSpace(tok.Text))
	if err != nil {
		return nil, err
	}
	class := WordClass
	if r.hard[nlp.LemmaOf(tok, r.lang)] {
		class += " " + HardWordClass
	}
	w := element(atom.Span, html.Attribute{Key: "class", Val: class}, html.Attribute{Key: WordIDAttr, Val: id})
	w.AppendChild(textNode(tok.Text))
	r.nWord++
	return w, nil
}

func (r *run) sentenceID(ctx context.Context, text string) (string, error) {
	if id, ok := r.sentences[text]; ok {
		return id, nil
	}
	s, err := r.store.GetOrCreateSentence(ctx, text)
	if err != nil {
		return "", fmt.Errorf("register sentence: %w", err)
	}
	r.sentences[text] = s.ID
	return s.ID, nil
}

func (r *run) wordID(ctx context.Context, text string) (string, error) {
	if id, ok := r.words[text]; ok {
		return id, nil
	}
	w, err := r.store.GetOrCreateWord(ctx, text)
	if err != nil {
		return "", fmt.Errorf("register word: %w", err)
	}
	r.words[text] = w.ID
	return w.ID, nil
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
