// Package feedback turns a learner's answer text into grammar,
// pronunciation, vocabulary and answer-quality feedback using an LLM.
package feedback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nikhilbhutani/speakcoach/internal/guardrails"
	"github.com/nikhilbhutani/speakcoach/internal/llm"
	"github.com/nikhilbhutani/speakcoach/internal/prompt"
)

// ErrRejectedInput is returned when learner text looks like an attempt to
// steer the grading prompts.
var ErrRejectedInput = errors.New("answer text rejected")

// maxReplyTokens caps each analyzer reply.
const maxReplyTokens = 1024

// Cache stores analysis results. *cache.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Config tunes a Processor. Empty models fall back to the gateway default.
type Config struct {
	Model            string
	IdealAnswerModel string
	CacheTTL         time.Duration
}

// Processor runs the LLM-backed analyzers.
type Processor struct {
	gateway llm.Gateway
	cache   Cache
	cfg     Config
}

// NewProcessor returns a Processor. cache may be nil.
func NewProcessor(gw llm.Gateway, cache Cache, cfg Config) *Processor {
	if cfg.IdealAnswerModel == "" {
		cfg.IdealAnswerModel = cfg.Model
	}
	return &Processor{gateway: gw, cache: cache, cfg: cfg}
}

// AnalyzeText runs the grammar, pronunciation and vocabulary analyzers
// concurrently. Individual analyzer failures degrade to empty results, so
// the returned error is only non-nil for rejected input or when ctx is
// cancelled. Degraded results are never cached.
func (p *Processor) AnalyzeText(ctx context.Context, text string) (*TextFeedback, error) {
	if err := screen(text); err != nil {
		return nil, err
	}

	key := cacheKey("text", text)
	if p.cache != nil {
		var cached TextFeedback
		if err := p.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	fb := &TextFeedback{Text: text}
	var grammarOK, pronunciationOK, vocabularyOK bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fb.Grammar, grammarOK = p.grammar(gctx, text)
		return nil
	})
	g.Go(func() error {
		fb.Pronunciation, pronunciationOK = p.pronunciation(gctx, text)
		return nil
	})
	g.Go(func() error {
		fb.Vocabulary, vocabularyOK = p.vocabulary(gctx, text)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.cache != nil && grammarOK && pronunciationOK && vocabularyOK {
		if err := p.cache.Set(ctx, key, fb, p.cfg.CacheTTL); err != nil {
			slog.Warn("failed to cache text feedback", "error", err)
		}
	}
	return fb, nil
}

// AnalyzeGrammar returns an empty analysis when the LLM call or its reply
// fails.
func (p *Processor) AnalyzeGrammar(ctx context.Context, text string) GrammarAnalysis {
	out, _ := p.grammar(ctx, text)
	return out
}

func (p *Processor) grammar(ctx context.Context, text string) (GrammarAnalysis, bool) {
	out := GrammarAnalysis{Errors: []GrammarError{}}
	if err := p.ask(ctx, p.cfg.Model, prompt.Grammar, "Analyze this text: "+text, &out); err != nil {
		slog.Warn("grammar analysis failed", "error", err)
		return GrammarAnalysis{Errors: []GrammarError{}}, false
	}
	if out.Errors == nil {
		out.Errors = []GrammarError{}
	}
	return out, true
}

// AnalyzePronunciation returns an empty analysis when the LLM call or its
// reply fails.
func (p *Processor) AnalyzePronunciation(ctx context.Context, text string) PronunciationAnalysis {
	out, _ := p.pronunciation(ctx, text)
	return out
}

func (p *Processor) pronunciation(ctx context.Context, text string) (PronunciationAnalysis, bool) {
	out := PronunciationAnalysis{Errors: []PronunciationError{}}
	if err := p.ask(ctx, p.cfg.Model, prompt.Pronunciation, "Analyze this text: "+text, &out); err != nil {
		slog.Warn("pronunciation analysis failed", "error", err)
		return PronunciationAnalysis{Errors: []PronunciationError{}}, false
	}
	if out.Errors == nil {
		out.Errors = []PronunciationError{}
	}
	return out, true
}

// AnalyzeVocabulary always reports lexical statistics; the LLM part is left
// empty when the call fails.
func (p *Processor) AnalyzeVocabulary(ctx context.Context, text string) VocabularyAnalysis {
	out, _ := p.vocabulary(ctx, text)
	return out
}

func (p *Processor) vocabulary(ctx context.Context, text string) (VocabularyAnalysis, bool) {
	type assessment struct {
		Level         string                 `json:"level"`
		AdvancedWords []string               `json:"advanced_words"`
		Suggestions   []VocabularySuggestion `json:"suggestions"`
	}
	var llmOut assessment
	ok := true
	if err := p.ask(ctx, p.cfg.Model, prompt.Vocabulary, "Analyze this text: "+text, &llmOut); err != nil {
		slog.Warn("vocabulary analysis failed", "error", err)
		llmOut = assessment{}
		ok = false
	}

	count, unique, diversity := lexicalStats(text)
	out := VocabularyAnalysis{
		WordCount:        count,
		UniqueWords:      unique,
		LexicalDiversity: diversity,
		Level:            llmOut.Level,
		AdvancedWords:    llmOut.AdvancedWords,
		Suggestions:      llmOut.Suggestions,
	}
	if out.AdvancedWords == nil {
		out.AdvancedWords = []string{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []VocabularySuggestion{}
	}
	return out, ok
}

// GenerateIdealAnswer asks the LLM for an ideal answer to question and a
// critique of userAnswer.
func (p *Processor) GenerateIdealAnswer(ctx context.Context, question, userAnswer string) (*IdealAnswer, error) {
	if err := screen(userAnswer); err != nil {
		return nil, err
	}

	user, err := prompt.Render(prompt.IdealAnswer, map[string]string{
		"question": question,
		"answer":   userAnswer,
	})
	if err != nil {
		return nil, err
	}

	var out IdealAnswer
	if err := p.ask(ctx, p.cfg.IdealAnswerModel, "", user, &out); err != nil {
		return nil, fmt.Errorf("generate ideal answer: %w", err)
	}
	return &out, nil
}

func (p *Processor) ask(ctx context.Context, model, system, user string, dest any) error {
	msgs := make([]llm.Message, 0, 2)
	if system != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: system})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: user})

	resp, err := p.gateway.Chat(ctx, llm.ChatRequest{
		Model:     model,
		Messages:  msgs,
		MaxTokens: maxReplyTokens,
		JSONMode:  true,
	})
	if err != nil {
		return err
	}
	slog.Debug("feedback llm call",
		"provider", resp.Provider,
		"model", resp.Model,
		"tokens", resp.TotalTokens,
		"cost_usd", resp.CostUSD,
		"latency_ms", resp.LatencyMs,
	)
	return decodeJSON(resp.Content, dest)
}

func screen(text string) error {
	res := guardrails.CheckInjection(text)
	if res.Allowed {
		return nil
	}
	slog.Warn("learner text rejected", "score", res.Score, "flags", res.Flags)
	return fmt.Errorf("%w: %s", ErrRejectedInput, strings.Join(res.Flags, ", "))
}

func cacheKey(kind, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "feedback:" + kind + ":" + hex.EncodeToString(sum[:])
}
