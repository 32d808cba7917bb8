package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"notequiz/internal/domain"
)

// Completer sends one structured prompt to the generation service and returns the raw
// response text. Implementations must constrain the response to the question schema.
type Completer interface {
	Complete(ctx context.Context, prompt domain.GenerationPrompt) (string, error)
}

// QuestionCache keeps validated question sets keyed by prompt fingerprint.
type QuestionCache interface {
	Get(ctx context.Context, key string) ([]domain.Question, bool)
	Put(ctx context.Context, key string, questions []domain.Question)
}

// Generator turns study material into a stored QuizModule.
type Generator struct {
	completer Completer
	store     ModuleStore
	cache     QuestionCache
	timeout   time.Duration
	newID     func() (string, error)
	sf        singleflight.Group
}

type GeneratorOption func(*Generator)

// WithQuestionCache enables reuse of validated question sets for identical prompts.
func WithQuestionCache(cache QuestionCache) GeneratorOption {
	return func(g *Generator) { g.cache = cache }
}

// WithTimeout bounds the upstream call.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.timeout = d }
}

// WithIDSource replaces the module id source (tests).
func WithIDSource(fn func() (string, error)) GeneratorOption {
	return func(g *Generator) { g.newID = fn }
}

func NewGenerator(completer Completer, store ModuleStore, opts ...GeneratorOption) *Generator {
	g := &Generator{
		completer: completer,
		store:     store,
		newID:     newModuleID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a module from req and prepends it to the store. Callers must supply a
// title and at least one of text or images. On any failure the store is left untouched and
// the returned error matches domain.ErrGeneration.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.QuizModule, error) {
	prompt := BuildPrompt(req.Text, req.Images, req.QuestionCount)

	questions, err := g.questions(ctx, prompt)
	if err != nil {
		return domain.QuizModule{}, err
	}

	id, err := g.newID()
	if err != nil {
		return domain.QuizModule{}, fmt.Errorf("generate module id: %w", err)
	}

	module := domain.QuizModule{
		ID:        id,
		Title:     req.Title,
		Content:   ContentPreview(req.Text, len(req.Images)),
		Questions: questions,
		HighScore: 0,
	}.Clone()

	g.store.Prepend(module)
	return module.Clone(), nil
}

// questions resolves the prompt through the cache, collapsing identical in-flight calls.
// The shared call is detached from any single caller's cancellation and bounded by the
// generator timeout; each caller still stops waiting when its own ctx ends.
func (g *Generator) questions(ctx context.Context, prompt domain.GenerationPrompt) ([]domain.Question, error) {
	key := prompt.Fingerprint()
	if g.cache != nil {
		if qs, ok := g.cache.Get(ctx, key); ok {
			return qs, nil
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := g.sf.DoChan(key, func() (interface{}, error) {
		callCtx := shared
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(shared, g.timeout)
			defer cancel()
		}

		raw, err := g.completer.Complete(callCtx, prompt)
		if err != nil {
			var genErr *domain.GenerationError
			if errors.As(err, &genErr) {
				return nil, err
			}
			return nil, &domain.GenerationError{Stage: domain.StageRequest, Err: err}
		}

		qs, err := ParseQuestions(raw)
		if err != nil {
			return nil, err
		}
		if g.cache != nil {
			g.cache.Put(shared, key, qs)
		}
		return qs, nil
	})

	select {
	case <-ctx.Done():
		return nil, &domain.GenerationError{Stage: domain.StageRequest, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Question), nil
	}
}

func newModuleID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
