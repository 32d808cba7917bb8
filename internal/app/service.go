package app

import (
	"context"
	"fmt"
	"strings"

	"notequiz/internal/domain"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
)

// ModuleStore abstracts the process-wide module collection and current user.
type ModuleStore interface {
	// Modules lists all modules, newest first.
	Modules() []domain.QuizModule
	Module(id string) (domain.QuizModule, bool)
	Prepend(module domain.QuizModule)
	// UpdateScore raises the module's high score to score if it is higher. Unknown ids are ignored.
	UpdateScore(id string, score int)
	CurrentUser() (string, bool)
	SetCurrentUser(name string)
	ClearCurrentUser()
}

// Service contains the quiz use cases exposed to the transport and CLI.
type Service struct {
	store     ModuleStore
	generator *Generator
	game      GameConfig
	defaultQs int
	maxQs     int
}

type ServiceOption func(*Service)

// WithGameConfig sets the countdown settings of sessions started by the service.
func WithGameConfig(cfg GameConfig) ServiceOption {
	return func(s *Service) { s.game = cfg }
}

// WithQuestionLimits sets the default and maximum question count of a generation request.
func WithQuestionLimits(defaultCount, maxCount int) ServiceOption {
	return func(s *Service) {
		if defaultCount > 0 {
			s.defaultQs = defaultCount
		}
		if maxCount > 0 {
			s.maxQs = maxCount
		}
	}
}

func NewService(store ModuleStore, generator *Generator, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		generator: generator,
		defaultQs: DefaultQuestionCount,
		maxQs:     MaxQuestionCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultQs > s.maxQs {
		s.defaultQs = s.maxQs
	}
	return s
}

// Login sets the current user.
func (s *Service) Login(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrEmptyUsername
	}
	s.store.SetCurrentUser(name)
	return name, nil
}

func (s *Service) Logout() {
	s.store.ClearCurrentUser()
}

func (s *Service) CurrentUser() (string, error) {
	name, ok := s.store.CurrentUser()
	if !ok {
		return "", domain.ErrNotLoggedIn
	}
	return name, nil
}

// Modules lists all modules, newest first.
func (s *Service) Modules() []domain.QuizModule {
	return s.store.Modules()
}

func (s *Service) Module(id string) (domain.QuizModule, error) {
	module, ok := s.store.Module(id)
	if !ok {
		return domain.QuizModule{}, domain.ErrModuleNotFound
	}
	return module, nil
}

// Generate checks the request preconditions and runs the generation pipeline.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (domain.QuizModule, error) {
	if _, ok := s.store.CurrentUser(); !ok {
		return domain.QuizModule{}, domain.ErrNotLoggedIn
	}
	req, err := s.normalize(req)
	if err != nil {
		return domain.QuizModule{}, err
	}
	return s.generator.Generate(ctx, req)
}

func (s *Service) normalize(req domain.GenerationRequest) (domain.GenerationRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return req, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Images) == 0 {
		return req, fmt.Errorf("%w: text or images are required", domain.ErrInvalidRequest)
	}
	for i, img := range req.Images {
		if img.Data == "" || img.MimeType == "" {
			return req, fmt.Errorf("%w: image %d is missing data or mime type", domain.ErrInvalidRequest, i)
		}
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = s.defaultQs
	}
	if req.QuestionCount < 0 || req.QuestionCount > s.maxQs {
		return req, fmt.Errorf("%w: question count must be between 1 and %d", domain.ErrInvalidRequest, s.maxQs)
	}
	return req, nil
}

// RecordScore applies a finished session's score to the module's high score.
func (s *Service) RecordScore(moduleID string, score int) (domain.QuizModule, bool) {
	s.store.UpdateScore(moduleID, score)
	return s.store.Module(moduleID)
}

// StartGame starts a session for the module. The session's result is recorded as a high
// score candidate before onComplete runs.
func (s *Service) StartGame(moduleID string, onComplete func(domain.SessionResult)) (*GameSession, error) {
	module, ok := s.store.Module(moduleID)
	if !ok {
		return nil, domain.ErrModuleNotFound
	}

	cfg := s.game
	cfg.OnComplete = func(result domain.SessionResult) {
		s.RecordScore(result.ModuleID, result.Score)
		if onComplete != nil {
			onComplete(result)
		}
	}
	return NewGameSession(module, cfg)
}
