package memory

import (
	"context"

	"notequiz/internal/domain"
)

// ModuleLoader fetches seed modules from a backing catalog (e.g., Postgres).
type ModuleLoader interface {
	LoadModules(ctx context.Context) ([]domain.QuizModule, error)
}

// StaticModuleLoader is a loader backed by a fixed slice (useful for tests/demos).
type StaticModuleLoader struct {
	modules []domain.QuizModule
}

func NewStaticModuleLoader(modules ...domain.QuizModule) *StaticModuleLoader {
	return &StaticModuleLoader{modules: modules}
}

func (l *StaticModuleLoader) LoadModules(_ context.Context) ([]domain.QuizModule, error) {
	out := make([]domain.QuizModule, len(l.modules))
	for i, m := range l.modules {
		out[i] = m.Clone()
	}
	return out, nil
}

// DemoModule is the module available before anything has been generated.
func DemoModule() domain.QuizModule {
	return domain.QuizModule{
		ID:        "1",
		Title:     "Capital Cities",
		Content:   "Demo content about capitals.",
		HighScore: 850,
		Questions: []domain.Question{
			{Question: "What is the capital of France?", Options: []string{"Berlin", "Madrid", "Paris", "Rome"}, Answer: 2},
			{Question: "What is the capital of Japan?", Options: []string{"Beijing", "Seoul", "Bangkok", "Tokyo"}, Answer: 3},
			{Question: "What is the capital of Canada?", Options: []string{"Toronto", "Vancouver", "Ottawa", "Montreal"}, Answer: 2},
		},
	}
}
