package memory

import (
	"sync"

	"notequiz/internal/domain"
)

// ModuleStore is an in-memory implementation of app.ModuleStore.
type ModuleStore struct {
	mu          sync.RWMutex
	modules     []domain.QuizModule
	currentUser string
	loggedIn    bool
}

// NewModuleStore creates a store seeded with modules, kept in the given order.
func NewModuleStore(seed ...domain.QuizModule) *ModuleStore {
	modules := make([]domain.QuizModule, 0, len(seed))
	for _, m := range seed {
		modules = append(modules, m.Clone())
	}
	return &ModuleStore{modules: modules}
}

func (s *ModuleStore) Modules() []domain.QuizModule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizModule, len(s.modules))
	for i, m := range s.modules {
		out[i] = m.Clone()
	}
	return out
}

func (s *ModuleStore) Module(id string) (domain.QuizModule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.modules {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return domain.QuizModule{}, false
}

func (s *ModuleStore) Prepend(module domain.QuizModule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules = append([]domain.QuizModule{module.Clone()}, s.modules...)
}

func (s *ModuleStore) UpdateScore(id string, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.modules {
		if s.modules[i].ID == id {
			if score > s.modules[i].HighScore {
				s.modules[i].HighScore = score
			}
			return
		}
	}
}

func (s *ModuleStore) CurrentUser() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentUser, s.loggedIn
}

func (s *ModuleStore) SetCurrentUser(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = name
	s.loggedIn = true
}

func (s *ModuleStore) ClearCurrentUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = ""
	s.loggedIn = false
}
