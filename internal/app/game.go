package app

import (
	"sync"
	"time"

	"notequiz/internal/domain"
)

const (
	// DefaultQuestionTime is the countdown length of every question, in ticks.
	DefaultQuestionTime = 15
	// DefaultTick is the countdown granularity.
	DefaultTick = time.Second

	BasePoints   = 1000
	MaxTimeBonus = 500
)

// Ticker is the part of *time.Ticker the countdown depends on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// GameConfig tunes a GameSession. Zero values fall back to the defaults.
type GameConfig struct {
	QuestionTime int
	Tick         time.Duration
	NewTicker    func(time.Duration) Ticker
	// OnComplete receives the final result exactly once, outside the session lock.
	OnComplete func(domain.SessionResult)
}

// Points is the award for a correct answer with timeLeft of questionTime remaining.
func Points(timeLeft, questionTime int) int {
	if questionTime <= 0 {
		return BasePoints
	}
	if timeLeft < 0 {
		timeLeft = 0
	}
	if timeLeft > questionTime {
		timeLeft = questionTime
	}
	return BasePoints + timeLeft*MaxTimeBonus/questionTime
}

// GameSession is one timed play-through of a module.
//
// Each question runs in its own countdown round. Leaving the Active phase closes the
// round's stop channel, and ticks carrying an older round are discarded under the lock,
// so an answered or timed-out question never sees a late tick.
type GameSession struct {
	module       domain.QuizModule
	questionTime int
	tick         time.Duration
	newTicker    func(time.Duration) Ticker
	onComplete   func(domain.SessionResult)

	mu          sync.Mutex
	index       int
	score       int
	timeLeft    int
	phase       domain.Phase
	selected    *int
	points      int
	round       uint64
	stop        chan struct{}
	closed      bool
	abandoned   bool
	result      *domain.SessionResult
	subscribers map[chan domain.SessionState]struct{}
}

// NewGameSession starts a session on the first question with its countdown running.
func NewGameSession(module domain.QuizModule, cfg GameConfig) (*GameSession, error) {
	if err := ValidateQuestions(module.Questions); err != nil {
		return nil, err
	}
	if cfg.QuestionTime <= 0 {
		cfg.QuestionTime = DefaultQuestionTime
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}

	s := &GameSession{
		module:       module.Clone(),
		questionTime: cfg.QuestionTime,
		tick:         cfg.Tick,
		newTicker:    cfg.NewTicker,
		onComplete:   cfg.OnComplete,
		subscribers:  make(map[chan domain.SessionState]struct{}),
	}

	s.mu.Lock()
	s.beginQuestionLocked(0)
	s.mu.Unlock()
	return s, nil
}

// State returns the current snapshot.
func (s *GameSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Result returns the final result once the session is complete.
func (s *GameSession) Result() (domain.SessionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.SessionResult{}, false
	}
	return *s.result, true
}

// Answer selects an option for the current question. Selections made while feedback is
// shown are ignored and return the unchanged state.
func (s *GameSession) Answer(option int) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.phase == domain.PhaseComplete:
		return s.snapshotLocked(), domain.ErrSessionComplete
	case s.abandoned:
		return s.snapshotLocked(), domain.ErrSessionClosed
	case s.phase == domain.PhaseFeedback:
		return s.snapshotLocked(), nil
	}

	question := s.module.Questions[s.index]
	if option < 0 || option >= len(question.Options) {
		return s.snapshotLocked(), domain.ErrOptionNotFound
	}

	s.stopCountdownLocked()
	selected := option
	s.selected = &selected
	s.points = 0
	if option == question.Answer {
		s.points = Points(s.timeLeft, s.questionTime)
		s.score += s.points
	}
	s.phase = domain.PhaseFeedback
	return s.broadcastLocked(), nil
}

// Continue leaves the feedback of the current question: it starts the next question or,
// after the last one, completes the session and emits the result.
func (s *GameSession) Continue() (domain.SessionState, error) {
	s.mu.Lock()

	switch {
	case s.phase == domain.PhaseComplete:
		state := s.snapshotLocked()
		s.mu.Unlock()
		return state, domain.ErrSessionComplete
	case s.abandoned:
		state := s.snapshotLocked()
		s.mu.Unlock()
		return state, domain.ErrSessionClosed
	case s.phase == domain.PhaseActive:
		state := s.snapshotLocked()
		s.mu.Unlock()
		return state, domain.ErrAnswerPending
	}

	if s.index < len(s.module.Questions)-1 {
		s.beginQuestionLocked(s.index + 1)
		state := s.snapshotLocked()
		s.mu.Unlock()
		return state, nil
	}

	s.stopCountdownLocked()
	s.phase = domain.PhaseComplete
	result := domain.SessionResult{
		ModuleID: s.module.ID,
		Score:    s.score,
		Total:    len(s.module.Questions),
	}
	s.result = &result
	state := s.broadcastLocked()
	s.closeSubscribersLocked()
	onComplete := s.onComplete
	s.mu.Unlock()

	if onComplete != nil {
		onComplete(result)
	}
	return state, nil
}

// Close abandons the session and stops its countdown. Later answers or continues fail
// with domain.ErrSessionClosed; on a completed session Close only ends subscriptions.
func (s *GameSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandoned = true
	s.stopCountdownLocked()
	s.closeSubscribersLocked()
}

// Subscribe returns a channel that receives a snapshot on every state change, starting
// with the current one. The channel is closed when the session completes or is closed.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameSession) Subscribe() (<-chan domain.SessionState, func()) {
	ch := make(chan domain.SessionState, 8)

	s.mu.Lock()
	ch <- s.snapshotLocked()
	if s.closed {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *GameSession) beginQuestionLocked(index int) {
	s.index = index
	s.timeLeft = s.questionTime
	s.phase = domain.PhaseActive
	s.selected = nil
	s.points = 0
	s.startCountdownLocked()
	s.broadcastLocked()
}

func (s *GameSession) startCountdownLocked() {
	s.stopCountdownLocked()
	s.round++
	stop := make(chan struct{})
	s.stop = stop
	go s.runCountdown(s.round, s.newTicker(s.tick), stop)
}

func (s *GameSession) stopCountdownLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *GameSession) runCountdown(round uint64, t Ticker, stop <-chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if !s.onTick(round) {
				return
			}
		}
	}
}

// onTick applies one countdown tick for round and reports whether the round is still live.
func (s *GameSession) onTick(round uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if round != s.round || s.phase != domain.PhaseActive {
		return false
	}

	s.timeLeft--
	if s.timeLeft > 0 {
		s.broadcastLocked()
		return true
	}

	s.timeLeft = 0
	s.stopCountdownLocked()
	s.selected = nil
	s.points = 0
	s.phase = domain.PhaseFeedback
	s.broadcastLocked()
	return false
}

func (s *GameSession) closeSubscribersLocked() {
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *GameSession) broadcastLocked() domain.SessionState {
	state := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// drop the oldest update so a slow reader never blocks the countdown
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
	return state
}

func (s *GameSession) snapshotLocked() domain.SessionState {
	question := s.module.Questions[s.index]
	state := domain.SessionState{
		ModuleID:       s.module.ID,
		Phase:          s.phase,
		QuestionIndex:  s.index,
		TotalQuestions: len(s.module.Questions),
		Prompt:         question.Question,
		Options:        append([]string(nil), question.Options...),
		Score:          s.score,
		TimeLeft:       s.timeLeft,
		FeedbackShown:  s.phase != domain.PhaseActive,
		Points:         s.points,
		IsLastQuestion: s.index == len(s.module.Questions)-1,
	}
	if s.selected != nil {
		selected := *s.selected
		state.Selected = &selected
		state.Correct = selected == question.Answer
	}
	if state.FeedbackShown {
		answer := question.Answer
		state.CorrectAnswer = &answer
	}
	return state
}
