package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Question models an MCQ question whose correct choice is Options[Answer].
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// QuizModule is a generated study set. HighScore is the only field mutated after creation.
type QuizModule struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Questions []Question `json:"questions"`
	HighScore int        `json:"highScore"`
}

// Clone returns a copy that shares no slices with m.
func (m QuizModule) Clone() QuizModule {
	out := m
	out.Questions = make([]Question, len(m.Questions))
	for i, q := range m.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}

// ImagePart is an already-decoded image handed to generation. Data is base64.
type ImagePart struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	Name     string `json:"name"`
}

// GenerationRequest is the collaborator-facing input of the generation pipeline.
type GenerationRequest struct {
	Title         string      `json:"title"`
	Text          string      `json:"text"`
	Images        []ImagePart `json:"images"`
	QuestionCount int         `json:"questionCount"`
}

// GenerationPrompt is the single structured request sent upstream.
type GenerationPrompt struct {
	Instruction   string
	Images        []ImagePart
	QuestionCount int
}

// Fingerprint identifies the prompt content; equal prompts share a fingerprint.
func (p GenerationPrompt) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(p.QuestionCount)))
	h.Write([]byte{0})
	h.Write([]byte(p.Instruction))
	for _, img := range p.Images {
		h.Write([]byte{0})
		h.Write([]byte(img.MimeType))
		h.Write([]byte{0})
		h.Write([]byte(img.Data))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Phase is the state of a game session.
type Phase string

const (
	PhaseActive   Phase = "active"
	PhaseFeedback Phase = "feedback"
	PhaseComplete Phase = "complete"
)

// SessionState is a snapshot of a game session, published on every change.
type SessionState struct {
	ModuleID       string   `json:"moduleId"`
	Phase          Phase    `json:"phase"`
	QuestionIndex  int      `json:"questionIndex"`
	TotalQuestions int      `json:"totalQuestions"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	Score          int      `json:"score"`
	TimeLeft       int      `json:"timeLeft"`
	FeedbackShown  bool     `json:"feedbackShown"`
	Selected       *int     `json:"selected"`
	Correct        bool     `json:"correct"`
	CorrectAnswer  *int     `json:"correctAnswer"` // nil until feedback is shown
	Points         int      `json:"points"`
	IsLastQuestion bool     `json:"isLastQuestion"`
}

// SessionResult is emitted once when a session completes.
type SessionResult struct {
	ModuleID string `json:"moduleId"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
}
