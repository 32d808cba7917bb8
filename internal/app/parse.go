package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"notequiz/internal/domain"
)

// rawQuestion is the untrusted shape of one upstream entry. Pointers detect missing fields.
type rawQuestion struct {
	Question *string  `json:"question"`
	Options  []string `json:"options"`
	Answer   *int     `json:"answer"`
}

// ParseQuestions decodes and validates an upstream response. The response is either a JSON
// array of questions or an object wrapping that array under "questions". A single invalid
// entry rejects the whole batch.
func ParseQuestions(raw string) ([]domain.Question, error) {
	body := bytes.TrimSpace([]byte(raw))
	if len(body) == 0 {
		return nil, &domain.GenerationError{Stage: domain.StageParse, Err: errors.New("empty response")}
	}

	var entries []rawQuestion
	if body[0] == '[' {
		if err := decodeStrict(body, &entries); err != nil {
			return nil, &domain.GenerationError{Stage: domain.StageParse, Err: err}
		}
	} else {
		var wrapped struct {
			Questions *[]rawQuestion `json:"questions"`
		}
		if err := decodeStrict(body, &wrapped); err != nil {
			return nil, &domain.GenerationError{Stage: domain.StageParse, Err: err}
		}
		if wrapped.Questions == nil {
			return nil, &domain.GenerationError{Stage: domain.StageParse, Err: errors.New(`missing "questions" array`)}
		}
		entries = *wrapped.Questions
	}

	if len(entries) == 0 {
		return nil, &domain.GenerationError{Stage: domain.StageValidate, Err: errors.New("no questions returned")}
	}

	questions := make([]domain.Question, 0, len(entries))
	for i, entry := range entries {
		q, err := entry.validate()
		if err != nil {
			return nil, &domain.GenerationError{Stage: domain.StageValidate, Err: fmt.Errorf("question %d: %w", i, err)}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ValidateQuestions checks questions that did not come through ParseQuestions, such as a
// seed catalog. A module needs at least one question.
func ValidateQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrEmptyModule
	}
	for i, q := range questions {
		text, answer := q.Question, q.Answer
		raw := rawQuestion{Question: &text, Options: q.Options, Answer: &answer}
		if _, err := raw.validate(); err != nil {
			return fmt.Errorf("%w: question %d: %v", domain.ErrInvalidModule, i, err)
		}
	}
	return nil
}

func (r rawQuestion) validate() (domain.Question, error) {
	if r.Question == nil {
		return domain.Question{}, errors.New(`missing field "question"`)
	}
	if strings.TrimSpace(*r.Question) == "" {
		return domain.Question{}, errors.New("question text is empty")
	}
	if r.Options == nil {
		return domain.Question{}, errors.New(`missing field "options"`)
	}
	if len(r.Options) != domain.OptionCount {
		return domain.Question{}, fmt.Errorf("expected %d options, got %d", domain.OptionCount, len(r.Options))
	}
	for i, opt := range r.Options {
		if strings.TrimSpace(opt) == "" {
			return domain.Question{}, fmt.Errorf("option %d is empty", i)
		}
	}
	if r.Answer == nil {
		return domain.Question{}, errors.New(`missing field "answer"`)
	}
	if *r.Answer < 0 || *r.Answer >= len(r.Options) {
		return domain.Question{}, fmt.Errorf("answer index %d out of range", *r.Answer)
	}
	return domain.Question{
		Question: *r.Question,
		Options:  append([]string(nil), r.Options...),
		Answer:   *r.Answer,
	}, nil
}

func decodeStrict(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if dec.More() {
		return errors.New("decode response: trailing data after JSON value")
	}
	return nil
}
