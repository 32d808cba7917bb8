package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"notequiz/internal/domain"
)

const DefaultModel = openai.GPT4oMini

const systemPrompt = "You are an expert quiz question generator. Return only questions that follow the response schema, each with exactly 4 options."

// Config selects the upstream endpoint. BaseURL may point at any OpenAI-compatible server.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Completer implements app.Completer on the chat completions API with a strict JSON schema.
type Completer struct {
	client *openai.Client
	model  string
}

func NewCompleter(cfg Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Completer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Complete sends the instruction and images as one user message and returns the raw JSON text.
func (c *Completer) Complete(ctx context.Context, prompt domain.GenerationPrompt) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(prompt))
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", choice.Message.Refusal)
	}
	if choice.FinishReason == openai.FinishReasonLength {
		return "", errors.New("response truncated at token limit")
	}
	return choice.Message.Content, nil
}

func (c *Completer) request(prompt domain.GenerationPrompt) openai.ChatCompletionRequest {
	parts := make([]openai.ChatMessagePart, 0, len(prompt.Images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt.Instruction,
	})
	for _, img := range prompt.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + img.MimeType + ";base64," + img.Data,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        "quiz_questions",
				Description: "Multiple-choice questions generated from study material",
				Schema:      QuestionSchema(),
				Strict:      true,
			},
		},
	}
}

// QuestionSchema is the response constraint. Strict mode needs an object root, so the
// question array is wrapped under "questions".
func QuestionSchema() *jsonschema.Definition {
	question := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"question": {
				Type:        jsonschema.String,
				Description: "The question text",
			},
			"options": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "Exactly 4 multiple choice options",
			},
			"answer": {
				Type:        jsonschema.Integer,
				Description: "The zero-based index (0, 1, 2, or 3) of the correct option.",
			},
		},
		Required:             []string{"question", "options", "answer"},
		AdditionalProperties: false,
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"questions": {
				Type:  jsonschema.Array,
				Items: &question,
			},
		},
		Required:             []string{"questions"},
		AdditionalProperties: false,
	}
}
