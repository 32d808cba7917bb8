package app

import (
	"fmt"
	"strings"

	"notequiz/internal/domain"
)

const (
	// MaxPromptChars bounds the notes embedded in the upstream request.
	MaxPromptChars = 5000
	// PreviewChars is the length of the stored content preview.
	PreviewChars = 100
)

// BuildPrompt assembles the single structured request for the upstream service.
// Text beyond MaxPromptChars is dropped silently.
func BuildPrompt(text string, images []domain.ImagePart, questionCount int) domain.GenerationPrompt {
	var sb strings.Builder

	sb.WriteString("You are an expert study aid generator.\n")
	sb.WriteString("Analyze the provided content (text notes and/or images of tests/reviews).\n")
	sb.WriteString("Identify the most important concepts, facts, and questions.\n")
	sb.WriteString(fmt.Sprintf("Generate a set of %d distinct, high-quality multiple-choice questions based on this information.\n", questionCount))
	sb.WriteString(fmt.Sprintf("Each question must have exactly %d options and exactly one correct option.\n\n", domain.OptionCount))
	if len(images) > 0 {
		sb.WriteString("If images are provided, extract the questions or information directly from them.\n\n")
	}
	sb.WriteString("Text Context: \"")
	sb.WriteString(truncate(text, MaxPromptChars))
	sb.WriteString("\"")

	return domain.GenerationPrompt{
		Instruction:   sb.String(),
		Images:        images,
		QuestionCount: questionCount,
	}
}

// ContentPreview is the short description stored on a generated module.
func ContentPreview(text string, imageCount int) string {
	preview := truncate(text, PreviewChars)
	if imageCount > 0 {
		preview += fmt.Sprintf(" (+ %d images)", imageCount)
	}
	return preview
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
