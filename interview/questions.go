package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/brillar/hr-portal/ai"
)

// ErrInvalidQuestionsJSON means the model returned something that is not a
// JSON array of questions. The caller reports it as a retryable failure.
var ErrInvalidQuestionsJSON = errors.New("interview: invalid AI questions JSON")

// PositionProfile is the subset of a position the question generator needs.
type PositionProfile struct {
	Title          string
	Department     string
	EmploymentType string
	Description    string
}

const questionsSystemPrompt = "You output strictly valid JSON."

func questionsPrompt(p PositionProfile) string {
	return fmt.Sprintf(`
You are an HR expert. Generate a list of 5-8 thoughtful written interview questions for a candidate applying for the following position.

Return ONLY a valid JSON array of objects with fields:
- "id": a short identifier like "q1", "q2", ...
- "text": the question text

Position title: %s
Department: %s
Employment type: %s
Description: %s

The questions should:
- Be open-ended
- Reveal experience, thinking process, and communication
- Be suitable for a written interview (text answers)
`, p.Title, p.Department, p.EmploymentType, p.Description)
}

// GenerateQuestions asks the model for written interview questions for a
// position and normalizes the result.
func GenerateQuestions(ctx context.Context, client ai.Client, profile PositionProfile) ([]Question, error) {
	raw, err := client.CompleteJSON(ctx, ai.Request{
		System:      questionsSystemPrompt,
		Prompt:      questionsPrompt(profile),
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	var questions []Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestionsJSON, err)
	}
	normalized := NormalizeQuestions(questions)
	if len(normalized) == 0 {
		return nil, ErrInvalidQuestionsJSON
	}
	return normalized, nil
}

// NormalizeQuestions drops empty entries, trims text, and assigns
// sequential q1..qN ids to questions that arrived without one.
func NormalizeQuestions(questions []Question) []Question {
	var out []Question
	for _, q := range questions {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		id := strings.TrimSpace(q.ID)
		if id == "" {
			id = fmt.Sprintf("q%d", len(out)+1)
		}
		out = append(out, Question{ID: id, Text: text, Competency: q.Competency})
	}
	return out
}
