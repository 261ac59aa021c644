package interview_test

import (
	"context"
	"errors"
	"testing"

	"github.com/brillar/hr-portal/ai"
	"github.com/brillar/hr-portal/interview"
)

type stubAI struct {
	response []byte
	err      error
}

func (s *stubAI) CompleteJSON(ctx context.Context, req ai.Request) ([]byte, error) {
	return s.response, s.err
}

func TestGenerateQuestionsParsesModelOutput(t *testing.T) {
	client := &stubAI{response: []byte(`[
		{"id": "q1", "text": "What draws you to this role?"},
		{"text": "  Describe a project you led.  "},
		{"id": "q9", "text": ""}
	]`)}

	questions, err := interview.GenerateQuestions(context.Background(), client, interview.PositionProfile{Title: "Engineer"})
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if questions[0].ID != "q1" {
		t.Errorf("first id = %q, want q1", questions[0].ID)
	}
	if questions[1].ID != "q2" {
		t.Errorf("assigned id = %q, want q2", questions[1].ID)
	}
	if questions[1].Text != "Describe a project you led." {
		t.Errorf("text not trimmed: %q", questions[1].Text)
	}
}

func TestGenerateQuestionsRejectsNonArray(t *testing.T) {
	client := &stubAI{response: []byte(`{"oops": true}`)}
	_, err := interview.GenerateQuestions(context.Background(), client, interview.PositionProfile{})
	if !errors.Is(err, interview.ErrInvalidQuestionsJSON) {
		t.Errorf("err = %v, want ErrInvalidQuestionsJSON", err)
	}
}

func TestGenerateQuestionsRejectsEmptyArray(t *testing.T) {
	client := &stubAI{response: []byte(`[]`)}
	_, err := interview.GenerateQuestions(context.Background(), client, interview.PositionProfile{})
	if !errors.Is(err, interview.ErrInvalidQuestionsJSON) {
		t.Errorf("err = %v, want ErrInvalidQuestionsJSON", err)
	}
}

func TestGenerateQuestionsPropagatesClientError(t *testing.T) {
	client := &stubAI{err: ai.ErrMissingAPIKey}
	_, err := interview.GenerateQuestions(context.Background(), client, interview.PositionProfile{})
	if !errors.Is(err, ai.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}
