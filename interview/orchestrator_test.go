package interview_test

import (
	"strings"
	"testing"
	"time"

	"github.com/brillar/hr-portal/interview"
)

func threeQuestionSession() *interview.Session {
	return &interview.Session{
		ID:     "s1",
		Token:  "tok",
		Mode:   interview.ModeVoice,
		Status: interview.StatusPending,
		Questions: []interview.Question{
			{ID: "q1", Text: "Tell me about yourself", Competency: "communication"},
			{ID: "q2", Text: "Describe a hard bug", Competency: "technical"},
			{ID: "q3", Text: "Why this team?", Competency: "culture-fit"},
		},
	}
}

func TestScoreTurnAdvancesPhaseAndCursor(t *testing.T) {
	session := threeQuestionSession()

	a := interview.ScoreTurn(session, interview.Turn{ID: "t1", Text: strongAnswer()})
	orch := session.Orchestration
	if orch == nil {
		t.Fatal("orchestration not attached")
	}
	if orch.Phase != interview.PhaseQuestioning {
		t.Errorf("phase = %q, want questioning", orch.Phase)
	}
	if a.QuestionID != "q1" {
		t.Errorf("scored question = %q, want q1", a.QuestionID)
	}
	if len(orch.AskedQuestionIDs) != 1 || orch.AskedQuestionIDs[0] != "q1" {
		t.Errorf("asked = %v, want [q1]", orch.AskedQuestionIDs)
	}
	if orch.LastQuestionID != "q1" {
		t.Errorf("last question = %q, want q1", orch.LastQuestionID)
	}
}

func TestNextQuestionWalksScriptThenCloses(t *testing.T) {
	session := threeQuestionSession()

	interview.ScoreTurn(session, interview.Turn{ID: "t1", Text: "first answer with some words"})
	next := interview.NextQuestion(session)
	if next == nil || next.ID != "q2" {
		t.Fatalf("next = %v, want q2", next)
	}

	interview.ScoreTurn(session, interview.Turn{ID: "t2", Text: "second answer"})
	interview.ScoreTurn(session, interview.Turn{ID: "t3", Text: "third answer"})

	if next := interview.NextQuestion(session); next != nil {
		t.Errorf("next = %v, want nil after script exhausted", next)
	}
	if session.Orchestration.Phase != interview.PhaseClosing {
		t.Errorf("phase = %q, want closing", session.Orchestration.Phase)
	}
}

func TestCoverageAccumulatesPerCompetency(t *testing.T) {
	session := threeQuestionSession()

	interview.ScoreTurn(session, interview.Turn{ID: "t1", Text: strongAnswer()})
	interview.ScoreTurn(session, interview.Turn{ID: "t2", Text: "brief"})

	orch := session.Orchestration
	comm := orch.Coverage["communication"]
	if comm.AnswerCount != 1 || comm.AverageScore != 5 {
		t.Errorf("communication coverage = %+v", comm)
	}
	tech := orch.Coverage["technical"]
	if tech.AnswerCount != 1 || tech.AverageScore != 1 {
		t.Errorf("technical coverage = %+v", tech)
	}
	if tech.LatestScore == nil || *tech.LatestScore != 1 {
		t.Errorf("latest technical score = %v, want 1", tech.LatestScore)
	}
	if len(orch.TurnAssessments) != 2 {
		t.Errorf("assessments = %d, want 2", len(orch.TurnAssessments))
	}
}

func TestEvidenceCapped(t *testing.T) {
	session := &interview.Session{
		ID:        "s1",
		Questions: []interview.Question{{ID: "q1", Text: "only question"}},
	}
	for i := 0; i < 20; i++ {
		interview.ScoreTurn(session, interview.Turn{ID: "t", Text: strings.Repeat("answer ", 5)})
	}
	if got := len(session.Orchestration.Evidence); got != 12 {
		t.Errorf("evidence = %d, want 12", got)
	}
}

func TestFinalizeStampsTimeline(t *testing.T) {
	session := threeQuestionSession()
	interview.ScoreTurn(session, interview.Turn{ID: "t1", Text: "an answer"})

	started := *session.Orchestration.StartedAt
	ended := started.Add(7 * time.Minute)
	interview.Finalize(session, ended)

	orch := session.Orchestration
	if orch.Phase != interview.PhaseCompleted {
		t.Errorf("phase = %q, want completed", orch.Phase)
	}
	if session.Status != interview.StatusCompleted {
		t.Errorf("session status = %q, want completed", session.Status)
	}
	if orch.DurationSec == nil || *orch.DurationSec != 420 {
		t.Errorf("duration = %v, want 420", orch.DurationSec)
	}
	if session.CompletedAt == nil || !session.CompletedAt.Equal(ended) {
		t.Errorf("completedAt = %v, want %v", session.CompletedAt, ended)
	}
}
