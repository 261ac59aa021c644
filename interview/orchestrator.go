/*
orchestrator.go - Voice interview turn orchestration

PURPOSE:
  Drives a voice interview through its phases: intro, questioning,
  closing, completed. Each transcribed candidate turn is scored, folded
  into per-competency coverage, and used to adapt question difficulty.
  The orchestration state lives on the session document so a crashed or
  reconnected client resumes exactly where it left off.
*/
package interview

import (
	"time"
)

const maxEvidence = 12

// newOrchestration builds the initial orchestration state for a session.
func newOrchestration(session *Session) Orchestration {
	now := time.Now()
	started := session.StartedAt
	if started == nil {
		started = &now
	}
	return Orchestration{
		Phase:            PhaseIntro,
		StartedAt:        started,
		PromptVersion:    PromptVersion,
		RubricVersion:    RubricVersion,
		ScoringVersion:   ScoringVersion,
		Coverage:         map[string]CompetencyStat{},
		Difficulty:       "medium",
		Evidence:         []Evidence{},
		TurnAssessments:  []Assessment{},
		AskedQuestionIDs: []string{},
	}
}

// EnsureOrchestration returns the session's orchestration state, creating
// and attaching it on first use.
func EnsureOrchestration(session *Session) *Orchestration {
	if session.Orchestration == nil {
		orch := newOrchestration(session)
		session.Orchestration = &orch
	}
	if session.Orchestration.Coverage == nil {
		session.Orchestration.Coverage = map[string]CompetencyStat{}
	}
	return session.Orchestration
}

// currentQuestion returns the question the candidate is presumed to be
// answering: the one at the asked-count cursor, falling back to the last
// question once the list is exhausted.
func currentQuestion(session *Session, orch *Orchestration) *Question {
	if len(session.Questions) == 0 {
		return nil
	}
	idx := len(orch.AskedQuestionIDs)
	if idx >= len(session.Questions) {
		idx = len(session.Questions) - 1
	}
	q := session.Questions[idx]
	return &q
}

// ScoreTurn scores one transcribed candidate turn and folds the outcome
// into the session's orchestration state.
func ScoreTurn(session *Session, turn Turn) Assessment {
	orch := EnsureOrchestration(session)
	if orch.Phase == PhaseIntro {
		orch.Phase = PhaseQuestioning
	}

	question := currentQuestion(session, orch)
	questionID := ""
	if question != nil {
		questionID = question.ID
	}

	assessment := ScoreAnswer(ScoreInput{
		AnswerText: turn.Text,
		Competency: InferCompetency(question),
		TurnID:     turn.ID,
		QuestionID: questionID,
		Difficulty: orch.Difficulty,
	})

	orch.Coverage = updateCoverage(orch.Coverage, assessment.Competency, assessment.Score)
	orch.Difficulty = assessment.DifficultyAfter
	orch.TurnAssessments = append(orch.TurnAssessments, assessment)

	if assessment.Evidence.Quote != "" {
		orch.Evidence = append(orch.Evidence, assessment.Evidence)
		if len(orch.Evidence) > maxEvidence {
			orch.Evidence = orch.Evidence[len(orch.Evidence)-maxEvidence:]
		}
	}

	if questionID != "" && !contains(orch.AskedQuestionIDs, questionID) {
		orch.AskedQuestionIDs = append(orch.AskedQuestionIDs, questionID)
		orch.LastQuestionID = questionID
	}

	return assessment
}

// NextQuestion returns the next unasked question, or nil when the script
// is exhausted, in which case the phase advances to closing.
func NextQuestion(session *Session) *Question {
	orch := EnsureOrchestration(session)
	for _, q := range session.Questions {
		if !contains(orch.AskedQuestionIDs, q.ID) {
			return &q
		}
	}
	if orch.Phase != PhaseCompleted {
		orch.Phase = PhaseClosing
	}
	return nil
}

// Finalize closes the orchestration: stamps the end time and duration and
// marks the session completed.
func Finalize(session *Session, endedAt time.Time) {
	orch := EnsureOrchestration(session)
	orch.Phase = PhaseCompleted
	orch.EndedAt = &endedAt
	if orch.StartedAt != nil {
		sec := int(endedAt.Sub(*orch.StartedAt).Seconds())
		if sec < 0 {
			sec = 0
		}
		orch.DurationSec = &sec
	}
	session.Status = StatusCompleted
	session.CompletedAt = &endedAt
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
