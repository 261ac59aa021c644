/*
scoring.go - Heuristic per-turn scoring for voice interviews

The voice pipeline transcribes each answer and scores it locally: answer
length and the presence of outcome-oriented language drive a 1-5 score.
This keeps the scoring deterministic and auditable; the language model is
only used for asking questions, never for grading.
*/
package interview

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var outcomeLanguage = regexp.MustCompile(`(?i)\b(example|because|result|impact|improved|delivered|learned)\b`)

// ClampScore bounds a score to the 1-5 rubric scale.
func ClampScore(value int) int {
	if value < 1 {
		return 1
	}
	if value > 5 {
		return 5
	}
	return value
}

// quoteFromAnswer condenses an answer into a short evidence quote.
func quoteFromAnswer(answer string) string {
	normalized := strings.Join(strings.Fields(answer), " ")
	if normalized == "" {
		return ""
	}
	if len(normalized) > 220 {
		return normalized[:217] + "..."
	}
	return normalized
}

// InferCompetency picks the competency a question probes, defaulting to
// "general" for untagged questions.
func InferCompetency(q *Question) string {
	if q == nil || q.Competency == "" {
		return "general"
	}
	return q.Competency
}

// pickDifficulty adapts question difficulty to the latest score.
func pickDifficulty(current string, score int) string {
	switch {
	case score >= 4:
		return "hard"
	case score <= 2:
		return "easy"
	case current != "":
		return current
	default:
		return "medium"
	}
}

// ScoreInput describes one answer to score.
type ScoreInput struct {
	AnswerText string
	Competency string
	TurnID     string
	QuestionID string
	Difficulty string
	AssessedAt time.Time
}

// ScoreAnswer grades a single transcribed answer.
func ScoreAnswer(in ScoreInput) Assessment {
	answer := strings.TrimSpace(in.AnswerText)
	wordCount := len(strings.Fields(answer))

	score := 1
	if wordCount >= 15 {
		score++
	}
	if wordCount >= 35 {
		score++
	}
	if wordCount >= 60 {
		score++
	}
	if outcomeLanguage.MatchString(answer) {
		score++
	}
	score = ClampScore(score)

	competency := in.Competency
	if competency == "" {
		competency = "general"
	}
	assessedAt := in.AssessedAt
	if assessedAt.IsZero() {
		assessedAt = time.Now()
	}

	return Assessment{
		Score:           score,
		Competency:      competency,
		QuestionID:      in.QuestionID,
		TurnID:          in.TurnID,
		AssessedAt:      assessedAt,
		DifficultyAfter: pickDifficulty(in.Difficulty, score),
		Evidence: Evidence{
			Quote:      quoteFromAnswer(answer),
			TurnID:     in.TurnID,
			Competency: competency,
			QuestionID: in.QuestionID,
			Score:      score,
		},
	}
}

// updateCoverage folds a new score into the per-competency statistics.
func updateCoverage(coverage map[string]CompetencyStat, competency string, score int) map[string]CompetencyStat {
	out := make(map[string]CompetencyStat, len(coverage)+1)
	for k, v := range coverage {
		out[k] = v
	}

	stat := out[competency]
	stat.AnswerCount++
	stat.TotalScore += score
	stat.AverageScore = round2(float64(stat.TotalScore) / float64(stat.AnswerCount))
	latest := score
	stat.LatestScore = &latest
	out[competency] = stat
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// =============================================================================
// FINAL RESULT
// =============================================================================

// BuildVoiceResult derives the stored result document from a finished
// voice session. Verdict thresholds: >=4 proceed, >=3 hold, else reject.
func BuildVoiceResult(session *Session) Result {
	orch := session.Orchestration
	if orch == nil {
		defaults := newOrchestration(session)
		orch = &defaults
	}

	var sum float64
	var count int
	for _, stat := range orch.Coverage {
		if stat.AverageScore > 0 {
			sum += stat.AverageScore
			count++
		}
	}
	overall := 0.0
	if count > 0 {
		overall = round2(sum / float64(count))
	}

	verdict := "reject"
	switch {
	case overall >= 4:
		verdict = "proceed"
	case overall >= 3:
		verdict = "hold"
	}

	var strengths, risks []string
	for competency, stat := range orch.Coverage {
		if stat.AverageScore >= 4 {
			strengths = append(strengths, competency)
		}
		if stat.AverageScore <= 2.5 {
			risks = append(risks, competency)
		}
	}

	var evidence []Evidence
	for _, e := range orch.Evidence {
		if e.Quote != "" {
			evidence = append(evidence, e)
		}
	}

	return Result{
		SessionID:     session.ID,
		ApplicationID: session.ApplicationID,
		CandidateID:   session.CandidateID,
		PositionID:    session.PositionID,
		Mode:          ModeVoice,
		Scores: Scores{
			Overall:       overall,
			Communication: coverageAverage(orch.Coverage, "communication"),
			Technical:     coverageAverage(orch.Coverage, "technical"),
			CultureFit:    coverageAverage(orch.Coverage, "culture-fit", "cultureFit"),
		},
		Verdict:        verdict,
		Summary:        summaryLine(len(evidence)),
		Strengths:      strengths,
		Risks:          risks,
		NextSteps:      []string{"Review evidence snippets before advancing candidate."},
		Evidence:       evidence,
		Timeline:       Timeline{StartedAt: orch.StartedAt, EndedAt: orch.EndedAt, DurationSec: orch.DurationSec},
		PromptVersion:  orch.PromptVersion,
		ScoringVersion: orch.ScoringVersion,
		RubricVersion:  orch.RubricVersion,
		CreatedAt:      time.Now(),
	}
}

func coverageAverage(coverage map[string]CompetencyStat, keys ...string) *float64 {
	for _, key := range keys {
		if stat, ok := coverage[key]; ok {
			avg := stat.AverageScore
			return &avg
		}
	}
	return nil
}

func summaryLine(evidenceCount int) string {
	noun := "snippets"
	if evidenceCount == 1 {
		noun = "snippet"
	}
	return "Voice interview completed with " + strconv.Itoa(evidenceCount) + " evidence " + noun + "."
}
