/*
Package interview implements the AI-assisted interview feature: question
generation for a position, the text interview session lifecycle, and the
voice interview orchestration with its heuristic per-turn scoring.

Sessions are plain documents keyed by an unguessable token; the public
interview endpoints look them up by token, never by id.
*/
package interview

import "time"

// Versions stamped on voice results so stored documents can be traced back
// to the logic that produced them.
const (
	PromptVersion  = "voice-prompt-v1"
	RubricVersion  = "voice-rubric-v1"
	ScoringVersion = "voice-option-b-v1"
)

// Mode distinguishes text and voice interviews.
type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
)

// Question is one interview question, generated or hand-entered.
type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Competency string `json:"competency,omitempty"`
}

// Answer is a candidate's written answer in a text interview.
type Answer struct {
	QuestionID string `json:"questionId"`
	AnswerText string `json:"answerText"`
}

// Turn is one spoken answer in a voice interview, already transcribed.
type Turn struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Session is a stored interview session document.
type Session struct {
	ID            string         `json:"id"`
	Token         string         `json:"token"`
	CandidateID   string         `json:"candidateId,omitempty"`
	PositionID    string         `json:"positionId,omitempty"`
	ApplicationID string         `json:"applicationId,omitempty"`
	Mode          Mode           `json:"mode"`
	Status        string         `json:"status"`
	PositionTitle string         `json:"positionTitle,omitempty"`
	TemplateTitle string         `json:"templateTitle,omitempty"`
	Questions     []Question     `json:"aiInterviewQuestions"`
	Answers       []Answer       `json:"answers,omitempty"`
	StartedAt     *time.Time     `json:"startedAt,omitempty"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	Orchestration *Orchestration `json:"orchestration,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Session statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// CompetencyStat accumulates scores for one competency across turns.
type CompetencyStat struct {
	AnswerCount  int      `json:"answerCount"`
	TotalScore   int      `json:"totalScore"`
	AverageScore float64  `json:"averageScore"`
	LatestScore  *int     `json:"latestScore"`
}

// Evidence is a short answer quote kept to justify the final verdict.
type Evidence struct {
	Quote      string `json:"quote"`
	TurnID     string `json:"turnId,omitempty"`
	Competency string `json:"competency"`
	QuestionID string `json:"questionId,omitempty"`
	Score      int    `json:"score"`
}

// Assessment is the scored outcome of a single turn.
type Assessment struct {
	Score           int       `json:"score"`
	Competency      string    `json:"competency"`
	QuestionID      string    `json:"questionId,omitempty"`
	TurnID          string    `json:"turnId,omitempty"`
	AssessedAt      time.Time `json:"assessedAt"`
	DifficultyAfter string    `json:"difficultyAfter"`
	Evidence        Evidence  `json:"evidenceCandidate"`
}

// Orchestration is the running state of a voice interview.
type Orchestration struct {
	Phase            string                    `json:"phase"`
	StartedAt        *time.Time                `json:"startedAt"`
	EndedAt          *time.Time                `json:"endedAt"`
	DurationSec      *int                      `json:"durationSec"`
	PromptVersion    string                    `json:"promptVersion"`
	RubricVersion    string                    `json:"rubricVersion"`
	ScoringVersion   string                    `json:"scoringVersion"`
	Coverage         map[string]CompetencyStat `json:"coverage"`
	Difficulty       string                    `json:"difficulty"`
	Evidence         []Evidence                `json:"evidenceCandidates"`
	TurnAssessments  []Assessment              `json:"turnAssessments"`
	AskedQuestionIDs []string                  `json:"askedQuestionIds"`
	LastQuestionID   string                    `json:"lastQuestionId,omitempty"`
}

// Orchestration phases.
const (
	PhaseIntro       = "intro"
	PhaseQuestioning = "questioning"
	PhaseClosing     = "closing"
	PhaseCompleted   = "completed"
)

// Scores groups the headline competency averages of a finished interview.
type Scores struct {
	Overall       float64  `json:"overall"`
	Communication *float64 `json:"communication"`
	Technical     *float64 `json:"technical"`
	CultureFit    *float64 `json:"cultureFit"`
}

// Timeline records when a voice interview ran.
type Timeline struct {
	StartedAt   *time.Time `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt"`
	DurationSec *int       `json:"durationSec"`
}

// Result is the stored outcome document for a completed interview.
type Result struct {
	SessionID      string     `json:"sessionId"`
	ApplicationID  string     `json:"applicationId,omitempty"`
	CandidateID    string     `json:"candidateId,omitempty"`
	PositionID     string     `json:"positionId,omitempty"`
	Mode           Mode       `json:"mode"`
	Scores         Scores     `json:"scores"`
	Verdict        string     `json:"verdict"`
	Summary        string     `json:"summary"`
	Strengths      []string   `json:"strengths"`
	Risks          []string   `json:"risks"`
	NextSteps      []string   `json:"recommendedNextSteps"`
	Evidence       []Evidence `json:"evidence"`
	Timeline       Timeline   `json:"timeline"`
	PromptVersion  string     `json:"promptVersion"`
	ScoringVersion string     `json:"scoringVersion"`
	RubricVersion  string     `json:"rubricVersion"`
	CreatedAt      time.Time  `json:"createdAt"`
}
