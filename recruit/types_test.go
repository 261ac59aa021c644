package recruit_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/brillar/hr-portal/interview"
	"github.com/brillar/hr-portal/recruit"
)

// =============================================================================
// POSITIONS
// =============================================================================

func TestNewPositionDefaults(t *testing.T) {
	p, err := recruit.NewPosition("p1", recruit.Position{Title: "  Backend Engineer "})
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if p.Title != "Backend Engineer" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Status != recruit.PositionDraft {
		t.Errorf("status = %q, want draft", p.Status)
	}
}

func TestNewPositionRequiresTitle(t *testing.T) {
	_, err := recruit.NewPosition("p1", recruit.Position{})
	if !errors.Is(err, recruit.ErrTitleRequired) {
		t.Errorf("err = %v, want ErrTitleRequired", err)
	}
}

func TestNewPositionNormalizesQuestions(t *testing.T) {
	p, err := recruit.NewPosition("p1", recruit.Position{
		Title: "Engineer",
		Questions: []interview.Question{
			{Text: "  Why here?  "},
			{Text: ""},
		},
	})
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if len(p.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(p.Questions))
	}
	if p.Questions[0].ID != "q1" || p.Questions[0].Text != "Why here?" {
		t.Errorf("question = %+v", p.Questions[0])
	}
}

func TestPositionPublish(t *testing.T) {
	p, _ := recruit.NewPosition("p1", recruit.Position{Title: "Engineer"})
	if p.Published() {
		t.Error("draft should not be published")
	}
	if err := p.Merge(recruit.Position{Status: "Published"}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !p.Published() {
		t.Error("expected published after merge")
	}
	if p.UpdatedAt == nil {
		t.Error("merge should stamp updatedAt")
	}
}

// =============================================================================
// CANDIDATES
// =============================================================================

func TestCandidateDisplayName(t *testing.T) {
	cases := []struct {
		candidate recruit.Candidate
		want      string
	}{
		{recruit.Candidate{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{recruit.Candidate{FirstName: "Ada"}, "Ada"},
		{recruit.Candidate{Name: "Grace Hopper"}, "Grace Hopper"},
		{recruit.Candidate{FullName: "Alan Turing"}, "Alan Turing"},
		{recruit.Candidate{Email: "k@example.com"}, "k@example.com"},
		{recruit.Candidate{}, ""},
	}
	for _, tc := range cases {
		if got := tc.candidate.DisplayName(); got != tc.want {
			t.Errorf("DisplayName() = %q, want %q", got, tc.want)
		}
	}
}

func TestCandidateRoundTripKeepsUnknownFields(t *testing.T) {
	src := []byte(`{"id":"c1","firstName":"Ada","linkedinUrl":"https://linkedin.com/in/ada","resumeScore":87}`)

	var candidate recruit.Candidate
	if err := json.Unmarshal(src, &candidate); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	candidate.Notes = "strong systems background"

	out, err := json.Marshal(candidate)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("decode round trip: %v", err)
	}
	if doc["linkedinUrl"] != "https://linkedin.com/in/ada" {
		t.Errorf("legacy field lost: %v", doc["linkedinUrl"])
	}
	if doc["resumeScore"] != float64(87) {
		t.Errorf("numeric legacy field lost: %v", doc["resumeScore"])
	}
	if doc["notes"] != "strong systems background" {
		t.Errorf("typed update lost: %v", doc["notes"])
	}
}

// =============================================================================
// APPLICATIONS
// =============================================================================

func TestNewApplicationAppliedState(t *testing.T) {
	app := recruit.NewApplication("a1", "c1", "p1")
	if app.Type != recruit.TypeRecruitment {
		t.Errorf("type = %q", app.Type)
	}
	if app.Status != recruit.ApplicationApplied {
		t.Errorf("status = %q, want applied", app.Status)
	}
	if app.AppliedAt.IsZero() {
		t.Error("appliedAt not stamped")
	}
}

func TestAttachInterview(t *testing.T) {
	app := recruit.NewApplication("a1", "c1", "p1")
	app.AttachInterview("sess-1", "tok-1")

	if app.InterviewSessionID != "sess-1" || app.InterviewToken != "tok-1" {
		t.Errorf("interview link = %q/%q", app.InterviewSessionID, app.InterviewToken)
	}
	if app.Status != recruit.ApplicationInterviewing {
		t.Errorf("status = %q, want interviewing", app.Status)
	}
	if app.UpdatedAt == nil {
		t.Error("updatedAt not stamped")
	}
}
