package vision

import (
	"strings"
	"testing"

	"checklance/internal/domain"
)

func TestBuildPromptCarriesPersonaAndFocus(t *testing.T) {
	prompt := BuildPrompt(domain.FocusOffside, domain.PayloadImage)
	if !strings.Contains(prompt, "video assistant referee") {
		t.Fatal("prompt lost the referee persona")
	}
	if !strings.Contains(prompt, "second-to-last defender") {
		t.Fatal("offside focus clause missing")
	}
	if !strings.Contains(prompt, "static image") {
		t.Fatal("still-image media clause missing")
	}
	if !strings.Contains(prompt, "ONLY with the requested JSON") {
		t.Fatal("JSON-only mandate missing")
	}
}

func TestBuildPromptFrameSequenceClause(t *testing.T) {
	prompt := BuildPrompt(domain.FocusGeneral, domain.PayloadFrames)
	if !strings.Contains(prompt, "across") || !strings.Contains(prompt, "sequence") {
		t.Fatal("frame-sequence clause must demand temporal reasoning")
	}
	if strings.Contains(prompt, "static image") {
		t.Fatal("frame sequence prompt must not use the still-image clause")
	}
}

func TestBuildPromptFocusSpecificClauses(t *testing.T) {
	cases := map[domain.AnalysisFocus]string{
		domain.FocusPenalty:   "penalty area",
		domain.FocusHandball:  "natural position",
		domain.FocusRedCard:   "excessive force",
		domain.FocusGoalCheck: "circumference",
		domain.FocusGeneral:   "infraction",
	}
	for focus, marker := range cases {
		if prompt := BuildPrompt(focus, domain.PayloadImage); !strings.Contains(prompt, marker) {
			t.Fatalf("focus %s: prompt missing %q", focus, marker)
		}
	}
}

func TestBuildPromptUnknownFocusFallsBackToGeneral(t *testing.T) {
	got := BuildPrompt(domain.AnalysisFocus("SOMETHING_ELSE"), domain.PayloadImage)
	want := BuildPrompt(domain.FocusGeneral, domain.PayloadImage)
	if got != want {
		t.Fatal("unknown focus should build the general prompt")
	}
}
