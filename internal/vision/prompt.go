package vision

import (
	"strings"

	"github.com/lithammer/dedent"

	"checklance/internal/domain"
)

// basePrompt establishes the referee persona and mandates a JSON-only
// answer. Focus and media clauses are appended per request.
var basePrompt = strings.TrimSpace(dedent.Dedent(`
	You are a senior video assistant referee (VAR).
	Analyze the provided visual content with extreme technical precision, strictly
	following the IFAB Laws of the Game.`))

var focusClauses = map[domain.AnalysisFocus]string{
	domain.FocusOffside: strings.TrimSpace(dedent.Dedent(`
		Pay close attention to the position of the attacker relative to the
		second-to-last defender and the ball at the moment the pass is played.`)),
	domain.FocusPenalty: strings.TrimSpace(dedent.Dedent(`
		Verify whether the contact occurred inside the penalty area and assess
		recklessness or a handball offence.`)),
	domain.FocusHandball: strings.TrimSpace(dedent.Dedent(`
		Assess whether the arm or hand was in a natural position and whether the
		body silhouette was unnaturally enlarged, considering intent.`)),
	domain.FocusRedCard: strings.TrimSpace(dedent.Dedent(`
		Assess excessive force, serious foul play, and denial of an obvious
		goal-scoring opportunity.`)),
	domain.FocusGoalCheck: strings.TrimSpace(dedent.Dedent(`
		Verify whether the whole circumference of the ball crossed the goal line.`)),
	domain.FocusGeneral: strings.TrimSpace(dedent.Dedent(`
		Scan the play broadly for any clear infraction: fouls, offside positions,
		handballs, or simulation.`)),
}

var frameSequenceClause = strings.TrimSpace(dedent.Dedent(`
	These are sequential frames extracted from a video of the play.
	Analyze the motion dynamics, physical contact, intensity and intent across
	the sequence.
	Respond ONLY with the requested JSON.`))

var stillImageClause = strings.TrimSpace(dedent.Dedent(`
	Analyze this static image of the play only; do not infer motion that is not
	visible.
	Respond ONLY with the requested JSON.`))

// BuildPrompt assembles the instructional text for one analysis request from
// the referee persona, the user's focus, and the media kind.
func BuildPrompt(focus domain.AnalysisFocus, kind domain.PayloadKind) string {
	clause, ok := focusClauses[focus]
	if !ok {
		clause = focusClauses[domain.FocusGeneral]
	}
	media := stillImageClause
	if kind == domain.PayloadFrames {
		media = frameSequenceClause
	}
	return basePrompt + "\n" + clause + "\n" + media
}
