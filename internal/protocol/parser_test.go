package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneJSON = `{"scene_goal":"x","hero":"y","supporting_elements":[],"context_cue":"z","emotion":"calm"}`

func TestParseStageImageAndSegments(t *testing.T) {
	raw := "Thanks!\n[STAGE: assessment]\n[IMAGE: " + sceneJSON + "]\nNext question?"

	reply := Parse(raw)

	assert.Equal(t, StageAssessment, reply.Stage)
	assert.Equal(t, "Thanks!", reply.Before)
	require.NotNil(t, reply.Image)
	assert.Equal(t, "y", reply.Image.Hero)
	assert.Equal(t, "x", reply.Image.SceneGoal)
	assert.Equal(t, "z", reply.Image.ContextCue)
	assert.Equal(t, "calm", reply.Image.Emotion)
	assert.Empty(t, reply.Image.SupportingElements)
	assert.Equal(t, "Next question?", reply.After)
}

func TestParseStagePositionIndependent(t *testing.T) {
	cases := map[string]string{
		"start":  "[STAGE: deep-dive] Let's look closer.",
		"middle": "Let's [STAGE: deep-dive]look closer.",
		"end":    "Let's look closer. [STAGE: deep-dive]",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			reply := Parse(raw)
			assert.Equal(t, StageDeepDive, reply.Stage)
			assert.NotContains(t, reply.Before, "STAGE")
			assert.Nil(t, reply.Image)
			assert.Empty(t, reply.After)
		})
	}
}

func TestParseStageIsCaseInsensitive(t *testing.T) {
	reply := Parse("[stage:RECOMMENDATION] Here's what I'd suggest.")

	assert.Equal(t, StageRecommendation, reply.Stage)
	assert.Equal(t, "Here's what I'd suggest.", reply.Before)
}

func TestParseOnlyFirstStageMarkerIsConsumed(t *testing.T) {
	reply := Parse("[STAGE: assessment] One. [STAGE: deep-dive] Two.")

	assert.Equal(t, StageAssessment, reply.Stage)
	assert.Equal(t, "One. [STAGE: deep-dive] Two.", reply.Before)
}

func TestParseUnknownStageIsStrippedButNotReported(t *testing.T) {
	reply := Parse("[STAGE: negotiation] Let's talk numbers.")

	assert.False(t, reply.HasStage())
	assert.Equal(t, "Let's talk numbers.", reply.Before)
}

func TestParseMalformedStageStaysText(t *testing.T) {
	raw := "[STAGE: deep-] still text"

	reply := Parse(raw)

	assert.False(t, reply.HasStage())
	assert.Equal(t, raw, reply.Before)
}

func TestParseNoDirective(t *testing.T) {
	reply := Parse("  Just a plain answer.  ")

	assert.Equal(t, "Just a plain answer.", reply.Before)
	assert.Nil(t, reply.Image)
	assert.Empty(t, reply.After)
}

func TestParseNestedBracesAndEscapedQuotes(t *testing.T) {
	raw := `Intro [IMAGE: {"scene_goal":"a {curly} \"quoted\" goal]","hero":"h","supporting_elements":["a","b"],"context_cue":"c","emotion":"e","meta":{"k":{"v":1}}}] Outro`

	reply := Parse(raw)

	require.NotNil(t, reply.Image)
	assert.Equal(t, `a {curly} "quoted" goal]`, reply.Image.SceneGoal)
	assert.Equal(t, []string{"a", "b"}, reply.Image.SupportingElements)
	assert.Equal(t, "Intro", reply.Before)
	assert.Equal(t, "Outro", reply.After)
}

func TestParseMalformedJSONFallsBackToText(t *testing.T) {
	raw := "Before [STAGE: discovery] text [IMAGE: {scene_goal: nope}] after text"

	reply := Parse(raw)

	assert.Equal(t, StageDiscovery, reply.Stage)
	assert.Nil(t, reply.Image)
	assert.Empty(t, reply.After)
	assert.Equal(t, "Before  text [IMAGE: {scene_goal: nope}] after text", reply.Before)

	again := Parse(reply.Before)
	assert.Equal(t, reply.Before, again.Before)
	assert.Nil(t, again.Image)
}

func TestParseAcceptsLooselyTypedScene(t *testing.T) {
	raw := "Sure.\n[IMAGE: {\"scene_goal\":\"Patient data\",\"hero\":\"shield\",\"supporting_elements\":\"shield, lock ,\",\"context_cue\":\"clinic\",\"emotion\":\"calm\"}]\nNext?"

	reply := Parse(raw)

	require.NotNil(t, reply.Image)
	assert.Equal(t, []string{"shield", "lock"}, reply.Image.SupportingElements)
	assert.Equal(t, "Patient data", reply.Image.SceneGoal)
	assert.Equal(t, "Sure.", reply.Before)
	assert.Equal(t, "Next?", reply.After)
}

func TestParseIgnoresWrongTypedFields(t *testing.T) {
	raw := `[IMAGE: {"scene_goal":"Audit prep","hero":{"kind":"checklist"},"supporting_elements":["folder",7,"pen"],"emotion":null,"label":3,"extra":true}] Then what?`

	reply := Parse(raw)

	require.NotNil(t, reply.Image)
	assert.Equal(t, "Audit prep", reply.Image.SceneGoal)
	assert.Empty(t, reply.Image.Hero)
	assert.Empty(t, reply.Image.Emotion)
	assert.Empty(t, reply.Image.Label)
	assert.Equal(t, []string{"folder", "pen"}, reply.Image.SupportingElements)
	assert.JSONEq(t, `{"scene_goal":"Audit prep","hero":{"kind":"checklist"},"supporting_elements":["folder",7,"pen"],"emotion":null,"label":3,"extra":true}`, string(reply.Image.Raw))
	assert.Equal(t, "Then what?", reply.After)
}

func TestParseUnterminatedDirectiveIsText(t *testing.T) {
	raw := `Look [IMAGE: {"hero":"x"` + " and more"

	reply := Parse(raw)

	assert.Nil(t, reply.Image)
	assert.Equal(t, raw, reply.Before)
}

func TestParseOmitsEmptySegments(t *testing.T) {
	reply := Parse("[IMAGE: " + sceneJSON + "]")

	require.NotNil(t, reply.Image)
	assert.Empty(t, reply.Before)
	assert.Empty(t, reply.After)
}

func TestParseReconstructsTextWithoutStage(t *testing.T) {
	raw := "Great to hear.\n\n[IMAGE: " + sceneJSON + "]\n\nWhat about compliance?"

	reply := Parse("[STAGE: assessment]" + raw)

	require.NotNil(t, reply.Image)
	directive := "[IMAGE: " + sceneJSON + "]"
	assert.Equal(t, strings.TrimSpace(raw), reply.Before+"\n\n"+directive+"\n\n"+reply.After)
}

func TestParseSecondDirectiveStaysInAfter(t *testing.T) {
	raw := "A [IMAGE: " + sceneJSON + "] B [IMAGE: " + sceneJSON + "]"

	reply := Parse(raw)

	require.NotNil(t, reply.Image)
	assert.Equal(t, "A", reply.Before)
	assert.Equal(t, "B [IMAGE: "+sceneJSON+"]", reply.After)
}

func TestTokenizeRoundTrips(t *testing.T) {
	raw := "x [STAGE: assessment] y [IMAGE: " + sceneJSON + "] z [bracket]"

	var rebuilt strings.Builder
	kinds := []TokenKind{}
	for _, tok := range Tokenize(raw) {
		rebuilt.WriteString(tok.Text)
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, raw, rebuilt.String())
	assert.Equal(t, []TokenKind{TokenText, TokenStage, TokenText, TokenImage, TokenText}, kinds)
}

func TestStageHelpers(t *testing.T) {
	stage, ok := ParseStage(" Deep-Dive ")
	require.True(t, ok)
	assert.Equal(t, StageDeepDive, stage)
	assert.Equal(t, "Deep Dive", stage.Label())
	assert.True(t, StageDiscovery.Before(StageRecommendation))
	assert.False(t, StageRecommendation.Before(StageAssessment))

	_, ok = ParseStage("closing")
	assert.False(t, ok)
}
