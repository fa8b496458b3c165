package protocol

import "strings"

// Stage is the phase of the scripted sales conversation.
type Stage string

const (
	StageDiscovery      Stage = "discovery"
	StageAssessment     Stage = "assessment"
	StageDeepDive       Stage = "deep-dive"
	StageRecommendation Stage = "recommendation"
)

var stageLabels = map[Stage]string{
	StageDiscovery:      "Getting to Know You",
	StageAssessment:     "Security Assessment",
	StageDeepDive:       "Deep Dive",
	StageRecommendation: "Your Recommendation",
}

var stageOrder = map[Stage]int{
	StageDiscovery:      0,
	StageAssessment:     1,
	StageDeepDive:       2,
	StageRecommendation: 3,
}

// ParseStage maps a marker identifier to a known stage, ignoring case.
func ParseStage(identifier string) (Stage, bool) {
	stage := Stage(strings.ToLower(strings.TrimSpace(identifier)))
	if _, ok := stageLabels[stage]; !ok {
		return "", false
	}
	return stage, true
}

// Label is the human readable stage name.
func (s Stage) Label() string {
	return stageLabels[s]
}

// Before reports whether s comes earlier in the script than other.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}
