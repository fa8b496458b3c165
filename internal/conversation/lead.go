package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mxdrAdvisor/internal/storage"
)

const (
	summaryLimit        = 2000
	recommendedScore    = 8
	unknownCompany      = "Unknown"
	recommendedSolution = "MXDR"
)

var (
	industryPattern  = regexp.MustCompile(`(?i)medical|healthcare|accounting|manufacturing|retail|finance|legal|construction|education`)
	employeesPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:staff|employees|people)`)

	recommendationTriggers = []string{"would recommend", "i'd recommend", "next step"}
)

// mentionsRecommendation reports whether text contains recommendation
// language.
func mentionsRecommendation(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range recommendationTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// Contact is what the prospect typed into the lead form.
type Contact struct {
	Email string
	Phone string
}

// transcriptLabel is the speaker tag advisor turns carry in lead summaries,
// which sales staff already read as "bot".
const transcriptLabel = "bot"

// Transcript renders messages one per line as "role: content", with
// "[image]" standing in for illustrations.
func Transcript(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleImage:
			lines = append(lines, "[image]")
		case RoleAssistant:
			lines = append(lines, fmt.Sprintf("%s: %s", transcriptLabel, msg.Content))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
		}
	}
	return strings.Join(lines, "\n")
}

// ExtractLead builds a lead from the transcript with simple keyword
// heuristics: the first industry keyword as written, the first "<n> staff"
// phrase and a truncated transcript as summary.
func ExtractLead(messages []Message, recommended bool, contact Contact) storage.LeadInput {
	transcript := Transcript(messages)

	in := storage.LeadInput{
		CompanyName:         unknownCompany,
		ContactEmail:        strings.TrimSpace(contact.Email),
		ContactPhone:        strings.TrimSpace(contact.Phone),
		RecommendedSolution: recommendedSolution,
		ChatSummary:         truncateRunes(transcript, summaryLimit),
	}
	in.Industry = industryPattern.FindString(transcript)
	if m := employeesPattern.FindStringSubmatch(transcript); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			in.EmployeeCount = &n
		}
	}
	score := storage.DefaultScore
	if recommended {
		score = recommendedScore
	}
	in.QualificationScore = &score
	return in
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
