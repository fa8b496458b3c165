package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLeadHeuristics(t *testing.T) {
	messages := []Message{
		{Role: RoleAssistant, Content: "What industry are you in?"},
		{Role: RoleUser, Content: "We're a Manufacturing company with 80 employees, mostly retail partners."},
		{Role: RoleImage, Image: "https://cdn.example.com/a.png"},
		{Role: RoleUser, Content: "Also 12 people in the office."},
	}

	lead := ExtractLead(messages, false, Contact{Email: " ops@factory.example "})

	assert.Equal(t, "Unknown", lead.CompanyName)
	assert.Equal(t, "Manufacturing", lead.Industry)
	require.NotNil(t, lead.EmployeeCount)
	assert.Equal(t, 80, *lead.EmployeeCount)
	assert.Equal(t, "ops@factory.example", lead.ContactEmail)
	assert.Empty(t, lead.ContactPhone)
	assert.Equal(t, 5, *lead.QualificationScore)
	assert.Equal(t, "MXDR", lead.RecommendedSolution)
	assert.Equal(t, "bot: What industry are you in?\n"+
		"user: We're a Manufacturing company with 80 employees, mostly retail partners.\n"+
		"[image]\n"+
		"user: Also 12 people in the office.", lead.ChatSummary)
}

func TestExtractLeadWithoutMatches(t *testing.T) {
	lead := ExtractLead([]Message{{Role: RoleUser, Content: "hello"}}, true, Contact{})

	assert.Empty(t, lead.Industry)
	assert.Nil(t, lead.EmployeeCount)
	assert.Equal(t, 8, *lead.QualificationScore)
}

func TestExtractLeadTruncatesSummary(t *testing.T) {
	long := strings.Repeat("é", 3000)
	lead := ExtractLead([]Message{{Role: RoleUser, Content: long}}, false, Contact{})

	assert.Equal(t, 2000, len([]rune(lead.ChatSummary)))
	assert.True(t, strings.HasPrefix(lead.ChatSummary, "user: é"))
}

func TestMentionsRecommendation(t *testing.T) {
	assert.True(t, mentionsRecommendation("I WOULD RECOMMEND our MXDR service"))
	assert.True(t, mentionsRecommendation("Ready to take the Next Step?"))
	assert.True(t, mentionsRecommendation("i'd recommend starting small"))
	assert.False(t, mentionsRecommendation("Do you use Microsoft 365?"))
}
