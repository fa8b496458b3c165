package prompts

// Sample is a canned opening message a prospect can send to try the advisor.
type Sample struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

var samples = []Sample{
	{Label: "Medical Clinic", Message: "We're a medical clinic with about 40 staff. We handle patient records so we need to be careful about privacy."},
	{Label: "Accounting Firm", Message: "I run a small accounting firm, about 25 people. Some of our bigger clients have started asking about our security certifications."},
	{Label: "Manufacturing", Message: "We're a manufacturing company with 80 employees. Had a close call with a phishing email last month."},
	{Label: "Retail Business", Message: "Small retail business, 15 staff, we have a few POS systems and handle customer payment data."},
}

// Samples returns a copy of the sample scenarios.
func Samples() []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	return out
}
