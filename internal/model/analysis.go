package model

// RiskLevel grades how dangerous a message looks.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Analysis is the AI assessment of a single message.
type Analysis struct {
	RiskLevel       RiskLevel `json:"riskLevel"`
	Summary         string    `json:"summary"`
	ActionableItems []string  `json:"actionableItems"`

	// PhishingScore ranges from 0 to 100, where 100 is definite phishing.
	PhishingScore int `json:"phishingScore"`
}

// Category counts inbox messages of one kind (e.g. "Verification").
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ExtractedCode is a one-time code found in an inbox message.
type ExtractedCode struct {
	Code   string `json:"code"`
	Source string `json:"source"`
}

// InboxAnalysis is the AI overview of a whole inbox.
type InboxAnalysis struct {
	Overview       string          `json:"overview"`
	Categories     []Category      `json:"categories"`
	ExtractedCodes []ExtractedCode `json:"extractedCodes"`
	UrgentCount    int             `json:"urgentCount"`
}

// ReplyTones lists the tones offered when drafting a reply.
var ReplyTones = []string{"Professional", "Friendly", "Angry"}
