package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/ghostmail/internal/content"
	"github.com/nhle/ghostmail/internal/model"
)

const (
	defaultModel   = "gemini-3-flash-preview"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// inboxSampleSize bounds how many messages are sent for an inbox overview.
	inboxSampleSize = 20
)

// Fallback texts returned when the model cannot be reached or answers with
// something unusable.
const (
	FallbackAnalysisSummary = "Analysis failed due to an error. Please check your API key."
	FallbackInboxOverview   = "Could not analyze inbox at this time."
	FallbackReplyEmpty      = "Could not generate reply."
	FallbackReplyError      = "Error generating reply. Please check your API key."
	FallbackTranslateEmpty  = "Translation failed."
	FallbackTranslateError  = "Error translating text."
)

// ErrNoAPIKey is returned by generate when the client has no API key.
var ErrNoAPIKey = errors.New("no API key configured")

// Client talks to the generateContent endpoint of the generative-language
// API. Every public method returns a usable value even on failure; errors
// are logged and replaced by canned fallbacks.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New creates a new AI client. Empty modelName and baseURL select the
// defaults.
func New(apiKey, modelName, baseURL string) *Client {
	if modelName == "" {
		modelName = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:  apiKey,
		model:   modelName,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// AnalyzeEmail grades the phishing risk of a message and summarises it.
func (c *Client) AnalyzeEmail(ctx context.Context, msg *model.FullMessage) model.Analysis {
	fallback := model.Analysis{
		RiskLevel:       model.RiskMedium,
		Summary:         FallbackAnalysisSummary,
		ActionableItems: []string{},
		PhishingScore:   50,
	}
	if msg == nil {
		return fallback
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following email for security risks and content summary.\n\n")
	sb.WriteString(fmt.Sprintf("Email From: %s\n", msg.From))
	sb.WriteString(fmt.Sprintf("Email Subject: %s\n", msg.Subject))
	sb.WriteString(fmt.Sprintf("Email Body: %s\n\n", content.MessageBody(msg)))
	sb.WriteString("Provide the output in strict JSON format matching the following schema:\n")
	sb.WriteString(`{
  "riskLevel": "LOW" | "MEDIUM" | "HIGH",
  "summary": "A concise 2-sentence summary of the email content.",
  "actionableItems": ["List of extracted actions the user needs to take, if any"],
  "phishingScore": number (0 to 100, where 100 is definite phishing)
}`)

	text, err := c.generate(ctx, sb.String(), &generationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   analysisSchema,
	})
	if err != nil {
		log.Printf("ai: analyzing message %s: %v", msg.ID, err)
		return fallback
	}
	if text == "" {
		log.Printf("ai: analyzing message %s: empty response", msg.ID)
		return fallback
	}

	var result model.Analysis
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Printf("ai: decoding analysis of %s: %v", msg.ID, err)
		return fallback
	}

	switch result.RiskLevel {
	case model.RiskLow, model.RiskMedium, model.RiskHigh:
	default:
		result.RiskLevel = model.RiskMedium
	}
	if result.PhishingScore < 0 {
		result.PhishingScore = 0
	}
	if result.PhishingScore > 100 {
		result.PhishingScore = 100
	}
	if result.ActionableItems == nil {
		result.ActionableItems = []string{}
	}

	return result
}

// AnalyzeInbox produces an overview of the first 20 messages of an inbox.
func (c *Client) AnalyzeInbox(ctx context.Context, msgs []model.MailMessage) model.InboxAnalysis {
	fallback := model.InboxAnalysis{
		Overview:       FallbackInboxOverview,
		Categories:     []model.Category{},
		ExtractedCodes: []model.ExtractedCode{},
	}

	if len(msgs) > inboxSampleSize {
		msgs = msgs[:inboxSampleSize]
	}

	type inboxEntry struct {
		From    string `json:"from"`
		Subject string `json:"subject"`
		Snippet string `json:"snippet"`
	}
	entries := make([]inboxEntry, 0, len(msgs))
	for _, m := range msgs {
		snippet := m.Intro
		if snippet == "" {
			snippet = "No preview"
		}
		entries = append(entries, inboxEntry{From: m.From, Subject: m.Subject, Snippet: snippet})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		log.Printf("ai: encoding inbox: %v", err)
		return fallback
	}

	var sb strings.Builder
	sb.WriteString("You are an AI assistant managing a temporary inbox. Analyze these emails:\n")
	sb.Write(data)
	sb.WriteString("\n\nTasks:\n")
	sb.WriteString("1. Provide a brief 1-sentence overview of the inbox status.\n")
	sb.WriteString("2. Categorize emails (e.g., 'Verification', 'Social', 'Spam', 'Personal').\n")
	sb.WriteString("3. Extract any visible codes (OTP, PIN) from subjects/snippets.\n")
	sb.WriteString("4. Count urgent items.\n\n")
	sb.WriteString("Return JSON matching this schema:\n")
	sb.WriteString(`{
  "overview": "string",
  "categories": [{"name": "string", "count": number}],
  "extractedCodes": [{"code": "string", "source": "sender name"}],
  "urgentCount": number
}`)

	text, err := c.generate(ctx, sb.String(), &generationConfig{
		ResponseMimeType: "application/json",
	})
	if err != nil {
		log.Printf("ai: analyzing inbox: %v", err)
		return fallback
	}

	var result model.InboxAnalysis
	if text == "" {
		text = "{}"
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Printf("ai: decoding inbox analysis: %v", err)
		return fallback
	}

	if result.Categories == nil {
		result.Categories = []model.Category{}
	}
	if result.ExtractedCodes == nil {
		result.ExtractedCodes = []model.ExtractedCode{}
	}
	return result
}

// DraftReply writes a reply to msg in the given tone.
func (c *Client) DraftReply(ctx context.Context, msg *model.FullMessage, tone string) string {
	if msg == nil {
		return FallbackReplyEmpty
	}
	if tone == "" {
		tone = model.ReplyTones[0]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Draft a %s reply to the following email:\n\n", tone))
	sb.WriteString(fmt.Sprintf("From: %s\n", msg.From))
	sb.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	sb.WriteString(fmt.Sprintf("Content: %s\n\n", content.MessageBody(msg)))
	sb.WriteString("The reply should be concise and professional (unless specified otherwise).")

	text, err := c.generate(ctx, sb.String(), nil)
	if err != nil {
		log.Printf("ai: drafting reply to %s: %v", msg.ID, err)
		return FallbackReplyError
	}
	if strings.TrimSpace(text) == "" {
		return FallbackReplyEmpty
	}
	return text
}

// Translate renders text in targetLang, English when empty.
func (c *Client) Translate(ctx context.Context, text, targetLang string) string {
	if targetLang == "" {
		targetLang = "English"
	}

	prompt := fmt.Sprintf(
		"Translate the following text to %s. Maintain the original tone and formatting:\n\n%s",
		targetLang, text,
	)

	out, err := c.generate(ctx, prompt, nil)
	if err != nil {
		log.Printf("ai: translating to %s: %v", targetLang, err)
		return FallbackTranslateError
	}
	if strings.TrimSpace(out) == "" {
		return FallbackTranslateEmpty
	}
	return out
}

// generate makes a single generateContent call and returns the
// concatenated text parts of the first candidate.
func (c *Client) generate(ctx context.Context, prompt string, cfg *generationConfig) (string, error) {
	if !c.Configured() {
		return "", ErrNoAPIKey
	}

	reqBody := apiRequest{
		Contents: []apiContent{
			{Role: "user", Parts: []apiPart{{Text: prompt}}},
		},
		GenerationConfig: cfg,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling generateContent: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", nil
	}

	var parts []string
	for _, p := range result.Candidates[0].Content.Parts {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, ""), nil
}

// --- generateContent API types ---

type apiRequest struct {
	Contents         []apiContent      `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type apiResponse struct {
	Candidates []struct {
		Content      apiContent `json:"content"`
		FinishReason string     `json:"finishReason"`
	} `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// analysisSchema constrains AnalyzeEmail output to the Analysis shape.
var analysisSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"riskLevel": {"type": "STRING", "enum": ["LOW", "MEDIUM", "HIGH"]},
		"summary": {"type": "STRING"},
		"actionableItems": {"type": "ARRAY", "items": {"type": "STRING"}},
		"phishingScore": {"type": "INTEGER"}
	},
	"required": ["riskLevel", "summary", "actionableItems", "phishingScore"]
}`)
