package gemini

import "strings"

// Part is a single piece of message content.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content is a message made of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

// Harm categories relaxed on every request; the inputs are column names and
// samples, not user chat.
var relaxedCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

func newRequest(prompt string) generateRequest {
	safety := make([]safetySetting, 0, len(relaxedCategories))
	for _, c := range relaxedCategories {
		safety = append(safety, safetySetting{Category: c, Threshold: "BLOCK_NONE"})
	}
	return generateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.1,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 1024,
		},
		SafetySettings: safety,
	}
}

// SafetyRating is one category/probability pair reported by the API.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content       Content        `json:"content"`
	FinishReason  string         `json:"finishReason"`
	SafetyRatings []SafetyRating `json:"safetyRatings"`
}

// Text concatenates the text parts of the candidate.
func (c Candidate) Text() string {
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// PromptFeedback explains why a prompt produced no candidates.
type PromptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings"`
}

// UsageMetadata reports token counts when the API includes them.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Response is the decoded generateContent payload.
type Response struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
}

// Blocked reports whether the prompt itself was rejected.
func (r *Response) Blocked() bool {
	return r != nil && r.PromptFeedback != nil && r.PromptFeedback.BlockReason != ""
}

// Text returns the first candidate's text, or "" when there is none.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].Text()
}

// FeedbackRatings returns the prompt-level safety ratings, if any.
func (r *Response) FeedbackRatings() []SafetyRating {
	if r == nil || r.PromptFeedback == nil {
		return nil
	}
	return r.PromptFeedback.SafetyRatings
}

// FormatRatings renders ratings as "CATEGORY: PROBABILITY, ...".
func FormatRatings(rs []SafetyRating) string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		parts = append(parts, r.Category+": "+r.Probability)
	}
	return strings.Join(parts, ", ")
}
