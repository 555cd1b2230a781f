package gemini

// Content is one turn in Gemini's request format. Roles are "user" and
// "model"; assistant history must be mapped before building a request.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text,omitempty"`
}

// GenerationConfig mirrors the generationConfig request field.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type request struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// response is the vendor's (streaming or unary) response shape. Only the
// nested text delta is of interest.
type response struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
			Role  string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// textDelta extracts candidates[0].content.parts[0].text, or "".
func (r *response) textDelta() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}

// NewUserContent builds a single-part user turn.
func NewUserContent(text string) Content {
	return Content{Role: "user", Parts: []Part{{Text: text}}}
}

// NewModelContent builds a single-part model turn.
func NewModelContent(text string) Content {
	return Content{Role: "model", Parts: []Part{{Text: text}}}
}
