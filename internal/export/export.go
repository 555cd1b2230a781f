// Package export renders a conversation and its messages as JSON, Markdown
// or plain text for download.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"enact/internal/models"
)

// Format selects an export rendering.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat validates a user-supplied format name. Empty defaults to JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", ErrUnknownFormat
	}
}

// ContentType returns the MIME type for the rendered document.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

func (f Format) extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return "json"
	}
}

const timeLayout = "Jan 2, 2006, 3:04 PM"

// Render produces the export document for a conversation.
func Render(f Format, conv *models.Conversation, messages []*models.Message) ([]byte, error) {
	switch f {
	case FormatJSON:
		return renderJSON(conv, messages)
	case FormatMarkdown:
		return renderMarkdown(conv, messages), nil
	case FormatText:
		return renderText(conv, messages), nil
	default:
		return nil, ErrUnknownFormat
	}
}

// Filename builds a download name from the conversation title and today's
// date, e.g. "conversation-property-dispute-2026-09-01.md".
func Filename(f Format, conv *models.Conversation, now time.Time) string {
	slug := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(conv.Title), "-"), "-")
	return fmt.Sprintf("conversation-%s-%s.%s", slug, now.Format("2006-01-02"), f.extension())
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

type jsonMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type jsonExport struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []jsonMessage `json:"messages"`
}

func renderJSON(conv *models.Conversation, messages []*models.Message) ([]byte, error) {
	out := jsonExport{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  make([]jsonMessage, 0, len(messages)),
	}
	for _, m := range messages {
		out.Messages = append(out.Messages, jsonMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

func renderMarkdown(conv *models.Conversation, messages []*models.Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", conv.Title)
	fmt.Fprintf(&b, "**Created:** %s  \n", conv.CreatedAt.Format(timeLayout))
	fmt.Fprintf(&b, "**Updated:** %s  \n\n", conv.UpdatedAt.Format(timeLayout))
	b.WriteString("---\n\n")

	for _, m := range messages {
		role := "🤖 Assistant"
		if m.Role == models.RoleUser {
			role = "👤 User"
		}
		fmt.Fprintf(&b, "## %s\n", role)
		fmt.Fprintf(&b, "*%s*\n\n", m.CreatedAt.Format(timeLayout))
		fmt.Fprintf(&b, "%s\n\n", m.Content)
		b.WriteString("---\n\n")
	}

	b.WriteString("*Exported from ENACT Legal Assistant*\n")
	return []byte(b.String())
}

func renderText(conv *models.Conversation, messages []*models.Message) []byte {
	divider := strings.Repeat("=", 60)

	var b strings.Builder
	b.WriteString("ENACT LEGAL ASSISTANT - CONVERSATION EXPORT\n")
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "Title: %s\n", conv.Title)
	fmt.Fprintf(&b, "Created: %s\n", conv.CreatedAt.Format(timeLayout))
	fmt.Fprintf(&b, "Updated: %s\n", conv.UpdatedAt.Format(timeLayout))
	b.WriteString("\n" + divider + "\n\n")

	for i, m := range messages {
		role := "ASSISTANT"
		if m.Role == models.RoleUser {
			role = "USER"
		}
		fmt.Fprintf(&b, "[%d] %s - %s\n", i+1, role, m.CreatedAt.Format(timeLayout))
		b.WriteString(strings.Repeat("-", 60) + "\n")
		fmt.Fprintf(&b, "%s\n\n", m.Content)
	}

	b.WriteString(divider + "\n")
	b.WriteString("End of conversation\n")
	return []byte(b.String())
}
