// Package chat orchestrates a legal-assistant turn: classify the query,
// stream the model's answer, validate it, augment it with a lawyer
// recommendation when warranted, and persist both sides of the exchange.
package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"enact/internal/classifier"
	"enact/internal/gemini"
	"enact/internal/models"
	"enact/internal/repository"
	"enact/internal/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeltaStream is a sequence of incremental answer fragments.
type DeltaStream interface {
	Recv() (string, error)
	Close() error
}

// Generator produces streamed answers for a prompt history.
type Generator interface {
	StreamGenerate(ctx context.Context, contents []gemini.Content, cfg *gemini.GenerationConfig) (DeltaStream, error)
}

// NewGeminiGenerator adapts *gemini.Client to the Generator interface.
func NewGeminiGenerator(c *gemini.Client) Generator {
	return geminiGenerator{c: c}
}

type geminiGenerator struct{ c *gemini.Client }

func (g geminiGenerator) StreamGenerate(ctx context.Context, contents []gemini.Content, cfg *gemini.GenerationConfig) (DeltaStream, error) {
	return g.c.StreamGenerate(ctx, contents, cfg)
}

// Event types emitted over a Stream call.
const (
	EventDelta  = "delta"
	EventNotice = "notice"
	EventDone   = "done"
	EventError  = "error"
)

// Event is one unit of streamed progress. For EventDelta, Content holds the
// full answer-so-far (each delta replaces the previous content, it is not an
// independent unit). For EventDone the final message and derived analyses are
// attached.
type Event struct {
	Type       string               `json:"type"`
	Content    string               `json:"content,omitempty"`
	Notice     string               `json:"notice,omitempty"`
	Message    *models.Message      `json:"message,omitempty"`
	Analysis   *classifier.Analysis `json:"analysis,omitempty"`
	Validation *validator.Result    `json:"validation,omitempty"`

	// Err is set for EventError; the HTTP layer maps it to a status.
	Err error `json:"-"`
}

var ErrConversationNotFound = errors.New("conversation not found")

// maxHistoryMessages bounds how much prior context is sent to the model.
const maxHistoryMessages = 50

const defaultTitle = "New Legal Consultation"

type Service struct {
	generator Generator
	convRepo  repository.ConversationRepository
	msgRepo   repository.MessageRepository
	logger    *zap.Logger
}

func NewService(generator Generator, convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, logger *zap.Logger) *Service {
	return &Service{
		generator: generator,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		logger:    logger,
	}
}

// Stream runs one chat turn. It verifies conversation ownership up front and
// then emits events until done or ctx is cancelled. Persistence is
// best-effort: a failed save is logged and never rolls back or blocks the
// streamed answer.
func (s *Service) Stream(ctx context.Context, userID int64, conversationID, content, language string) (<-chan Event, error) {
	conv, err := s.convRepo.GetConversationByID(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		s.run(ctx, events, conv, content, language)
	}()
	return events, nil
}

func (s *Service) run(ctx context.Context, events chan<- Event, conv *models.Conversation, content, language string) {
	analysis := classifier.Analyze(content)

	userMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        content,
		Language:       language,
	}
	if err := s.msgRepo.SaveMessage(userMsg); err != nil {
		s.logger.Error("Failed to save user message",
			zap.String("conversation_id", conv.ID),
			zap.Error(err))
	}
	s.maybeSetTitle(conv, content)

	contents, err := s.buildContents(conv.ID, content, language)
	if err != nil {
		s.logger.Error("Failed to load conversation history",
			zap.String("conversation_id", conv.ID),
			zap.Error(err))
		// Degrade to a single-turn exchange rather than failing.
		contents = []gemini.Content{
			gemini.NewUserContent(systemPrompt(language)),
			gemini.NewUserContent(content),
		}
	}

	stream, err := s.generator.StreamGenerate(ctx, contents, &gemini.GenerationConfig{
		Temperature:     0.3,
		MaxOutputTokens: 2048,
	})
	if err != nil {
		s.emit(ctx, events, Event{Type: EventError, Err: err})
		return
	}
	defer stream.Close()

	// Assemble the in-progress answer: deltas are suffix continuations and
	// are applied strictly in arrival order.
	var assembled strings.Builder
	for {
		delta, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			s.emit(ctx, events, Event{Type: EventError, Err: err})
			return
		}
		assembled.WriteString(delta)
		if !s.emit(ctx, events, Event{Type: EventDelta, Content: assembled.String()}) {
			return
		}
	}

	answer := assembled.String()

	result := validator.Validate(answer)
	if !result.IsValid {
		s.logger.Warn("Response validation failed",
			zap.String("conversation_id", conv.ID),
			zap.Int("score", result.Score),
			zap.Int("issues", len(result.Issues)),
			zap.Bool("needs_regeneration", validator.NeedsRegeneration(result)))
		if !s.emit(ctx, events, Event{Type: EventNotice, Notice: validator.Feedback(result)}) {
			return
		}
	}

	if rec := classifier.Recommendation(analysis); rec != "" {
		answer += rec
		if !s.emit(ctx, events, Event{Type: EventDelta, Content: answer}) {
			return
		}
	}

	assistantMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        answer,
		Language:       language,
	}
	if answer != "" {
		if err := s.msgRepo.SaveMessage(assistantMsg); err != nil {
			s.logger.Error("Failed to save assistant message",
				zap.String("conversation_id", conv.ID),
				zap.Error(err))
		}
		if err := s.convRepo.TouchConversation(conv.ID); err != nil {
			s.logger.Error("Failed to touch conversation",
				zap.String("conversation_id", conv.ID),
				zap.Error(err))
		}
	}

	s.emit(ctx, events, Event{
		Type:       EventDone,
		Message:    assistantMsg,
		Analysis:   &analysis,
		Validation: &result,
	})
}

// buildContents maps persisted history plus the current question into the
// model's request format, with the system prompt prepended as the first user
// turn. Long conversations keep the newest maxHistoryMessages turns; the
// oldest ones fall off.
func (s *Service) buildContents(conversationID, content, language string) ([]gemini.Content, error) {
	history, err := s.msgRepo.ListRecentMessages(conversationID, maxHistoryMessages)
	if err != nil {
		return nil, err
	}

	contents := make([]gemini.Content, 0, len(history)+2)
	contents = append(contents, gemini.NewUserContent(systemPrompt(language)))

	sawCurrent := false
	for _, msg := range history {
		if msg.Role == models.RoleAssistant {
			contents = append(contents, gemini.NewModelContent(msg.Content))
		} else {
			contents = append(contents, gemini.NewUserContent(msg.Content))
		}
		if msg.Role == models.RoleUser && msg.Content == content {
			sawCurrent = true
		}
	}
	// The just-sent message is normally already in history via the save
	// above; include it explicitly if that save failed.
	if !sawCurrent {
		contents = append(contents, gemini.NewUserContent(content))
	}
	return contents, nil
}

// maybeSetTitle derives a conversation title from the first question.
func (s *Service) maybeSetTitle(conv *models.Conversation, content string) {
	if conv.Title != defaultTitle && conv.Title != "" {
		return
	}
	title := deriveTitle(content)
	if err := s.convRepo.UpdateTitle(conv.ID, conv.UserID, title); err != nil {
		s.logger.Error("Failed to set conversation title",
			zap.String("conversation_id", conv.ID),
			zap.Error(err))
		return
	}
	conv.Title = title
}

func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(title) <= 60 {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:57])) + "..."
}

// emit delivers an event unless ctx is cancelled. Reports delivery.
func (s *Service) emit(ctx context.Context, events chan<- Event, e Event) bool {
	select {
	case events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
