package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"enact/internal/chat"
	"enact/internal/gemini"
	"enact/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeDeltaStream struct {
	deltas []string
	err    error
	pos    int
}

func (f *fakeDeltaStream) Recv() (string, error) {
	if f.pos < len(f.deltas) {
		d := f.deltas[f.pos]
		f.pos++
		return d, nil
	}
	if f.err != nil {
		return "", f.err
	}
	return "", io.EOF
}

func (f *fakeDeltaStream) Close() error { return nil }

type fakeChatGenerator struct {
	stream *fakeDeltaStream
	err    error
}

func (f *fakeChatGenerator) StreamGenerate(context.Context, []gemini.Content, *gemini.GenerationConfig) (chat.DeltaStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

// sseRecorder adds CloseNotify, which gin's Stream helper requires and
// httptest.ResponseRecorder lacks.
type sseRecorder struct {
	*httptest.ResponseRecorder
	closeNotify chan bool
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{ResponseRecorder: httptest.NewRecorder(), closeNotify: make(chan bool)}
}

func (r *sseRecorder) CloseNotify() <-chan bool { return r.closeNotify }

func chatTestRouter(gen chat.Generator, convRepo *fakeConvRepo, msgRepo *fakeMsgRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := chat.NewService(gen, convRepo, msgRepo, zap.NewNop())
	h := NewChatHandler(svc, zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", int64(7)) })
	r.POST("/api/chat", h.Chat)
	return r
}

const chatConversationID = "6b1f8f3e-4f62-4f90-9d0a-1a2b3c4d5e6f"

func seedChatConversation(convRepo *fakeConvRepo) {
	_ = convRepo.CreateConversation(&models.Conversation{ID: chatConversationID, UserID: 7, Title: "New Legal Consultation"})
}

func TestChatStreamsAnswer(t *testing.T) {
	convRepo, msgRepo := newFakeConvRepo(), newFakeMsgRepo()
	seedChatConversation(convRepo)
	gen := &fakeChatGenerator{stream: &fakeDeltaStream{deltas: []string{"You can ", "file a complaint."}}}
	router := chatTestRouter(gen, convRepo, msgRepo)

	body := `{"conversation_id":"` + chatConversationID + `","message":"My landlord kept my deposit","language":"en"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newSSERecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	out := w.Body.String()
	assert.Contains(t, out, "file a complaint.")
	assert.Contains(t, out, `"type":"done"`)
	assert.Contains(t, out, "[DONE]")

	// Both turns persisted.
	assert.Len(t, msgRepo.messages[chatConversationID], 2)
}

func TestChatUnknownConversation(t *testing.T) {
	router := chatTestRouter(&fakeChatGenerator{stream: &fakeDeltaStream{}}, newFakeConvRepo(), newFakeMsgRepo())

	body := `{"conversation_id":"` + chatConversationID + `","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newSSERecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatMissingMessage(t *testing.T) {
	router := chatTestRouter(&fakeChatGenerator{stream: &fakeDeltaStream{}}, newFakeConvRepo(), newFakeMsgRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"conversation_id":"`+chatConversationID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := newSSERecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatUpstreamOverloaded(t *testing.T) {
	convRepo, msgRepo := newFakeConvRepo(), newFakeMsgRepo()
	seedChatConversation(convRepo)
	gen := &fakeChatGenerator{err: &gemini.APIError{StatusCode: http.StatusTooManyRequests, Body: "quota"}}
	router := chatTestRouter(gen, convRepo, msgRepo)

	body := `{"conversation_id":"` + chatConversationID + `","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newSSERecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wait a moment")
	assert.Contains(t, w.Body.String(), "[DONE]")
}
