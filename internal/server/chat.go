package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/geobrief/geobrief/internal/provider"
)

const chatSystemPrompt = "You are an expert of geopolitics and current events."

// ChatHandler proxies free-form chat to the LLM, streaming the reply as
// plain text chunks.
type ChatHandler struct {
	LLM         provider.LLMProvider
	HistorySize int
	Logger      *log.Logger
}

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Prompt  string        `json:"prompt"`
	History []ChatMessage `json:"history"`
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.handleChat)
}

func (h *ChatHandler) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}

	messages := []provider.Message{{Role: "system", Content: chatSystemPrompt}}
	history := req.History
	if limit := h.HistorySize; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	for _, msg := range history {
		messages = append(messages, provider.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, provider.Message{Role: "user", Content: req.Prompt})

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	resp.WriteHeader(http.StatusOK)
	flusher, _ := resp.Writer.(http.Flusher)

	err := h.LLM.ChatStream(c.Request().Context(), messages, func(chunk string) error {
		if _, werr := resp.Write([]byte(chunk)); werr != nil {
			return werr
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		// Headers are already committed; all we can do is log and drop.
		h.Logger.Printf("chat stream failed: %v", err)
	}
	return nil
}
