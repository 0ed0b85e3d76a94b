// Package assistant fronts the generative chat and image collaborators.
// Provider failures never reach callers; they degrade to canned output.
package assistant

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/metrics"
)

// ErrUnavailable is returned by backends with no model behind them.
var ErrUnavailable = stderrors.New("assistant: model unavailable")

const (
	FallbackAnswer = "I'm sorry, I couldn't reach the tutor right now. Please try again in a moment."

	// HistoryWindow is how many recent turns are forwarded to the chat model.
	HistoryWindow = 6
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="512" height="512" viewBox="0 0 512 512">` +
	`<rect width="512" height="512" fill="#1f2937"/>` +
	`<text x="256" y="256" fill="#9ca3af" font-family="sans-serif" font-size="20" text-anchor="middle">Image unavailable</text>` +
	`</svg>`

// PlaceholderImage is served when image generation fails.
var PlaceholderImage = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(placeholderSVG))

type SizeTier string

const (
	Size1K SizeTier = "1K"
	Size2K SizeTier = "2K"
	Size4K SizeTier = "4K"
)

// ParseSizeTier defaults to 1K for an empty value.
func ParseSizeTier(s string) (SizeTier, bool) {
	switch SizeTier(strings.ToUpper(strings.TrimSpace(s))) {
	case "", Size1K:
		return Size1K, true
	case Size2K:
		return Size2K, true
	case Size4K:
		return Size4K, true
	}
	return "", false
}

// Turn is one exchange in a chat transcript.
type Turn struct {
	Role string `json:"role" validate:"required,oneof=user model"`
	Text string `json:"text" validate:"required"`
}

type ChatModel interface {
	Ask(ctx context.Context, question, background string, history []Turn) (string, error)
}

type ImageModel interface {
	Generate(ctx context.Context, prompt string, size SizeTier) (string, error)
}

// Offline satisfies both model interfaces and always fails.
type Offline struct{}

func (Offline) Ask(context.Context, string, string, []Turn) (string, error) {
	return "", ErrUnavailable
}

func (Offline) Generate(context.Context, string, SizeTier) (string, error) {
	return "", ErrUnavailable
}

type Tutor struct {
	chat    ChatModel
	images  ImageModel
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewTutor(chat ChatModel, images ImageModel, log *zap.Logger, m *metrics.Metrics) *Tutor {
	if chat == nil {
		chat = Offline{}
	}
	if images == nil {
		images = Offline{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tutor{chat: chat, images: images, log: log, metrics: m}
}

// Ask returns the model's answer, or FallbackAnswer when the model fails.
func (t *Tutor) Ask(ctx context.Context, question, background string, history []Turn) string {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	answer, err := t.chat.Ask(ctx, question, background, history)
	if err != nil || strings.TrimSpace(answer) == "" {
		t.fallback("ask", err)
		return FallbackAnswer
	}
	return answer
}

// GenerateImage requires a pro profile. Model failures yield PlaceholderImage.
func (t *Tutor) GenerateImage(ctx context.Context, profile *models.UserProfile, prompt string, size SizeTier) (string, error) {
	if profile == nil || !profile.IsPro {
		return "", errors.Forbidden("image generation requires a pro account")
	}
	uri, err := t.images.Generate(ctx, prompt, size)
	if err != nil || !strings.HasPrefix(uri, "data:image/") {
		t.fallback("image", err)
		return PlaceholderImage, nil
	}
	return uri, nil
}

func (t *Tutor) fallback(op string, err error) {
	if err == nil {
		err = stderrors.New("empty model response")
	}
	t.log.Warn("assistant fallback", zap.String("operation", op), zap.Error(err))
	if t.metrics != nil {
		t.metrics.AssistantFallbacks.WithLabelValues(op).Inc()
	}
}
