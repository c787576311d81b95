// Package subscription wraps the newsletter backend's subscriber endpoints.
package subscription

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"mainichinihongo.app/web/internal/backend"
	"mainichinihongo.app/web/internal/observability"
)

const (
	// DefaultSubscribeMessage is shown when the backend confirms without a message.
	DefaultSubscribeMessage = "구독이 완료되었습니다!"
	// DefaultUnsubscribeMessage is shown when the backend confirms without a message.
	DefaultUnsubscribeMessage = "구독이 취소되었습니다."
	// SubscribeFailedMessage is used when a failure carries no user-facing text.
	SubscribeFailedMessage = "구독 중 오류가 발생했습니다."
	// UnsubscribeFailedMessage is used when a failure carries no user-facing text.
	UnsubscribeFailedMessage = "구독 취소 중 오류가 발생했습니다."

	pathSubscribe   = "/api/subscribe"
	pathUnsubscribe = "/api/unsubscribe"
	pathSubscribers = "/api/subscribers"
)

// Backend is the subset of backend.Client used by Service.
type Backend interface {
	PostJSON(ctx context.Context, path string, payload any) ([]byte, error)
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// Subscriber is one record from the subscriber listing.
type Subscriber struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// Service exposes subscribe, unsubscribe, and listing operations.
type Service struct {
	backend Backend
}

// NewService constructs a Service backed by b.
func NewService(b Backend) *Service {
	return &Service{backend: b}
}

// Subscribe registers email and returns the confirmation message.
func (s *Service) Subscribe(ctx context.Context, email string) (string, error) {
	return s.post(ctx, pathSubscribe, email, DefaultSubscribeMessage)
}

// Unsubscribe removes email and returns the confirmation message.
func (s *Service) Unsubscribe(ctx context.Context, email string) (string, error) {
	return s.post(ctx, pathUnsubscribe, email, DefaultUnsubscribeMessage)
}

func (s *Service) post(ctx context.Context, path, email, fallback string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", backend.NewValidationError("")
	}
	body, err := s.backend.PostJSON(ctx, path, emailRequest{Email: email})
	if err != nil {
		observability.FromContext(ctx).Info("subscription request failed",
			zap.String("path", path),
			zap.String("email", observability.SanitizeEmail(email)),
			zap.Error(err),
		)
		return "", err
	}
	return successMessage(body, fallback), nil
}

// ListSubscribers returns subscriber records in backend order.
func (s *Service) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	var out []Subscriber
	if err := s.backend.GetJSON(ctx, pathSubscribers, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Subscriber{}
	}
	return out, nil
}

// Count returns the number of subscribers, or 0 when the listing fails.
func (s *Service) Count(ctx context.Context) int {
	subs, err := s.ListSubscribers(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("subscriber count unavailable", zap.Error(err))
		return 0
	}
	return len(subs)
}

// successMessage reads {message}, a JSON string, or plain text from body.
func successMessage(body []byte, fallback string) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fallback
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		return fallback
	}
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		if msg := strings.TrimSpace(text); msg != "" {
			return msg
		}
		return fallback
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return fallback
	}
	return trimmed
}

// FailureMessage maps err to the alert text for a failed subscribe or unsubscribe.
func FailureMessage(err error, unsubscribe bool) string {
	fallback := SubscribeFailedMessage
	if unsubscribe {
		fallback = UnsubscribeFailedMessage
	}
	return backend.UserMessage(err, fallback)
}
