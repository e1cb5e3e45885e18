// Package notify pushes console notifications (weekly digest, stock alerts,
// operator messages) to WhatsApp.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/domain/models"
	client "github.com/k2nservice/console/pkg/clients/whatsapp"
)

// ErrDisabled is returned when no WhatsApp client or recipient is configured.
var ErrDisabled = errors.New("notifications are not configured")

// Notifier describes the operations the HTTP layer and the scheduler use.
type Notifier interface {
	Enabled() bool
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	Broadcast(ctx context.Context, text string) error
}

// Service is the WhatsApp Cloud API backed Notifier.
type Service struct {
	client    client.Client
	recipient string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewService wires a notifier. A nil client disables it.
func NewService(c client.Client, recipient string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, recipient: recipient, timeout: 10 * time.Second, logger: logger}
}

// Enabled reports whether Broadcast can deliver anything.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil && s.recipient != ""
}

// SendOutbound delivers a message, split into several when it exceeds the
// API limit.
func (s *Service) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if s == nil || s.client == nil {
		return ErrDisabled
	}

	parts := Split(req.Message, client.MaxBodyLength)
	for i, part := range parts {
		if err := s.send(ctx, req.To, part, req.PreviewURL); err != nil {
			s.logger.Error("failed to send notification",
				zap.String("to", req.To),
				zap.Int("part", i+1),
				zap.Int("parts", len(parts)),
				zap.Error(err))
			return err
		}
	}
	s.logger.Info("notification sent", zap.String("to", req.To), zap.Int("parts", len(parts)))
	return nil
}

// Broadcast sends text to the configured alert recipient.
func (s *Service) Broadcast(ctx context.Context, text string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	return s.SendOutbound(ctx, models.OutboundMessageRequest{To: s.recipient, Message: text})
}

func (s *Service) send(ctx context.Context, to, body string, preview bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctx, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: preview,
	})
	return err
}

// Split cuts text into chunks of at most limit runes, preferring line
// boundaries.
func Split(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, strings.TrimRight(string(current), "\n"))
			current = current[:0]
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		if len(current)+len(runes) > limit {
			flush()
		}
		for len(runes) > limit {
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}
		current = append(current, runes...)
	}
	flush()
	return parts
}
