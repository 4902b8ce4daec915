// Package disposition applies the terminal side effects of a review case:
// discarding the transit artifact and, for rejections, notifying the
// submitter of the reason.
package disposition

import (
	"context"
	"fmt"

	"github.com/telcobench/transit/pkg/logger"
)

// Discarder releases a case's transit artifact.
type Discarder interface {
	Discard(ctx context.Context, caseID string) error
}

// Notifier delivers rejection feedback to the submitter.
type Notifier interface {
	NotifyRejected(ctx context.Context, caseID string, reasons []string) error
}

// Handler finalizes terminal transitions. Disposition is all-or-nothing:
// when any step fails the caller must leave the case pre-terminal and
// retry, so no submission ends up looking terminal while still holding
// transit resources.
type Handler struct {
	transit  Discarder
	notifier Notifier
	logger   logger.Logger
}

// Option applies a configuration option to the Handler.
type Option func(*Handler)

// WithLogger sets a custom logger for the handler.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a disposition handler.
func NewHandler(transit Discarder, notifier Notifier, opts ...Option) *Handler {
	h := &Handler{
		transit:  transit,
		notifier: notifier,
		logger:   logger.Get().Named("disposition"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FinalizeSynced discards the transit artifact after a confirmed sync.
func (h *Handler) FinalizeSynced(ctx context.Context, caseID string) error {
	if err := h.transit.Discard(ctx, caseID); err != nil {
		return fmt.Errorf("discard %s: %w", caseID, err)
	}
	h.logger.Info(ctx, "transit artifact discarded after sync", logger.String("caseID", caseID))
	return nil
}

// FinalizeRejected notifies the submitter and discards the transit
// artifact. The notification goes first: a discard failure keeps the case
// pre-terminal and the retry sends the notification again, which is
// preferable to closing a case silently.
func (h *Handler) FinalizeRejected(ctx context.Context, caseID string, reasons []string) error {
	if err := h.notifier.NotifyRejected(ctx, caseID, reasons); err != nil {
		return fmt.Errorf("notify %s: %w", caseID, err)
	}
	if err := h.transit.Discard(ctx, caseID); err != nil {
		return fmt.Errorf("discard %s: %w", caseID, err)
	}
	h.logger.Info(ctx, "transit artifact discarded after rejection",
		logger.String("caseID", caseID),
		logger.Any("reasons", reasons),
	)
	return nil
}

// LogNotifier is a Notifier that emits the rejection through the log
// stream, for deployments without an external notification channel.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Get().Named("notify")
	}
	return &LogNotifier{logger: l}
}

// NotifyRejected emits the rejection reasons.
func (n *LogNotifier) NotifyRejected(ctx context.Context, caseID string, reasons []string) error {
	n.logger.Info(ctx, "submission rejected",
		logger.String("caseID", caseID),
		logger.Any("reasons", reasons),
	)
	return nil
}
