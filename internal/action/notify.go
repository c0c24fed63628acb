package action

import (
	"context"
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// DefaultBackendTimeout bounds every network-facing action call so a
// slow backend can never wedge an event worker.
const DefaultBackendTimeout = 10 * time.Second

// Notifier is the external notification dispatch service.
type Notifier interface {
	Send(ctx context.Context, kind, recipient, message string) error
}

// SendNotification handles "send_notification".
type SendNotification struct {
	Backend Notifier
	Timeout time.Duration
}

func (n *SendNotification) Type() rule.ActionType { return rule.ActionSendNotification }

func (n *SendNotification) Validate(a rule.Action) error {
	_, err := rule.DecodeParams(a)
	return err
}

func (n *SendNotification) Execute(ctx context.Context, orderID int64, a rule.Action) error {
	decoded, err := rule.DecodeParams(a)
	if err != nil {
		return err
	}
	p := decoded.(rule.NotificationParams)

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	message := p.Message
	if message == "" {
		message = fmt.Sprintf("order %d triggered an automation", orderID)
	}
	if err := n.Backend.Send(ctx, p.Kind, p.Recipient, message); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("notification timed out after %v: %w", timeout, err)
		}
		return err
	}
	return nil
}
