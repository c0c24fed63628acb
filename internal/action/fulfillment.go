package action

import (
	"context"
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// Fulfiller is the external fulfillment creation service.
type Fulfiller interface {
	Create(ctx context.Context, orderID int64, params rule.FulfillmentParams) error
}

// CreateFulfillment handles "create_fulfillment".
type CreateFulfillment struct {
	Backend Fulfiller
	Timeout time.Duration
}

func (f *CreateFulfillment) Type() rule.ActionType { return rule.ActionCreateFulfillment }

func (f *CreateFulfillment) Validate(a rule.Action) error {
	_, err := rule.DecodeParams(a)
	return err
}

func (f *CreateFulfillment) Execute(ctx context.Context, orderID int64, a rule.Action) error {
	decoded, err := rule.DecodeParams(a)
	if err != nil {
		return err
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := f.Backend.Create(ctx, orderID, decoded.(rule.FulfillmentParams)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("fulfillment timed out after %v: %w", timeout, err)
		}
		return err
	}
	return nil
}
