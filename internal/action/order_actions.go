package action

import (
	"context"

	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// The five order-store actions share the same shape: decode typed
// params, then forward one mutating call. Transition legality (e.g.
// whether "completed" may follow "pending") is the store's decision;
// its rejection comes back as this action's failure.

// UpdateStatus handles "update_status".
type UpdateStatus struct {
	Orders order.Store
}

func (u *UpdateStatus) Type() rule.ActionType { return rule.ActionUpdateStatus }

func (u *UpdateStatus) Validate(a rule.Action) error {
	_, err := rule.DecodeParams(a)
	return err
}

func (u *UpdateStatus) Execute(ctx context.Context, orderID int64, a rule.Action) error {
	p, err := rule.DecodeParams(a)
	if err != nil {
		return err
	}
	return u.Orders.SetStatus(ctx, orderID, p.(rule.StatusParams).Status)
}

// AssignWorkflow handles "assign_workflow".
type AssignWorkflow struct {
	Orders order.Store
}

func (w *AssignWorkflow) Type() rule.ActionType { return rule.ActionAssignWorkflow }

func (w *AssignWorkflow) Validate(a rule.Action) error {
	_, err := rule.DecodeParams(a)
	return err
}

func (w *AssignWorkflow) Execute(ctx context.Context, orderID int64, a rule.Action) error {
	p, err := rule.DecodeParams(a)
	if err != nil {
		return err
	}
	return w.Orders.AssignWorkflow(ctx, orderID, p.(rule.WorkflowParams).Workflow)
}

// AssignPriority handles "assign_priority".
type AssignPriority struct {
	Orders order.Store
}

func (p *AssignPriority) Type() rule.ActionType { return rule.ActionAssignPriority }

func (p *AssignPriority) Validate(a rule.Action) error {
	_, err := rule.DecodeParams(a)
	return err
}

func (p *AssignPriority) Execute(ctx context.Context, orderID int64, a rule.Action) error {
	decoded, err := rule.DecodeParams(a)
	if err != nil {
		return err
	}
	return p.Orders.AssignPriority(ctx, orderID, decoded.(rule.PriorityParams).Priority)
}

// AddTag handles "add_tag". Idempotent: tagging an already-tagged
// order succeeds without touching the store.
type AddTag struct {
	Orders order.Store
}

func (t *AddTag) Type() rule.ActionType { return rule.ActionAddTag }

func (t *AddTag) Validate(a rule.Action) error {
	_, err := rule.DecodeParams(a)
	return err
}

func (t *AddTag) Execute(ctx context.Context, orderID int64, a rule.Action) error {
	p, err := rule.DecodeParams(a)
	if err != nil {
		return err
	}
	tag := p.(rule.TagParams).Tag
	snap, err := t.Orders.Snapshot(ctx, orderID)
	if err != nil {
		return err
	}
	if snap.HasTag(tag) {
		return nil
	}
	return t.Orders.AddTag(ctx, orderID, tag)
}

// UpdateCustomField handles "update_custom_field".
type UpdateCustomField struct {
	Orders order.Store
}

func (u *UpdateCustomField) Type() rule.ActionType { return rule.ActionUpdateCustomField }

func (u *UpdateCustomField) Validate(a rule.Action) error {
	_, err := rule.DecodeParams(a)
	return err
}

func (u *UpdateCustomField) Execute(ctx context.Context, orderID int64, a rule.Action) error {
	decoded, err := rule.DecodeParams(a)
	if err != nil {
		return err
	}
	p := decoded.(rule.CustomFieldParams)
	return u.Orders.SetCustomField(ctx, orderID, p.Field, p.Value)
}
