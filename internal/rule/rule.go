package rule

import (
	"context"
	"fmt"
)

// ConditionType names the order attribute a condition inspects.
type ConditionType string

const (
	CondOrderStatus   ConditionType = "order_status"
	CondPaymentStatus ConditionType = "payment_status"
	CondTotalAmount   ConditionType = "total_amount"
	CondCustomerEmail ConditionType = "customer_email"
	CondHasTag        ConditionType = "has_tag"
)

// Operator is a comparison operator applied by a trigger condition.
type Operator string

const (
	OpEq       Operator = "="
	OpNeq      Operator = "!="
	OpGt       Operator = ">"
	OpLt       Operator = "<"
	OpGte      Operator = ">="
	OpLte      Operator = "<="
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

// ActionType identifies one of the closed set of side effects a rule
// may perform.
type ActionType string

const (
	ActionUpdateStatus      ActionType = "update_status"
	ActionAssignWorkflow    ActionType = "assign_workflow"
	ActionAssignPriority    ActionType = "assign_priority"
	ActionAddTag            ActionType = "add_tag"
	ActionSendNotification  ActionType = "send_notification"
	ActionCreateFulfillment ActionType = "create_fulfillment"
	ActionUpdateCustomField ActionType = "update_custom_field"
)

// TriggerCondition is a single comparison that must hold for a rule to
// fire. Event names which lifecycle event the condition is relevant to;
// all conditions on one rule are ANDed regardless of their event.
type TriggerCondition struct {
	Event    string        `yaml:"event" json:"event"`
	Type     ConditionType `yaml:"type" json:"type"`
	Operator Operator      `yaml:"operator" json:"operator"`
	Value    string        `yaml:"value" json:"value"`
}

// Action is one side-effecting operation with type-specific params.
// Params decode into a per-type struct before execution; see params.go.
type Action struct {
	Type   ActionType        `yaml:"type" json:"type"`
	Params map[string]string `yaml:"params" json:"params"`
}

// AutomationRule is a prioritized reaction to order lifecycle events.
// Rules are authored externally and read-only to the engine.
type AutomationRule struct {
	ID          int64              `yaml:"id" json:"id"`
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description"`
	Conditions  []TriggerCondition `yaml:"conditions" json:"conditions"`
	Actions     []Action           `yaml:"actions" json:"actions"`
	Priority    int                `yaml:"priority" json:"priority"` // higher runs first
	Active      bool               `yaml:"is_active" json:"is_active"`
}

// ListensFor reports whether any condition declares the given event.
func (r AutomationRule) ListensFor(event string) bool {
	for _, c := range r.Conditions {
		if c.Event == event {
			return true
		}
	}
	return false
}

var validOperators = map[Operator]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpLt: true,
	OpGte: true, OpLte: true, OpIn: true, OpContains: true,
}

var validConditionTypes = map[ConditionType]bool{
	CondOrderStatus: true, CondPaymentStatus: true, CondTotalAmount: true,
	CondCustomerEmail: true, CondHasTag: true,
}

// Validate checks the structural invariants an activatable rule must
// satisfy: at least one condition, at least one action, known condition
// types and operators, and decodable action params.
func (r AutomationRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule %d: name is required", r.ID)
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("rule %d: at least one condition is required", r.ID)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("rule %d: at least one action is required", r.ID)
	}
	for i, c := range r.Conditions {
		if c.Event == "" {
			return fmt.Errorf("rule %d: conditions[%d]: event is required", r.ID, i)
		}
		if !validConditionTypes[c.Type] {
			return fmt.Errorf("rule %d: conditions[%d]: unknown condition type %q", r.ID, i, c.Type)
		}
		if !validOperators[c.Operator] {
			return fmt.Errorf("rule %d: conditions[%d]: unknown operator %q", r.ID, i, c.Operator)
		}
	}
	for i, a := range r.Actions {
		if _, err := DecodeParams(a); err != nil {
			return fmt.Errorf("rule %d: actions[%d]: %w", r.ID, i, err)
		}
	}
	return nil
}

// Store is the read path the engine needs from the rule authoring
// system. Implementations may cache; see FileStore.
type Store interface {
	// ListActiveForEvent returns every active rule with at least one
	// condition declaring the given event.
	ListActiveForEvent(ctx context.Context, event string) ([]AutomationRule, error)
	// Get returns a rule by ID regardless of active state.
	Get(ctx context.Context, id int64) (AutomationRule, error)
}
