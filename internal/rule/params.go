package rule

import (
	"fmt"
	"strconv"
)

// Typed parameter structs, one per action type. The authoring surface
// stores params as a flat string map; decoding here is the single place
// where each action's schema is enforced, so executors never see a
// half-formed param set.

type StatusParams struct {
	Status string
}

type WorkflowParams struct {
	Workflow string
}

type PriorityParams struct {
	Priority int
}

type TagParams struct {
	Tag string
}

type NotificationParams struct {
	Kind      string // e.g. "email", "sms", "webhook"
	Recipient string // "customer", "staff", or an explicit address
	Message   string
}

type FulfillmentParams struct {
	Location string
	Carrier  string
}

type CustomFieldParams struct {
	Field string
	Value string
}

func required(params map[string]string, key string, at ActionType) (string, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%s: missing required param %q", at, key)
	}
	return v, nil
}

// DecodeParams resolves an action's generic param map into its typed
// form. The returned value is one of the *Params structs above.
func DecodeParams(a Action) (any, error) {
	switch a.Type {
	case ActionUpdateStatus:
		status, err := required(a.Params, "status", a.Type)
		if err != nil {
			return nil, err
		}
		return StatusParams{Status: status}, nil

	case ActionAssignWorkflow:
		wf, err := required(a.Params, "workflow", a.Type)
		if err != nil {
			return nil, err
		}
		return WorkflowParams{Workflow: wf}, nil

	case ActionAssignPriority:
		raw, err := required(a.Params, "priority", a.Type)
		if err != nil {
			return nil, err
		}
		p, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: param %q must be an integer, got %q", a.Type, "priority", raw)
		}
		return PriorityParams{Priority: p}, nil

	case ActionAddTag:
		tag, err := required(a.Params, "tag", a.Type)
		if err != nil {
			return nil, err
		}
		return TagParams{Tag: tag}, nil

	case ActionSendNotification:
		kind, err := required(a.Params, "type", a.Type)
		if err != nil {
			return nil, err
		}
		rec, err := required(a.Params, "recipient_type", a.Type)
		if err != nil {
			return nil, err
		}
		return NotificationParams{
			Kind:      kind,
			Recipient: rec,
			Message:   a.Params["message"],
		}, nil

	case ActionCreateFulfillment:
		return FulfillmentParams{
			Location: a.Params["location"],
			Carrier:  a.Params["carrier"],
		}, nil

	case ActionUpdateCustomField:
		field, err := required(a.Params, "field", a.Type)
		if err != nil {
			return nil, err
		}
		value, err := required(a.Params, "value", a.Type)
		if err != nil {
			return nil, err
		}
		return CustomFieldParams{Field: field, Value: value}, nil

	default:
		return nil, fmt.Errorf("unknown action type %q", a.Type)
	}
}
