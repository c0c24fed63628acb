// Package backend provides the bundled implementations of the
// notification and fulfillment services the action executors call.
// Production deployments point these at real endpoints; with no URL
// configured they degrade to structured log output.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// WebhookNotifier delivers notifications as JSON POSTs.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func (n *WebhookNotifier) Send(ctx context.Context, kind, recipient, message string) error {
	payload, err := json.Marshal(map[string]string{
		"type":      kind,
		"recipient": recipient,
		"message":   message,
	})
	if err != nil {
		return err
	}
	return post(ctx, n.Client, n.URL, payload)
}

// WebhookFulfiller creates fulfillments via JSON POSTs.
type WebhookFulfiller struct {
	URL    string
	Client *http.Client
}

func (f *WebhookFulfiller) Create(ctx context.Context, orderID int64, params rule.FulfillmentParams) error {
	payload, err := json.Marshal(map[string]any{
		"order_id": orderID,
		"location": params.Location,
		"carrier":  params.Carrier,
	})
	if err != nil {
		return err
	}
	return post(ctx, f.Client, f.URL, payload)
}

func post(ctx context.Context, client *http.Client, url string, payload []byte) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned %s", resp.Status)
	}
	return nil
}

// LogNotifier writes notifications to the structured log. Used when
// no webhook URL is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, kind, recipient, message string) error {
	slog.Info("notification", "type", kind, "recipient", recipient, "message", message)
	return nil
}

// LogFulfiller records fulfillment requests to the structured log.
type LogFulfiller struct{}

func (LogFulfiller) Create(_ context.Context, orderID int64, params rule.FulfillmentParams) error {
	slog.Info("fulfillment created", "order_id", orderID, "location", params.Location, "carrier", params.Carrier)
	return nil
}
