package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotifyClient talks to the outbound mail dispatcher. All calls are
// fire-and-forget from the workflow's point of view: the caller logs
// failures and never rolls back the triggering transition.
type NotifyClient struct {
	baseURL    string
	httpClient *http.Client
}

type NotifyConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NotificationRequest is the dispatcher's wire format.
type NotificationRequest struct {
	Email    string            `json:"email"`
	Template string            `json:"template"`
	Context  map[string]string `json:"context,omitempty"`
}

func NewNotifyClient(cfg NotifyConfig) *NotifyClient {
	return &NotifyClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *NotifyClient) send(template, email string, context map[string]string) error {
	reqBody := NotificationRequest{
		Email:    email,
		Template: template,
		Context:  context,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/notifications", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	return nil
}

// NotifyApproved informs an exhibitor that their registration was approved.
func (c *NotifyClient) NotifyApproved(email string, context map[string]string) error {
	return c.send("registration_approved", email, context)
}

// NotifyRejected informs an exhibitor that their registration was rejected.
func (c *NotifyClient) NotifyRejected(email string, context map[string]string) error {
	return c.send("registration_rejected", email, context)
}

// NotifyCancelled informs an exhibitor that their registration was cancelled.
func (c *NotifyClient) NotifyCancelled(email string, context map[string]string) error {
	return c.send("registration_cancelled", email, context)
}
