package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RendererClient asks the document service to produce a printable
// invoice. It runs after the invoice record is persisted; a rendering
// failure never unwinds the invoice.
type RendererClient struct {
	baseURL    string
	httpClient *http.Client
}

type RendererConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RenderInvoiceRequest struct {
	InvoiceID     int64  `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
}

type RenderInvoiceResponse struct {
	DocumentPath string `json:"documentPath"`
}

func NewRendererClient(cfg RendererConfig) *RendererClient {
	return &RendererClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// RenderInvoice requests a rendered document and returns its storage path.
func (c *RendererClient) RenderInvoice(invoiceID int64, invoiceNumber string) (string, error) {
	reqBody := RenderInvoiceRequest{
		InvoiceID:     invoiceID,
		InvoiceNumber: invoiceNumber,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal render request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/render/invoice", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to call renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("renderer returned status %d", resp.StatusCode)
	}

	var renderResp RenderInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&renderResp); err != nil {
		return "", fmt.Errorf("failed to decode renderer response: %w", err)
	}

	return renderResp.DocumentPath, nil
}
