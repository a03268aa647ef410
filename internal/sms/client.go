package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"aidgate/internal/platform/config"
	"aidgate/pkg/derrors"
)

// HTTPClient talks to the SMS gateway over HTTP JSON. Timeouts and gateway
// failures surface as upstream errors, never as credential failures, so a
// slow provider cannot eat a citizen's attempt budget.
type HTTPClient struct {
	gatewayURL string
	apiKey     string
	client     *http.Client
}

func NewHTTPClient(cfg config.SMS) *HTTPClient {
	return &HTTPClient{
		gatewayURL: cfg.GatewayURL,
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	ErrorCode string `json:"error_code"`
}

func (c *HTTPClient) Send(ctx context.Context, phoneE164, text string) (*Receipt, error) {
	body, err := json.Marshal(sendRequest{To: phoneE164, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, derrors.Wrap(err, derrors.CodeTimeout, "sms gateway timeout")
		}
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "sms gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, derrors.Newf(derrors.CodeUnavailable, "sms gateway returned %d", resp.StatusCode)
	}

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "decode sms gateway response")
	}
	if !decoded.Success {
		return nil, derrors.Newf(derrors.CodeUnavailable, "sms gateway rejected message: %s", decoded.ErrorCode)
	}

	return &Receipt{MessageID: decoded.MessageID}, nil
}
