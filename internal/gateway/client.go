// Package gateway delivers outbound messages to the customer-facing
// messaging channel through a configurable HTTP endpoint.
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rasencioDatabrain/ChatManager/internal/config"
)

type Client struct {
	Config *config.Config
	http   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		Config: cfg,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether an outbound endpoint is configured. Without one,
// sends are recorded locally only.
func (c *Client) Enabled() bool {
	return c.Config.GatewayURL != ""
}

type outboundPayload struct {
	To      string `json:"to"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Send posts one message to the delivery endpoint.
func (c *Client) Send(to, msgType, content string) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(outboundPayload{To: to, Type: msgType, Content: content})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.Config.GatewayURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Config.GatewayToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.GatewayToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
