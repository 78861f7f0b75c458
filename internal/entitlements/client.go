// Package entitlements talks to the external account/plan service that
// supplies room caps at creation time. The core never computes caps itself;
// callers fall back to quiz.DefaultCaps on any failure here.
package entitlements

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fundraisely/quizhub/internal/quiz"
)

type Client struct {
	BaseURL string
	APIKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// RoomCaps asks the entitlements service for the host's plan limits for a
// new room.
func (c *Client) RoomCaps(ctx context.Context, hostID string) (*quiz.RoomCaps, error) {
	if c.BaseURL == "" {
		return nil, errors.New("entitlements service not configured")
	}

	payload := map[string]string{"hostId": hostID}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/room-caps", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("entitlements service returned %d", resp.StatusCode)
	}

	var out struct {
		Caps quiz.RoomCaps `json:"caps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out.Caps, nil
}
