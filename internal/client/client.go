package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/du-events/convite/internal/client/domain"
)

// Client talks to the verification API on behalf of gate staff. All
// admissions go through the PIN endpoint; the PIN comes from the gate
// profile, never from the operator's keyboard at the gate.
type Client struct {
	Profile domain.GateProfile
	HTTP    *http.Client
	Logger  *zerolog.Logger
}

type GuestInfo struct {
	GuestName string  `json:"guestName"`
	Status    string  `json:"status"`
	UsedAt    *string `json:"usedAt"`
	UsedBy    *string `json:"usedBy"`
}

type CheckResult struct {
	OK      bool    `json:"ok"`
	Status  string  `json:"status"`
	Error   string  `json:"error"`
	UsedAt  *string `json:"usedAt"`
	UsedBy  *string `json:"usedBy"`
	Guest   struct {
		GuestName string `json:"guestName"`
	} `json:"guest"`
	Student struct {
		StudentName string `json:"studentName"`
		MatricNo    string `json:"matricNo"`
	} `json:"student"`
}

type AdmitResult struct {
	OK      bool      `json:"ok"`
	Message string    `json:"message"`
	Error   string    `json:"error"`
	Guest   GuestInfo `json:"guest"`
}

func (c *Client) Check(ctx context.Context, token string) (CheckResult, error) {
	var res CheckResult
	err := c.post(ctx, "/verify/check", map[string]string{"token": token}, &res)
	return res, err
}

func (c *Client) Admit(ctx context.Context, token string) (AdmitResult, error) {
	var res AdmitResult
	err := c.post(ctx, "/verify/use-with-pin", map[string]string{
		"token": token,
		"pin":   c.Profile.PIN,
	}, &res)
	return res, err
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	url := strings.TrimRight(c.Profile.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpc := c.HTTP
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if c.Logger != nil {
		c.Logger.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("api call")
	}
	// Business outcomes (already used, invalid PIN, unknown token) come
	// back as structured JSON on 4xx; only undecodable bodies are errors.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
