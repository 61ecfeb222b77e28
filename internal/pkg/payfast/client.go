package payfast

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// validResponse is the exact confirmation body PayFast returns for a
// legitimate notification.
const validResponse = "VALID"

// Client performs the server-to-server ITN confirmation round-trip and the
// source-address check. It holds no mutable state and is safe for concurrent
// use.
type Client struct {
	validateURL string
	httpClient  *http.Client
	allowed     []*net.IPNet
}

// NewClient builds a confirmation client. sourceRanges is the published
// PayFast egress allow-list in CIDR notation; a bare IP is accepted as a /32.
func NewClient(validateURL string, sourceRanges []string, timeout time.Duration) (*Client, error) {
	allowed := make([]*net.IPNet, 0, len(sourceRanges))
	for _, r := range sourceRanges {
		cidr := r
		if !strings.Contains(cidr, "/") {
			cidr += "/32"
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid source range %q: %w", r, err)
		}
		allowed = append(allowed, ipNet)
	}

	return &Client{
		validateURL: validateURL,
		httpClient:  &http.Client{Timeout: timeout},
		allowed:     allowed,
	}, nil
}

// SourceAllowed reports whether the notification's source address falls in
// the configured allow-list. An unparseable address is never allowed.
func (c *Client) SourceAllowed(sourceIP string) bool {
	ip := net.ParseIP(sourceIP)
	if ip == nil {
		return false
	}
	for _, ipNet := range c.allowed {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// Confirm submits the exact raw notification bytes back to PayFast and
// reports whether the gateway vouches for them. Re-serializing the payload
// could change byte order, so the original body is sent untouched. Any
// transport failure, non-2xx status or unexpected body fails closed. One
// retry is attempted on transport errors.
func (c *Client) Confirm(ctx context.Context, rawPayload []byte) bool {
	for attempt := 0; attempt < 2; attempt++ {
		ok, retryable := c.confirmOnce(ctx, rawPayload)
		if ok {
			return true
		}
		if !retryable {
			return false
		}
	}
	return false
}

func (c *Client) confirmOnce(ctx context.Context, rawPayload []byte) (ok, retryable bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.validateURL, bytes.NewReader(rawPayload))
	if err != nil {
		return false, false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return false, true
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The gateway answered; retrying won't change its verdict.
		return false, false
	}

	return strings.TrimSpace(string(body)) == validResponse, false
}
