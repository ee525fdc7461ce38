// Package qikink talks to the upstream fulfillment provider's order
// API: token exchange, page-numbered order listing, and single-order
// lookup. Pagination is strictly sequential with a periodic cooldown
// to stay under the provider's rate limit.
package qikink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"kc-order-sync/internal/config"
	"kc-order-sync/internal/fetch"
)

const (
	// The provider rate limit tolerates short bursts; every cooldownEvery
	// pages the client pauses for cooldownSleep.
	cooldownEvery = 25
	cooldownSleep = 5 * time.Second
)

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	pageCap      int
	hc           *http.Client
	policy       fetch.Policy
	log          *logrus.Logger
	sleep        func(time.Duration)
}

func NewClient(cfg config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.QikinkBaseURL, "/"),
		clientID:     cfg.QikinkClientID,
		clientSecret: cfg.QikinkClientSecret,
		pageCap:      cfg.PageCap,
		hc:           &http.Client{Timeout: 30 * time.Second},
		policy:       fetch.DefaultPolicy(),
		log:          log,
		sleep:        time.Sleep,
	}
}

// token exchanges the client credentials for a short-lived access
// token. Tokens are not cached across runs.
func (c *Client) token(ctx context.Context) (string, error) {
	form := url.Values{
		"ClientId":      {c.clientID},
		"client_secret": {c.clientSecret},
	}
	resp, err := fetch.Do(ctx, c.hc, c.policy, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned an empty access token")
	}
	return tok.AccessToken, nil
}

func (c *Client) get(ctx context.Context, token, endpoint string) ([]byte, error) {
	resp, err := fetch.Do(ctx, c.hc, c.policy, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, c.baseURL+endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("ClientId", c.clientID)
		req.Header.Set("Accesstoken", token)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// FetchPage returns one page of orders. Pages are 1-indexed and hold
// roughly ten orders each.
func (c *Client) FetchPage(ctx context.Context, token string, page int) ([]Order, error) {
	body, err := c.get(ctx, token, fmt.Sprintf("/api/order?page_no=%d", page))
	if err != nil {
		return nil, fmt.Errorf("fetching orders page %d: %w", page, err)
	}
	var orders []Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("decoding orders page %d: %w", page, err)
	}
	return orders, nil
}

// FetchAll walks pages 1..PageCap. The API offers no total count, so
// the cap is a safety bound; an empty page is treated as the end of
// the data. Every 25th page the client sleeps 5 seconds to stay under
// the rate limit.
func (c *Client) FetchAll(ctx context.Context) ([]Order, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var all []Order
	for page := 1; page <= c.pageCap; page++ {
		if page%cooldownEvery == 0 {
			c.sleep(cooldownSleep)
		}
		orders, err := c.FetchPage(ctx, token, page)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			break
		}
		all = append(all, orders...)
	}
	c.log.WithField("orders", len(all)).Info("qikink fetch complete")
	return all, nil
}

// FetchByID looks up a single order.
func (c *Client) FetchByID(ctx context.Context, id string) (*Order, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, token, "/api/order?id="+url.QueryEscape(id))
	if err != nil {
		return nil, fmt.Errorf("fetching order %s: %w", id, err)
	}
	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("decoding order %s: %w", id, err)
	}
	return &order, nil
}
