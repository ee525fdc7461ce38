// Package shopify talks to the downstream commerce platform's Admin
// REST API: windowed order listing with Link-header pagination,
// customer lookup, mark-paid transactions, and fulfillment tracking
// updates.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"kc-order-sync/internal/config"
	"kc-order-sync/internal/fetch"
)

const (
	pageLimit = 250

	// Throttle tuning: when the shop's call budget has fewer than
	// safetyMargin calls left, pause coolOffSleep; otherwise apply the
	// baseline delay between pages to avoid bursting.
	safetyMargin  = 5
	coolOffSleep  = 800 * time.Millisecond
	baselineSleep = 200 * time.Millisecond
)

// orderFields limits list responses to what the export consumes.
var orderFields = strings.Join([]string{
	"id", "name", "created_at", "billing_address", "shipping_address", "line_items",
	"total_price", "financial_status", "cancelled_at", "customer", "tags", "refunds",
}, ",")

var nextLinkRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

type Client struct {
	baseURL string
	token   string
	hc      *http.Client
	policy  fetch.Policy
	log     *logrus.Logger
	sleep   func(time.Duration)
}

func NewClient(cfg config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL: fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", cfg.ShopifyShop, cfg.ShopifyAPIVersion),
		token:   cfg.ShopifyToken,
		hc:      &http.Client{Timeout: 30 * time.Second},
		policy:  fetch.DefaultPolicy(),
		log:     log,
		sleep:   time.Sleep,
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload any) (*http.Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return fetch.Do(ctx, c.hc, c.policy, func() (*http.Request, error) {
		var rd *bytes.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		} else {
			rd = bytes.NewReader(nil)
		}
		req, err := http.NewRequest(method, rawURL, rd)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Shopify-Access-Token", c.token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) (*http.Response, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return resp, nil
}

// FetchOrders lists every order created inside [windowStart, windowEnd]
// following the Link header until no rel="next" remains.
func (c *Client) FetchOrders(ctx context.Context, windowStart, windowEnd time.Time) ([]Order, error) {
	params := url.Values{
		"created_at_min": {windowStart.Format(time.RFC3339)},
		"created_at_max": {windowEnd.Format(time.RFC3339)},
		"status":         {"any"},
		"limit":          {strconv.Itoa(pageLimit)},
		"fields":         {orderFields},
	}
	next := c.baseURL + "/orders.json?" + params.Encode()

	var all []Order
	for next != "" {
		var page ordersResponse
		resp, err := c.getJSON(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("listing orders: %w", err)
		}
		all = append(all, page.Orders...)

		c.throttle(resp.Header)
		next = nextPageURL(resp.Header)
	}
	c.log.WithField("orders", len(all)).Info("shopify fetch complete")
	return all, nil
}

// throttle inspects the shop's call-limit header ("used/capacity") and
// pauses accordingly between pages.
func (c *Client) throttle(h http.Header) {
	used, capacity, ok := parseCallLimit(h.Get("X-Shopify-Shop-Api-Call-Limit"))
	if ok && used > capacity-safetyMargin {
		c.sleep(coolOffSleep)
		return
	}
	c.sleep(baselineSleep)
}

func parseCallLimit(raw string) (used, capacity int, ok bool) {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	used, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	capacity, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || capacity == 0 {
		return 0, 0, false
	}
	return used, capacity, true
}

func nextPageURL(h http.Header) string {
	for _, link := range h.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			if m := nextLinkRe.FindStringSubmatch(part); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// OrderIDByName resolves a platform order id from its display name
// (including the "#" prefix). Returns 0 when no order matches.
func (c *Client) OrderIDByName(ctx context.Context, name string) (int64, error) {
	u := c.baseURL + "/orders.json?status=any&name=" + url.QueryEscape(name)
	var page ordersResponse
	if _, err := c.getJSON(ctx, u, &page); err != nil {
		return 0, fmt.Errorf("looking up order %q: %w", name, err)
	}
	if len(page.Orders) == 0 {
		return 0, nil
	}
	return page.Orders[0].ID, nil
}

// MarkOrderPaid records a successful sale transaction against the
// order. A nil amount makes the platform settle the full outstanding
// balance.
func (c *Client) MarkOrderPaid(ctx context.Context, orderID int64) error {
	u := fmt.Sprintf("%s/orders/%d/transactions.json", c.baseURL, orderID)
	payload := map[string]any{
		"transaction": map[string]any{
			"kind":   "sale",
			"status": "success",
			"amount": nil,
		},
	}
	resp, err := c.do(ctx, http.MethodPost, u, payload)
	if err != nil {
		return fmt.Errorf("marking order %d paid: %w", orderID, err)
	}
	resp.Body.Close()
	return nil
}

// FulfillmentOrderID returns the first fulfillment order attached to
// the order, or 0 when none exists yet.
func (c *Client) FulfillmentOrderID(ctx context.Context, orderID int64) (int64, error) {
	u := fmt.Sprintf("%s/orders/%d/fulfillment_orders.json", c.baseURL, orderID)
	var page fulfillmentOrdersResponse
	if _, err := c.getJSON(ctx, u, &page); err != nil {
		return 0, fmt.Errorf("listing fulfillment orders for %d: %w", orderID, err)
	}
	if len(page.FulfillmentOrders) == 0 {
		return 0, nil
	}
	return page.FulfillmentOrders[0].ID, nil
}

// UpdateFulfillmentTracking attaches courier tracking to an existing
// fulfillment and notifies the customer.
func (c *Client) UpdateFulfillmentTracking(ctx context.Context, orderID, fulfillmentID int64, info TrackingInfo) error {
	u := fmt.Sprintf("%s/orders/%d/fulfillments/%d/update_tracking.json", c.baseURL, orderID, fulfillmentID)
	payload := map[string]any{
		"fulfillment": map[string]any{
			"tracking_info":   info,
			"notify_customer": true,
		},
	}
	resp, err := c.do(ctx, http.MethodPost, u, payload)
	if err != nil {
		return fmt.Errorf("updating tracking on order %d fulfillment %d: %w", orderID, fulfillmentID, err)
	}
	resp.Body.Close()
	return nil
}

// FetchCustomer looks up a customer with a fields-limited request.
// Returns nil when the customer cannot be fetched.
func (c *Client) FetchCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	u := fmt.Sprintf("%s/customers/%d.json?fields=first_name,last_name,default_address,email,phone", c.baseURL, customerID)
	var payload customerResponse
	if _, err := c.getJSON(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("fetching customer %d: %w", customerID, err)
	}
	return payload.Customer, nil
}
