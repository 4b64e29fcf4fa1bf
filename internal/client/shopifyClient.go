package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopify-tally-integration/internal/config"
	"shopify-tally-integration/internal/dto"
	"shopify-tally-integration/internal/metrics"
	"shopify-tally-integration/internal/model"
)

var ErrShopifyNotConfigured = errors.New("shopify: store or access token not configured")

// APIError is a non-2xx answer from Shopify. Body is kept verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify error %d: %s", e.StatusCode, e.Body)
}

// TokenProvider supplies the Admin API access token for the configured store.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

type ListOrdersParams struct {
	Status       string
	CreatedAtMin string
	CreatedAtMax string
	Limit        int
}

type ShopifyClient interface {
	ListOrders(ctx context.Context, params ListOrdersParams) ([]json.RawMessage, error)
	GetOrder(ctx context.Context, orderID string) (json.RawMessage, error)
	GetCustomer(ctx context.Context, customerID string) (*model.ShopifyCustomer, error)
	CreateOrder(ctx context.Context, payload *dto.ShopifyOrderCreate) (string, error)
	GraphQL(ctx context.Context, query string, variables map[string]any, out any) error
	AuthorizeURL(shop, state string) string
	ExchangeCode(ctx context.Context, shop, code string) (*model.ShopifyToken, error)
}

type shopifyClientImpl struct {
	httpClient *http.Client
	cfg        *config.Shopify
	tokens     TokenProvider
	metrics    *metrics.Registry
}

func NewShopifyClient(cfg *config.Shopify, tokens TokenProvider, m *metrics.Registry) ShopifyClient {
	return &shopifyClientImpl{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		cfg:     cfg,
		tokens:  tokens,
		metrics: m,
	}
}

func (c *shopifyClientImpl) adminURL(path string) string {
	return fmt.Sprintf("%s/admin/api/%s/%s", c.cfg.BaseURL(), c.cfg.APIVersion, path)
}

// do sends an authenticated Admin API request and returns the response body.
func (c *shopifyClientImpl) do(ctx context.Context, operation, method, endpoint string, payload any) ([]byte, error) {
	if !c.cfg.Configured() {
		return nil, ErrShopifyNotConfigured
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(operation, "error", start)
		return nil, fmt.Errorf("shopify %s request: %w", operation, err)
	}
	defer resp.Body.Close()
	c.observe(operation, strconv.Itoa(resp.StatusCode), start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read shopify response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (c *shopifyClientImpl) observe(operation, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ShopifyLatency.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// ListOrders returns the first page of orders matching params. Later pages
// are not followed.
func (c *shopifyClientImpl) ListOrders(ctx context.Context, params ListOrdersParams) ([]json.RawMessage, error) {
	q := url.Values{}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.CreatedAtMin != "" {
		q.Set("created_at_min", params.CreatedAtMin)
	}
	if params.CreatedAtMax != "" {
		q.Set("created_at_max", params.CreatedAtMax)
	}
	limit := params.Limit
	if limit <= 0 || limit > 250 {
		limit = 250
	}
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, "list_orders", http.MethodGet, c.adminURL("orders.json")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Orders []json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode shopify orders: %w", err)
	}
	return result.Orders, nil
}

func (c *shopifyClientImpl) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	body, err := c.do(ctx, "get_order", http.MethodGet, c.adminURL("orders/"+url.PathEscape(orderID)+".json"), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode shopify order: %w", err)
	}
	return result.Order, nil
}

const customerQuery = `query customer($id: ID!) {
  customer(id: $id) { firstName lastName email phone }
}`

// GetCustomer fetches a customer over REST, or over GraphQL when configured.
func (c *shopifyClientImpl) GetCustomer(ctx context.Context, customerID string) (*model.ShopifyCustomer, error) {
	if c.cfg.UseGraphQL {
		var data struct {
			Customer *struct {
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
				Email     string `json:"email"`
				Phone     string `json:"phone"`
			} `json:"customer"`
		}
		vars := map[string]any{"id": "gid://shopify/Customer/" + customerID}
		if err := c.GraphQL(ctx, customerQuery, vars, &data); err != nil {
			return nil, err
		}
		if data.Customer == nil {
			return nil, &APIError{StatusCode: http.StatusNotFound, Body: "customer " + customerID + " not found"}
		}
		return &model.ShopifyCustomer{
			ID:        model.FlexID(customerID),
			FirstName: model.FlexString(data.Customer.FirstName),
			LastName:  model.FlexString(data.Customer.LastName),
			Email:     model.FlexString(data.Customer.Email),
			Phone:     model.FlexString(data.Customer.Phone),
		}, nil
	}

	body, err := c.do(ctx, "get_customer", http.MethodGet, c.adminURL("customers/"+url.PathEscape(customerID)+".json"), nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Customer model.ShopifyCustomer `json:"customer"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode shopify customer: %w", err)
	}
	return &result.Customer, nil
}

func (c *shopifyClientImpl) GraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	payload := map[string]any{"query": query, "variables": variables}
	body, err := c.do(ctx, "graphql", http.MethodPost, c.adminURL("graphql.json"), payload)
	if err != nil {
		return err
	}

	var result struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			msgs[i] = e.Message
		}
		return &APIError{StatusCode: http.StatusOK, Body: strings.Join(msgs, "; ")}
	}
	if out == nil || len(result.Data) == 0 {
		return nil
	}
	return json.Unmarshal(result.Data, out)
}

// CreateOrder submits a new order and returns the Shopify-assigned id.
func (c *shopifyClientImpl) CreateOrder(ctx context.Context, payload *dto.ShopifyOrderCreate) (string, error) {
	body, err := c.do(ctx, "create_order", http.MethodPost, c.adminURL("orders.json"), payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Order struct {
			ID model.FlexID `json:"id"`
		} `json:"order"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode shopify create order response: %w", err)
	}
	return result.Order.ID.String(), nil
}

func (c *shopifyClientImpl) AuthorizeURL(shop, state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("scope", c.cfg.Scopes)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("state", state)
	return config.ShopURL(shop) + "/admin/oauth/authorize?" + q.Encode()
}

// ExchangeCode trades an OAuth authorization code for an offline access token.
func (c *shopifyClientImpl) ExchangeCode(ctx context.Context, shop, code string) (*model.ShopifyToken, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.ShopURL(shop)+"/admin/oauth/access_token", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopify token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var token model.ShopifyToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode shopify token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "empty access token"}
	}
	return &token, nil
}
