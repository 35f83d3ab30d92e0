package zeroexorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RelayClient handles HTTP requests to a relay
type RelayClient struct {
	host       string
	orderPath  string
	ordersPath string
	client     *http.Client
	logger     *zap.Logger
}

// NewRelayClient creates a new relay client
func NewRelayClient(host, orderPath, ordersPath string, timeout time.Duration, logger *zap.Logger) *RelayClient {
	if orderPath == "" {
		orderPath = DefaultOrderPath
	}
	if ordersPath == "" {
		ordersPath = DefaultOrdersPath
	}
	if timeout == 0 {
		timeout = DefaultRelayTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayClient{
		host:       host,
		orderPath:  orderPath,
		ordersPath: ordersPath,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// doRequest performs an HTTP request and returns the body of a 2xx response
func (c *RelayClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(bodyBytes)
		if bodyStr == "" {
			bodyStr = resp.Status
		}
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: bodyStr}
	}

	return bodyBytes, nil
}

// decodeJSON decodes a response body, including a prefix of it in the error
func decodeJSON(body []byte, result interface{}) error {
	if err := json.Unmarshal(body, result); err != nil {
		bodyStr := string(body)
		if len(bodyStr) > 200 {
			bodyStr = bodyStr[:200] + "..."
		}
		return fmt.Errorf("failed to decode JSON response: %w (body: %s)", err, bodyStr)
	}
	return nil
}

// PostOrder submits a signed order. The relay response body is returned as is.
func (c *RelayClient) PostOrder(ctx context.Context, payload *RelayOrderPayload) (json.RawMessage, error) {
	c.logger.Sugar().Infow("Posting order to relay",
		"endpoint", c.host+c.orderPath,
		"maker", payload.Maker,
		"salt", payload.Salt,
	)

	body, err := c.doRequest(ctx, http.MethodPost, c.orderPath, payload)
	if err != nil {
		c.logger.Sugar().Errorw("Relay rejected order", "error", err)
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, &TransportError{StatusCode: http.StatusOK, Body: string(body), Err: fmt.Errorf("relay returned invalid JSON")}
	}
	return json.RawMessage(body), nil
}

// GetOrder fetches an order by hash
func (c *RelayClient) GetOrder(ctx context.Context, orderHash string) (*RelayOrderPayload, error) {
	if !IsValidOrderHash(orderHash) {
		return nil, &InvalidParamError{Message: fmt.Sprintf("invalid order hash: %q", orderHash)}
	}

	body, err := c.doRequest(ctx, http.MethodGet, c.orderPath+"/"+orderHash, nil)
	if err != nil {
		return nil, err
	}

	var result RelayOrderPayload
	if err := decodeJSON(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrders lists orders matching query
func (c *RelayClient) GetOrders(ctx context.Context, query OrdersQuery) ([]RelayOrderPayload, error) {
	params := url.Values{}
	setParam(params, "exchangeContractAddress", query.ExchangeContractAddress)
	setParam(params, "maker", query.Maker)
	setParam(params, "taker", query.Taker)
	setParam(params, "makerTokenAddress", query.MakerTokenAddress)
	setParam(params, "takerTokenAddress", query.TakerTokenAddress)
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(query.PerPage))
	}

	endpoint := c.ordersPath
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result []RelayOrderPayload
	if err := decodeJSON(body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func setParam(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}
