package compliance

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/wavesplatform/etoken/pkg/errs"
	"github.com/wavesplatform/etoken/pkg/proto"
)

// ApiKeyHeader is an HTTP header name for API Key
const ApiKeyHeader = "X-API-Key" // #nosec: it's a header name

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	BaseUrl string
	Client  Doer
	ApiKey  string
}

var defaultOptions = Options{
	Client: &http.Client{Timeout: 3 * time.Second},
}

// Client is an Oracle served by a remote HTTP service.
// Requests are never retried, any failure is returned to the caller.
type Client struct {
	options Options
}

func NewClient(options Options) (*Client, error) {
	opts := defaultOptions
	if options.BaseUrl == "" {
		return nil, errors.New("empty oracle base URL")
	}
	if _, err := url.Parse(options.BaseUrl); err != nil {
		return nil, errors.Wrap(err, "invalid oracle base URL")
	}
	opts.BaseUrl = options.BaseUrl
	if options.Client != nil {
		opts.Client = options.Client
	}
	opts.ApiKey = options.ApiKey
	return &Client{options: opts}, nil
}

type transferRequest struct {
	From    proto.Address `json:"from"`
	To      proto.Address `json:"to,omitempty"`
	ICAP    proto.Address `json:"icap,omitempty"`
	Value   string        `json:"value"`
	Success *bool         `json:"success,omitempty"`
}

type allowedResponse struct {
	Allowed bool `json:"allowed"`
}

func (c *Client) post(ctx context.Context, path string, body transferRequest, v any) error {
	u, err := url.JoinPath(c.options.BaseUrl, path)
	if err != nil {
		return errs.NewOracleError(err.Error())
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return errors.Wrap(err, "failed to marshal oracle request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf.B))
	if err != nil {
		return errs.NewOracleError(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.options.ApiKey != "" {
		req.Header.Set(ApiKeyHeader, c.options.ApiKey)
	}
	resp, err := c.options.Client.Do(req)
	if err != nil {
		return errs.Extend(errs.NewOracleError(err.Error()), path)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close() // No error handling intentionally
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return errs.NewOracleError(errors.Errorf("%s: invalid status code %d: %s", path, resp.StatusCode, msg).Error())
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errs.Extend(errs.NewOracleError(err.Error()), path)
	}
	return nil
}

func (c *Client) IsTransferAllowed(ctx context.Context, from, to proto.Address, value *uint256.Int) (bool, error) {
	var resp allowedResponse
	err := c.post(ctx, "isTransferAllowed", transferRequest{From: from, To: to, Value: amountString(value)}, &resp)
	return resp.Allowed, err
}

func (c *Client) IsTransferToICAPAllowed(ctx context.Context, from, icap proto.Address, value *uint256.Int) (bool, error) {
	var resp allowedResponse
	err := c.post(ctx, "isTransferToICAPAllowed", transferRequest{From: from, ICAP: icap, Value: amountString(value)}, &resp)
	return resp.Allowed, err
}

func (c *Client) ProcessTransferResult(ctx context.Context, from, to proto.Address, value *uint256.Int, success bool) error {
	return c.post(ctx, "processTransferResult", transferRequest{From: from, To: to, Value: amountString(value), Success: &success}, nil)
}

func (c *Client) ProcessTransferToICAPResult(ctx context.Context, from, icap proto.Address, value *uint256.Int, success bool) error {
	return c.post(ctx, "processTransferToICAPResult", transferRequest{From: from, ICAP: icap, Value: amountString(value), Success: &success}, nil)
}
