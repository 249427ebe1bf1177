package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"newsbrief/internal/logger"
)

const defaultUserAgent = "newsbrief/1.0 (+https://github.com/newsbrief)"

// Client is the shared outbound HTTP helper for all adapters: bounded
// timeout, bounded response size, optional proxy with a single direct
// fallback on proxy connection failure.
type Client struct {
	rest    *resty.Client
	direct  *resty.Client // nil unless a proxy is configured
	maxBody int64
}

// NewClient builds a client. When proxyURL is non-empty all requests go
// through the proxy first; a connection-level proxy failure triggers exactly
// one direct retry. This is a deliberate tradeoff, not a retry loop.
func NewClient(timeout time.Duration, maxBody int64, proxyURL string) *Client {
	base := func() *resty.Client {
		return resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", defaultUserAgent).
			SetDoNotParseResponse(true)
	}

	c := &Client{rest: base(), maxBody: maxBody}
	if proxyURL != "" {
		c.rest.SetProxy(proxyURL)
		c.direct = base()
	}
	return c
}

// GetBytes fetches url and returns at most the configured byte ceiling. A
// response exceeding the ceiling is an error, not a silent truncation.
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := c.do(ctx, c.rest, url, headers)
	if err != nil {
		if c.direct == nil || ctx.Err() != nil || !isProxyConnError(err) {
			return nil, err
		}
		logger.Warn().Err(err).Str("url", url).Msg("proxy unreachable, retrying direct once")
		resp, err = c.do(ctx, c.direct, url, headers)
		if err != nil {
			return nil, err
		}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		// Drain a little so the connection can be reused, then fail.
		io.Copy(io.Discard, io.LimitReader(body, 4<<10))
		if resp.StatusCode() == http.StatusTooManyRequests {
			return nil, fmt.Errorf("rate limited by %s", url)
		}
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode(), url)
	}

	data, err := io.ReadAll(io.LimitReader(body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", url, c.maxBody)
	}
	return data, nil
}

// isProxyConnError reports whether err is a connection-level failure against
// the proxy itself (refused, reset, dial timeout). net/http wraps those in an
// OpError with Op "proxyconnect"; upstream failures reached through a working
// proxy do not qualify and get no direct retry.
func isProxyConnError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "proxyconnect"
}

func (c *Client) do(ctx context.Context, rc *resty.Client, url string, headers map[string]string) (*resty.Response, error) {
	req := rc.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	return resp, nil
}
