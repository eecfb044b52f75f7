// Package dispatch issues the live calls the executor has already
// cleared. It double-checks method safety anyway and records response
// metadata only, never bodies.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chainverify/internal/domain"
	"chainverify/internal/usecase"
)

const (
	defaultTimeout   = 10 * time.Second
	maxRedirects     = 3
	maxCountedBytes  = 10 << 20
	defaultUserAgent = "chainverify/1.0"
)

type HTTPDispatcher struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPDispatcher(timeout time.Duration) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPDispatcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("too many redirects")
				}
				if !domain.HTTPMethod(req.Method).IsSafe() {
					return errors.New("redirect into unsafe method")
				}
				return nil
			},
		},
		timeout: timeout,
	}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, req usecase.DispatchRequest) (usecase.DispatchResult, error) {
	if !req.Method.IsSafe() {
		return usecase.DispatchResult{}, fmt.Errorf("refusing unsafe method %s", req.Method)
	}
	target, err := buildURL(req.BaseURL, req.Path, req.Query)
	if err != nil {
		return usecase.DispatchResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), target, nil)
	if err != nil {
		return usecase.DispatchResult{}, err
	}
	httpReq.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := d.client.Do(httpReq)
	if err != nil {
		return usecase.DispatchResult{}, err
	}
	defer resp.Body.Close()

	// Bodies are counted and discarded; responses are never stored.
	size, _ := io.Copy(io.Discard, io.LimitReader(resp.Body, maxCountedBytes))

	return usecase.DispatchResult{
		StatusCode:   resp.StatusCode,
		Latency:      time.Since(start),
		ResponseSize: size,
		ContentType:  resp.Header.Get("Content-Type"),
	}, nil
}

func buildURL(baseURL, path string, query map[string]string) (string, error) {
	if baseURL == "" {
		return "", errors.New("base url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		values := u.Query()
		for k, v := range query {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}
	return u.String(), nil
}
