// Package client talks to the website-chat backend over its REST API.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/liliang-cn/webchat/internal/domain"
	"go.uber.org/zap"
)

const (
	pathWebsites   = "/api/websites/"
	pathSystemInfo = "/api/websites/system_info/"
	pathScrape     = "/api/websites/scrape/"
	pathChat       = "/api/websites/chat/"
	pathDelete     = "/api/websites/delete_vectorized_data/"
	pathCleanup    = "/api/websites/cleanup_databases/"
)

// Client wraps the backend REST surface. It never retries and caches nothing.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// errorBody is the backend's failure envelope
type errorBody struct {
	Error   string `json:"error"`
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// New creates a backend client. A zero timeout leaves requests unbounded.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("client")

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.New().String())
		return nil
	})
	httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("backend response",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("latency", resp.Time()),
			zap.String("request_id", resp.Request.Header.Get("X-Request-ID")),
		)
		return nil
	})

	return &Client{http: httpClient, logger: logger}
}

// ListWebsites returns every site the backend knows about
func (c *Client) ListWebsites(ctx context.Context) ([]domain.Site, error) {
	var sites []domain.Site
	if err := c.do(ctx, resty.MethodGet, pathWebsites, nil, &sites); err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	return sites, nil
}

// SystemInfo returns the backend health snapshot
func (c *Client) SystemInfo(ctx context.Context) (*domain.SystemInfo, error) {
	var info domain.SystemInfo
	if err := c.do(ctx, resty.MethodGet, pathSystemInfo, nil, &info); err != nil {
		return nil, fmt.Errorf("system info: %w", err)
	}
	return &info, nil
}

// Scrape asks the backend to scrape and vectorize a URL
func (c *Client) Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error) {
	var result domain.ScrapeResult
	if err := c.do(ctx, resty.MethodPost, pathScrape, domain.ScrapeRequest{URL: url}, &result); err != nil {
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}
	result.URL = url
	return &result, nil
}

// Chat asks a question against one vector database
func (c *Client) Chat(ctx context.Context, vectorDBID domain.ID, query string) (*domain.ChatAnswer, error) {
	var answer domain.ChatAnswer
	req := domain.ChatRequest{VectorDBID: vectorDBID, Query: query}
	if err := c.do(ctx, resty.MethodPost, pathChat, req, &answer); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return &answer, nil
}

// DeleteVectorizedData removes a site's vector database, scraped data and record
func (c *Client) DeleteVectorizedData(ctx context.Context, vectorDBID domain.ID) (*domain.DeleteResult, error) {
	var result domain.DeleteResult
	if err := c.do(ctx, resty.MethodPost, pathDelete, domain.DeleteRequest{VectorDBID: vectorDBID}, &result); err != nil {
		return nil, fmt.Errorf("delete %s: %w", vectorDBID, err)
	}
	return &result, nil
}

// CleanupDatabases asks the backend to drop incomplete vectorizations
func (c *Client) CleanupDatabases(ctx context.Context) (*domain.CleanupResult, error) {
	var result domain.CleanupResult
	if err := c.do(ctx, resty.MethodPost, pathCleanup, struct{}{}, &result); err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var failure errorBody
	req := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&failure)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &domain.APIError{Message: err.Error(), Err: err}
	}

	if resp.IsError() {
		msg := failure.Error
		if msg == "" {
			msg = failure.Detail
		}
		if msg == "" {
			msg = failure.Message
		}
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		if msg == "" {
			msg = resp.Status()
		}
		return &domain.APIError{StatusCode: resp.StatusCode(), Message: msg}
	}

	return nil
}
