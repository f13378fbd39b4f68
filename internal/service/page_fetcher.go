package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/liliang-cn/webchat/internal/repository"
)

// PageFetcher loads a single page and extracts the fields the backend stores.
// It does not crawl.
type PageFetcher struct {
	http *resty.Client
}

// NewPageFetcher creates a fetcher with a bounded timeout
func NewPageFetcher(timeout time.Duration) *PageFetcher {
	return &PageFetcher{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "webchat-mock/1.0").
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
	}
}

// Fetch downloads url and extracts title, description and visible text
func (f *PageFetcher) Fetch(ctx context.Context, url string) (*repository.PageContent, error) {
	resp, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	var parts []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			parts = append(parts, text)
		}
	})
	combined := strings.Join(parts, " ")

	return &repository.PageContent{
		URL:             url,
		Title:           title,
		MetaDescription: strings.TrimSpace(description),
		CombinedText:    combined,
		WordCount:       len(strings.Fields(combined)),
	}, nil
}
