package panel

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/liliang-cn/webchat/internal/domain"
	"go.uber.org/zap"
)

// SubmitStatus is the state of the URL submission form
type SubmitStatus int

const (
	SubmitIdle SubmitStatus = iota
	SubmitPending
	SubmitSucceeded
	SubmitFailed
)

const (
	invalidURLMessage   = "Please enter a valid URL (for example https://example.com)"
	scrapeFailedMessage = "Failed to scrape website. Please try again."
)

// SubmitView is a snapshot of the form
type SubmitView struct {
	Input   string
	Status  SubmitStatus
	Message string
	Result  *domain.ScrapeResult
}

// SubmitForm validates a URL, asks the backend to scrape it and hands the
// resulting site to its owner.
type SubmitForm struct {
	api       ScrapeAPI
	onScraped func(domain.Selection)
	validate  *validator.Validate
	logger    *zap.Logger

	mu   sync.Mutex
	view SubmitView
}

// NewSubmitForm creates a form. onScraped runs once per successful scrape.
func NewSubmitForm(api ScrapeAPI, onScraped func(domain.Selection), logger *zap.Logger) *SubmitForm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmitForm{
		api:       api,
		onScraped: onScraped,
		validate:  validator.New(),
		logger:    logger.Named("submit"),
	}
}

// ValidateURL returns the trimmed URL when it is absolute with a host
func (f *SubmitForm) ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if err := f.validate.Var(trimmed, "required,url"); err != nil {
		return "", domain.ErrInvalidURL
	}
	u, err := url.Parse(trimmed)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", domain.ErrInvalidURL
	}
	return trimmed, nil
}

// Submit validates raw and, when valid, runs one scrape request. Invalid input
// never reaches the network.
func (f *SubmitForm) Submit(ctx context.Context, raw string) (*domain.ScrapeResult, error) {
	target, err := f.Start(raw)
	if err != nil {
		return nil, err
	}
	return f.Complete(ctx, target)
}

// Start validates raw and marks the form pending. It returns the URL to pass
// to Complete; every successful call must be followed by Complete.
func (f *SubmitForm) Start(raw string) (string, error) {
	target, err := f.ValidateURL(raw)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.view.Status == SubmitPending {
		return "", domain.ErrBusy
	}
	f.view.Input = raw
	f.view.Result = nil
	if err != nil {
		f.view.Status = SubmitFailed
		f.view.Message = invalidURLMessage
		return "", err
	}
	f.view.Status = SubmitPending
	f.view.Message = ""
	return target, nil
}

// Complete runs the scrape started by Start and settles the form
func (f *SubmitForm) Complete(ctx context.Context, target string) (*domain.ScrapeResult, error) {
	result, err := f.api.Scrape(ctx, target)

	f.mu.Lock()
	if err != nil {
		f.view.Status = SubmitFailed
		f.view.Message = domain.BackendMessage(err, scrapeFailedMessage)
		f.mu.Unlock()
		f.logger.Warn("scrape failed", zap.String("url", target), zap.Error(err))
		return nil, err
	}
	if result.URL == "" {
		result.URL = target
	}
	f.view.Status = SubmitSucceeded
	f.view.Message = successMessage(result)
	f.view.Result = result
	f.view.Input = ""
	f.mu.Unlock()

	f.logger.Info("website vectorized",
		zap.String("url", target),
		zap.String("vector_db_id", result.VectorDBID.String()),
		zap.Int("pages", result.PagesScraped),
	)
	if f.onScraped != nil {
		f.onScraped(result.Selection())
	}
	return result, nil
}

// View returns a snapshot of the form
func (f *SubmitForm) View() SubmitView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func successMessage(r *domain.ScrapeResult) string {
	noun := "pages"
	if r.PagesScraped == 1 {
		noun = "page"
	}
	msg := fmt.Sprintf("Successfully scraped %d %s from %s", r.PagesScraped, noun, r.URL)
	if r.UsedSampleData {
		msg += " (the site could not be scraped, sample data was used instead)"
	}
	return msg
}
