package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/liliang-cn/webchat/internal/config"
	"github.com/liliang-cn/webchat/internal/domain"
	"github.com/liliang-cn/webchat/internal/repository"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRequest indicates a missing or malformed request field
	ErrInvalidRequest = errors.New("invalid request")
	// ErrLLMUnavailable indicates the language model service is down
	ErrLLMUnavailable = errors.New("Ollama is not running. Please start Ollama and try again.")
)

// LockedError simulates the vector store refusing to delete an index file
// that is held open by the backend process.
type LockedError struct {
	Path string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("[WinError 32] The process cannot access the file because it is being used by another process: '%s'", e.Path)
}

const sampleText = "This domain is for use in illustrative examples in documents. " +
	"You may use this domain in literature without prior coordination or asking for permission."

// WebsiteService implements the development backend. It stores what it
// scrapes but never embeds, retrieves or generates anything.
type WebsiteService struct {
	repo    *repository.WebsiteRepository
	fetcher *PageFetcher
	probe   *resty.Client
	cfg     config.MockConfig
	locked  map[string]bool
	logger  *zap.Logger
}

// NewWebsiteService creates a new website service
func NewWebsiteService(cfg config.MockConfig, repo *repository.WebsiteRepository, fetcher *PageFetcher, logger *zap.Logger) *WebsiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	locked := make(map[string]bool, len(cfg.LockedIDs))
	for _, id := range cfg.LockedIDs {
		locked[id] = true
	}
	return &WebsiteService{
		repo:    repo,
		fetcher: fetcher,
		probe:   resty.New().SetTimeout(2 * time.Second),
		cfg:     cfg,
		locked:  locked,
		logger:  logger.Named("website_service"),
	}
}

// VectorDBID derives the vector database id for a URL
func VectorDBID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// List returns every stored website
func (s *WebsiteService) List(ctx context.Context) ([]domain.Site, error) {
	return s.repo.List(ctx)
}

// Scrape records url, optionally fetching its front page, and assigns a vector database id
func (s *WebsiteService) Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidRequest)
	}

	site, err := s.repo.GetOrCreate(ctx, url)
	if err != nil {
		return nil, err
	}
	key, err := repository.WebsiteKey(site)
	if err != nil {
		return nil, err
	}

	var page *repository.PageContent
	if s.cfg.FetchTitles && s.fetcher != nil {
		page, err = s.fetcher.Fetch(ctx, url)
		if err != nil {
			s.logger.Warn("page fetch failed, using sample data", zap.String("url", url), zap.Error(err))
		}
	}

	usedSample := page == nil || page.CombinedText == ""
	if usedSample {
		page = &repository.PageContent{
			URL:          url,
			Title:        "Example Domain",
			CombinedText: sampleText,
			WordCount:    len(strings.Fields(sampleText)),
		}
	}

	vectorDBID := VectorDBID(url)
	if err := s.repo.MarkScraped(ctx, key, vectorDBID, []repository.PageContent{*page}); err != nil {
		return nil, err
	}

	result := &domain.ScrapeResult{
		Message:      "Website scraped and vectorized successfully",
		WebsiteID:    site.ID,
		VectorDBID:   domain.StringID(vectorDBID),
		PagesScraped: 1,
	}
	if usedSample {
		result.Message = "Website could not be scraped. Sample data was used instead."
		result.UsedSampleData = true
	}

	s.logger.Info("website scraped",
		zap.String("url", url),
		zap.String("vector_db_id", vectorDBID),
		zap.Bool("sample_data", usedSample),
	)
	return result, nil
}

// Chat returns a canned answer for a vectorized website
func (s *WebsiteService) Chat(ctx context.Context, vectorDBID, query string) (*domain.ChatAnswer, error) {
	if vectorDBID == "" || strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: vector_db_id and query are required", ErrInvalidRequest)
	}
	if !s.OllamaRunning(ctx) {
		return nil, ErrLLMUnavailable
	}

	site, err := s.repo.GetByVectorDBID(ctx, vectorDBID)
	if err != nil {
		return nil, err
	}
	key, err := repository.WebsiteKey(site)
	if err != nil {
		return nil, err
	}
	sources, err := s.repo.CountContents(ctx, key)
	if err != nil {
		return nil, err
	}

	name := site.Title
	if name == "" {
		name = site.URL
	}
	answer := fmt.Sprintf("## %s\n\nThis development backend does not run a language model.\n\n"+
		"You asked:\n\n> %s\n\n- Source: `%s`\n- Pages stored: %d\n",
		name, strings.TrimSpace(query), site.URL, sources)

	return &domain.ChatAnswer{Answer: answer, SourceCount: sources}, nil
}

// Delete removes a website and everything stored for it
func (s *WebsiteService) Delete(ctx context.Context, vectorDBID string) (*domain.DeleteResult, error) {
	if vectorDBID == "" {
		return nil, fmt.Errorf("%w: vector_db_id is required", ErrInvalidRequest)
	}
	if s.locked[vectorDBID] {
		return nil, &LockedError{Path: vectorDBID + "/chroma.sqlite3"}
	}

	site, pages, err := s.repo.DeleteByVectorDBID(ctx, vectorDBID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("website deleted",
		zap.String("url", site.URL),
		zap.String("vector_db_id", vectorDBID),
		zap.Int("pages", pages),
	)
	return &domain.DeleteResult{
		Message:           fmt.Sprintf("Successfully deleted vectorized data for %s", site.URL),
		DeletedVectorDBID: domain.StringID(vectorDBID),
	}, nil
}

// SystemInfo reports LLM availability and the vectorized databases
func (s *WebsiteService) SystemInfo(ctx context.Context) (*domain.SystemInfo, error) {
	sites, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	info := &domain.SystemInfo{
		OllamaRunning:       s.OllamaRunning(ctx),
		VectorizedDatabases: []domain.VectorizedDB{},
		Websites:            sites,
	}
	for _, site := range sites {
		if site.HasVectorDB() {
			info.VectorizedDatabases = append(info.VectorizedDatabases, domain.VectorizedDB{
				VectorDBID: site.VectorDBID,
				WebsiteID:  site.ID,
				URL:        site.URL,
			})
		}
	}
	return info, nil
}

// Cleanup clears vector database ids that have no stored content
func (s *WebsiteService) Cleanup(ctx context.Context) (*domain.CleanupResult, error) {
	fixed, err := s.repo.ClearIncomplete(ctx)
	if err != nil {
		return nil, err
	}
	info, err := s.SystemInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.CleanupResult{
		Message:             fmt.Sprintf("Cleanup completed successfully. Fixed %d inconsistencies.", fixed),
		VectorizedDatabases: info.VectorizedDatabases,
	}, nil
}

// OllamaRunning probes the configured Ollama endpoint, falling back to the
// configured flag when no endpoint is set.
func (s *WebsiteService) OllamaRunning(ctx context.Context) bool {
	if s.cfg.OllamaURL == "" {
		return s.cfg.OllamaRunning
	}
	resp, err := s.probe.R().SetContext(ctx).Get(strings.TrimRight(s.cfg.OllamaURL, "/") + "/api/version")
	if err != nil {
		s.logger.Debug("ollama probe failed", zap.Error(err))
		return false
	}
	return resp.StatusCode() == 200
}
