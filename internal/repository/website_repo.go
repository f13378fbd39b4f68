package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/liliang-cn/webchat/internal/domain"
)

// WebsiteRepository handles website persistence
type WebsiteRepository struct {
	db *DB
}

// NewWebsiteRepository creates a new website repository
func NewWebsiteRepository(db *DB) *WebsiteRepository {
	return &WebsiteRepository{db: db}
}

// PageContent is one scraped page stored for a website
type PageContent struct {
	URL             string
	Title           string
	MetaDescription string
	CombinedText    string
	WordCount       int
}

const websiteColumns = `id, url, title, meta_description, vector_db_id, date_scraped`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebsite(row rowScanner) (*domain.Site, error) {
	var (
		id          int64
		vectorDBID  string
		dateScraped time.Time
		site        domain.Site
	)
	if err := row.Scan(&id, &site.URL, &site.Title, &site.MetaDescription, &vectorDBID, &dateScraped); err != nil {
		return nil, err
	}
	site.ID = domain.NumberID(id)
	site.VectorDBID = domain.StringID(vectorDBID)
	site.DateScraped = dateScraped
	return &site, nil
}

// GetOrCreate returns the website for url, creating it when missing
func (r *WebsiteRepository) GetOrCreate(ctx context.Context, url string) (*domain.Site, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO websites (url, date_scraped) VALUES (?, ?)
		ON CONFLICT(url) DO NOTHING
	`, url, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return scanWebsite(r.db.QueryRowContext(ctx,
		`SELECT `+websiteColumns+` FROM websites WHERE url = ?`, url))
}

// GetByVectorDBID retrieves a website by its vector database id
func (r *WebsiteRepository) GetByVectorDBID(ctx context.Context, vectorDBID string) (*domain.Site, error) {
	site, err := scanWebsite(r.db.QueryRowContext(ctx,
		`SELECT `+websiteColumns+` FROM websites WHERE vector_db_id = ? AND vector_db_id != ''`, vectorDBID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return site, err
}

// List retrieves all websites, newest first
func (r *WebsiteRepository) List(ctx context.Context) ([]domain.Site, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+websiteColumns+` FROM websites ORDER BY date_scraped DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := []domain.Site{}
	for rows.Next() {
		site, err := scanWebsite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *site)
	}

	return sites, rows.Err()
}

// MarkScraped stores page content and the vector database id for a website,
// replacing whatever was stored before.
func (r *WebsiteRepository) MarkScraped(ctx context.Context, websiteID int64, vectorDBID string, pages []PageContent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scraped_contents WHERE website_id = ?`, websiteID); err != nil {
		return err
	}

	for _, p := range pages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scraped_contents (website_id, url, title, meta_description, combined_text, word_count)
			VALUES (?, ?, ?, ?, ?, ?)
		`, websiteID, p.URL, p.Title, p.MetaDescription, p.CombinedText, p.WordCount); err != nil {
			return err
		}
	}

	var title, description string
	if len(pages) > 0 {
		title, description = pages[0].Title, pages[0].MetaDescription
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE websites SET vector_db_id = ?, title = ?, meta_description = ?, date_scraped = ?
		WHERE id = ?
	`, vectorDBID, title, description, time.Now().UTC(), websiteID); err != nil {
		return err
	}

	return tx.Commit()
}

// CountContents returns the number of stored pages for a website
func (r *WebsiteRepository) CountContents(ctx context.Context, websiteID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scraped_contents WHERE website_id = ?`, websiteID).Scan(&count)
	return count, err
}

// DeleteByVectorDBID deletes a website and its pages, returning the number of pages removed
func (r *WebsiteRepository) DeleteByVectorDBID(ctx context.Context, vectorDBID string) (*domain.Site, int, error) {
	site, err := r.GetByVectorDBID(ctx, vectorDBID)
	if err != nil {
		return nil, 0, err
	}
	websiteID, err := WebsiteKey(site)
	if err != nil {
		return nil, 0, err
	}

	pages, err := r.CountContents(ctx, websiteID)
	if err != nil {
		return nil, 0, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM websites WHERE id = ?`, websiteID)
	if err != nil {
		return nil, 0, err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, 0, domain.ErrNotFound
	}

	return site, pages, nil
}

// ClearIncomplete drops the vector database id of websites that have no
// stored pages and returns how many were fixed.
func (r *WebsiteRepository) ClearIncomplete(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE websites SET vector_db_id = ''
		WHERE vector_db_id != ''
		AND NOT EXISTS (SELECT 1 FROM scraped_contents c WHERE c.website_id = websites.id)
	`)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

// WebsiteKey returns the numeric primary key of a stored website
func WebsiteKey(site *domain.Site) (int64, error) {
	id, err := strconv.ParseInt(site.ID.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("website id %q is not numeric: %w", site.ID.String(), err)
	}
	return id, nil
}
