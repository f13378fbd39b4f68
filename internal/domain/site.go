package domain

import "time"

// Site is a website known to the backend
type Site struct {
	ID              ID        `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	VectorDBID      ID        `json:"vector_db_id"`
	DateScraped     time.Time `json:"date_scraped"`
}

// HasVectorDB reports whether the site has been vectorized
func (s Site) HasVectorDB() bool {
	return !s.VectorDBID.IsZero()
}

// Selection returns the selection value for this site
func (s Site) Selection() Selection {
	return Selection{WebsiteID: s.ID, VectorDBID: s.VectorDBID, URL: s.URL}
}

// Selection identifies the site the chat panel talks to
type Selection struct {
	WebsiteID  ID     `json:"website_id"`
	VectorDBID ID     `json:"vector_db_id"`
	URL        string `json:"url"`
}

// SameSite reports whether two selections refer to the same vector database
func (s Selection) SameSite(o Selection) bool {
	return s.VectorDBID == o.VectorDBID && s.WebsiteID == o.WebsiteID
}

// ScrapeRequest is the body of a scrape call
type ScrapeRequest struct {
	URL string `json:"url" binding:"required"`
}

// ScrapeResult is the backend's answer to a successful scrape
type ScrapeResult struct {
	Message        string `json:"message,omitempty"`
	WebsiteID      ID     `json:"website_id"`
	VectorDBID     ID     `json:"vector_db_id"`
	PagesScraped   int    `json:"pages_scraped"`
	UsedSampleData bool   `json:"used_sample_data,omitempty"`
	URL            string `json:"-"`
}

// Selection returns the selection produced by a scrape
func (r ScrapeResult) Selection() Selection {
	return Selection{WebsiteID: r.WebsiteID, VectorDBID: r.VectorDBID, URL: r.URL}
}

// DeleteRequest is the body of a delete_vectorized_data call
type DeleteRequest struct {
	VectorDBID ID `json:"vector_db_id"`
}

// DeleteResult is the backend's answer to a successful delete
type DeleteResult struct {
	Message           string `json:"message,omitempty"`
	DeletedVectorDBID ID     `json:"deleted_vector_db_id"`
}

// CleanupResult is the backend's answer to cleanup_databases
type CleanupResult struct {
	Message             string         `json:"message"`
	VectorizedDatabases []VectorizedDB `json:"vectorized_databases"`
}
