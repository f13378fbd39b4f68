package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/liliang-cn/webchat/internal/domain"
	"go.uber.org/zap"
)

// RosterStatus is the render state of the site list. The states are
// mutually exclusive.
type RosterStatus int

const (
	RosterLoading RosterStatus = iota
	RosterError
	RosterEmpty
	RosterLoaded
)

const loadFailedMessage = "Failed to load websites. Is the backend running?"

// ConfirmFunc asks the user to confirm prompt
type ConfirmFunc func(prompt string) bool

// RosterCallbacks connect the roster to its owner
type RosterCallbacks struct {
	OnSelect  func(domain.Selection)
	OnDeleted func(vectorDBID domain.ID)
}

// RosterView is a snapshot of the roster
type RosterView struct {
	Status      RosterStatus
	Sites       []domain.Site
	Err         string
	Highlighted domain.ID
	Deleting    map[domain.ID]bool
	Notice      string
	NoticeError bool
}

// Roster lists vectorized sites and supports selection and deletion
type Roster struct {
	api       WebsiteAPI
	callbacks RosterCallbacks
	logger    *zap.Logger

	mu          sync.Mutex
	status      RosterStatus
	sites       []domain.Site
	errMsg      string
	highlighted domain.ID
	deleting    map[domain.ID]bool
	notice      string
	noticeErr   bool
	issued      uint64
	applied     uint64
}

// NewRoster creates a roster in the loading state
func NewRoster(api WebsiteAPI, callbacks RosterCallbacks, logger *zap.Logger) *Roster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roster{
		api:       api,
		callbacks: callbacks,
		logger:    logger.Named("roster"),
		status:    RosterLoading,
		deleting:  make(map[domain.ID]bool),
	}
}

// Load fetches the full site list and keeps only vectorized sites. A response
// that is older than one already applied is dropped with ErrStale.
func (r *Roster) Load(ctx context.Context) error {
	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.status = RosterLoading
	r.mu.Unlock()

	sites, err := r.api.ListWebsites(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < r.applied {
		r.logger.Debug("dropping out-of-order roster response", zap.Uint64("seq", seq), zap.Uint64("applied", r.applied))
		return domain.ErrStale
	}
	r.applied = seq

	if err != nil {
		r.status = RosterError
		r.errMsg = domain.BackendMessage(err, loadFailedMessage)
		r.sites = nil
		r.logger.Warn("failed to load websites", zap.Error(err))
		return err
	}

	r.sites = r.sites[:0:0]
	for _, site := range sites {
		if site.HasVectorDB() {
			r.sites = append(r.sites, site)
		}
	}
	r.errMsg = ""
	if len(r.sites) == 0 {
		r.status = RosterEmpty
	} else {
		r.status = RosterLoaded
	}
	return nil
}

// Lookup finds a displayed site by 1-based position or vector database id
func (r *Roster) Lookup(key string) (domain.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(key)
}

func (r *Roster) lookupLocked(key string) (domain.Site, error) {
	key = strings.TrimSpace(key)
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(r.sites) {
		return r.sites[n-1], nil
	}
	for _, site := range r.sites {
		if site.VectorDBID.String() == key {
			return site, nil
		}
	}
	return domain.Site{}, fmt.Errorf("%w: no website matches %q", domain.ErrNotFound, key)
}

// Select highlights the site matching key and hands it to the owner
func (r *Roster) Select(key string) (domain.Selection, error) {
	r.mu.Lock()
	site, err := r.lookupLocked(key)
	if err != nil {
		r.mu.Unlock()
		return domain.Selection{}, err
	}
	r.highlighted = site.VectorDBID
	r.mu.Unlock()

	sel := site.Selection()
	if r.callbacks.OnSelect != nil {
		r.callbacks.OnSelect(sel)
	}
	return sel, nil
}

// Highlight marks the row for vectorDBID as current; the zero ID clears it
func (r *Roster) Highlight(vectorDBID domain.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highlighted = vectorDBID
}

// DeletePrompt describes what deleting site removes
func DeletePrompt(site domain.Site) string {
	return fmt.Sprintf("Delete %s? This permanently removes its vector database, "+
		"all scraped data and the chat history. This cannot be undone.", site.URL)
}

// Delete removes the site matching key after confirm approves. Only that row
// is marked busy. On success the list is re-fetched; nothing is removed
// locally ahead of the backend.
func (r *Roster) Delete(ctx context.Context, key string, confirm ConfirmFunc) error {
	site, err := r.BeginDelete(key, confirm)
	if err != nil {
		return err
	}
	return r.FinishDelete(ctx, site)
}

// BeginDelete asks confirm and marks the matching row as deleting without
// touching the network. Every successful call must be followed by FinishDelete
// for the returned site.
func (r *Roster) BeginDelete(key string, confirm ConfirmFunc) (domain.Site, error) {
	site, err := r.Lookup(key)
	if err != nil {
		return domain.Site{}, err
	}

	r.mu.Lock()
	busy := r.deleting[site.VectorDBID]
	r.mu.Unlock()
	if busy {
		return domain.Site{}, domain.ErrBusy
	}

	if confirm != nil && !confirm(DeletePrompt(site)) {
		return domain.Site{}, domain.ErrCancelled
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleting[site.VectorDBID] {
		return domain.Site{}, domain.ErrBusy
	}
	r.deleting[site.VectorDBID] = true
	r.notice = ""
	r.noticeErr = false
	return site, nil
}

// FinishDelete issues the delete for a row marked by BeginDelete, then
// re-fetches the list.
func (r *Roster) FinishDelete(ctx context.Context, site domain.Site) error {
	_, err := r.api.DeleteVectorizedData(ctx, site.VectorDBID)

	r.mu.Lock()
	delete(r.deleting, site.VectorDBID)
	if err != nil {
		r.notice = domain.DeleteErrorMessage(err)
		r.noticeErr = true
		r.mu.Unlock()
		r.logger.Warn("failed to delete website",
			zap.String("url", site.URL),
			zap.String("vector_db_id", site.VectorDBID.String()),
			zap.Bool("file_locked", domain.IsFileLocked(err)),
			zap.Error(err),
		)
		return err
	}
	r.notice = fmt.Sprintf("Deleted %s", site.URL)
	r.mu.Unlock()

	r.logger.Info("website deleted", zap.String("url", site.URL))
	if r.callbacks.OnDeleted != nil {
		r.callbacks.OnDeleted(site.VectorDBID)
	}

	if err := r.Load(ctx); err != nil && !errors.Is(err, domain.ErrStale) {
		return fmt.Errorf("reload after delete: %w", err)
	}
	return nil
}

// View returns a snapshot of the roster
func (r *Roster) View() RosterView {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleting := make(map[domain.ID]bool, len(r.deleting))
	for id := range r.deleting {
		deleting[id] = true
	}
	return RosterView{
		Status:      r.status,
		Sites:       append([]domain.Site(nil), r.sites...),
		Err:         r.errMsg,
		Highlighted: r.highlighted,
		Deleting:    deleting,
		Notice:      r.notice,
		NoticeError: r.noticeErr,
	}
}
