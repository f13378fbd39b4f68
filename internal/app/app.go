// Package app composes the client panels around a single shared selection.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/liliang-cn/webchat/internal/domain"
	"github.com/liliang-cn/webchat/internal/panel"
	"go.uber.org/zap"
)

// Backend is everything the client asks of the website-chat service
type Backend interface {
	panel.ScrapeAPI
	panel.WebsiteAPI
	panel.ChatAPI
	panel.StatusAPI
	CleanupDatabases(ctx context.Context) (*domain.CleanupResult, error)
}

// App owns the current selection and keeps the panels in step with it.
// Scrape success and roster selection overwrite the selection, deleting the
// selected site clears it. Nothing is persisted.
type App struct {
	backend   Backend
	logger    *zap.Logger
	selection *panel.SelectionStore

	Submit *panel.SubmitForm
	Roster *panel.Roster
	Chat   *panel.ChatPanel
	Status *panel.StatusPanel
}

// New wires the panels to backend
func New(backend Backend, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		backend:   backend,
		logger:    logger,
		selection: panel.NewSelectionStore(),
	}

	a.Chat = panel.NewChatPanel(backend, logger)
	a.Status = panel.NewStatusPanel(backend, logger)
	a.Roster = panel.NewRoster(backend, panel.RosterCallbacks{
		OnSelect: a.selection.Set,
		OnDeleted: func(vectorDBID domain.ID) {
			if a.selection.ClearIf(vectorDBID) {
				a.logger.Info("selected website was deleted", zap.String("vector_db_id", vectorDBID.String()))
			}
		},
	}, logger)
	a.Submit = panel.NewSubmitForm(backend, a.selection.Set, logger)

	a.selection.Subscribe(a.onSelectionChanged)
	return a
}

func (a *App) onSelectionChanged(sel *domain.Selection) {
	a.Chat.Bind(sel)
	if sel == nil {
		a.Roster.Highlight(domain.ID{})
		return
	}
	a.Roster.Highlight(sel.VectorDBID)
	a.logger.Debug("selection changed",
		zap.String("url", sel.URL),
		zap.String("vector_db_id", sel.VectorDBID.String()),
	)
}

// Selection returns the current selection, if any
func (a *App) Selection() (domain.Selection, bool) {
	return a.selection.Current()
}

// Mount performs the initial loads: the roster and the one-shot status fetch
// run concurrently. Both panels record their own failure state; the joined
// error is returned for logging.
func (a *App) Mount(ctx context.Context) error {
	var (
		wg        sync.WaitGroup
		rosterErr error
		statusErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.Roster.Load(ctx); err != nil && !errors.Is(err, domain.ErrStale) {
			rosterErr = fmt.Errorf("load websites: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := a.Status.Load(ctx); err != nil {
			statusErr = fmt.Errorf("load system info: %w", err)
		}
	}()
	wg.Wait()
	return errors.Join(rosterErr, statusErr)
}

// Cleanup asks the backend to drop orphaned vector databases and reloads the
// roster afterwards.
func (a *App) Cleanup(ctx context.Context) (*domain.CleanupResult, error) {
	result, err := a.backend.CleanupDatabases(ctx)
	if err != nil {
		a.logger.Warn("cleanup failed", zap.Error(err))
		return nil, err
	}
	a.logger.Info("cleanup finished", zap.Int("remaining", len(result.VectorizedDatabases)))

	if err := a.Roster.Load(ctx); err != nil && !errors.Is(err, domain.ErrStale) {
		return result, fmt.Errorf("reload after cleanup: %w", err)
	}
	return result, nil
}

// Close cancels chat requests still in flight
func (a *App) Close() {
	a.Chat.Close()
}
