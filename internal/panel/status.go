package panel

import (
	"context"
	"sync"

	"github.com/liliang-cn/webchat/internal/domain"
	"go.uber.org/zap"
)

// StatusState is the render state of the status panel
type StatusState int

const (
	StatusLoading StatusState = iota
	StatusError
	StatusLoaded
)

const statusFailedMessage = "Failed to fetch system status"

// StatusView is a snapshot of the status panel. Databases is only filled in
// while expanded.
type StatusView struct {
	State         StatusState
	Err           string
	Expanded      bool
	OllamaRunning bool
	Count         int
	Databases     []domain.ResolvedDB
}

// StatusPanel shows one system_info snapshot. It fetches once and never
// refreshes.
type StatusPanel struct {
	api    StatusAPI
	logger *zap.Logger
	once   sync.Once

	mu       sync.Mutex
	state    StatusState
	info     *domain.SystemInfo
	err      error
	errMsg   string
	expanded bool
}

// NewStatusPanel creates a panel in the loading state
func NewStatusPanel(api StatusAPI, logger *zap.Logger) *StatusPanel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusPanel{api: api, logger: logger.Named("status")}
}

// Load fetches system status on first call; later calls return the first outcome
func (p *StatusPanel) Load(ctx context.Context) error {
	p.once.Do(func() {
		info, err := p.api.SystemInfo(ctx)

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.state = StatusError
			p.err = err
			p.errMsg = domain.BackendMessage(err, statusFailedMessage)
			p.logger.Warn("failed to fetch system info", zap.Error(err))
			return
		}
		p.state = StatusLoaded
		p.info = info
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Toggle flips between the collapsed and expanded views and returns the new state
func (p *StatusPanel) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded = !p.expanded
	return p.expanded
}

// View returns a snapshot of the panel
func (p *StatusPanel) View() StatusView {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := StatusView{State: p.state, Err: p.errMsg, Expanded: p.expanded}
	if p.info != nil {
		view.OllamaRunning = p.info.OllamaRunning
		view.Count = len(p.info.VectorizedDatabases)
		if p.expanded {
			view.Databases = p.info.Resolve()
		}
	}
	return view
}
