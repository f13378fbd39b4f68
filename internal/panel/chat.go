package panel

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/liliang-cn/webchat/internal/domain"
	"go.uber.org/zap"
)

const chatFailedMessage = "Sorry, something went wrong while getting an answer. Please try again."

// ChatView is a snapshot of the chat panel. Pending drives the typing
// indicator and disables input.
type ChatView struct {
	Site     *domain.Selection
	Messages []domain.Message
	Pending  bool
}

// ChatPanel keeps the transcript for the bound site. Each binding is a
// generation with its own context: rebinding cancels requests issued under the
// previous generation and their late results are discarded. At most one
// request is in flight per panel.
type ChatPanel struct {
	api    ChatAPI
	logger *zap.Logger
	ids    *idSequence

	mu        sync.Mutex
	site      *domain.Selection
	gen       uint64
	genCtx    context.Context
	cancelGen context.CancelFunc
	messages  []domain.Message
	pending   bool
}

// NewChatPanel creates an unbound chat panel
func NewChatPanel(api ChatAPI, logger *zap.Logger) *ChatPanel {
	if logger == nil {
		logger = zap.NewNop()
	}
	genCtx, cancel := context.WithCancel(context.Background())
	return &ChatPanel{
		api:       api,
		logger:    logger.Named("chat"),
		ids:       &idSequence{now: time.Now},
		genCtx:    genCtx,
		cancelGen: cancel,
	}
}

// Bind points the panel at sel (nil unbinds). Switching to a different site
// starts a new generation with an empty transcript.
func (p *ChatPanel) Bind(sel *domain.Selection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sameSelection(p.site, sel) {
		if sel != nil {
			p.site.URL = sel.URL
		}
		return
	}

	p.cancelGen()
	p.gen++
	p.genCtx, p.cancelGen = context.WithCancel(context.Background())
	p.messages = nil
	p.pending = false
	p.site = nil
	if sel != nil {
		copied := *sel
		p.site = &copied
	}
}

func sameSelection(a, b *domain.Selection) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.SameSite(*b)
}

// Exchange is a question that has been appended to the transcript and is
// waiting for its answer.
type Exchange struct {
	gen        uint64
	genCtx     context.Context
	vectorDBID domain.ID
	query      string
}

// Send appends query to the transcript and asks the backend. It returns the
// assistant or error message that was appended.
func (p *ChatPanel) Send(ctx context.Context, query string) (domain.Message, error) {
	ex, err := p.Ask(query)
	if err != nil {
		return domain.Message{}, err
	}
	return p.Await(ctx, ex)
}

// Ask appends query to the transcript and marks the panel pending without
// touching the network. Blank queries, a missing selection and a request
// already in flight are rejected and leave the transcript alone. The query
// is kept exactly as typed. Every successful call must be followed by Await.
func (p *ChatPanel) Ask(query string) (*Exchange, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.site == nil || p.site.VectorDBID.IsZero() {
		return nil, domain.ErrNoSelection
	}
	if p.pending {
		return nil, domain.ErrBusy
	}
	p.messages = append(p.messages, domain.Message{
		ID:     p.ids.Next(),
		Text:   query,
		Sender: domain.SenderUser,
	})
	p.pending = true
	return &Exchange{gen: p.gen, genCtx: p.genCtx, vectorDBID: p.site.VectorDBID, query: query}, nil
}

// Await issues the request for ex and appends exactly one assistant or error
// message. If the panel was rebound in the meantime the request is cancelled
// and ErrStale is returned.
func (p *ChatPanel) Await(ctx context.Context, ex *Exchange) (domain.Message, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ex.genCtx, cancel)
	defer stop()

	answer, err := p.api.Chat(reqCtx, ex.vectorDBID, ex.query)

	p.mu.Lock()
	defer p.mu.Unlock()

	if ex.gen != p.gen {
		p.logger.Debug("discarding answer for previous site",
			zap.String("vector_db_id", ex.vectorDBID.String()),
			zap.Error(err),
		)
		return domain.Message{}, domain.ErrStale
	}
	p.pending = false

	reply := domain.Message{ID: p.ids.Next(), Sender: domain.SenderAI}
	if err != nil {
		reply.Text = domain.BackendMessage(err, chatFailedMessage)
		reply.IsError = true
		p.logger.Warn("chat request failed", zap.String("vector_db_id", ex.vectorDBID.String()), zap.Error(err))
	} else {
		reply.Text = answer.Answer
		reply.Sources = answer.SourceCount
	}
	p.messages = append(p.messages, reply)
	return reply, nil
}

// View returns a snapshot of the panel
func (p *ChatPanel) View() ChatView {
	p.mu.Lock()
	defer p.mu.Unlock()

	var site *domain.Selection
	if p.site != nil {
		copied := *p.site
		site = &copied
	}
	return ChatView{
		Site:     site,
		Messages: append([]domain.Message(nil), p.messages...),
		Pending:  p.pending,
	}
}

// Close cancels any request still in flight
func (p *ChatPanel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelGen()
}
