package panel

import (
	"context"
	"sync"

	"github.com/liliang-cn/webchat/internal/domain"
)

type chatCall struct {
	VectorDBID domain.ID
	Query      string
}

// fakeBackend records calls and answers from configurable hooks
type fakeBackend struct {
	mu sync.Mutex

	scrapeCalls []string
	chatCalls   []chatCall
	deleteCalls []domain.ID
	listCalls   int
	infoCalls   int

	scrapeFn func(ctx context.Context, url string) (*domain.ScrapeResult, error)
	chatFn   func(ctx context.Context, id domain.ID, query string) (*domain.ChatAnswer, error)
	listFn   func(ctx context.Context, call int) ([]domain.Site, error)
	deleteFn func(ctx context.Context, id domain.ID) (*domain.DeleteResult, error)
	infoFn   func(ctx context.Context) (*domain.SystemInfo, error)
}

func (f *fakeBackend) Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error) {
	f.mu.Lock()
	f.scrapeCalls = append(f.scrapeCalls, url)
	f.mu.Unlock()
	return f.scrapeFn(ctx, url)
}

func (f *fakeBackend) Chat(ctx context.Context, id domain.ID, query string) (*domain.ChatAnswer, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, chatCall{VectorDBID: id, Query: query})
	f.mu.Unlock()
	return f.chatFn(ctx, id, query)
}

func (f *fakeBackend) ListWebsites(ctx context.Context) ([]domain.Site, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	f.mu.Unlock()
	return f.listFn(ctx, call)
}

func (f *fakeBackend) DeleteVectorizedData(ctx context.Context, id domain.ID) (*domain.DeleteResult, error) {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, id)
	f.mu.Unlock()
	return f.deleteFn(ctx, id)
}

func (f *fakeBackend) SystemInfo(ctx context.Context) (*domain.SystemInfo, error) {
	f.mu.Lock()
	f.infoCalls++
	f.mu.Unlock()
	return f.infoFn(ctx)
}

func (f *fakeBackend) counts() (scrapes, chats, deletes, lists, infos int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scrapeCalls), len(f.chatCalls), len(f.deleteCalls), f.listCalls, f.infoCalls
}

func site(id int64, url, vectorDBID string) domain.Site {
	return domain.Site{ID: domain.NumberID(id), URL: url, VectorDBID: domain.StringID(vectorDBID)}
}
