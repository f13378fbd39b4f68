package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/liliang-cn/webchat/internal/app"
	"github.com/liliang-cn/webchat/internal/domain"
	"github.com/liliang-cn/webchat/internal/render"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// blockingBackend serves a fixed roster. Chat, scrape and delete calls wait
// until their release channel is closed.
type blockingBackend struct {
	sites []domain.Site

	releaseChat   chan struct{}
	releaseScrape chan struct{}
	releaseDelete chan struct{}
}

func newBlockingBackend(sites ...domain.Site) *blockingBackend {
	return &blockingBackend{
		sites:         sites,
		releaseChat:   make(chan struct{}),
		releaseScrape: make(chan struct{}),
		releaseDelete: make(chan struct{}),
	}
}

func wait(ctx context.Context, release chan struct{}) error {
	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingBackend) ListWebsites(context.Context) ([]domain.Site, error) {
	return b.sites, nil
}

func (b *blockingBackend) SystemInfo(context.Context) (*domain.SystemInfo, error) {
	return &domain.SystemInfo{OllamaRunning: true, Websites: b.sites}, nil
}

func (b *blockingBackend) Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error) {
	if err := wait(ctx, b.releaseScrape); err != nil {
		return nil, err
	}
	return &domain.ScrapeResult{WebsiteID: domain.NumberID(9), VectorDBID: domain.StringID("new"), PagesScraped: 1}, nil
}

func (b *blockingBackend) Chat(ctx context.Context, id domain.ID, query string) (*domain.ChatAnswer, error) {
	if err := wait(ctx, b.releaseChat); err != nil {
		return nil, err
	}
	return &domain.ChatAnswer{Answer: "Cats are great."}, nil
}

func (b *blockingBackend) DeleteVectorizedData(ctx context.Context, id domain.ID) (*domain.DeleteResult, error) {
	if err := wait(ctx, b.releaseDelete); err != nil {
		return nil, err
	}
	return &domain.DeleteResult{DeletedVectorDBID: id}, nil
}

func (b *blockingBackend) CleanupDatabases(context.Context) (*domain.CleanupResult, error) {
	return &domain.CleanupResult{Message: "ok"}, nil
}

var _ app.Backend = (*blockingBackend)(nil)

// lockedBuffer is an io.Writer that can be read while the shell writes to it
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// interactiveShell runs a shell fed line by line through a pipe
type interactiveShell struct {
	t    *testing.T
	in   *io.PipeWriter
	out  *lockedBuffer
	done chan error
}

func startShell(t *testing.T, backend app.Backend, opts Options) *interactiveShell {
	t.Helper()
	a := app.New(backend, zap.NewNop())
	t.Cleanup(a.Close)
	r, err := render.New("notty", 0)
	require.NoError(t, err)

	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	out := &lockedBuffer{}
	sh := &interactiveShell{t: t, in: pw, out: out, done: make(chan error, 1)}
	shell := New(a, r, pr, out, opts, zap.NewNop())
	go func() { sh.done <- shell.Run(context.Background()) }()
	return sh
}

func (s *interactiveShell) send(line string) {
	s.t.Helper()
	_, err := io.WriteString(s.in, line+"\n")
	require.NoError(s.t, err)
}

// expect waits until the output contains want
func (s *interactiveShell) expect(want string) {
	s.t.Helper()
	require.Eventually(s.t, func() bool {
		return strings.Contains(s.out.String(), want)
	}, 2*time.Second, 10*time.Millisecond, "output never contained %q:\n%s", want, s.out.String())
}

func (s *interactiveShell) quit() error {
	s.t.Helper()
	s.send("quit")
	select {
	case err := <-s.done:
		return err
	case <-time.After(2 * time.Second):
		s.t.Fatal("shell did not exit")
		return nil
	}
}
