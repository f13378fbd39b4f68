// Package cli implements the interactive terminal front end.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/liliang-cn/webchat/internal/app"
	"github.com/liliang-cn/webchat/internal/domain"
	"github.com/liliang-cn/webchat/internal/render"
	"go.uber.org/zap"
)

const helpText = `Commands:
  scrape <url>      scrape and vectorize a website, then select it
  sites             reload and list vectorized websites
  select <n|id>     chat with a website from the list
  delete <n|id>     delete a website and all its data
  ask <question>    ask the selected website (bare text works too)
  status            show system status
  status toggle     expand or collapse the database list
  cleanup           remove orphaned vector databases
  wait              wait for running requests to finish
  help              show this help
  quit              exit, cancelling running requests
`

// Options configures the shell
type Options struct {
	ConfirmDelete bool
	Prompt        string
}

// Shell reads commands line by line. Network commands run in the background
// so the prompt stays responsive. Pending states are printed before the
// request settles; only a delete confirmation holds the prompt, since it reads
// from the same input.
type Shell struct {
	app    *app.App
	render *render.Renderer
	out    io.Writer
	opts   Options
	logger *zap.Logger

	lines    chan string
	inErr    error
	done     chan struct{}
	stopOnce sync.Once

	outMu sync.Mutex
	wg    sync.WaitGroup
}

// New creates a shell reading from in and writing to out
func New(a *app.App, r *render.Renderer, in io.Reader, out io.Writer, opts Options, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Prompt == "" {
		opts.Prompt = "webchat> "
	}
	s := &Shell{
		app:    a,
		render: r,
		out:    out,
		opts:   opts,
		logger: logger.Named("shell"),
		lines:  make(chan string),
		done:   make(chan struct{}),
	}
	go s.scan(in)
	return s
}

func (s *Shell) scan(in io.Reader) {
	defer close(s.lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.done:
			return
		}
	}
	s.inErr = scanner.Err()
}

func (s *Shell) readLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-s.lines:
		return line, ok
	}
}

// Run mounts the app and processes commands until quit, end of input or ctx
// is cancelled. quit cancels requests still running; end of input waits for
// them.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.stopOnce.Do(func() { close(s.done) })

	s.print("webchat: chat with any website. Type 'help' for commands.\n")
	s.async(ctx, func(ctx context.Context) {
		if err := s.app.Mount(ctx); err != nil {
			s.logger.Warn("initial load incomplete", zap.Error(err))
		}
		s.print(s.render.Status(s.app.Status.View()) + s.render.Roster(s.app.Roster.View()))
	})

	for {
		s.print(s.opts.Prompt)
		line, ok := s.readLine(ctx)
		if !ok {
			if ctx.Err() != nil {
				s.wg.Wait()
				return ctx.Err()
			}
			s.wg.Wait()
			if s.inErr != nil {
				return fmt.Errorf("read input: %w", s.inErr)
			}
			return nil
		}

		if quit := s.dispatch(ctx, line); quit {
			cancel()
			s.wg.Wait()
			return nil
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return true
	case "help":
		s.print(helpText)
	case "scrape":
		s.scrape(ctx, arg)
	case "sites":
		s.async(ctx, func(ctx context.Context) {
			if err := s.app.Roster.Load(ctx); err != nil && !errors.Is(err, domain.ErrStale) {
				s.logger.Debug("roster reload failed", zap.Error(err))
			}
			s.print(s.render.Roster(s.app.Roster.View()))
		})
	case "select":
		s.selectSite(arg)
	case "delete":
		s.deleteSite(ctx, arg)
	case "ask":
		s.ask(ctx, arg)
	case "status":
		if strings.EqualFold(arg, "toggle") {
			s.app.Status.Toggle()
		}
		s.print(s.render.Status(s.app.Status.View()))
	case "cleanup":
		s.async(ctx, func(ctx context.Context) {
			result, err := s.app.Cleanup(ctx)
			if err != nil && result == nil {
				s.print(fmt.Sprintf("✗ %s\n", domain.BackendMessage(err, "Cleanup failed. Please try again.")))
				return
			}
			s.print(fmt.Sprintf("✓ %s\n", result.Message) + s.render.Roster(s.app.Roster.View()))
		})
	case "wait":
		s.wg.Wait()
	default:
		s.ask(ctx, line)
	}
	return false
}

func (s *Shell) scrape(ctx context.Context, raw string) {
	target, err := s.app.Submit.Start(raw)
	if errors.Is(err, domain.ErrBusy) {
		s.print("✗ A scrape is already running.\n")
		return
	}
	s.print(s.render.Submit(s.app.Submit.View()))
	if err != nil {
		return
	}

	s.async(ctx, func(ctx context.Context) {
		_, err := s.app.Submit.Complete(ctx, target)
		out := s.render.Submit(s.app.Submit.View())
		if err == nil {
			if err := s.app.Roster.Load(ctx); err != nil && !errors.Is(err, domain.ErrStale) {
				s.logger.Debug("roster reload failed", zap.Error(err))
			}
			out += s.render.Roster(s.app.Roster.View()) + s.render.Chat(s.app.Chat.View())
		}
		s.print(out)
	})
}

func (s *Shell) selectSite(key string) {
	if _, err := s.app.Roster.Select(key); err != nil {
		s.print(fmt.Sprintf("✗ No website matches %q. Use 'sites' to list them.\n", key))
		return
	}
	s.print(s.render.Roster(s.app.Roster.View()) + s.render.Chat(s.app.Chat.View()))
}

// deleteSite confirms in the foreground, since the answer comes from the
// same input, and leaves the request itself to the background.
func (s *Shell) deleteSite(ctx context.Context, key string) {
	var confirm func(string) bool
	if s.opts.ConfirmDelete {
		confirm = func(prompt string) bool {
			s.print(prompt + " [y/N] ")
			answer, ok := s.readLine(ctx)
			if !ok {
				return false
			}
			answer = strings.ToLower(strings.TrimSpace(answer))
			return answer == "y" || answer == "yes"
		}
	}

	site, err := s.app.Roster.BeginDelete(key, confirm)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.print(fmt.Sprintf("✗ No website matches %q. Use 'sites' to list them.\n", key))
		return
	case errors.Is(err, domain.ErrCancelled):
		s.print("Delete cancelled.\n")
		return
	case errors.Is(err, domain.ErrBusy):
		s.print("✗ That website is already being deleted.\n")
		return
	case err != nil:
		s.print(fmt.Sprintf("✗ %v\n", err))
		return
	}

	s.print(s.render.Roster(s.app.Roster.View()))
	s.async(ctx, func(ctx context.Context) {
		if err := s.app.Roster.FinishDelete(ctx, site); err != nil {
			s.logger.Debug("delete failed", zap.String("url", site.URL), zap.Error(err))
		}
		s.print(s.render.Roster(s.app.Roster.View()))
	})
}

func (s *Shell) ask(ctx context.Context, query string) {
	ex, err := s.app.Chat.Ask(query)
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		s.print("✗ Type a question to ask.\n")
		return
	case errors.Is(err, domain.ErrNoSelection):
		s.print("✗ Select a website first: scrape <url> or select <n>.\n")
		return
	case errors.Is(err, domain.ErrBusy):
		s.print("✗ Still waiting for the previous answer.\n")
		return
	case err != nil:
		s.print(fmt.Sprintf("✗ %v\n", err))
		return
	}

	s.print(s.render.Chat(s.app.Chat.View()))
	s.async(ctx, func(ctx context.Context) {
		reply, err := s.app.Chat.Await(ctx, ex)
		if errors.Is(err, domain.ErrStale) {
			s.logger.Debug("answer discarded after site switch")
			return
		}
		s.print(s.render.Message(reply))
	})
}

func (s *Shell) async(ctx context.Context, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

func (s *Shell) print(text string) {
	if text == "" {
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	io.WriteString(s.out, text)
}
