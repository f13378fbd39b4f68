// Package render turns panel snapshots into terminal text.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/liliang-cn/webchat/internal/domain"
	"github.com/liliang-cn/webchat/internal/panel"
)

// Renderer formats panel views. Assistant and error messages are markdown and
// go through glamour; everything else is plain text.
type Renderer struct {
	md *glamour.TermRenderer
}

// New creates a renderer. style is a glamour standard style name ("dark",
// "light", "notty", "ascii") or "auto"; wordWrap <= 0 disables wrapping.
func New(style string, wordWrap int) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wordWrap)}
	switch style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	md, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Renderer{md: md}, nil
}

// Markdown renders text, falling back to the raw text if glamour fails
func (r *Renderer) Markdown(text string) string {
	out, err := r.md.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

// Submit renders the submission form outcome
func (r *Renderer) Submit(v panel.SubmitView) string {
	switch v.Status {
	case panel.SubmitPending:
		return fmt.Sprintf("Scraping %s ...\n", v.Input)
	case panel.SubmitSucceeded:
		return fmt.Sprintf("✓ %s\n", v.Message)
	case panel.SubmitFailed:
		return fmt.Sprintf("✗ %s\n", v.Message)
	}
	return ""
}

// Roster renders the site list with the current row marked
func (r *Renderer) Roster(v panel.RosterView) string {
	var b strings.Builder
	b.WriteString("Websites\n")

	switch v.Status {
	case panel.RosterLoading:
		b.WriteString("  Loading websites...\n")
	case panel.RosterError:
		fmt.Fprintf(&b, "  Error: %s\n", v.Err)
	case panel.RosterEmpty:
		b.WriteString("  No websites yet. Scrape one with: scrape <url>\n")
	case panel.RosterLoaded:
		for i, site := range v.Sites {
			marker := " "
			if !v.Highlighted.IsZero() && site.VectorDBID == v.Highlighted {
				marker = ">"
			}
			fmt.Fprintf(&b, "%s %2d. %s", marker, i+1, site.URL)
			if site.Title != "" {
				fmt.Fprintf(&b, " (%s)", site.Title)
			}
			if v.Deleting[site.VectorDBID] {
				b.WriteString(" [deleting...]")
			}
			b.WriteString("\n")
			if !site.DateScraped.IsZero() {
				fmt.Fprintf(&b, "       scraped %s\n", site.DateScraped.Local().Format("2006-01-02 15:04"))
			}
		}
	}

	if v.Notice != "" {
		prefix := "✓"
		if v.NoticeError {
			prefix = "✗"
		}
		fmt.Fprintf(&b, "%s %s\n", prefix, v.Notice)
	}
	return b.String()
}

// Chat renders the transcript of the bound site
func (r *Renderer) Chat(v panel.ChatView) string {
	if v.Site == nil {
		return "Select a website to start chatting.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chat with %s\n", v.Site.URL)
	if len(v.Messages) == 0 {
		b.WriteString("  Ask a question about this website.\n")
	}
	for _, m := range v.Messages {
		b.WriteString(r.Message(m))
	}
	if v.Pending {
		b.WriteString("  (typing...)\n")
	}
	return b.String()
}

// Message renders one transcript entry
func (r *Renderer) Message(m domain.Message) string {
	switch {
	case m.IsError:
		return "✗ " + r.Markdown(m.Text)
	case m.Sender == domain.SenderUser:
		return fmt.Sprintf("you> %s\n", m.Text)
	case m.Sender == domain.SenderAI:
		out := r.Markdown(m.Text)
		if m.Sources > 0 {
			out += fmt.Sprintf("  (%d sources)\n", m.Sources)
		}
		return out
	}
	return m.Text + "\n"
}

// Status renders the system status panel
func (r *Renderer) Status(v panel.StatusView) string {
	switch v.State {
	case panel.StatusLoading:
		return "Status: loading...\n"
	case panel.StatusError:
		return fmt.Sprintf("Status: %s\n", v.Err)
	}

	var b strings.Builder
	b.WriteString("Status: backend online")
	if v.OllamaRunning {
		b.WriteString(", LLM running")
	} else {
		b.WriteString(", LLM not running")
	}
	fmt.Fprintf(&b, ", %d vectorized databases\n", v.Count)

	if v.Expanded {
		for _, db := range v.Databases {
			url := db.URL
			if !db.Known {
				url = "unknown"
			}
			fmt.Fprintf(&b, "  %s  %s\n", db.VectorDBID, url)
		}
	}
	return b.String()
}
