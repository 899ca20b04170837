// Package render draws hierarchies in the terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/danielolaszy/starburst/internal/hierarchy"
	"github.com/danielolaszy/starburst/pkg/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hierarchy.FallbackColor))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(hierarchy.FallbackColor))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
)

// Options controls tree output.
type Options struct {
	// Color enables ANSI styling
	Color bool
	// MaxDepth hides nodes deeper than this; zero shows everything
	MaxDepth int
}

// ColorEnabled reports whether w is a terminal that should get colour.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type printer struct {
	w    io.Writer
	opts Options
	root *hierarchy.Node
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.opts.Color {
		return text
	}
	return s.Render(text)
}

// Tree writes root and its descendants as an indented tree. Each node shows
// its label, status and share of the whole chart.
func Tree(w io.Writer, root *hierarchy.Node, opts Options) error {
	if root == nil {
		return nil
	}
	p := &printer{w: w, opts: opts, root: root}

	goals := len(root.Children)
	header := fmt.Sprintf("%s (%s %s)", root.Name, humanize.Comma(int64(goals)), plural(goals, "goal", "goals"))
	if _, err := fmt.Fprintln(w, p.style(titleStyle, header)); err != nil {
		return err
	}

	for i, child := range root.Children {
		if err := p.node(child, "", i == len(root.Children)-1); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) node(n *hierarchy.Node, prefix string, last bool) error {
	if p.opts.MaxDepth > 0 && n.Data.Depth > p.opts.MaxDepth {
		return nil
	}

	branch, childPrefix := "├── ", prefix+"│   "
	if last {
		branch, childPrefix = "└── ", prefix+"    "
	}

	bullet := p.style(lipgloss.NewStyle().Foreground(lipgloss.Color(n.Color)), "●")
	label := n.Data.Label
	if label == "" {
		label = n.Name
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(branch)
	b.WriteString(bullet)
	b.WriteString(" ")
	b.WriteString(label)
	if n.Data.Status != "" {
		b.WriteString(" ")
		b.WriteString(p.style(mutedStyle, "["+n.Data.Status+"]"))
	}
	if p.root.Value > 0 {
		b.WriteString(" ")
		b.WriteString(p.style(mutedStyle, fmt.Sprintf("%.1f%%", n.Value/p.root.Value*100)))
	}

	if _, err := fmt.Fprintln(p.w, b.String()); err != nil {
		return err
	}

	for i, child := range n.Children {
		if err := p.node(child, childPrefix, i == len(n.Children)-1); err != nil {
			return err
		}
	}
	return nil
}

// Summary writes the node count, truncation state and warnings of a result.
func Summary(w io.Writer, result *models.TraversalResult, opts Options) error {
	if result == nil {
		return nil
	}
	p := &printer{w: w, opts: opts}

	line := fmt.Sprintf("%s %s, %s %s",
		humanize.Comma(int64(len(result.Nodes))), plural(len(result.Nodes), "node", "nodes"),
		humanize.Comma(int64(len(result.Meta.Issues))), plural(len(result.Meta.Issues), "issue", "issues"))
	if _, err := fmt.Fprintln(w, p.style(mutedStyle, line)); err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		if _, err := fmt.Fprintln(w, p.style(warningStyle, "⚠ "+warning)); err != nil {
			return err
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
