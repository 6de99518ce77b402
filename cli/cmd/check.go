package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/resgen/check"
	"github.com/ardnew/resgen/kind"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(12)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Align(lipgloss.Right).Width(6)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Check compiles the resources without writing output and prints a summary.
type Check struct {
	out io.Writer
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	res, err := load(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%d resources in %d files", res.Len(), len(res.Files))))
	b.WriteByte('\n')
	summarize(&b, "", res.Program)

	if res.Tests != nil {
		b.WriteString(titleStyle.Render("tests"))
		b.WriteByte('\n')
		summarize(&b, "  ", res.Tests)
	}

	b.WriteString(labelStyle.Render("fingerprint") + " " + fmt.Sprintf("%016x", res.Fingerprint) + "\n")

	_, err = io.WriteString(stdout(c.out), b.String())

	return err
}

// summarize writes the resource count of each kind declared by p.
func summarize(b *strings.Builder, indent string, p *check.Program) {
	for k := range kind.All() {
		n := len(p.Nodes(k))
		if n == 0 {
			continue
		}

		b.WriteString(indent + labelStyle.Render(k.String()) + countStyle.Render(strconv.Itoa(n)) + "\n")
	}

	if dropped := p.Model().Len() - p.Len(); dropped > 0 {
		b.WriteString(indent + labelStyle.Render("dropped") + warnStyle.Render(fmt.Sprintf("%6d", dropped)) + "\n")
	}
}
