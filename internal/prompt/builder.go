// Package prompt assembles the advisor's system prompt.
package prompt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/easeaico/finadvisor/internal/types"
)

// BuildContext contains all inputs for prompt assembly.
type BuildContext struct {
	// Style is the per-reply personality and register block.
	Style string
	// Profile is the long-term user context.
	Profile string
	Recent  []types.Turn
	Extra   string
	// Web is the formatted web search block.
	Web string
}

// Builder renders the system prompt.
type Builder struct {
	historyLimit int
	nowFunc      func() time.Time
}

// NewBuilder creates a Builder that keeps the last historyLimit turns.
func NewBuilder(historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = 1
	}
	return &Builder{
		historyLimit: historyLimit,
		nowFunc:      time.Now,
	}
}

// Build renders the system prompt for one reply.
func (b *Builder) Build(ctx BuildContext) (string, error) {
	recent := ctx.Recent
	if len(recent) > b.historyLimit {
		recent = recent[len(recent)-b.historyLimit:]
	}

	data := struct {
		BuildContext
		Now string
	}{
		BuildContext: ctx,
		Now:          b.nowFunc().Format("02/01/2006"),
	}
	data.Recent = recent

	var buf bytes.Buffer
	if err := systemTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return buf.String(), nil
}
