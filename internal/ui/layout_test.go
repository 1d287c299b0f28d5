package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestContentHeight(t *testing.T) {
	l := NewLayout(80, 24)
	assert.Equal(t, 22, l.ContentHeight())
	assert.Equal(t, 80, l.ContentWidth())
}

func TestHeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 10)
	header := l.RenderHeader("ghost_1@mail.test", "1.0 kB / 40 MB")
	assert.Equal(t, 60, lipgloss.Width(header))
	assert.Contains(t, header, "ghost_1@mail.test")
}

func TestStatusBarPrefersToast(t *testing.T) {
	l := NewLayout(60, 10)

	bar := l.RenderStatusBar("q quit", "2 new messages")
	assert.Contains(t, bar, "2 new messages")
	assert.NotContains(t, bar, "q quit")

	bar = l.RenderStatusBar("q quit", "")
	assert.Contains(t, bar, "q quit")
}
