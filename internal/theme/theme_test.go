package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySwitchesPalette(t *testing.T) {
	t.Cleanup(func() { Apply("dark") })

	require.True(t, Apply("blue"))
	assert.Equal(t, "blue", Current())
	assert.Equal(t, palettes["blue"].Accent, ColorBlue)
	assert.Equal(t, ColorBlue, HeaderStyle.GetBackground())
}

func TestApplyUnknownKeepsCurrent(t *testing.T) {
	t.Cleanup(func() { Apply("dark") })

	require.True(t, Apply("light"))
	assert.False(t, Apply("neon"))
	assert.Equal(t, "light", Current())
}

func TestEveryNameHasPalette(t *testing.T) {
	for _, name := range Names() {
		_, ok := palettes[name]
		assert.True(t, ok, name)
	}
}

func TestRiskStyle(t *testing.T) {
	assert.Equal(t, ColorRed, RiskStyle("HIGH").GetForeground())
	assert.Equal(t, ColorGreen, RiskStyle("LOW").GetForeground())
	assert.Equal(t, ColorGray, RiskStyle("").GetForeground())
}
