package prompt

import (
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneSubmit(t *testing.T) {
	m := New(80, 24)
	m.AskTone("m1")
	assert.Contains(t, m.View(), "Draft Reply")

	m.fb.tone = "Friendly"
	m.form.State = huh.StateCompleted
	_, cmd := m.Update(nil)
	require.NotNil(t, cmd)
	assert.Equal(t, ToneChosenMsg{MessageID: "m1", Tone: "Friendly"}, cmd())
}

func TestLanguageSubmitTrims(t *testing.T) {
	m := New(80, 24)
	m.AskLanguage("m2")
	assert.Equal(t, "English", m.fb.language, "defaults to English")

	m.fb.language = "  Spanish "
	m.form.State = huh.StateCompleted
	_, cmd := m.Update(nil)
	require.NotNil(t, cmd)
	assert.Equal(t, LanguageChosenMsg{MessageID: "m2", Language: "Spanish"}, cmd())
}

func TestAbortCancels(t *testing.T) {
	m := New(80, 24)
	m.AskTone("m1")

	m.form.State = huh.StateAborted
	_, cmd := m.Update(nil)
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
}

func TestValidateRequired(t *testing.T) {
	v := validateRequired("Language")
	assert.Error(t, v("  "))
	assert.NoError(t, v("French"))
}
