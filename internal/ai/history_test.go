package ai

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryTrimsOldest(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 25; i++ {
		h.Add(Result{Kind: KindReply, MessageID: "m1", Text: fmt.Sprintf("draft %d", i)})
	}

	assert.Equal(t, 20, h.Len())
	results := h.ForMessage("m1")
	assert.Equal(t, "draft 5", results[0].Text)
	assert.Equal(t, "draft 24", results[19].Text)
}

func TestHistoryLatestByKind(t *testing.T) {
	h := NewHistory()
	h.Add(Result{Kind: KindReply, MessageID: "m1", Label: "Friendly", Text: "hi"})
	h.Add(Result{Kind: KindTranslation, MessageID: "m1", Label: "French", Text: "salut"})
	h.Add(Result{Kind: KindReply, MessageID: "m1", Label: "Angry", Text: "NO"})
	h.Add(Result{Kind: KindReply, MessageID: "m2", Text: "other"})

	r, ok := h.Latest("m1", KindReply)
	assert.True(t, ok)
	assert.Equal(t, "Angry", r.Label)

	_, ok = h.Latest("m2", KindAnalysis)
	assert.False(t, ok)

	h.Reset()
	assert.Equal(t, 0, h.Len())
}
