package cli

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nhle/ghostmail/internal/ai"
	"github.com/nhle/ghostmail/internal/credential"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/session"
	"github.com/nhle/ghostmail/internal/store"
	"github.com/nhle/ghostmail/internal/term"
	"github.com/nhle/ghostmail/tests/testutil"
)

type cliFixture struct {
	kv      store.Store
	p       *testutil.FakeProvider
	secrets *credential.Memory
	config  string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	pterm.DisableColor()
	t.Cleanup(func() {
		pterm.EnableColor()
		term.SetOutput(os.Stdout, os.Stderr)
		term.SetLevel(term.LevelInfo)
		log.SetOutput(os.Stderr)
	})

	return &cliFixture{
		kv:      testutil.NewTestStore(t),
		p:       testutil.NewFakeProvider(),
		secrets: credential.NewMemory(),
		config:  filepath.Join(t.TempDir(), "config.yaml"),
	}
}

func (f *cliFixture) open(ctx context.Context, cfg *model.AppConfig) (*Env, error) {
	return NewEnv(ctx, cfg, f.kv, f.p, f.secrets)
}

// run executes the command line and returns everything it printed.
func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	term.SetOutput(&out, &out)

	root := NewRootCmd(f.open)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", f.config}, args...))

	err := root.Execute()
	return out.String(), err
}

func (f *cliFixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := f.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func (f *cliFixture) session(t *testing.T) *session.Store {
	t.Helper()
	s := session.New(f.kv, f.p, f.secrets, "ghost_")
	require.NoError(t, s.Restore(context.Background()))
	return s
}

func (f *cliFixture) active(t *testing.T) model.Mailbox {
	t.Helper()
	mb, ok := f.session(t).Active()
	require.True(t, ok)
	return mb
}

var codeMail = model.MailMessage{
	ID:       "m1",
	From:     "noreply@shop.test",
	FromName: "Shop",
	Subject:  "Your code",
	Date:     time.Now().Add(-time.Hour),
}

func (f *cliFixture) seedMessage(t *testing.T, full *model.FullMessage) {
	t.Helper()
	mb := f.active(t)
	f.p.SetInbox(mb.Token, full.MailMessage)
	f.p.Bodies[full.ID] = full
}

func TestIdentitiesListsActive(t *testing.T) {
	f := newCLIFixture(t)

	out := f.mustRun(t, "identities")
	mb := f.active(t)
	assert.Contains(t, out, mb.Address)
	assert.Contains(t, out, "*")
}

func TestNewUseRemove(t *testing.T) {
	f := newCLIFixture(t)
	f.mustRun(t, "identities")
	first := f.active(t)

	out := f.mustRun(t, "new")
	second := f.active(t)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Contains(t, out, second.Address)

	f.mustRun(t, "use", first.Address)
	assert.Equal(t, first.ID, f.active(t).ID)

	f.mustRun(t, "rm", second.ID)
	ids := f.session(t).Identities()
	require.Len(t, ids, 1)
	assert.Equal(t, first.ID, ids[0].ID)
}

func TestUseUnknownIdentity(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "use", "nobody@mail.test")
	assert.ErrorIs(t, err, session.ErrUnknownIdentity)
}

func TestInboxListsMessages(t *testing.T) {
	f := newCLIFixture(t)
	f.mustRun(t, "identities")
	f.seedMessage(t, &model.FullMessage{MailMessage: codeMail, Text: "Use 482913 to sign in"})

	out := f.mustRun(t, "inbox")
	assert.Contains(t, out, "Your code")
	assert.Contains(t, out, "Shop")
	assert.Contains(t, out, "40 MB")
}

func TestInboxDeletesExpiredBeforeExit(t *testing.T) {
	f := newCLIFixture(t)
	f.mustRun(t, "identities")
	old := codeMail
	old.ID, old.Subject, old.Date = "old", "Ancient", time.Now().Add(-8*24*time.Hour)
	f.seedMessage(t, &model.FullMessage{MailMessage: old})

	out := f.mustRun(t, "inbox")
	assert.NotContains(t, out, "Ancient")

	deleted, _ := f.p.Snapshot()
	assert.Equal(t, []string{"old"}, deleted)
}

func TestReadPrintsBodyAndMarksSeen(t *testing.T) {
	f := newCLIFixture(t)
	f.mustRun(t, "identities")
	f.seedMessage(t, &model.FullMessage{MailMessage: codeMail, Text: "Use 482913 to sign in"})

	out := f.mustRun(t, "read", "m1")
	assert.Contains(t, out, "From:    Shop <noreply@shop.test>")
	assert.Contains(t, out, "Codes:   482913")
	assert.Contains(t, out, "Use 482913 to sign in")

	_, seen := f.p.Snapshot()
	assert.Equal(t, []string{"m1"}, seen)
}

func TestReadSource(t *testing.T) {
	f := newCLIFixture(t)
	f.mustRun(t, "identities")
	f.seedMessage(t, &model.FullMessage{MailMessage: codeMail, Text: "hello"})

	out := f.mustRun(t, "read", "m1", "--source")
	assert.Contains(t, out, "Subject: Your code")
}

func TestReadWritesSanitizedHTML(t *testing.T) {
	f := newCLIFixture(t)
	f.mustRun(t, "identities")
	f.seedMessage(t, &model.FullMessage{
		MailMessage: codeMail,
		HTML:        []string{`<p>Hi</p><script>alert(1)</script>`},
	})
	path := filepath.Join(t.TempDir(), "m1.html")

	f.mustRun(t, "read", "m1", "--html", path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<p>Hi</p>")
	assert.NotContains(t, string(raw), "script")
}

func TestReplyToneValidation(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "reply", "m1", "--tone", "sarcastic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tone")
}

func TestReplyFallsBackWithoutKey(t *testing.T) {
	f := newCLIFixture(t)
	f.mustRun(t, "identities")
	f.seedMessage(t, &model.FullMessage{MailMessage: codeMail, Text: "hello"})

	out := f.mustRun(t, "reply", "m1", "--tone", "friendly")
	assert.Contains(t, out, "no Gemini API key configured")
	assert.Contains(t, out, ai.FallbackReplyError)
}

func TestExportYAML(t *testing.T) {
	f := newCLIFixture(t)
	f.mustRun(t, "identities")
	mb := f.active(t)

	out := f.mustRun(t, "export", "--format", "yaml")

	var backup struct {
		Active     string          `yaml:"active"`
		Identities []model.Mailbox `yaml:"identities"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &backup))
	assert.Equal(t, mb.ID, backup.Active)
	require.Len(t, backup.Identities, 1)
	assert.Equal(t, mb.Address, backup.Identities[0].Address)
}

func TestAIKeyStoreAndClear(t *testing.T) {
	f := newCLIFixture(t)

	f.mustRun(t, "ai-key", "  secret-key ")
	key, err := f.secrets.Get(credential.AIKeyName)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", key)

	f.mustRun(t, "ai-key", "--clear")
	_, err = f.secrets.Get(credential.AIKeyName)
	assert.Error(t, err)
}

func TestMatchTone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Professional", "Professional", true},
		{"angry", "Angry", true},
		{" FRIENDLY ", "Friendly", true},
		{"sarcastic", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := matchTone(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
