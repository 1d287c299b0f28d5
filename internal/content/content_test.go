package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ghostmail/internal/model"
)

const multipartSource = "From: Alice <alice@example.com>\r\n" +
	"To: ghost_1@mail.test\r\n" +
	"Subject: =?UTF-8?Q?Invitaci=C3=B3n?=\r\n" +
	"Date: Wed, 01 May 2024 10:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=outer\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: multipart/alternative; boundary=inner\r\n" +
	"\r\n" +
	"--inner\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Your code is 482913\r\n" +
	"--inner\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Your code is <b>482913</b></p>\r\n" +
	"--inner--\r\n" +
	"--outer\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"invoice.pdf\"\r\n" +
	"\r\n" +
	"PDFDATA\r\n" +
	"--outer--\r\n"

func TestParseMultipart(t *testing.T) {
	p, err := Parse([]byte(multipartSource))
	require.NoError(t, err)

	assert.Equal(t, "Invitación", p.Subject)
	assert.Equal(t, "alice@example.com", p.From)
	assert.Equal(t, "Alice", p.FromName)
	assert.Equal(t, []string{"ghost_1@mail.test"}, p.To)
	assert.Equal(t, 2024, p.Date.Year())
	assert.Contains(t, p.Text, "482913")
	assert.Contains(t, p.HTML, "<b>482913</b>")

	require.Len(t, p.Attachments, 1)
	assert.Equal(t, "invoice.pdf", p.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", p.Attachments[0].ContentType)
	assert.Equal(t, int64(7), p.Attachments[0].Size)
}

func TestParseLatin1Body(t *testing.T) {
	raw := "From: shop@example.com\r\n" +
		"Subject: Hola\r\n" +
		"Content-Type: text/plain; charset=iso-8859-1\r\n" +
		"\r\n" +
		"Se\xf1or\r\n"

	p, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Señor")
}

func TestParsedBodyFallsBackToHTML(t *testing.T) {
	p := &Parsed{HTML: "<div>Hello</div><div>World</div>"}
	assert.Equal(t, "Hello\nWorld", p.Body())
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"paragraphs", "<p>One</p><p>Two</p>", "One\nTwo"},
		{"line breaks", "a<br>b<br/>c", "a\nb\nc"},
		{"entities", "<p>Tom &amp; Jerry</p>", "Tom & Jerry"},
		{"script dropped", "<script>alert(1)</script><p>safe</p>", "safe"},
		{"list", "<ul><li>x</li><li>y</li></ul>", "- x\n\n- y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToText(tt.in))
		})
	}
}

func TestSanitizeHTMLStripsActiveContent(t *testing.T) {
	out := SanitizeHTML(`<p onclick="steal()">Hi <a href="javascript:alert(1)">x</a><script>bad()</script></p>`)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "Hi")
}

func TestMessageBody(t *testing.T) {
	assert.Equal(t, "", MessageBody(nil))
	assert.Equal(t, "plain", MessageBody(&model.FullMessage{Text: "plain", HTML: []string{"<p>html</p>"}}))
	assert.Equal(t, "html", MessageBody(&model.FullMessage{HTML: []string{"<p>html</p>"}}))
}

func TestExtractCodes(t *testing.T) {
	assert.Equal(t, []string{"482913"}, ExtractCodes("Your code is 482913. Enter 482913 to continue."))
	assert.Equal(t, []string{"7731"}, ExtractCodes("Copyright 2024. PIN: 7731"))
	assert.Empty(t, ExtractCodes("call 123 or 123456789"))
	assert.Empty(t, ExtractCodes(strings.Repeat("x", 20)))
}

func TestCodesFromMessages(t *testing.T) {
	msgs := []model.MailMessage{
		{From: "noreply@a.test", FromName: "Acme", Subject: "Your Acme code: 550123"},
		{From: "b@b.test", Subject: "Hello", Intro: "Use 550123 or 8812"},
	}

	codes := CodesFromMessages(msgs)
	require.Len(t, codes, 2)
	assert.Equal(t, model.ExtractedCode{Code: "550123", Source: "Acme"}, codes[0])
	assert.Equal(t, model.ExtractedCode{Code: "8812", Source: "b@b.test"}, codes[1])
}
