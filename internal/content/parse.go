// Package content turns message bodies into something a terminal can show:
// raw RFC 5322 parsing, HTML flattening and sanitising, and verification
// code extraction.
package content

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"

	"github.com/nhle/ghostmail/internal/model"
)

func init() {
	// Charsets that throwaway-signup mail still uses.
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// Parsed is a raw message broken into headers, bodies and attachments.
type Parsed struct {
	Subject     string
	From        string
	FromName    string
	To          []string
	Date        time.Time
	Text        string
	HTML        string
	Attachments []model.Attachment
}

// Parse reads an RFC 5322 message. Attachment bodies are measured and
// discarded.
func Parse(raw []byte) (*Parsed, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("creating mail reader: %w", err)
	}
	defer mr.Close()

	parsed := &Parsed{}
	header := mr.Header

	parsed.Subject = decodeWord(header.Get("Subject"))
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		parsed.From = from[0].Address
		parsed.FromName = from[0].Name
	}
	if to, err := header.AddressList("To"); err == nil {
		for _, addr := range to {
			parsed.To = append(parsed.To, addr.Address)
		}
	}
	if date, err := header.Date(); err == nil {
		parsed.Date = date
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading part: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("reading body: %w", err)
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				if parsed.Text == "" {
					parsed.Text = string(body)
				}
			case strings.HasPrefix(contentType, "text/html"):
				parsed.HTML = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			n, err := io.Copy(io.Discard, part.Body)
			if err != nil {
				return nil, fmt.Errorf("reading attachment %q: %w", filename, err)
			}

			parsed.Attachments = append(parsed.Attachments, model.Attachment{
				Filename:         filename,
				ContentType:      contentType,
				Disposition:      "attachment",
				TransferEncoding: h.Get("Content-Transfer-Encoding"),
				Size:             n,
			})
		}
	}

	return parsed, nil
}

// Body returns the plain text of the message, flattening the HTML part
// when there is no text part.
func (p *Parsed) Body() string {
	if strings.TrimSpace(p.Text) != "" {
		return p.Text
	}
	return HTMLToText(p.HTML)
}

func decodeWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
