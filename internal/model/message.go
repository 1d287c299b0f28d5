package model

import "time"

// MailMessage is the summary of a message as returned by the provider's
// list endpoint.
type MailMessage struct {
	// ID is the provider's identifier for the message.
	ID string `json:"id"`

	// From is the sender's email address.
	From string `json:"from"`

	// FromName is the sender's display name, if the provider knows one.
	FromName string `json:"from_name,omitempty"`

	// Subject is the message subject line.
	Subject string `json:"subject"`

	// Date is when the provider received the message.
	Date time.Time `json:"date"`

	// Intro is a short plain-text snippet of the body.
	Intro string `json:"intro,omitempty"`

	// Seen reports whether the message has been read.
	Seen bool `json:"seen"`

	HasAttachments bool  `json:"has_attachments,omitempty"`
	Size           int64 `json:"size,omitempty"`
}

// Age returns how long ago the message was received relative to now.
func (m MailMessage) Age(now time.Time) time.Duration {
	return now.Sub(m.Date)
}

// Sender returns the display name when present, otherwise the address.
func (m MailMessage) Sender() string {
	if m.FromName != "" {
		return m.FromName
	}
	return m.From
}

// Attachment describes a file attached to a message.
type Attachment struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	ContentType      string `json:"content_type"`
	Disposition      string `json:"disposition"`
	TransferEncoding string `json:"transfer_encoding"`
	Related          bool   `json:"related"`
	Size             int64  `json:"size"`
	DownloadURL      string `json:"download_url,omitempty"`
}

// FullMessage is a MailMessage together with its body and attachments.
// It is fetched lazily when a message is opened and is not cached.
type FullMessage struct {
	MailMessage

	To          []string     `json:"to,omitempty"`
	Text        string       `json:"text"`
	HTML        []string     `json:"html"`
	Attachments []Attachment `json:"attachments"`
}

// HasHTML reports whether the message carries at least one HTML body part.
func (m FullMessage) HasHTML() bool {
	return len(m.HTML) > 0 && m.HTML[0] != ""
}
