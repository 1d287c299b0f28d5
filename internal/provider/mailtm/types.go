package mailtm

import "strings"

// collection is the JSON-LD envelope mail.tm wraps list responses in.
type collection[T any] struct {
	Members    []T `json:"hydra:member"`
	TotalItems int `json:"hydra:totalItems"`
}

// domainDTO is an entry of GET /domains.
type domainDTO struct {
	ID        string `json:"id"`
	Domain    string `json:"domain"`
	IsActive  bool   `json:"isActive"`
	IsPrivate bool   `json:"isPrivate"`
	CreatedAt string `json:"createdAt"`
}

// credentialsDTO is the body of POST /accounts and POST /token.
type credentialsDTO struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// accountDTO is the response of POST /accounts and GET /me.
type accountDTO struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	Quota      int64  `json:"quota"`
	Used       int64  `json:"used"`
	IsDisabled bool   `json:"isDisabled"`
	IsDeleted  bool   `json:"isDeleted"`
	CreatedAt  string `json:"createdAt"`
}

// tokenDTO is the response of POST /token.
type tokenDTO struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// addressDTO is a sender or recipient.
type addressDTO struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// messageDTO is an entry of GET /messages and the body of GET /messages/{id}.
// The detail-only fields are empty in list responses.
type messageDTO struct {
	ID             string       `json:"id"`
	AccountID      string       `json:"accountId"`
	MsgID          string       `json:"msgid"`
	From           addressDTO   `json:"from"`
	To             []addressDTO `json:"to"`
	Subject        string       `json:"subject"`
	Intro          string       `json:"intro"`
	Seen           bool         `json:"seen"`
	IsDeleted      bool         `json:"isDeleted"`
	HasAttachments bool         `json:"hasAttachments"`
	Size           int64        `json:"size"`
	DownloadURL    string       `json:"downloadUrl"`
	CreatedAt      string       `json:"createdAt"`
	UpdatedAt      string       `json:"updatedAt"`

	Text        string          `json:"text"`
	HTML        []string        `json:"html"`
	Attachments []attachmentDTO `json:"attachments"`
}

// attachmentDTO describes one attachment of a message.
type attachmentDTO struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	ContentType      string `json:"contentType"`
	Disposition      string `json:"disposition"`
	TransferEncoding string `json:"transferEncoding"`
	Related          bool   `json:"related"`
	Size             int64  `json:"size"`
	DownloadURL      string `json:"downloadUrl"`
}

// seenDTO is the merge-patch body of PATCH /messages/{id}.
type seenDTO struct {
	Seen bool `json:"seen"`
}

// sourceDTO is the response of GET /sources/{id}.
type sourceDTO struct {
	ID          string `json:"id"`
	DownloadURL string `json:"downloadUrl"`
	Data        string `json:"data"`
}

// errorResponse covers both the hydra and the plain error shapes.
type errorResponse struct {
	Title       string `json:"hydra:title"`
	Description string `json:"hydra:description"`
	Detail      string `json:"detail"`
	Message     string `json:"message"`
}

func (e errorResponse) message() string {
	var parts []string
	for _, s := range []string{e.Title, e.Description, e.Detail, e.Message} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ": ")
}
