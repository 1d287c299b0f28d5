package mailtm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/provider"
)

var _ provider.Provider = (*Client)(nil)

// Domains lists the domains available for new accounts.
func (c *Client) Domains(ctx context.Context) ([]model.Domain, error) {
	var resp collection[domainDTO]
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/domains",
		result: &resp,
	}); err != nil {
		return nil, err
	}

	domains := make([]model.Domain, 0, len(resp.Members))
	for _, d := range resp.Members {
		domains = append(domains, model.Domain{
			ID:       d.ID,
			Domain:   d.Domain,
			IsActive: d.IsActive,
		})
	}
	return domains, nil
}

// CreateAccount registers a new account.
func (c *Client) CreateAccount(
	ctx context.Context,
	address, password string,
) (*provider.Account, error) {
	var acct accountDTO
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/accounts",
		body:   credentialsDTO{Address: address, Password: password},
		result: &acct,
	}); err != nil {
		return nil, err
	}

	return &provider.Account{
		ID:      acct.ID,
		Address: acct.Address,
		Quota:   acct.Quota,
		Used:    acct.Used,
	}, nil
}

// Token exchanges credentials for a bearer token.
func (c *Client) Token(ctx context.Context, address, password string) (string, error) {
	var tok tokenDTO
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/token",
		body:   credentialsDTO{Address: address, Password: password},
		result: &tok,
	}); err != nil {
		return "", err
	}
	return tok.Token, nil
}

// DeleteAccount removes the account from mail.tm.
func (c *Client) DeleteAccount(ctx context.Context, token, accountID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/accounts/" + url.PathEscape(accountID),
		token:  token,
	})
}

// Account returns the quota details of the token's account.
func (c *Client) Account(ctx context.Context, token string) (*model.AccountDetails, error) {
	var acct accountDTO
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/me",
		token:  token,
		result: &acct,
	}); err != nil {
		return nil, err
	}

	return &model.AccountDetails{
		Address: acct.Address,
		Quota:   acct.Quota,
		Used:    acct.Used,
	}, nil
}

// Messages returns one page of the inbox. mail.tm serves 30 messages per
// page, newest first.
func (c *Client) Messages(ctx context.Context, token string, page int) (*provider.Page, error) {
	if page < 1 {
		page = 1
	}

	var resp collection[messageDTO]
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/messages?page=%d", page),
		token:  token,
		result: &resp,
	}); err != nil {
		return nil, err
	}

	msgs := make([]model.MailMessage, 0, len(resp.Members))
	for _, m := range resp.Members {
		if m.IsDeleted {
			continue
		}
		msgs = append(msgs, toMailMessage(m))
	}

	return &provider.Page{Messages: msgs, Total: resp.TotalItems}, nil
}

// Message returns the full content of a message.
func (c *Client) Message(ctx context.Context, token, id string) (*model.FullMessage, error) {
	var m messageDTO
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/messages/" + url.PathEscape(id),
		token:  token,
		result: &m,
	}); err != nil {
		return nil, err
	}

	full := &model.FullMessage{
		MailMessage: toMailMessage(m),
		Text:        m.Text,
		HTML:        m.HTML,
	}
	for _, to := range m.To {
		full.To = append(full.To, to.Address)
	}
	for _, a := range m.Attachments {
		full.Attachments = append(full.Attachments, model.Attachment{
			ID:               a.ID,
			Filename:         a.Filename,
			ContentType:      a.ContentType,
			Disposition:      a.Disposition,
			TransferEncoding: a.TransferEncoding,
			Related:          a.Related,
			Size:             a.Size,
			DownloadURL:      a.DownloadURL,
		})
	}
	return full, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/messages/" + url.PathEscape(id),
		token:  token,
	})
}

// MarkSeen sets the read state of a message.
func (c *Client) MarkSeen(ctx context.Context, token, id string, seen bool) error {
	return c.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/messages/" + url.PathEscape(id),
		token:       token,
		body:        seenDTO{Seen: seen},
		contentType: "application/merge-patch+json",
	})
}

// Source returns the raw RFC 5322 source of a message.
func (c *Client) Source(ctx context.Context, token, id string) ([]byte, error) {
	var src sourceDTO
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/sources/" + url.PathEscape(id),
		token:  token,
		result: &src,
	}); err != nil {
		return nil, err
	}
	return []byte(src.Data), nil
}

// timeLayouts are tried in order when parsing createdAt.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime returns the zero time when value matches no known layout.
func parseTime(value string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// toMailMessage maps the wire shape onto the domain summary.
func toMailMessage(m messageDTO) model.MailMessage {
	date := parseTime(m.CreatedAt)

	return model.MailMessage{
		ID:             m.ID,
		From:           m.From.Address,
		FromName:       m.From.Name,
		Subject:        m.Subject,
		Date:           date,
		Intro:          m.Intro,
		Seen:           m.Seen,
		HasAttachments: m.HasAttachments,
		Size:           m.Size,
	}
}
