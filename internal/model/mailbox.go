package model

// Mailbox is one disposable identity: an address plus the bearer token the
// provider issued for it.
type Mailbox struct {
	Address string `json:"address" yaml:"address"`
	Token   string `json:"token" yaml:"token"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
}

// Valid reports whether the mailbox has the fields required to talk to the
// provider.
func (m Mailbox) Valid() bool {
	return m.Address != "" && m.Token != ""
}

// AccountDetails mirrors the provider's view of an account's storage quota.
type AccountDetails struct {
	Address string `json:"address"`
	Quota   int64  `json:"quota"`
	Used    int64  `json:"used"`
}

// Domain is a mail domain offered by the provider for new accounts.
type Domain struct {
	ID       string `json:"id"`
	Domain   string `json:"domain"`
	IsActive bool   `json:"is_active"`
}
