// Package model defines domain entities used by services and repositories.
package model

// Ciphertext is an opaque, printable authenticated token produced by recordcrypto.
type Ciphertext string

// Account is a registered user. The password itself is never stored.
type Account struct {
	Username     string       // unique, case-sensitive, immutable
	PasswordHash string       // hex PBKDF2 verifier
	Records      []Ciphertext // insertion order; index-addressable
}

// Clone returns a deep copy so callers cannot alias registry state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Records = append([]Ciphertext(nil), a.Records...)
	return &c
}

// Registry maps username to account. It is loaded and saved wholesale.
type Registry struct {
	Accounts map[string]*Account
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{Accounts: map[string]*Account{}}
}

// Get returns the account for username, or nil.
func (r *Registry) Get(username string) *Account {
	if r == nil || r.Accounts == nil {
		return nil
	}
	return r.Accounts[username]
}

// Put inserts or replaces the account under its username.
func (r *Registry) Put(a *Account) {
	if r.Accounts == nil {
		r.Accounts = map[string]*Account{}
	}
	r.Accounts[a.Username] = a
}

// Clone returns a deep copy of the registry.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	if r == nil {
		return out
	}
	for k, a := range r.Accounts {
		out.Accounts[k] = a.Clone()
	}
	return out
}
