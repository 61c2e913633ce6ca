package accesscode

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 24 * time.Hour

	// CodeLength is the number of digits in an access code.
	CodeLength = 6

	codeMin   = 100000
	codeRange = 900000
)

var (
	ErrMalformedCode = errors.New("access code must be six digits")
	ErrNoActiveCode  = errors.New("no active access code")
	ErrExpired       = errors.New("access code expired")
	ErrMismatch      = errors.New("access code does not match")
)

// Credential is the single live access code and its lifetime.
type Credential struct {
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// State is a read-only view of the authority's slot.
type State struct {
	Code      string
	ExpiresAt time.Time
	IsActive  bool
}

// Authority owns at most one access code. A new Issue replaces the previous
// code immediately; expiry is evaluated lazily on Current and Validate.
type Authority struct {
	mu    sync.Mutex
	clock clockwork.Clock
	ttl   time.Duration
	cred  *Credential

	// generate is swapped in tests that need a deterministic code.
	generate func() (string, error)
}

// NewAuthority creates an authority with an empty slot.
func NewAuthority(clock clockwork.Clock, ttl time.Duration) *Authority {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Authority{
		clock:    clock,
		ttl:      ttl,
		generate: generateCode,
	}
}

// Issue generates a fresh code and replaces whatever was stored before.
func (a *Authority) Issue() (Credential, error) {
	code, err := a.generate()
	if err != nil {
		return Credential{}, fmt.Errorf("generate access code: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	cred := Credential{
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.ttl),
	}
	replaced := a.cred != nil
	a.cred = &cred

	slog.Info("access code issued", "expires_at", cred.ExpiresAt, "replaced", replaced)
	return cred, nil
}

// Current returns the live credential, clearing it first if it has expired.
func (a *Authority) Current() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.liveLocked() {
		return State{}
	}
	return State{
		Code:      a.cred.Code,
		ExpiresAt: a.cred.ExpiresAt,
		IsActive:  true,
	}
}

// Validate checks code against the live credential. It returns nil on a
// match, otherwise one of ErrMalformedCode, ErrNoActiveCode, ErrExpired or
// ErrMismatch. An expired credential is cleared as a side effect.
func (a *Authority) Validate(code string) error {
	if !WellFormed(code) {
		return ErrMalformedCode
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cred == nil {
		return ErrNoActiveCode
	}
	if a.expiredLocked() {
		a.cred = nil
		slog.Info("access code expired")
		return ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(a.cred.Code)) != 1 {
		return ErrMismatch
	}
	return nil
}

// Revoke clears the slot. Revoking an empty slot is a no-op.
func (a *Authority) Revoke() {
	a.mu.Lock()
	had := a.cred != nil
	a.cred = nil
	a.mu.Unlock()

	if had {
		slog.Info("access code revoked")
	}
}

// liveLocked applies lazy expiry and reports whether a credential remains.
func (a *Authority) liveLocked() bool {
	if a.cred == nil {
		return false
	}
	if a.expiredLocked() {
		a.cred = nil
		slog.Info("access code expired")
		return false
	}
	return true
}

func (a *Authority) expiredLocked() bool {
	return a.clock.Now().After(a.cred.ExpiresAt)
}

// WellFormed reports whether s is exactly six ASCII digits.
func WellFormed(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
