package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
)

// SessionConfig is the configuration for the fake CRM session.
type SessionConfig struct {
	// Directory maps cleaned codes to the lookup the CRM would show.
	Directory map[string]model.ContactLookup
	// ResolveUnknown makes codes missing from the directory match themselves with a
	// generated phone.
	ResolveUnknown bool
	// FailingPhones are phones whose call never connects.
	FailingPhones map[string]bool
	// LoginErr is returned by Login when set.
	LoginErr error
	Logger   log.Logger
}

func (c *SessionConfig) defaults() error {
	if c.Directory == nil {
		c.Directory = map[string]model.ContactLookup{}
	}
	if c.FailingPhones == nil {
		c.FailingPhones = map[string]bool{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "crm.Fake"})
	return nil
}

// Session is a fake implementation of the crm.Session interface. It simulates the CRM
// without a browser and records the calls it receives.
type Session struct {
	cfg SessionConfig
	mu  sync.Mutex

	loggedIn bool
	closed   bool
	searches []string
	dials    []string
}

// NewSession creates a new fake session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Session{cfg: cfg}, nil
}

// Login simulates a login.
func (s *Session) Login(ctx context.Context, creds model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.LoginErr != nil {
		return s.cfg.LoginErr
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("could not login: %w", err)
	}

	s.loggedIn = true
	s.cfg.Logger.Infof("Logged in as %s on %s", creds.User, creds.URL)
	return nil
}

// FindContact returns the directory entry of the code.
func (s *Session) FindContact(ctx context.Context, code string) (model.ContactLookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return model.ContactLookup{}, err
	}
	if !s.loggedIn {
		return model.ContactLookup{}, fmt.Errorf("not logged in")
	}

	s.searches = append(s.searches, code)

	lookup, ok := s.cfg.Directory[code]
	if !ok && s.cfg.ResolveUnknown {
		lookup = model.ContactLookup{FoundCode: code, Phone: generatedPhone(code)}
	}

	s.cfg.Logger.Debugf("Searched %s: %+v", code, lookup)
	return lookup, nil
}

// Dial simulates a call, failing for the configured phones.
func (s *Session) Dial(ctx context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !s.loggedIn {
		return false, fmt.Errorf("not logged in")
	}

	s.dials = append(s.dials, phone)
	ok := !s.cfg.FailingPhones[phone]

	s.cfg.Logger.Debugf("Dialed %s: %t", phone, ok)
	return ok, nil
}

// Close closes the session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.loggedIn = false
	return nil
}

// Searches returns the codes searched so far.
func (s *Session) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// Dials returns the phones dialed so far.
func (s *Session) Dials() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dials...)
}

// Closed returns true when the session was closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func generatedPhone(code string) string {
	phone := "11" + code
	if len(phone) > 11 {
		phone = phone[:11]
	}
	return phone
}
