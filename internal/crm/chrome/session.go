package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
)

// SessionConfig is the configuration for the Chrome CRM session.
type SessionConfig struct {
	CRM model.CRMConfig
	// ExecPath is the Chrome binary, empty uses the one found in the system.
	ExecPath string
	// Headless runs the browser without a window.
	Headless bool
	// DialSettle is the pause before starting a call.
	DialSettle time.Duration
	// DismissSettle is the pause after closing the search modal.
	DismissSettle time.Duration
	Logger        log.Logger
}

func (c *SessionConfig) defaults() error {
	if c.CRM.Selectors == (model.CRMSelectors{}) {
		c.CRM.Selectors = model.DefaultCRMConfig().Selectors
	}
	if c.CRM.Timeouts == (model.CRMTimeouts{}) {
		c.CRM.Timeouts = model.DefaultCRMConfig().Timeouts
	}
	if c.CRM.ScaleFactor <= 0 {
		c.CRM.ScaleFactor = model.DefaultCRMConfig().ScaleFactor
	}
	if c.DialSettle == 0 {
		c.DialSettle = time.Second
	}
	if c.DismissSettle == 0 {
		c.DismissSettle = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "crm.Chrome"})
	return nil
}

// Session drives the CRM web UI with a Chrome browser through the DevTools protocol.
type Session struct {
	cfg           model.CRMConfig
	dialSettle    time.Duration
	dismissSettle time.Duration
	logger        log.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	started       bool
}

// NewSession creates a new Chrome session. The browser is started on login.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(cfg.Logger.Debugf),
		chromedp.WithErrorf(cfg.Logger.Errorf),
	)

	return &Session{
		cfg:           cfg.CRM,
		dialSettle:    cfg.DialSettle,
		dismissSettle: cfg.DismissSettle,
		logger:        cfg.Logger,
		browserCtx:    browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
	}, nil
}

func allocatorOptions(cfg SessionConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("force-device-scale-factor", fmt.Sprintf("%g", cfg.CRM.ScaleFactor)),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
		chromedp.Flag("disable-notifications", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Login opens the CRM, submits the credentials and waits for the contact search box.
func (s *Session) Login(ctx context.Context, creds model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := creds.Validate(); err != nil {
		return fmt.Errorf("could not login: %w", err)
	}

	// The first run must use the browser context, a derived one would kill the browser
	// when it finishes.
	if !s.started {
		if err := chromedp.Run(s.browserCtx); err != nil {
			return fmt.Errorf("could not start browser: %w", err)
		}
		s.started = true
	}

	sel := s.cfg.Selectors
	err := s.run(ctx, s.cfg.Timeouts.Landing,
		chromedp.Navigate(creds.URL),
		chromedp.WaitVisible(sel.LoginUser, chromedp.BySearch),
		chromedp.SendKeys(sel.LoginUser, creds.User, chromedp.BySearch),
		chromedp.SendKeys(sel.LoginPassword, creds.Password, chromedp.BySearch),
		chromedp.Click(sel.LoginSubmit, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("could not submit login form: %w", err)
	}

	err = s.run(ctx, s.cfg.Timeouts.Landing, chromedp.WaitVisible(sel.ContactSearch, chromedp.BySearch))
	if err != nil {
		return fmt.Errorf("landing page did not load: %w", err)
	}

	s.logger.Infof("Logged in on %s", creds.URL)
	return nil
}

// FindContact searches the code and reads the first result row. The search modal is always
// dismissed before returning.
func (s *Session) FindContact(ctx context.Context, code string) (model.ContactLookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.dismiss()

	sel := s.cfg.Selectors
	err := s.run(ctx, s.cfg.Timeouts.Search,
		chromedp.WaitVisible(sel.ContactSearch, chromedp.BySearch),
		chromedp.Clear(sel.ContactSearch, chromedp.BySearch),
		chromedp.SendKeys(sel.ContactSearch, code+kb.Enter, chromedp.BySearch),
	)
	if err != nil {
		return s.lookupFailed(ctx, code, err)
	}

	var found string
	err = s.run(ctx, s.cfg.Timeouts.Search,
		chromedp.Poll(containsTextExpr(sel.ResultCode, code), &found,
			chromedp.WithPollingInterval(250*time.Millisecond),
			chromedp.WithPollingTimeout(s.cfg.Timeouts.Search),
		),
	)
	if err != nil {
		return s.lookupFailed(ctx, code, err)
	}

	var phone string
	err = s.run(ctx, s.cfg.Timeouts.Element, chromedp.Text(sel.ResultPhone, &phone, chromedp.BySearch))
	if err != nil && !isTimeout(ctx, err) {
		return model.ContactLookup{}, fmt.Errorf("could not read contact phone: %w", err)
	}

	lookup := model.ContactLookup{FoundCode: strings.TrimSpace(found), Phone: normalizePhone(phone)}
	s.logger.Debugf("Contact %s found: %+v", code, lookup)

	return lookup, nil
}

func (s *Session) lookupFailed(ctx context.Context, code string, err error) (model.ContactLookup, error) {
	if isTimeout(ctx, err) {
		s.logger.Warningf("Contact %s not found in time", code)
		return model.ContactLookup{}, nil
	}
	return model.ContactLookup{}, fmt.Errorf("could not search contact: %w", err)
}

// dismiss closes the search modal. It runs on the browser context so a cancelled call
// still leaves the UI clean.
func (s *Session) dismiss() {
	err := s.run(context.Background(), s.cfg.Timeouts.Element,
		chromedp.KeyEvent(kb.Escape),
		chromedp.Sleep(s.dismissSettle),
	)
	if err != nil {
		s.logger.Warningf("Could not dismiss search modal: %s", err)
	}
}

// Dial opens the dialer, types the phone, starts the call and waits for the in-call indicator.
func (s *Session) Dial(ctx context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.cfg.Selectors
	err := s.run(ctx, s.cfg.Timeouts.Call,
		chromedp.Sleep(s.dialSettle),
		chromedp.Click(sel.DialerButton, chromedp.BySearch),
	)
	if err != nil {
		return s.dialFailed(ctx, "open dialer", err)
	}

	err = s.run(ctx, s.cfg.Timeouts.Element,
		chromedp.WaitVisible(sel.PhoneInput, chromedp.BySearch),
		chromedp.Clear(sel.PhoneInput, chromedp.BySearch),
		chromedp.SendKeys(sel.PhoneInput, phone, chromedp.BySearch),
		chromedp.Click(sel.DialAction, chromedp.BySearch),
	)
	if err != nil {
		return s.dialFailed(ctx, "start call", err)
	}

	err = s.run(ctx, s.cfg.Timeouts.Call, chromedp.WaitVisible(sel.InCallIndicator, chromedp.BySearch))
	if err != nil {
		return s.dialFailed(ctx, "wait in-call indicator", err)
	}

	s.logger.Infof("Call to %s started", phone)
	return true, nil
}

func (s *Session) dialFailed(ctx context.Context, step string, err error) (bool, error) {
	if isTimeout(ctx, err) {
		s.logger.Warningf("Dial step %q timed out", step)
		return false, nil
	}
	return false, fmt.Errorf("could not %s: %w", step, err)
}

// Close closes the browser.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.started {
		err = chromedp.Cancel(s.browserCtx)
	}
	s.browserCancel()
	s.allocCancel()
	s.started = false

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("could not close browser: %w", err)
	}
	return nil
}

// run executes the actions bounded by timeout. The actions are also cancelled when ctx ends.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(opCtx, actions...)
}

// isTimeout returns true when err is a bounded wait expiring and not the caller giving up.
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout)
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "-" {
		return ""
	}
	return phone
}

// containsTextExpr returns a JS expression that evaluates to the text of the first node
// matching xpath once it contains text, and to false otherwise.
func containsTextExpr(xpath, text string) string {
	xp, _ := json.Marshal(xpath)
	txt, _ := json.Marshal(text)
	return fmt.Sprintf(`(() => {
	const n = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!n) { return false; }
	const t = (n.innerText || n.textContent || "").trim();
	return t.includes(%s) ? t : false;
})()`, xp, txt)
}
