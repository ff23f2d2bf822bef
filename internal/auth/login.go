package auth

import (
	"context"
	"errors"
	"fmt"
	"portalsync/internal/components/assert"
	"portalsync/internal/components/telemetry"
	"portalsync/internal/model"
	"time"
)

const (
	report_login_load     = "login.load"
	report_login_classify = "login.classify"
	report_login_react    = "login.react"
	report_login_poll     = "login.poll"
	report_login_state    = "login.state"
)

var ErrLoginCancelled = errors.New("login cancelled")

// MAX_CREDENTIAL_SUBMISSIONS bounds how often one attempt fills the credential
// form, a provider that keeps returning an empty form rejected the credential.
const MAX_CREDENTIAL_SUBMISSIONS = 3

type State int

const (
	STATE_IDLE State = iota
	STATE_SUBMITTING
	STATE_AWAITING_PROVIDER_CHOICE
	STATE_AWAITING_TWO_FACTOR
	STATE_POLLING_SESSION
	STATE_AUTHENTICATED
	STATE_FAILED
)

func (s State) String() string {
	switch s {
	case STATE_IDLE:
		return "idle"
	case STATE_SUBMITTING:
		return "submitting"
	case STATE_AWAITING_PROVIDER_CHOICE:
		return "awaiting-provider-choice"
	case STATE_AWAITING_TWO_FACTOR:
		return "awaiting-two-factor"
	case STATE_POLLING_SESSION:
		return "polling-session"
	case STATE_AUTHENTICATED:
		return "authenticated"
	case STATE_FAILED:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) Terminal() bool {
	return s == STATE_AUTHENTICATED || s == STATE_FAILED
}

// reactsToPages reports whether page loads are classified in this state.
func (s State) reactsToPages() bool {
	return s == STATE_SUBMITTING ||
		s == STATE_AWAITING_PROVIDER_CHOICE ||
		s == STATE_AWAITING_TWO_FACTOR
}

// Credential is held only for the duration of one attempt.
type Credential struct {
	Username string
	Password string
}

func (c *Credential) discard() {
	c.Username = ""
	c.Password = ""
}

// Event is one of StateChanged, TwoFactorCodeAvailable, Succeeded or Failed.
type Event interface {
	isEvent()
}

type StateChanged struct {
	From State
	To   State
}

type TwoFactorCodeAvailable struct {
	Code string
}

type Succeeded struct {
	Token string
}

type Failed struct {
	Err error
}

func (StateChanged) isEvent()           {}
func (TwoFactorCodeAvailable) isEvent() {}
func (Succeeded) isEvent()              {}
func (Failed) isEvent()                 {}

type Options struct {
	LoginUrl      string
	LandingPrefix string
	SessionCookie string
	Selectors     Selectors

	PollInterval time.Duration
	// SessionTimeout bounds the wait for the session cookie, it starts when the
	// two-factor code is shown or the landing page is reached.
	SessionTimeout time.Duration
	// StallTimeout fails an attempt that makes no progress while submitting
	// credentials or choosing a provider.
	StallTimeout time.Duration
	// LoginTimeout bounds the whole attempt.
	LoginTimeout time.Duration
	// RecheckInterval re-reads the current page, the DOM may change without a load event.
	RecheckInterval time.Duration
}

type Authenticator struct {
	opts Options
	tel  telemetry.API
}

func NewAuthenticator(opts Options, tel telemetry.API) Authenticator {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.LoginUrl)
	assert.NotEmptyStr(opts.LandingPrefix)
	assert.NotEmptyStr(opts.SessionCookie)
	assert.Positive(opts.SessionTimeout, "session timeout")
	assert.Positive(opts.StallTimeout, "stall timeout")
	assert.Positive(opts.LoginTimeout, "login timeout")
	assert.Positive(opts.RecheckInterval, "recheck interval")

	if opts.PollInterval <= 0 {
		opts.PollInterval = DEFAULT_POLL_INTERVAL
	}

	return Authenticator{
		opts: opts,
		tel:  telemetry.NewScopedAPI("auth", tel),
	}
}

// Attempt is a running login.
type Attempt struct {
	events chan Event
	cancel context.CancelFunc
}

// Events yields the attempt's events, exactly one Succeeded or Failed is sent
// last and the channel is then closed.
func (a *Attempt) Events() <-chan Event {
	return a.events
}

// Cancel aborts the attempt unless it already finished. Polling stops, the
// driver is closed and the credential is discarded.
func (a *Attempt) Cancel() {
	a.cancel()
}

// Wait consumes the events, passing each to handle when it is not nil, and
// returns the session token or the failure.
func (a *Attempt) Wait(handle func(Event)) (string, error) {
	var token string
	err := errors.New("login ended without an outcome")
	for ev := range a.events {
		if handle != nil {
			handle(ev)
		}
		switch ev := ev.(type) {
		case Succeeded:
			token, err = ev.Token, nil
		case Failed:
			err = ev.Err
		}
	}
	return token, err
}

// Login starts an attempt driving the given driver, the attempt owns the
// driver and closes it when it ends.
func (a Authenticator) Login(ctx context.Context, cred Credential, driver Driver) *Attempt {
	assert.NotNil(driver)

	ctx, cancel := context.WithCancel(ctx)
	attempt := &Attempt{
		events: make(chan Event, 16),
		cancel: cancel,
	}
	m := &machine{
		opts:       a.opts,
		tel:        a.tel,
		driver:     driver,
		cred:       cred,
		classifier: NewClassifier(a.opts.Selectors, a.opts.LandingPrefix, a.opts.SessionCookie),
		poller:     NewPoller(driver, a.opts.SessionCookie),
		state:      STATE_IDLE,
		events:     attempt.events,
		pollResult: make(chan pollOutcome, 1),
	}
	go m.run(ctx)
	return attempt
}

type pollOutcome struct {
	token string
	found bool
	err   error
}

// machine is only touched by the goroutine running it, page events are
// handled one at a time.
type machine struct {
	opts       Options
	tel        telemetry.API
	driver     Driver
	cred       Credential
	classifier *Classifier
	poller     *Poller

	state        State
	events       chan Event
	lastProgress time.Time
	submissions  int

	polling    bool
	pollCtx    context.Context
	pollResult chan pollOutcome
}

func (m *machine) emit(ctx context.Context, ev Event) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
		// the consumer may have stopped reading after cancelling, do not block
		select {
		case m.events <- ev:
		default:
		}
	}
}

func (m *machine) transition(ctx context.Context, to State) {
	if m.state == to {
		return
	}
	from := m.state
	m.state = to
	m.lastProgress = time.Now()
	m.tel.ReportDebug(report_login_state, from.String(), to.String())
	m.emit(ctx, StateChanged{From: from, To: to})
}

func (m *machine) fail(ctx context.Context, err error) {
	m.transition(ctx, STATE_FAILED)
	m.emit(ctx, Failed{Err: err})
}

func (m *machine) run(parent context.Context) {
	defer close(m.events)
	defer m.cred.discard()
	defer func() {
		err := m.driver.Close()
		if err != nil {
			m.tel.ReportWarning(report_login_load, fmt.Errorf("close driver: %w", err))
		}
	}()

	ctx, cancel := context.WithTimeout(parent, m.opts.LoginTimeout)
	defer cancel()
	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	m.pollCtx = pollCtx

	m.transition(ctx, STATE_SUBMITTING)
	err := m.driver.Load(ctx, m.opts.LoginUrl)
	if err != nil {
		if ctx.Err() != nil {
			m.finishCancelled(parent, ctx)
			return
		}
		m.tel.ReportBroken(report_login_load, err, m.opts.LoginUrl)
		m.fail(ctx, model.NetworkError{Op: "load login page", Err: err})
		return
	}

	recheck := time.NewTicker(m.opts.RecheckInterval)
	defer recheck.Stop()

	for !m.state.Terminal() {
		select {
		case <-ctx.Done():
			m.finishCancelled(parent, ctx)
			return

		case page := <-m.driver.Events():
			if m.state.reactsToPages() {
				m.handle(ctx, page)
			}

		case <-recheck.C:
			if m.stalled() {
				m.fail(ctx, model.AuthenticationError{
					Message: fmt.Sprintf("login stalled while %s", m.state),
				})
				continue
			}
			if !m.state.reactsToPages() {
				continue
			}
			page, err := m.driver.Snapshot(ctx)
			if err != nil {
				if ctx.Err() == nil {
					m.tel.ReportWarning(report_login_classify, fmt.Errorf("snapshot: %w", err))
				}
				continue
			}
			m.handle(ctx, page)

		case outcome := <-m.pollResult:
			m.polling = false
			m.finishPolling(ctx, parent, outcome)
		}
	}
}

func (m *machine) finishCancelled(parent, ctx context.Context) {
	if parent.Err() != nil {
		m.fail(ctx, ErrLoginCancelled)
		return
	}
	m.fail(ctx, model.AuthenticationError{
		Message: fmt.Sprintf("login did not complete within %s", m.opts.LoginTimeout),
	})
}

func (m *machine) finishPolling(ctx, parent context.Context, outcome pollOutcome) {
	switch {
	case outcome.err != nil && ctx.Err() != nil:
		m.finishCancelled(parent, ctx)
	case outcome.err != nil:
		m.tel.ReportBroken(report_login_poll, outcome.err)
		m.fail(ctx, fmt.Errorf("read session cookie: %w", outcome.err))
	case outcome.found:
		m.transition(ctx, STATE_AUTHENTICATED)
		m.emit(ctx, Succeeded{Token: outcome.token})
	default:
		m.fail(ctx, model.SessionTimeoutError{Waited: m.opts.SessionTimeout})
	}
}

func (m *machine) stalled() bool {
	if m.state != STATE_SUBMITTING && m.state != STATE_AWAITING_PROVIDER_CHOICE {
		return false
	}
	return time.Since(m.lastProgress) > m.opts.StallTimeout
}

// startPolling is a no-op while a poll is already running.
func (m *machine) startPolling() {
	if m.polling {
		return
	}
	m.polling = true

	ctx := m.pollCtx
	go func() {
		token, found, err := m.poller.Poll(ctx, m.opts.SessionTimeout, m.opts.PollInterval)
		select {
		case m.pollResult <- pollOutcome{token: token, found: found, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (m *machine) handle(ctx context.Context, page Page) {
	cookies, err := m.driver.Cookies(ctx)
	if err != nil {
		m.tel.ReportWarning(report_login_classify, fmt.Errorf("read cookies: %w", err))
	}
	result, err := m.classifier.Classify(page, cookies)
	if err != nil {
		m.tel.ReportWarning(report_login_classify, err, page.Url)
		return
	}
	m.tel.ReportDebug(report_login_classify, result.Kind.String(), page.Url)

	switch result.Kind {
	case PAGE_CREDENTIAL_ENTRY:
		if m.submissions >= MAX_CREDENTIAL_SUBMISSIONS {
			m.fail(ctx, model.AuthenticationError{Message: "credentials were not accepted"})
			return
		}
		m.submissions++
		err := m.submitCredential(ctx)
		if err != nil {
			m.tel.ReportBroken(report_login_react, fmt.Errorf("submit credential: %w", err))
			m.fail(ctx, model.AuthenticationError{Message: "could not submit credentials"})
			return
		}
		m.transition(ctx, STATE_SUBMITTING)
		m.lastProgress = time.Now()

	case PAGE_PROVIDER_SELECTION:
		if m.state == STATE_AWAITING_PROVIDER_CHOICE {
			// already chosen, the provider page is still navigating away
			return
		}
		err := m.driver.Click(ctx, m.opts.Selectors.Provider)
		if err != nil {
			m.tel.ReportBroken(report_login_react, fmt.Errorf("choose provider: %w", err))
			m.fail(ctx, model.AuthenticationError{Message: "could not choose identity provider"})
			return
		}
		m.transition(ctx, STATE_AWAITING_PROVIDER_CHOICE)
		m.lastProgress = time.Now()

	case PAGE_TWO_FACTOR_DISPLAY:
		m.emit(ctx, TwoFactorCodeAvailable{Code: result.Code})
		m.transition(ctx, STATE_AWAITING_TWO_FACTOR)
		m.startPolling()

	case PAGE_ERROR_MESSAGE:
		m.fail(ctx, model.AuthenticationError{Message: result.Message})

	case PAGE_AUTHENTICATED_LANDING:
		m.transition(ctx, STATE_POLLING_SESSION)
		m.startPolling()
	}
}

func (m *machine) submitCredential(ctx context.Context) error {
	sel := m.opts.Selectors
	err := m.driver.Inject(ctx, sel.Username, m.cred.Username)
	if err != nil {
		return err
	}
	err = m.driver.Inject(ctx, sel.Password, m.cred.Password)
	if err != nil {
		return err
	}
	return m.driver.Click(ctx, sel.Submit)
}
