// Package session gates task access behind a bearer token obtained at login.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ostadtodo/internal/notify"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

var (
	// ErrNotAuthenticated is returned by Token while no token is held.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrWrongState rejects register/login outside the anonymous state.
	ErrWrongState = errors.New("session is not anonymous")
)

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Authenticator performs the credential calls against the backend.
type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Gate is the session state machine. It also serves as the oauth2.TokenSource
// the API client reads the bearer token from.
type Gate struct {
	auth     Authenticator
	store    TokenStore
	notifier notify.Notifier
	logger   *log.Logger

	mu       sync.Mutex
	state    State
	token    string
	onLogout []func()
}

var _ oauth2.TokenSource = (*Gate)(nil)

// NewGate restores a stored token if there is one. An unreadable token store
// starts the gate anonymous.
func NewGate(auth Authenticator, store TokenStore, notifier notify.Notifier, logger *log.Logger) *Gate {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = log.Default()
	}
	g := &Gate{auth: auth, store: store, notifier: notifier, logger: logger.WithPrefix("session")}
	token, err := store.Load()
	if err != nil {
		g.logger.Warn("stored token unreadable, starting logged out", "err", err)
		return g
	}
	if token != "" {
		g.token = token
		g.state = Authenticated
	}
	return g
}

// SetAuthenticator replaces the backend used by Register and Login.
func (g *Gate) SetAuthenticator(auth Authenticator) {
	g.mu.Lock()
	g.auth = auth
	g.mu.Unlock()
}

// OnLogout registers fn to run after every logout.
func (g *Gate) OnLogout(fn func()) {
	g.mu.Lock()
	g.onLogout = append(g.onLogout, fn)
	g.mu.Unlock()
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// BearerToken returns the held token, empty when anonymous.
func (g *Gate) BearerToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Token implements oauth2.TokenSource.
func (g *Gate) Token() (*oauth2.Token, error) {
	token := g.BearerToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// Register creates an account and returns to the anonymous state either way.
func (g *Gate) Register(ctx context.Context, username, password string) error {
	auth, err := g.begin()
	if err != nil {
		return err
	}
	err = auth.Register(ctx, username, password)
	g.finish(Anonymous, "")
	if err != nil {
		g.logger.Error("register failed", "user", username, "err", err)
		g.notifier.Notify(notify.Failure(notify.RegisterFailed, err))
		return err
	}
	g.notifier.Notify(notify.Success(notify.Registered))
	return nil
}

// Login exchanges credentials for a token, persists it and becomes authenticated.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	auth, err := g.begin()
	if err != nil {
		return err
	}
	token, err := auth.Login(ctx, username, password)
	if err == nil {
		if err = g.store.Save(token); err != nil {
			err = fmt.Errorf("save token: %w", err)
		}
	}
	if err != nil {
		g.finish(Anonymous, "")
		g.logger.Error("login failed", "user", username, "err", err)
		g.notifier.Notify(notify.Failure(notify.LoginFailed, err))
		return err
	}
	g.finish(Authenticated, token)
	g.notifier.Notify(notify.Success(notify.LoggedIn))
	return nil
}

// Logout forgets the token locally and runs the logout hooks. The backend is
// not contacted.
func (g *Gate) Logout(_ context.Context) error {
	err := g.store.Clear()
	if err != nil {
		g.logger.Error("clearing stored token failed", "err", err)
	}

	g.mu.Lock()
	g.state = Anonymous
	g.token = ""
	hooks := append([]func(){}, g.onLogout...)
	g.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	g.notifier.Notify(notify.Success(notify.LoggedOut))
	return err
}

func (g *Gate) begin() (Authenticator, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Anonymous {
		return nil, ErrWrongState
	}
	if g.auth == nil {
		return nil, errors.New("session: no authenticator configured")
	}
	g.state = Authenticating
	return g.auth, nil
}

func (g *Gate) finish(state State, token string) {
	g.mu.Lock()
	g.state = state
	g.token = token
	g.mu.Unlock()
}
