package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"ostadtodo/internal/client/api"
	"ostadtodo/internal/client/local"
	"ostadtodo/internal/client/remote"
	"ostadtodo/internal/client/session"
	"ostadtodo/internal/config"
	dom "ostadtodo/internal/domain"
	"ostadtodo/internal/notify"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	localDir   = "local"
	sqliteFile = "todos.db"
)

var errLoggedOut = errors.New("not logged in, run `todo login` or pass --local")

// cli carries the flags and the collaborators built from them.
type cli struct {
	errOut io.Writer

	configDir string
	lang      string
	date      string
	local     bool

	cfg      config.ClientConfig
	logger   *log.Logger
	notifier *notify.LogNotifier
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{errOut: errOut}
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Daily task list for teachers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configDir, "config-dir", "", "configuration directory (default $XDG_CONFIG_HOME/ostadtodo)")
	flags.StringVar(&c.lang, "lang", "", "notification language: fa or en")
	flags.StringVar(&c.date, "date", "", "task date as YYYY-MM-DD (default today)")
	flags.BoolVar(&c.local, "local", false, "use the local store instead of the API server")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.listCmd(),
		c.addCmd(),
		c.doneCmd(),
		c.editCmd(),
		c.rmCmd(),
		c.progressCmd(),
		c.configCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.LoadClient(c.configDir)
	if err != nil {
		return err
	}
	if c.lang != "" {
		cfg.Lang = string(notify.ParseLang(c.lang))
	}
	c.cfg = cfg

	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	c.logger = log.NewWithOptions(c.errOut, log.Options{Prefix: "todo", Level: level})
	c.notifier = notify.NewLogNotifier(c.logger, notify.ParseLang(cfg.Lang))
	return nil
}

func (c *cli) selectedDate() (dom.Date, error) {
	if c.date == "" {
		return dom.Today(), nil
	}
	return dom.ParseDate(c.date)
}

// gate builds the session gate with an API client reading its token.
func (c *cli) gate() (*session.Gate, *api.Client, error) {
	if err := c.cfg.EnsureDir(); err != nil {
		return nil, nil, err
	}
	g := session.NewGate(nil, session.NewFileTokenStore(c.cfg.TokenPath()), c.notifier, c.logger)
	client, err := api.New(c.cfg.APIURL, g, c.cfg.Timeout())
	if err != nil {
		return nil, nil, err
	}
	g.SetAuthenticator(client)
	return g, client, nil
}

// board is the task list for one date, backed by the API or the local store.
type board interface {
	Open(ctx context.Context, date dom.Date) error
	Date() dom.Date
	Tasks() []dom.Task
	Add(ctx context.Context, text string) (dom.Task, bool, error)
	Toggle(ctx context.Context, id string) (bool, error)
	Edit(ctx context.Context, id, text string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	RoundedProgress() int
	Close() error
}

// openBoard returns the board for the selected date and backend.
func (c *cli) openBoard(ctx context.Context) (board, error) {
	date, err := c.selectedDate()
	if err != nil {
		return nil, err
	}
	var b board
	if c.local {
		b, err = c.localBoard()
	} else {
		b, err = c.remoteBoard()
	}
	if err != nil {
		return nil, err
	}
	if err := b.Open(ctx, date); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (c *cli) remoteBoard() (board, error) {
	g, client, err := c.gate()
	if err != nil {
		return nil, err
	}
	if g.State() != session.Authenticated {
		return nil, errLoggedOut
	}
	m := remote.New(client, c.notifier, c.logger)
	g.OnLogout(m.Clear)
	return remoteBoard{m}, nil
}

func (c *cli) localBoard() (board, error) {
	if err := c.cfg.EnsureDir(); err != nil {
		return nil, err
	}
	var (
		kv     local.KV
		closer io.Closer = nopCloser{}
	)
	switch c.cfg.Store {
	case config.StoreSQLite:
		db, err := local.OpenSQLiteKV(filepath.Join(c.cfg.Dir, sqliteFile))
		if err != nil {
			return nil, err
		}
		kv, closer = db, db
	default:
		fkv, err := local.NewFileKV(filepath.Join(c.cfg.Dir, localDir))
		if err != nil {
			return nil, err
		}
		kv = fkv
	}
	return &localBoard{
		store:    local.New(kv, c.logger),
		notifier: c.notifier,
		closer:   closer,
	}, nil
}

type remoteBoard struct {
	*remote.Manager
}

func (b remoteBoard) Open(ctx context.Context, date dom.Date) error {
	return b.Fetch(ctx, date)
}

func (remoteBoard) Close() error { return nil }

// localBoard pins a local.Store to one date.
type localBoard struct {
	store    *local.Store
	notifier notify.Notifier
	closer   io.Closer
	date     dom.Date
}

func (b *localBoard) Open(ctx context.Context, date dom.Date) error {
	b.store.Load(ctx)
	b.date = date
	return nil
}

func (b *localBoard) Date() dom.Date { return b.date }

func (b *localBoard) Tasks() []dom.Task { return b.store.Tasks(b.date) }

func (b *localBoard) RoundedProgress() int { return b.store.RoundedProgress(b.date) }

func (b *localBoard) Add(ctx context.Context, text string) (dom.Task, bool, error) {
	task, added, err := b.store.Add(ctx, b.date, text)
	return task, added, b.saved(err)
}

func (b *localBoard) Toggle(ctx context.Context, id string) (bool, error) {
	found, err := b.store.Toggle(ctx, b.date, id)
	return found, b.saved(err)
}

func (b *localBoard) Edit(ctx context.Context, id, text string) (bool, error) {
	found, err := b.store.Edit(ctx, b.date, id, text)
	return found, b.saved(err)
}

func (b *localBoard) Delete(ctx context.Context, id string) (bool, error) {
	found, err := b.store.Delete(ctx, b.date, id)
	return found, b.saved(err)
}

func (b *localBoard) Close() error { return b.closer.Close() }

func (b *localBoard) saved(err error) error {
	if err != nil {
		b.notifier.Notify(notify.Failure(notify.SaveFailed, err))
		return fmt.Errorf("save local tasks: %w", err)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
