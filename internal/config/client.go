package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// AppName is the client configuration directory name.
	AppName = "ostadtodo"

	// ClientConfigFile is the optional TOML file read before the environment.
	ClientConfigFile = "config.toml"

	// TokenFile holds the bearer token issued at login.
	TokenFile = "token.json"
)

// Store backends for the local task collection.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// ClientConfig configures cmd/todo. Values come from config.toml in Dir,
// then environment variables override them.
type ClientConfig struct {
	Dir string `toml:"-" env:"TODO_CONFIG_DIR"`

	APIURL     string          `toml:"api_url" env:"TODO_API_URL" env-default:"http://localhost:5000"`
	APITimeout durationSeconds `toml:"api_timeout" env:"TODO_API_TIMEOUT" env-default:"5s"`
	Lang       string          `toml:"lang" env:"TODO_LANG" env-default:"fa"`
	Store      string          `toml:"store" env:"TODO_STORE" env-default:"file"`
	Debug      bool            `toml:"debug" env:"TODO_DEBUG" env-default:"false"`
}

// LoadClient reads the client configuration. If dir is empty,
// TODO_CONFIG_DIR or the XDG default is used.
func LoadClient(dir string) (ClientConfig, error) {
	if dir == "" {
		dir = os.Getenv("TODO_CONFIG_DIR")
	}
	if dir == "" {
		dir = DefaultClientDir()
	}

	var cfg ClientConfig
	path := filepath.Join(dir, ClientConfigFile)
	err := cleanenv.ReadConfig(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return ClientConfig{}, fmt.Errorf("read client config: %w", err)
	}
	cfg.Dir = dir

	switch cfg.Lang {
	case "fa", "en":
	default:
		return ClientConfig{}, fmt.Errorf("TODO_LANG must be fa or en, got %q", cfg.Lang)
	}
	switch cfg.Store {
	case StoreFile, StoreSQLite:
	default:
		return ClientConfig{}, fmt.Errorf("TODO_STORE must be file or sqlite, got %q", cfg.Store)
	}
	return cfg, nil
}

// DefaultClientDir returns XDG_CONFIG_HOME/ostadtodo or $HOME/.config/ostadtodo.
func DefaultClientDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c ClientConfig) Timeout() time.Duration { return c.APITimeout.Duration() }

// TokenPath returns the path of the stored bearer token.
func (c ClientConfig) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory with mode 0700.
func (c ClientConfig) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// WriteClientConfig writes cfg as config.toml into cfg.Dir, refusing to overwrite.
func WriteClientConfig(cfg ClientConfig) (string, error) {
	if err := cfg.EnsureDir(); err != nil {
		return "", err
	}
	path := filepath.Join(cfg.Dir, ClientConfigFile)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return path, nil
}
