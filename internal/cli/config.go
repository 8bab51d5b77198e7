package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/relata/relata/pkg/store"
)

// =============================================================================
// Config File
// =============================================================================

// Config is the TOML configuration for the CLI, mapping store names to
// backend settings.
//
// Example:
//
//	default_store = "local"
//
//	[stores.local]
//	type = "file"
//	path = "/var/lib/relata/snapshots"
//
//	[stores.shared]
//	type = "redis"
//	addr = "localhost:6379"
//	ttl = "24h"
type Config struct {
	DefaultStore string                 `toml:"default_store"`
	Stores       map[string]StoreConfig `toml:"stores"`
}

// StoreConfig configures one named store. Type selects the backend; the
// remaining fields apply to the matching backend only.
type StoreConfig struct {
	Type string `toml:"type"` // memory, file, redis, or mongo

	// file
	Path string `toml:"path"`

	// redis
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	TTL      duration `toml:"ttl"`

	// mongo
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// duration wraps time.Duration for TOML decoding of strings like "24h".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// LoadConfig reads the TOML config file. An empty path means the default
// location (~/.config/relata/config.toml); a missing file yields an empty
// config, not an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return &Config{}, nil
		}
		path = filepath.Join(home, ".config", appName, "config.toml")
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// =============================================================================
// Store Resolution
// =============================================================================

// closeFunc releases a store's backend resources.
type closeFunc func(context.Context) error

func noClose(context.Context) error { return nil }

// openStore resolves a store from the --store flag, falling back to the
// configured default store and finally to the default file store.
func openStore(ctx context.Context, uri string) (store.Store, closeFunc, error) {
	if uri != "" {
		return openStoreURI(ctx, uri)
	}

	cfg, err := LoadConfig(configPathFromContext(ctx))
	if err != nil {
		return nil, nil, err
	}
	if cfg.DefaultStore != "" {
		sc, ok := cfg.Stores[cfg.DefaultStore]
		if !ok {
			return nil, nil, fmt.Errorf("config names default store %q but does not define it", cfg.DefaultStore)
		}
		return openConfigured(ctx, cfg.DefaultStore, sc)
	}

	s, err := store.NewFileStore("")
	if err != nil {
		return nil, nil, err
	}
	return s, noClose, nil
}

// openConfigured opens a store from a named config section.
func openConfigured(ctx context.Context, name string, sc StoreConfig) (store.Store, closeFunc, error) {
	switch sc.Type {
	case "memory":
		return store.NewMemoryStore(), noClose, nil
	case "file":
		s, err := store.NewFileStore(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noClose, nil
	case "redis":
		s, err := store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     sc.Addr,
			Password: sc.Password,
			DB:       sc.DB,
			TTL:      time.Duration(sc.TTL),
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil
	case "mongo":
		s, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        sc.URI,
			Database:   sc.Database,
			Collection: sc.Collection,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("store %q has unknown type %q", name, sc.Type)
	}
}

// openStoreURI opens a store from a URI:
//
//	memory:                  in-process store
//	file:/path/to/dir        directory of snapshots
//	redis://host:port/db     Redis
//	mongodb://host:port      MongoDB
func openStoreURI(ctx context.Context, uri string) (store.Store, closeFunc, error) {
	switch {
	case uri == "memory:" || uri == "memory":
		return store.NewMemoryStore(), noClose, nil

	case strings.HasPrefix(uri, "file:"):
		s, err := store.NewFileStore(strings.TrimPrefix(uri, "file:"))
		if err != nil {
			return nil, nil, err
		}
		return s, noClose, nil

	case strings.HasPrefix(uri, "redis://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, nil, fmt.Errorf("parse store URI: %w", err)
		}
		cfg := store.RedisConfig{Addr: u.Host}
		if pw, ok := u.User.Password(); ok {
			cfg.Password = pw
		}
		if db := strings.TrimPrefix(u.Path, "/"); db != "" {
			n, err := strconv.Atoi(db)
			if err != nil {
				return nil, nil, fmt.Errorf("redis db in %q must be an integer", uri)
			}
			cfg.DB = n
		}
		s, err := store.NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		s, err := store.NewMongoStore(ctx, store.MongoConfig{URI: uri})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store URI %q", uri)
	}
}
