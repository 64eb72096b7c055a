// Package store persists sale snapshots between CLI invocations and across
// API restarts.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mohsinsiddi/battlepass/internal/sale"
)

// ErrNotDeployed is returned by Load when no sale has been saved yet.
var ErrNotDeployed = errors.New("no sale deployed; run `battlepass init` first")

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Store loads and saves a sale snapshot.
type Store interface {
	Load(ctx context.Context) (*sale.Snapshot, error)
	Save(ctx context.Context, s *sale.Snapshot) error
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // "file" (default) or "redis"
	Dir      string // file backend directory
	RedisURL string // redis backend URL, e.g. redis://localhost:6379/0
	Name     string // deployment name, used in the redis key
}

// Open returns the store selected by opts.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		if opts.Dir == "" {
			return nil, errors.New("file store: directory is required")
		}
		return NewFileStore(opts.Dir), nil
	case BackendRedis:
		return NewRedisStore(opts.RedisURL, opts.Name)
	default:
		return nil, fmt.Errorf("unknown state backend %q (want %q or %q)", opts.Backend, BackendFile, BackendRedis)
	}
}

// --- file ---

const deploymentFile = "deployment.json"

// FileStore keeps the snapshot as JSON in a directory.
type FileStore struct {
	path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, deploymentFile)}
}

// Path returns the file the snapshot is written to.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(_ context.Context) (*sale.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNotDeployed
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return decode(data)
}

// Save writes through a temp file so a crash never leaves a torn snapshot.
func (f *FileStore) Save(_ context.Context, s *sale.Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}

func decode(data []byte) (*sale.Snapshot, error) {
	var s sale.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &s, nil
}
