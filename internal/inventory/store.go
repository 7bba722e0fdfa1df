package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	rlog "rackinv/internal/log"
)

// DefaultPath is the store file used when none is configured.
const DefaultPath = "servers.json"

// Store owns the JSON file holding the inventory. It keeps no records in
// memory: every call re-reads the file, and every mutation rewrites it whole.
type Store struct {
	path      string
	exportDir string
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*Store)

// WithExportDir sets the directory used for default export filenames.
// Empty means the working directory.
func WithExportDir(dir string) Option {
	return func(s *Store) { s.exportDir = dir }
}

// WithClock replaces time.Now for export filenames.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open returns a Store for path, creating an empty store file if none exists.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	s := &Store{path: path, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = rlog.WithComponent("inventory")
	}
	s.log = s.log.With(slog.String("path", path))

	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

func (s *Store) ensureFile() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return storageErr("stat", s.path, err)
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return storageErr("mkdir", dir, err)
		}
	}
	s.log.Debug("creating empty store")
	return s.save([]Server{})
}

// Load reads every record in file order. A missing, empty or undecodable
// file is an empty store; other read failures are returned as *StorageError.
func (s *Store) Load() ([]Server, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Server{}, nil
		}
		return nil, storageErr("read", s.path, err)
	}
	var servers []Server
	if err := json.Unmarshal(b, &servers); err != nil {
		if len(bytes.TrimSpace(b)) > 0 {
			s.log.Warn("store file is not a valid server list, treating as empty", slog.Any("err", err))
		}
		return []Server{}, nil
	}
	if servers == nil {
		servers = []Server{}
	}
	return servers, nil
}

// Add appends srv as given after checking that no existing record shares
// its serial number, ignoring case. Input cleanup is the caller's job.
func (s *Store) Add(srv Server) error {
	servers, err := s.Load()
	if err != nil {
		return err
	}
	key := srv.Key()
	for _, existing := range servers {
		if existing.Key() == key {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, srv.SerialNumber)
		}
	}
	servers = append(servers, srv)
	if err := s.save(servers); err != nil {
		return err
	}
	rlog.WithOperation(s.log, "add").Debug("server added", slog.String("serial", srv.SerialNumber), slog.Int("count", len(servers)))
	return nil
}

// Search returns records where any field contains term, ignoring case.
// An empty term matches everything.
func (s *Store) Search(term string) ([]Server, error) {
	servers, err := s.Load()
	if err != nil {
		return nil, err
	}
	term = canonical(term)
	out := []Server{}
	for _, srv := range servers {
		if srv.matches(term) {
			out = append(out, srv)
		}
	}
	rlog.WithOperation(s.log, "search").Debug("search done", slog.String("term", term), slog.Int("hits", len(out)))
	return out, nil
}

// Delete removes the record whose serial number equals serial, ignoring case.
// serial is compared as given. The file is left untouched when nothing matches.
func (s *Store) Delete(serial string) error {
	servers, err := s.Load()
	if err != nil {
		return err
	}
	key := canonical(serial)
	kept := make([]Server, 0, len(servers))
	for _, srv := range servers {
		if srv.Key() != key {
			kept = append(kept, srv)
		}
	}
	if len(kept) == len(servers) {
		return fmt.Errorf("%w: %s", ErrNotFound, serial)
	}
	if err := s.save(kept); err != nil {
		return err
	}
	rlog.WithOperation(s.log, "delete").Debug("server deleted", slog.String("serial", serial), slog.Int("count", len(kept)))
	return nil
}

// save replaces the store file with servers, indented by four spaces.
func (s *Store) save(servers []Server) error {
	if servers == nil {
		servers = []Server{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(servers); err != nil {
		return storageErr("encode", s.path, err)
	}
	if err := writeFile(s.path, &buf); err != nil {
		return storageErr("write", s.path, err)
	}
	return nil
}

// writeFile atomically replaces path with the contents of r. The file keeps
// the mode of the file it replaces, or 0644 when new.
func writeFile(path string, r io.Reader) error {
	mode := fs.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}
	if err := atomic.WriteFile(path, r); err != nil {
		return err
	}
	return os.Chmod(path, mode)
}
