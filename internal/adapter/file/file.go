// Package file implements domain.StateStore as a YAML document on disk.
//
// With a passphrase, every value is sealed with NaCl secretbox under a key
// derived by Argon2id from the passphrase and a per-file salt.
package file

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
	"gopkg.in/yaml.v3"

	"notes/internal/domain"
)

const (
	formatVersion = 1

	saltLen  = 16
	nonceLen = 24
	keyLen   = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	// ErrPassphraseRequired is returned for a sealed file opened without a passphrase.
	ErrPassphraseRequired = errors.New("state file is sealed: passphrase required")
	// ErrUnseal is returned when a value cannot be opened with the derived key.
	ErrUnseal = errors.New("cannot unseal state: wrong passphrase or corrupt file")
)

type document struct {
	Version int               `yaml:"version"`
	Salt    string            `yaml:"salt,omitempty"`
	Values  map[string]string `yaml:"values"`
}

// Store is a file-backed key/value store. All operations reread and rewrite
// the file, so several processes may share it.
type Store struct {
	path       string
	passphrase string

	mu   sync.Mutex
	salt []byte
	key  *[keyLen]byte
}

// New returns a Store backed by path. An empty passphrase stores values in
// plain text.
func New(path, passphrase string) *Store {
	return &Store{path: path, passphrase: passphrase}
}

// DefaultPath returns the state file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "notes", "state.yaml"), nil
}

// Get implements domain.StateStore.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

// Set implements domain.StateStore.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Delete implements domain.StateStore.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := values[k]; ok {
			delete(values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(values)
}

// load reads the file and returns its values in plain text. A missing file is
// an empty store.
func (s *Store) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	if doc.Version > formatVersion {
		return nil, fmt.Errorf("state file %s: unsupported version %d", s.path, doc.Version)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	if doc.Salt == "" {
		return doc.Values, nil
	}

	if s.passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil || len(salt) != saltLen {
		return nil, fmt.Errorf("state file %s: bad salt", s.path)
	}
	s.useSalt(salt)

	out := make(map[string]string, len(doc.Values))
	for k, v := range doc.Values {
		plain, err := s.open(v)
		if err != nil {
			return nil, err
		}
		out[k] = plain
	}
	return out, nil
}

// save writes values atomically: a temp file in the same directory is
// renamed over the old one.
func (s *Store) save(values map[string]string) error {
	doc := document{Version: formatVersion, Values: values}
	if s.passphrase != "" {
		if s.key == nil {
			salt := make([]byte, saltLen)
			if _, err := io.ReadFull(rand.Reader, salt); err != nil {
				return fmt.Errorf("generate salt: %w", err)
			}
			s.useSalt(salt)
		}
		doc.Salt = base64.StdEncoding.EncodeToString(s.salt)
		sealed := make(map[string]string, len(values))
		for k, v := range values {
			box, err := s.seal(v)
			if err != nil {
				return err
			}
			sealed[k] = box
		}
		doc.Values = sealed
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *Store) useSalt(salt []byte) {
	if s.key != nil && string(s.salt) == string(salt) {
		return
	}
	var key [keyLen]byte
	copy(key[:], argon2.IDKey([]byte(s.passphrase), salt, argonTime, argonMemory, argonThreads, keyLen))
	s.salt = salt
	s.key = &key
}

func (s *Store) seal(plain string) (string, error) {
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (s *Store) open(sealed string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(box) < nonceLen+secretbox.Overhead {
		return "", ErrUnseal
	}
	var nonce [nonceLen]byte
	copy(nonce[:], box[:nonceLen])
	plain, ok := secretbox.Open(nil, box[nonceLen:], &nonce, s.key)
	if !ok {
		return "", ErrUnseal
	}
	return string(plain), nil
}
