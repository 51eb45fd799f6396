// Package jsonfile implements repository.RegistryStore on a single JSON document
// on local disk.
//
// The document layout is
//
//	{"<username>": {"password_hash": "<hex>", "data": ["<token>", ...]}, ...}
//
// Older files that name the verifier "password" are still accepted on load and
// are rewritten with "password_hash" on the next save.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/and161185/secure-vault/internal/errs"
	"github.com/and161185/secure-vault/internal/model"
	"github.com/and161185/secure-vault/internal/repository"
)

var _ repository.RegistryStore = (*Store)(nil)

// rename is a test seam for os.Rename.
var rename = os.Rename

// Store persists the registry in one JSON file. Writes go through a temporary
// file in the same directory followed by rename, so readers never observe a
// half-written document.
type Store struct {
	path string
	lock *fileLock
	log  *zap.Logger
}

// New returns a Store backed by path. The parent directory is created on the
// first save. A sibling "<path>.lock" file guards read-modify-write cycles.
func New(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		path: path,
		lock: newFileLock(path + ".lock"),
		log:  log.With(zap.String("store", "jsonfile"), zap.String("path", path)),
	}
}

// Path returns the data file location.
func (s *Store) Path() string { return s.path }

type accountDoc struct {
	PasswordHash string   `json:"password_hash"`
	Data         []string `json:"data"`
}

func (d *accountDoc) UnmarshalJSON(b []byte) error {
	var raw struct {
		PasswordHash *string  `json:"password_hash"`
		Password     *string  `json:"password"`
		Data         []string `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch {
	case raw.PasswordHash != nil:
		d.PasswordHash = *raw.PasswordHash
	case raw.Password != nil:
		d.PasswordHash = *raw.Password
	default:
		return errors.New("account entry has no password_hash")
	}
	d.Data = raw.Data
	return nil
}

// Load reads the registry under the lock.
func (s *Store) Load(ctx context.Context) (*model.Registry, error) {
	if err := s.lock.Lock(ctx); err != nil {
		return nil, errs.Persistence("jsonfile lock", errors.Wrapf(err, "lock %s", s.lock.path))
	}
	defer s.unlock()

	reg, err := s.read()
	if err != nil {
		return nil, errs.Persistence("jsonfile load", err)
	}
	return reg, nil
}

// Save writes reg under the lock.
func (s *Store) Save(ctx context.Context, reg *model.Registry) error {
	if err := s.lock.Lock(ctx); err != nil {
		return errs.Persistence("jsonfile lock", errors.Wrapf(err, "lock %s", s.lock.path))
	}
	defer s.unlock()

	if err := s.write(reg); err != nil {
		return errs.Persistence("jsonfile save", err)
	}
	return nil
}

// Update runs a locked load-modify-save cycle.
func (s *Store) Update(ctx context.Context, fn func(reg *model.Registry) error) error {
	if err := s.lock.Lock(ctx); err != nil {
		return errs.Persistence("jsonfile lock", errors.Wrapf(err, "lock %s", s.lock.path))
	}
	defer s.unlock()

	reg, err := s.read()
	if err != nil {
		return errs.Persistence("jsonfile load", err)
	}
	if err := fn(reg); err != nil {
		return err
	}
	if err := s.write(reg); err != nil {
		return errs.Persistence("jsonfile save", err)
	}
	return nil
}

func (s *Store) unlock() {
	if err := s.lock.Unlock(); err != nil {
		s.log.Warn("unlock failed", zap.Error(err))
	}
}

func (s *Store) read() (*model.Registry, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return model.NewRegistry(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	var doc map[string]accountDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.path)
	}

	reg := model.NewRegistry()
	for name, a := range doc {
		recs := make([]model.Ciphertext, 0, len(a.Data))
		for _, tok := range a.Data {
			recs = append(recs, model.Ciphertext(tok))
		}
		reg.Put(&model.Account{Username: name, PasswordHash: a.PasswordHash, Records: recs})
	}
	s.log.Debug("registry loaded", zap.Int("accounts", len(doc)))
	return reg, nil
}

func (s *Store) write(reg *model.Registry) (err error) {
	doc := make(map[string]accountDoc, len(reg.Accounts))
	for name, a := range reg.Accounts {
		data := make([]string, 0, len(a.Records))
		for _, c := range a.Records {
			data = append(data, string(c))
		}
		doc[name] = accountDoc{PasswordHash: a.PasswordHash, Data: data}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode registry")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp in %s", dir)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrapf(err, "sync %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err = rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "rename to %s", s.path)
	}
	s.log.Debug("registry saved", zap.Int("accounts", len(doc)))
	return nil
}
