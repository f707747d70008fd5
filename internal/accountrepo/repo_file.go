// Package accountrepo manages repository layer of accounts.
//
// Accounts live in a flat text file, one record per line. Every operation reads the
// whole file, and every change rewrites it.
package accountrepo

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/go-petr/ledger/internal/domain"
)

// DefaultLockRetryDelay is the file lock polling interval.
const DefaultLockRetryDelay = 50 * time.Millisecond

// Querier provides the record store operations available inside a transaction.
type Querier interface {
	LoadAll(ctx context.Context) ([]domain.Account, error)
	FindByCredentials(ctx context.Context, id, password string) (domain.Account, error)
	Append(ctx context.Context, a domain.Account) error
	DeleteByCredentials(ctx context.Context, id, password string) (int, error)
	RewriteAll(ctx context.Context, accounts []domain.Account) error
}

// RepoFile facilitates account repository layer logic on top of a single file.
type RepoFile struct {
	mu         sync.Mutex
	lock       *flock.Flock
	retryDelay time.Duration
	q          *queries
}

// Option configures RepoFile.
type Option func(*RepoFile)

// WithLockRetryDelay sets how often a busy file lock is polled.
func WithLockRetryDelay(d time.Duration) Option {
	return func(r *RepoFile) {
		if d > 0 {
			r.retryDelay = d
		}
	}
}

// NewRepoFile returns account RepoFile stored at path.
//
// The file does not have to exist. A sibling "<path>.lock" file is used to
// serialize access between processes.
func NewRepoFile(path string, opts ...Option) *RepoFile {
	r := &RepoFile{
		lock:       flock.New(path + ".lock"),
		retryDelay: DefaultLockRetryDelay,
		q:          &queries{path: path},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Path returns the location of the backing file.
func (r *RepoFile) Path() string {
	return r.q.path
}

// ExecTx runs fn while holding both the in-process and the file lock.
//
// Everything fn reads and writes through q is isolated from other ExecTx
// calls, so a load-modify-rewrite cycle cannot lose concurrent updates.
func (r *RepoFile) ExecTx(ctx context.Context, fn func(q Querier) error) error {
	l := zerolog.Ctx(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	locked, err := r.lock.TryLockContext(ctx, r.retryDelay)
	if err != nil {
		l.Error().Err(err).Str("lock", r.lock.Path()).Send()
		return storageError("lock", err)
	}

	if !locked {
		return storageError("lock", errors.Errorf("cannot acquire %s", r.lock.Path()))
	}

	defer func() {
		if err := r.lock.Unlock(); err != nil {
			l.Error().Err(err).Str("lock", r.lock.Path()).Send()
		}
	}()

	return fn(r.q)
}

// LoadAll returns every account in file order.
func (r *RepoFile) LoadAll(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account

	err := r.ExecTx(ctx, func(q Querier) error {
		var err error
		accounts, err = q.LoadAll(ctx)

		return err
	})

	return accounts, err
}

// FindByCredentials returns the first account matching both id and password.
func (r *RepoFile) FindByCredentials(ctx context.Context, id, password string) (domain.Account, error) {
	var a domain.Account

	err := r.ExecTx(ctx, func(q Querier) error {
		var err error
		a, err = q.FindByCredentials(ctx, id, password)

		return err
	})

	return a, err
}

// Append adds a single record to the end of the file.
func (r *RepoFile) Append(ctx context.Context, a domain.Account) error {
	return r.ExecTx(ctx, func(q Querier) error {
		return q.Append(ctx, a)
	})
}

// DeleteByCredentials removes every account matching both id and password.
func (r *RepoFile) DeleteByCredentials(ctx context.Context, id, password string) (int, error) {
	var n int

	err := r.ExecTx(ctx, func(q Querier) error {
		var err error
		n, err = q.DeleteByCredentials(ctx, id, password)

		return err
	})

	return n, err
}

// RewriteAll replaces the file content with accounts.
func (r *RepoFile) RewriteAll(ctx context.Context, accounts []domain.Account) error {
	return r.ExecTx(ctx, func(q Querier) error {
		return q.RewriteAll(ctx, accounts)
	})
}

type queries struct {
	path string
}

func (q *queries) LoadAll(ctx context.Context) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	f, err := os.Open(q.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Account{}, nil
		}

		l.Error().Err(err).Send()

		return nil, storageError("open", err)
	}
	defer f.Close()

	items := []domain.Account{}

	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		a, err := ParseRecord(lineNo, line)
		if err != nil {
			l.Error().Err(err).Str("path", q.path).Send()
			return nil, err
		}

		items = append(items, a)
	}

	if err := scanner.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, storageError("read", err)
	}

	return items, nil
}

func (q *queries) FindByCredentials(ctx context.Context, id, password string) (domain.Account, error) {
	accounts, err := q.LoadAll(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	for _, a := range accounts {
		if a.ID == id && a.Password == password {
			return a, nil
		}
	}

	return domain.Account{}, domain.ErrAccountNotFound
}

func (q *queries) Append(ctx context.Context, a domain.Account) error {
	l := zerolog.Ctx(ctx)

	f, err := os.OpenFile(q.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		l.Error().Err(err).Send()
		return storageError("open", err)
	}

	if _, err := f.WriteString(FormatRecord(a)); err != nil {
		l.Error().Err(err).Send()
		_ = f.Close()

		return storageError("append", err)
	}

	if err := f.Close(); err != nil {
		l.Error().Err(err).Send()
		return storageError("close", err)
	}

	return nil
}

func (q *queries) DeleteByCredentials(ctx context.Context, id, password string) (int, error) {
	accounts, err := q.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	kept := make([]domain.Account, 0, len(accounts))

	for _, a := range accounts {
		if a.ID == id && a.Password == password {
			continue
		}

		kept = append(kept, a)
	}

	removed := len(accounts) - len(kept)
	if removed == 0 {
		return 0, domain.ErrAccountNotFound
	}

	if err := q.RewriteAll(ctx, kept); err != nil {
		return 0, err
	}

	return removed, nil
}

// RewriteAll writes accounts into a temporary file next to the store and renames
// it over the store, so readers see either the old or the new content.
func (q *queries) RewriteAll(ctx context.Context, accounts []domain.Account) error {
	l := zerolog.Ctx(ctx)

	tmp, err := os.CreateTemp(filepath.Dir(q.path), filepath.Base(q.path)+".*.tmp")
	if err != nil {
		l.Error().Err(err).Send()
		return storageError("create temp", err)
	}

	tmpName := tmp.Name()

	if err := writeRecords(tmp, accounts); err != nil {
		l.Error().Err(err).Send()
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return storageError("write", err)
	}

	if err := tmp.Close(); err != nil {
		l.Error().Err(err).Send()
		_ = os.Remove(tmpName)

		return storageError("close", err)
	}

	if err := os.Rename(tmpName, q.path); err != nil {
		l.Error().Err(err).Send()
		_ = os.Remove(tmpName)

		return storageError("rename", err)
	}

	return nil
}

func writeRecords(f *os.File, accounts []domain.Account) error {
	w := bufio.NewWriter(f)

	for _, a := range accounts {
		if _, err := w.WriteString(FormatRecord(a)); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}

	return f.Sync()
}

func storageError(op string, err error) error {
	return &domain.StorageError{Op: op, Err: errors.WithStack(err)}
}
