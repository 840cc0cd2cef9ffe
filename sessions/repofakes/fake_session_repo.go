package fakesessionrepo

import (
	"sync"

	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/jrsteele09/go-docs-auth/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	values map[string]string
	lock   sync.RWMutex

	// FailSet makes Set return this error for the given key
	FailSet map[string]error
	writes  int
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		values:  make(map[string]string),
		FailSet: make(map[string]error),
	}
}

func (sr *FakeSessionRepo) Set(key, value string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if err, ok := sr.FailSet[key]; ok {
		return err
	}
	sr.values[key] = value
	sr.writes++
	return nil
}

func (sr *FakeSessionRepo) Get(key string) (string, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	value, ok := sr.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return value, nil
}

func (sr *FakeSessionRepo) Remove(key string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	delete(sr.values, key)
	return nil
}

// Writes counts successful Set calls.
func (sr *FakeSessionRepo) Writes() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	return sr.writes
}

// Len returns the number of stored keys.
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	return len(sr.values)
}
