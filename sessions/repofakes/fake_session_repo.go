package fakesessionrepo

import (
	"errors"
	"sync"

	"github.com/jrsteele09/kaziflow-client/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

var ErrInjected = errors.New("injected repo failure")

type FakeSessionRepo struct {
	record sessions.Record
	lock   sync.RWMutex

	FailSave  bool
	FailLoad  bool
	FailClear bool
	Saves     int
	Clears    int
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

// NewFakeSessionRepoWith returns a repo that already holds record.
func NewFakeSessionRepoWith(record sessions.Record) *FakeSessionRepo {
	return &FakeSessionRepo{record: record}
}

func (sr *FakeSessionRepo) Save(record sessions.Record) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.FailSave {
		return ErrInjected
	}
	sr.Saves++
	sr.record = record
	return nil
}

func (sr *FakeSessionRepo) Load() (sessions.Record, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.FailLoad {
		return sessions.Record{}, ErrInjected
	}
	return sr.record, nil
}

func (sr *FakeSessionRepo) Clear() error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.Clears++
	if sr.FailClear {
		return ErrInjected
	}
	sr.record = sessions.Record{}
	return nil
}

// Stored returns what is currently persisted.
func (sr *FakeSessionRepo) Stored() sessions.Record {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.record
}
