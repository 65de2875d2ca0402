package observer

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/scribeapp/scribe/internal/cache"
	"github.com/scribeapp/scribe/internal/models"
)

// Manager keys live observers by (user, file). A view re-attaching to the
// same file gets the existing observer back; there is at most one per pair.
type Manager struct {
	backend Backend
	store   RecordStore
	cache   cache.Cache
	log     *logrus.Logger
	cfg     Config

	mu        sync.Mutex
	observers map[string]*Observer
}

func NewManager(b Backend, store RecordStore, c cache.Cache, log *logrus.Logger, cfg Config) *Manager {
	return &Manager{
		backend:   b,
		store:     store,
		cache:     c,
		log:       log,
		cfg:       cfg,
		observers: make(map[string]*Observer),
	}
}

func key(userID, fileID string) string { return userID + "/" + fileID }

// Attach returns the observer for (user, file), starting one if needed.
func (m *Manager) Attach(ctx context.Context, userID string, rec models.UploadRecord) *Observer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.observers[key(userID, rec.ID)]; ok {
		return o
	}

	o := New(m.backend, m.store, m.cache, m.log, m.cfg)
	m.observers[key(userID, rec.ID)] = o
	o.Attach(ctx, userID, rec)
	return o
}

func (m *Manager) Get(userID, fileID string) (*Observer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.observers[key(userID, fileID)]
	return o, ok
}

// Detach stops the observer for (user, file), if any.
func (m *Manager) Detach(userID, fileID string) {
	m.mu.Lock()
	o, ok := m.observers[key(userID, fileID)]
	delete(m.observers, key(userID, fileID))
	m.mu.Unlock()

	if ok {
		o.Detach()
	}
}

// DetachUser stops every observer owned by the user. Called when the
// identity becomes unavailable (logout, account deletion).
func (m *Manager) DetachUser(userID string) {
	m.mu.Lock()
	var doomed []*Observer
	for k, o := range m.observers {
		if o.userID == userID {
			doomed = append(doomed, o)
			delete(m.observers, k)
		}
	}
	m.mu.Unlock()

	for _, o := range doomed {
		o.Detach()
	}
}

// Shutdown tears down all observers; part of application stop.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Observer, 0, len(m.observers))
	for _, o := range m.observers {
		all = append(all, o)
	}
	m.observers = make(map[string]*Observer)
	m.mu.Unlock()

	for _, o := range all {
		o.Detach()
	}
}
