package chat

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/scribeapp/scribe/internal/models"
)

// Manager hands out one reconciler per (user, file) view.
type Manager struct {
	backend Backend
	log     *logrus.Logger

	mu          sync.Mutex
	reconcilers map[string]*Reconciler
}

func NewManager(b Backend, log *logrus.Logger) *Manager {
	return &Manager{
		backend:     b,
		log:         log,
		reconcilers: make(map[string]*Reconciler),
	}
}

func (m *Manager) Get(userID, fileID string, kind models.MediaKind, textID string) *Reconciler {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userID + "/" + fileID
	if r, ok := m.reconcilers[k]; ok {
		r.SetTextID(textID)
		return r
	}
	r := NewReconciler(m.backend, m.log, userID, fileID, kind, textID)
	m.reconcilers[k] = r
	return r
}

// Drop forgets the reconciler for (user, file); the next Get starts fresh.
func (m *Manager) Drop(userID, fileID string) {
	m.mu.Lock()
	delete(m.reconcilers, userID+"/"+fileID)
	m.mu.Unlock()
}

// DropUser forgets every reconciler owned by the user.
func (m *Manager) DropUser(userID string) {
	m.mu.Lock()
	for k := range m.reconcilers {
		if len(k) > len(userID) && k[:len(userID)] == userID && k[len(userID)] == '/' {
			delete(m.reconcilers, k)
		}
	}
	m.mu.Unlock()
}
