package usersync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/acu-erp/acu-erp/internal/kv"
)

// Manager runs at most one syncer per user.
type Manager struct {
	store    kv.Store
	docs     DocumentStore
	interval time.Duration
	logger   *slog.Logger
	metrics  Recorder

	mu      sync.Mutex
	running map[string]*session
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager builds a manager. A non-positive interval selects DefaultInterval;
// logger and metrics may be nil.
func NewManager(store kv.Store, docs DocumentStore, interval time.Duration, logger *slog.Logger, metrics Recorder) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Manager{
		store:    store,
		docs:     docs,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		running:  make(map[string]*session),
	}
}

// Start begins syncing uid's workspace. It reports false when a syncer is
// already running for uid.
func (m *Manager) Start(uid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.running[uid]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{cancel: cancel, done: make(chan struct{})}
	m.running[uid] = sess

	s := &Syncer{
		uid:      uid,
		bucket:   m.store.Bucket(uid),
		docs:     m.docs,
		interval: m.interval,
		logger:   m.logger,
		metrics:  m.metrics,
	}
	go func() {
		defer close(sess.done)
		s.run(ctx)
	}()
	m.logger.Info("usersync: started", slog.String("uid", uid))
	return true
}

// Stop ends uid's syncer and waits for it to exit. It reports false when none was running.
func (m *Manager) Stop(uid string) bool {
	m.mu.Lock()
	sess, ok := m.running[uid]
	delete(m.running, uid)
	m.mu.Unlock()
	if !ok {
		return false
	}
	sess.cancel()
	<-sess.done
	m.logger.Info("usersync: stopped", slog.String("uid", uid))
	return true
}

// Running reports whether uid has an active syncer.
func (m *Manager) Running(uid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[uid]
	return ok
}

// StopAll ends every syncer.
func (m *Manager) StopAll() {
	m.mu.Lock()
	uids := make([]string, 0, len(m.running))
	for uid := range m.running {
		uids = append(uids, uid)
	}
	m.mu.Unlock()
	for _, uid := range uids {
		m.Stop(uid)
	}
}
