package usersync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/acu-erp/acu-erp/internal/kv"
)

// DefaultInterval is the pause between two local change checks.
const DefaultInterval = 2500 * time.Millisecond

// Recorder receives sync write outcomes.
type Recorder interface {
	SyncWrite(result string)
}

type nopRecorder struct{}

func (nopRecorder) SyncWrite(string) {}

// Syncer mirrors one workspace to the remote document of the same uid.
type Syncer struct {
	uid      string
	bucket   kv.Bucket
	docs     DocumentStore
	interval time.Duration
	logger   *slog.Logger
	metrics  Recorder

	mu        sync.Mutex
	lastSaved string
}

// load reconciles local and remote state once. A missing remote document is
// created from local data; an existing one overwrites local keys.
func (s *Syncer) load(ctx context.Context) error {
	remote, err := s.docs.Get(ctx, s.uid)
	if errors.Is(err, ErrDocumentNotFound) {
		keys, err := syncKeys(ctx, s.bucket)
		if err != nil {
			return err
		}
		return s.save(ctx, keys, true)
	}
	if err != nil {
		return err
	}
	if err := apply(ctx, s.bucket, remote); err != nil {
		return err
	}
	local, err := collect(ctx, s.bucket, remote.Keys())
	if err != nil {
		return err
	}
	sum, err := fingerprint(local)
	if err != nil {
		return err
	}
	s.setLastSaved(sum)
	return nil
}

// checkAndSave writes the local keys when they changed since the last write.
func (s *Syncer) checkAndSave(ctx context.Context) error {
	keys, err := syncKeys(ctx, s.bucket)
	if err != nil {
		return err
	}
	return s.save(ctx, keys, false)
}

func (s *Syncer) save(ctx context.Context, keys []string, force bool) error {
	doc, err := collect(ctx, s.bucket, keys)
	if err != nil {
		return err
	}
	sum, err := fingerprint(doc)
	if err != nil {
		return err
	}
	if !force && sum == s.getLastSaved() {
		s.metrics.SyncWrite("unchanged")
		return nil
	}
	if err := s.docs.Put(ctx, s.uid, doc); err != nil {
		s.metrics.SyncWrite("failed")
		return fmt.Errorf("usersync: save document: %w", err)
	}
	s.metrics.SyncWrite("written")
	s.setLastSaved(sum)
	return nil
}

func (s *Syncer) onRemote(ctx context.Context, doc Document) {
	if err := apply(ctx, s.bucket, doc); err != nil {
		s.logger.Warn("usersync: apply remote document", slog.String("uid", s.uid), slog.Any("error", err))
	}
}

// run loads, subscribes and then checks for local changes every interval
// until ctx is done. Tick failures are logged and retried on the next tick.
func (s *Syncer) run(ctx context.Context) {
	if err := s.load(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("usersync: initial load", slog.String("uid", s.uid), slog.Any("error", err))
	}
	if err := s.docs.Subscribe(ctx, s.uid, func(doc Document) { s.onRemote(ctx, doc) }); err != nil {
		s.logger.Warn("usersync: subscribe", slog.String("uid", s.uid), slog.Any("error", err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.checkAndSave(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("usersync: save failed", slog.String("uid", s.uid), slog.Any("error", err))
			}
		}
	}
}

func (s *Syncer) getLastSaved() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

func (s *Syncer) setLastSaved(sum string) {
	s.mu.Lock()
	s.lastSaved = sum
	s.mu.Unlock()
}
