package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/usersync"
)

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte) error
}

// Service backs up the remote document of every workspace.
type Service struct {
	store    kv.Store
	docs     usersync.DocumentStore
	uploader Uploader
	logger   *slog.Logger
	clock    func() time.Time
	limit    int
}

// NewService builds the backup service.
func NewService(store kv.Store, docs usersync.DocumentStore, uploader Uploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		docs:     docs,
		uploader: uploader,
		logger:   logger,
		clock:    func() time.Time { return time.Now().UTC() },
		limit:    4,
	}
}

// ObjectKey names the backup object of uid taken at at.
func ObjectKey(uid string, at time.Time) string {
	return fmt.Sprintf("workspaces/%s/%s.json", uid, at.UTC().Format("20060102T150405Z"))
}

// Backup uploads uid's document. It reports false when the user has none.
func (s *Service) Backup(ctx context.Context, uid string) (bool, error) {
	doc, err := s.docs.Get(ctx, uid)
	if errors.Is(err, usersync.ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("backup: encode %s: %w", uid, err)
	}
	if err := s.uploader.Upload(ctx, ObjectKey(uid, s.clock()), body); err != nil {
		return false, err
	}
	return true, nil
}

// BackupAll uploads the document of every workspace and returns how many were
// written. The first failure cancels the remaining uploads.
func (s *Service) BackupAll(ctx context.Context) (int, error) {
	workspaces, err := s.store.Workspaces(ctx)
	if err != nil {
		return 0, fmt.Errorf("backup: list workspaces: %w", err)
	}
	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, uid := range workspaces {
		g.Go(func() error {
			ok, err := s.Backup(gctx, uid)
			if err != nil {
				return err
			}
			if ok {
				written.Add(1)
			} else {
				s.logger.Debug("backup: no remote document", slog.String("uid", uid))
			}
			return nil
		})
	}
	err = g.Wait()
	return int(written.Load()), err
}
