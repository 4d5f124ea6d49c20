package usersync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acu-erp/acu-erp/internal/platform/db"
)

const notifyChannel = "user_documents"

// PGDocumentStore keeps documents in the user_documents table and announces
// writes with NOTIFY on the user_documents channel, carrying the uid.
type PGDocumentStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPGDocumentStore constructs the store.
func NewPGDocumentStore(pool *pgxpool.Pool, logger *slog.Logger) *PGDocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGDocumentStore{pool: pool, logger: logger}
}

func (s *PGDocumentStore) Get(ctx context.Context, uid string) (Document, error) {
	const query = `SELECT data FROM user_documents WHERE uid = $1`
	var raw []byte
	err := s.pool.QueryRow(ctx, query, uid).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("usersync: get document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("usersync: decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func (s *PGDocumentStore) Put(ctx context.Context, uid string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("usersync: encode document: %w", err)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		const upsert = `INSERT INTO user_documents (uid, data, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (uid) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
		if _, err := tx.Exec(ctx, upsert, uid, data); err != nil {
			return fmt.Errorf("usersync: put document: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, uid); err != nil {
			return fmt.Errorf("usersync: notify: %w", err)
		}
		return nil
	})
}

// Subscribe holds one pooled connection listening on the channel for as long
// as ctx lives.
func (s *PGDocumentStore) Subscribe(ctx context.Context, uid string, fn func(Document)) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("usersync: acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{notifyChannel}.Sanitize()); err != nil {
		conn.Release()
		return fmt.Errorf("usersync: listen: %w", err)
	}
	go func() {
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("usersync: listener stopped", slog.String("uid", uid), slog.Any("error", err))
				}
				// The connection may still be listening; drop it rather than
				// return it to the pool.
				_ = conn.Conn().Close(context.Background())
				return
			}
			if n.Payload != uid {
				continue
			}
			doc, err := s.Get(ctx, uid)
			if err != nil {
				s.logger.Warn("usersync: load notified document", slog.String("uid", uid), slog.Any("error", err))
				continue
			}
			fn(doc)
		}
	}()
	return nil
}
