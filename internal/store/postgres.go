package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Users ──

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, created_at
		FROM users WHERE lower(email) = lower($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, created_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, id, role string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ── Draft queue snapshots ──

// ReplaceDraftQueue atomically replaces the stored draft rows for one
// user+collection with the current in-memory queue.
func (s *PostgresStore) ReplaceDraftQueue(ctx context.Context, userID, collection string, drafts []DraftRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin draft snapshot tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM draft_queues WHERE user_id = $1 AND collection = $2
	`, userID, collection); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear draft queue: %w", err)
	}

	for _, d := range drafts {
		fields, err := json.Marshal(d.Fields)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal draft fields: %w", err)
		}
		media, err := json.Marshal(d.Media)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal draft media: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO draft_queues (entity_id, user_id, collection, position, fields, media, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, d.EntityID, userID, collection, d.Position, fields, media); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert draft row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit draft snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadDraftQueue(ctx context.Context, userID, collection string) ([]DraftRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, position, fields, media, updated_at
		FROM draft_queues
		WHERE user_id = $1 AND collection = $2
		ORDER BY position ASC
	`, userID, collection)
	if err != nil {
		return nil, fmt.Errorf("load draft queue: %w", err)
	}
	defer rows.Close()

	var drafts []DraftRecord
	for rows.Next() {
		d := DraftRecord{UserID: userID, Collection: collection}
		var fields, media []byte
		if err := rows.Scan(&d.EntityID, &d.Position, &fields, &media, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan draft row: %w", err)
		}
		if err := json.Unmarshal(fields, &d.Fields); err != nil {
			return nil, fmt.Errorf("decode draft fields: %w", err)
		}
		if err := json.Unmarshal(media, &d.Media); err != nil {
			return nil, fmt.Errorf("decode draft media: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// ── Sync audit log ──

func (s *PostgresStore) InsertSyncEvent(ctx context.Context, event SyncEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_events (id, user_id, collection, entity_id, action, outcome, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.UserID, event.Collection, event.EntityID, event.Action, event.Outcome, event.Message)
	if err != nil {
		return fmt.Errorf("insert sync event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSyncEvents(ctx context.Context, userID, collection string, limit int) ([]SyncEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, collection, entity_id, action, outcome, message, created_at
		FROM sync_events
		WHERE user_id = $1 AND ($2 = '' OR collection = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync events: %w", err)
	}
	defer rows.Close()

	var events []SyncEvent
	for rows.Next() {
		var e SyncEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Collection, &e.EntityID, &e.Action, &e.Outcome, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sync event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
