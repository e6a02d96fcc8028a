package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store is the transcript data access layer.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage appends a transcript line. A zero CreatedAt is set to now.
	SaveMessage(ctx context.Context, message *Message) error

	// CountMessages returns the number of stored transcript lines.
	CountMessages(ctx context.Context) (int64, error)

	// DeleteMessagesBefore removes lines created before t and returns how many were removed.
	DeleteMessagesBefore(ctx context.Context, t time.Time) (int64, error)

	// RunSQLMaintenance runs VACUUM and ANALYZE.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by db.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return errors.New("cannot save nil message")
	}
	if message.ChatID == 0 {
		return errors.New("message must have a non-zero chat_id")
	}
	if message.UserID == 0 {
		return errors.New("message must have a non-zero user_id")
	}
	if message.Direction != DirectionIn && message.Direction != DirectionOut {
		return fmt.Errorf("invalid message direction %q", message.Direction)
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	message.CreatedAt = message.CreatedAt.UTC()

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO messages (user_id, chat_id, text, direction, created_at)
		VALUES (:user_id, :chat_id, :text, :direction, :created_at)`, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert message",
			"chat_id", message.ChatID, "user_id", message.UserID, "error", err)
		return fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to get last insert ID for message", "error", err)
	} else {
		message.ID = id
	}

	s.logger.DebugContext(ctx, "Message saved",
		"message_id", message.ID,
		"chat_id", message.ChatID,
		"direction", message.Direction)
	return nil
}

func (s *sqlxStore) CountMessages(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM messages"); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count messages", "error", err)
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

func (s *sqlxStore) DeleteMessagesBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE created_at < ?", t.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete old messages", "before", t, "error", err)
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted row count: %w", err)
	}
	s.logger.InfoContext(ctx, "Deleted old messages", "before", t, "count", n)
	return n, nil
}

// RunSQLMaintenance must run outside a transaction; SQLite rejects VACUUM inside one.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance")
	for _, stmt := range []string{"VACUUM;", "ANALYZE;"} {
		_, err := s.db.ExecContext(ctx, stmt)
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			s.logger.WarnContext(ctx, "Maintenance statement timed out or was cancelled", "statement", stmt, "error", err)
			return fmt.Errorf("database maintenance (%s) interrupted: %w", stmt, err)
		case err != nil:
			s.logger.ErrorContext(ctx, "Maintenance statement failed", "statement", stmt, "error", err)
			return fmt.Errorf("failed to execute %s: %w", stmt, err)
		}
	}
	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
