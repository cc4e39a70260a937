package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	repo "github.com/ilindan-dev/mail-dispatcher/internal/domain/repository"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Ensure ReceiptRepository implements the interface
var _ repo.ReceiptRepository = (*ReceiptRepository)(nil)

const (
	insertReceipt = `
INSERT INTO notification_receipts (id, recipient, subject, template, tags, transport, status, envelope, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectReceipt = `
SELECT id, recipient, subject, template, tags, transport, status, envelope, error, created_at
FROM notification_receipts
WHERE id = $1`
)

// querier is the subset of pgxpool.Pool used by the repository.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReceiptRepository implements the repository.ReceiptRepository interface
// using PostgreSQL as a backend.
type ReceiptRepository struct {
	db     querier
	logger zerolog.Logger
}

// NewReceiptRepository creates a new instance of the ReceiptRepository.
func NewReceiptRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *ReceiptRepository {
	return newReceiptRepository(pool, logger)
}

func newReceiptRepository(db querier, logger *zerolog.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		db:     db,
		logger: logger.With().Str("layer", "postgres_repository").Logger(),
	}
}

// Save persists a new receipt.
func (r *ReceiptRepository) Save(ctx context.Context, rc *model.DeliveryReceipt) error {
	tags := rc.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.db.Exec(ctx, insertReceipt,
		rc.ID, rc.To, rc.Subject, rc.Template, tags,
		rc.Transport, string(rc.Status), rc.Envelope, rc.Error, rc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return repo.ErrDuplicateRecord
		}
		r.logger.Err(err).Stringer("id", rc.ID).Msg("cannot save receipt")
		return fmt.Errorf("postgres: save receipt failed: %w", err)
	}
	return nil
}

// GetByID retrieves a receipt by its unique ID.
func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DeliveryReceipt, error) {
	var (
		rc     model.DeliveryReceipt
		status string
	)
	err := r.db.QueryRow(ctx, selectReceipt, id).Scan(
		&rc.ID, &rc.To, &rc.Subject, &rc.Template, &rc.Tags,
		&rc.Transport, &status, &rc.Envelope, &rc.Error, &rc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().Stringer("id", id).Msg("receipt not found by id")
			return nil, repo.ErrNotFound
		}
		r.logger.Err(err).Str("method", "GetByID").Msg("cannot get receipt")
		return nil, fmt.Errorf("postgres: get receipt failed: %w", err)
	}
	rc.Status = model.Status(status)
	if len(rc.Tags) == 0 {
		rc.Tags = nil
	}
	rc.CreatedAt = rc.CreatedAt.UTC()
	return &rc, nil
}
