package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

const orderEventColumns = `id, order_id, event_type, from_status, to_status, notes,
	payload, created_at, published_at`

type OrderEventRepository struct {
	db *sql.DB
}

func NewOrderEventRepository(db *sql.DB) *OrderEventRepository {
	return &OrderEventRepository{db: db}
}

func (r *OrderEventRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.OrderEvent) error {
	// lib/pq sends []byte as bytea, so jsonb goes over the wire as text.
	payload := string(e.Payload)
	if payload == "" {
		payload = `{}`
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO order_events (id, order_id, event_type, from_status, to_status, notes, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.OrderID, e.EventType, e.FromStatus, e.ToStatus, e.Notes,
		payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}
	return nil
}

func (r *OrderEventRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.OrderEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderEventColumns+` FROM order_events
		WHERE order_id = $1 ORDER BY created_at, id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByOrder: %w", err)
	}
	defer rows.Close()

	events, err := collectOrderEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("ListByOrder: %w", err)
	}
	return events, nil
}

// ClaimUnpublished locks up to limit unpublished events, hands them to publish
// and marks the returned ids as published, all in one transaction. Rows locked
// by another relay are skipped, so concurrent relays never publish the same batch.
func (r *OrderEventRepository) ClaimUnpublished(
	ctx context.Context,
	limit int,
	publish func(context.Context, []domain.OrderEvent) ([]uuid.UUID, error),
) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ClaimUnpublished: begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+orderEventColumns+` FROM order_events
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit,
	)
	if err != nil {
		return 0, fmt.Errorf("ClaimUnpublished: %w", err)
	}
	events, err := collectOrderEvents(rows)
	rows.Close()
	if err != nil {
		return 0, fmt.Errorf("ClaimUnpublished: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	published, publishErr := publish(ctx, events)
	if len(published) > 0 {
		_, err := tx.ExecContext(ctx,
			`UPDATE order_events SET published_at = now() WHERE id = ANY($1::uuid[])`,
			uuidStrings(published),
		)
		if err != nil {
			return 0, fmt.Errorf("ClaimUnpublished: mark published: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("ClaimUnpublished: commit: %w", err)
		}
	}
	if publishErr != nil {
		return len(published), fmt.Errorf("ClaimUnpublished: publish: %w", publishErr)
	}
	return len(published), nil
}

func collectOrderEvents(rows *sql.Rows) ([]domain.OrderEvent, error) {
	events := []domain.OrderEvent{}
	for rows.Next() {
		e, err := scanOrderEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return events, nil
}

func scanOrderEvent(s scanner) (*domain.OrderEvent, error) {
	var e domain.OrderEvent
	var payload []byte
	err := s.Scan(
		&e.ID, &e.OrderID, &e.EventType, &e.FromStatus, &e.ToStatus, &e.Notes,
		&payload, &e.CreatedAt, &e.PublishedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
