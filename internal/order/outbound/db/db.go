package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/order/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

// - 23503 foreign_key_violation → goerror.ErrNotFound (owner does not exist)
// - no rows → goerror.ErrNotFound
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return goerror.ErrConflict
		case "23503":
			return goerror.ErrNotFound
		}
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("order.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const orderColumns = `id, owner_id, status, total_amount, currency, metadata,
	otp_verified_at, estimated_delivery, cancelled_at, created_at`

func scanOrder(row pgx.Row, extra ...any) (*entity.Order, error) {
	var o entity.Order
	dst := append([]any{
		&o.ID, &o.OwnerID, &o.Status, &o.TotalAmount, &o.Currency, &o.Metadata,
		&o.OTPVerifiedAt, &o.EstimatedDelivery, &o.CancelledAt, &o.CreatedAt,
	}, extra...)
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *DB) CreateOrder(ctx context.Context, o entity.Order) (err error) {
	ctx, span := s.startSpan(ctx, "CreateOrder")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO orders (id, owner_id, status, total_amount, currency, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		o.ID, o.OwnerID, o.Status, o.TotalAmount, o.Currency, o.Metadata, o.CreatedAt)
	err = s.mapError(err)
	return err
}

// GetOrder returns goerror.ErrNotFound when the order does not exist or
// belongs to someone else.
func (s *DB) GetOrder(ctx context.Context, id, ownerID int64) (_ *entity.Order, err error) {
	ctx, span := s.startSpan(ctx, "GetOrder")
	defer func() { s.endSpan(span, err) }()

	o, err := scanOrder(s.conn.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return o, nil
}

// ListOrders returns one page of the owner's orders, newest first, together
// with the owner's total order count.
func (s *DB) ListOrders(ctx context.Context, ownerID int64, limit, offset int32) (_ []entity.Order, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListOrders")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		  WHERE owner_id = $1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]entity.Order, 0, limit)
	for rows.Next() {
		o, scanErr := scanOrder(rows)
		if scanErr != nil {
			err = scanErr
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM orders WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ConfirmOrder moves a pending order to confirmed. goerror.ErrNotFound means
// no pending order with that id belongs to ownerID.
func (s *DB) ConfirmOrder(ctx context.Context, id, ownerID int64, at, estimate time.Time) (_ *entity.Confirmation, err error) {
	ctx, span := s.startSpan(ctx, "ConfirmOrder")
	defer func() { s.endSpan(span, err) }()

	var email string
	o, err := scanOrder(s.conn.QueryRow(ctx,
		`WITH confirmed AS (
			UPDATE orders
			   SET status = $4, otp_verified_at = $5, estimated_delivery = $6, updated_at = $5
			 WHERE id = $1 AND owner_id = $2 AND status = $3
			RETURNING `+orderColumns+`
		)
		SELECT c.id, c.owner_id, c.status, c.total_amount, c.currency, c.metadata,
		       c.otp_verified_at, c.estimated_delivery, c.cancelled_at, c.created_at, u.email
		  FROM confirmed c
		  JOIN identity_users u ON u.id = c.owner_id`,
		id, ownerID, entity.StatusPending, entity.StatusConfirmed, at, estimate,
	), &email)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &entity.Confirmation{Order: *o, OwnerEmail: email}, nil
}

// CancelOrder cancels a pending or confirmed order. goerror.ErrNotFound means
// no cancellable order with that id belongs to ownerID.
func (s *DB) CancelOrder(ctx context.Context, id, ownerID int64, at time.Time) (_ *entity.Order, err error) {
	ctx, span := s.startSpan(ctx, "CancelOrder")
	defer func() { s.endSpan(span, err) }()

	o, err := scanOrder(s.conn.QueryRow(ctx,
		`UPDATE orders
		    SET status = $5, cancelled_at = $6, updated_at = $6
		  WHERE id = $1 AND owner_id = $2 AND status IN ($3, $4)
		RETURNING `+orderColumns,
		id, ownerID, entity.StatusPending, entity.StatusConfirmed, entity.StatusCancelled, at,
	))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return o, nil
}
