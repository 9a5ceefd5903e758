package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/20r01a04l8/railway-management-system/internal/domain/booking"
	"github.com/20r01a04l8/railway-management-system/internal/domain/transaction"
)

type bookingRow struct {
	ID          string    `db:"id"`
	Reference   string    `db:"reference"`
	UserID      string    `db:"user_id"`
	ScheduleID  string    `db:"schedule_id"`
	SeatCount   int       `db:"seat_count"`
	TotalAmount int       `db:"total_amount"`
	Status      string    `db:"status"`
	JourneyFrom time.Time `db:"journey_from"`
	JourneyTo   time.Time `db:"journey_to"`
	BookedAt    time.Time `db:"booked_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID: r.ID, Reference: r.Reference, UserID: r.UserID, ScheduleID: r.ScheduleID,
		SeatCount: r.SeatCount, TotalAmount: r.TotalAmount, Status: booking.Status(r.Status),
		JourneyFrom: r.JourneyFrom, JourneyTo: r.JourneyTo,
		BookedAt: r.BookedAt, UpdatedAt: r.UpdatedAt,
	}
}

type passengerRow struct {
	ID         string `db:"id"`
	BookingID  string `db:"booking_id"`
	Name       string `db:"name"`
	Age        int    `db:"age"`
	Gender     string `db:"gender"`
	SeatNumber string `db:"seat_number"`
}

// BookingRepository は予約リポジトリのPostgreSQL実装
type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository { return &BookingRepository{db: db} }

// Create は予約と乗客を同一トランザクション内で作成する
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("不正なトランザクション型です")
	}

	query := `INSERT INTO bookings (reference, user_id, schedule_id, seat_count, total_amount, status, journey_from, journey_to, booked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := sqlxTx.QueryRowContext(ctx, query,
		b.Reference, b.UserID, b.ScheduleID, b.SeatCount, b.TotalAmount,
		string(b.Status), b.JourneyFrom, b.JourneyTo, b.BookedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return booking.ErrReferenceDuplicate
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}

	for i := range b.Passengers {
		p := &b.Passengers[i]
		err := sqlxTx.QueryRowContext(ctx,
			`INSERT INTO passengers (booking_id, name, age, gender, seat_number) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			b.ID, p.Name, p.Age, string(p.Gender), p.SeatNumber,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("乗客情報の作成に失敗: %w", err)
		}
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT id, reference, user_id, schedule_id, seat_count, total_amount, status, journey_from, journey_to, booked_at, updated_at
		FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	b := row.toEntity()
	if err := r.loadPassengers(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByIDForUpdate は予約行を排他ロックして取得する
// 解放処理の状態確認と更新をこのロック下で直列化する
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*booking.Booking, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("不正なトランザクション型です")
	}
	var row bookingRow
	query := `SELECT id, reference, user_id, schedule_id, seat_count, total_amount, status, journey_from, journey_to, booked_at, updated_at
		FROM bookings WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約のロック取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT id, reference, user_id, schedule_id, seat_count, total_amount, status, journey_from, journey_to, booked_at, updated_at
		FROM bookings WHERE reference = $1`
	if err := r.db.GetContext(ctx, &row, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	b := row.toEntity()
	if err := r.loadPassengers(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT id, reference, user_id, schedule_id, seat_count, total_amount, status, journey_from, journey_to, booked_at, updated_at
		FROM bookings WHERE user_id = $1 ORDER BY booked_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	bookings := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		b := row.toEntity()
		if err := r.loadPassengers(ctx, b); err != nil {
			return nil, err
		}
		bookings[i] = b
	}
	return bookings, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("不正なトランザクション型です")
	}
	result, err := sqlxTx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`,
		string(b.Status), b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("予約状態の更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// UpdatePassengers は乗客情報を入れ替える（人数は呼び出し側で検証済み）
func (r *BookingRepository) UpdatePassengers(ctx context.Context, b *booking.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passengers WHERE booking_id = $1`, b.ID); err != nil {
		return fmt.Errorf("乗客情報の削除に失敗: %w", err)
	}
	for i := range b.Passengers {
		p := &b.Passengers[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO passengers (booking_id, name, age, gender, seat_number) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			b.ID, p.Name, p.Age, string(p.Gender), p.SeatNumber,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("乗客情報の作成に失敗: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetConfirmedJourneyEndedBefore(ctx context.Context, before time.Time) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT id, reference, user_id, schedule_id, seat_count, total_amount, status, journey_from, journey_to, booked_at, updated_at
		FROM bookings WHERE status = 'confirmed' AND journey_to < $1`
	if err := r.db.SelectContext(ctx, &rows, query, before); err != nil {
		return nil, fmt.Errorf("完了対象予約の取得に失敗: %w", err)
	}
	bookings := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		bookings[i] = row.toEntity()
	}
	return bookings, nil
}

func (r *BookingRepository) loadPassengers(ctx context.Context, b *booking.Booking) error {
	var rows []passengerRow
	query := `SELECT id, booking_id, name, age, gender, seat_number FROM passengers WHERE booking_id = $1 ORDER BY seat_number`
	if err := r.db.SelectContext(ctx, &rows, query, b.ID); err != nil {
		return fmt.Errorf("乗客情報の取得に失敗: %w", err)
	}
	b.Passengers = make([]booking.Passenger, len(rows))
	for i, row := range rows {
		b.Passengers[i] = booking.Passenger{
			ID: row.ID, Name: row.Name, Age: row.Age,
			Gender: booking.Gender(row.Gender), SeatNumber: row.SeatNumber,
		}
	}
	return nil
}

var _ booking.Repository = (*BookingRepository)(nil)
