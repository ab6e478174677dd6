package repository

import (
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"github.com/biharilibrary/library-manager/backend/internal/seating"
)

// CreateSeats 批量创建座位，已存在的座位号会被忽略，返回实际新建的数量
func (r *Repository) CreateSeats(seatNumbers []string) (int, error) {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO seats (seat_number) VALUES ($1) ON CONFLICT (seat_number) DO NOTHING`

	created := 0
	for _, seatNumber := range seatNumbers {
		result, err := tx.ExecContext(ctx, query, seatNumber)
		if err != nil {
			return 0, err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		created += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return created, nil
}

func (r *Repository) GetAllSeats() ([]*domain.Seat, error) {
	// 按长度再按字典序排序，使得 "2" 排在 "10" 前面
	query := `SELECT seat_number, created_at FROM seats ORDER BY LENGTH(seat_number), seat_number`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]*domain.Seat, 0)
	for rows.Next() {
		seat := &domain.Seat{}
		if err := rows.Scan(&seat.SeatNumber, &seat.CreatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func (r *Repository) GetSeatOccupancies() ([]*domain.SeatOccupancy, error) {
	query := `
		SELECT seat_number, seat_shift, sid FROM students
		WHERE seat_number IS NOT NULL AND NOT is_deleted AND status <> 'Inactive'
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occupancies := make([]*domain.SeatOccupancy, 0)
	for rows.Next() {
		occupancy := &domain.SeatOccupancy{}
		if err := rows.Scan(&occupancy.SeatNumber, &occupancy.SeatShift, &occupancy.SID); err != nil {
			return nil, err
		}
		occupancies = append(occupancies, occupancy)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return occupancies, nil
}

// GetSeatAvailabilities 返回每个座位在九个时段上的空闲情况
func (r *Repository) GetSeatAvailabilities() ([]*domain.SeatAvailability, error) {
	seats, err := r.GetAllSeats()
	if err != nil {
		return nil, err
	}

	occupancies, err := r.GetSeatOccupancies()
	if err != nil {
		return nil, err
	}

	return BuildSeatAvailabilities(seats, occupancies), nil
}

// BuildSeatAvailabilities 按 seats 的顺序汇总占用情况，不属于任何座位的占用被忽略
func BuildSeatAvailabilities(seats []*domain.Seat, occupancies []*domain.SeatOccupancy) []*domain.SeatAvailability {
	occupied := make(map[string][]pricing.SeatShift, len(seats))
	for _, o := range occupancies {
		occupied[o.SeatNumber] = append(occupied[o.SeatNumber], o.SeatShift)
	}

	availabilities := make([]*domain.SeatAvailability, 0, len(seats))
	for _, seat := range seats {
		availabilities = append(availabilities, &domain.SeatAvailability{
			SeatNumber:   seat.SeatNumber,
			Availability: seating.Availability(occupied[seat.SeatNumber]),
		})
	}

	return availabilities
}
