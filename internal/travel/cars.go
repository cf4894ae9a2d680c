package travel

import (
	"context"
	"fmt"
)

// CarRental is one bookable rental row.
type CarRental struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	PriceTier string `json:"price_tier"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Booked    bool   `json:"booked"`
}

// CarRentalSearch filters SearchCarRentals. Zero values mean "any".
type CarRentalSearch struct {
	Location  string
	Name      string
	PriceTier string
}

// SearchCarRentals returns rentals matching the filters.
func (s *Store) SearchCarRentals(ctx context.Context, q CarRentalSearch) ([]CarRental, error) {
	query := `SELECT id, name, location, price_tier, COALESCE(start_date, ''),
		COALESCE(end_date, ''), booked FROM car_rentals WHERE 1=1`
	var args []any
	if q.Location != "" {
		query += " AND location LIKE ?"
		args = append(args, "%"+q.Location+"%")
	}
	if q.Name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+q.Name+"%")
	}
	if q.PriceTier != "" {
		query += " AND price_tier LIKE ?"
		args = append(args, "%"+q.PriceTier+"%")
	}
	query += " ORDER BY id"

	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching car rentals: %w", err)
	}
	defer rows.Close()

	var rentals []CarRental
	for rows.Next() {
		var r CarRental
		if err := rows.Scan(&r.ID, &r.Name, &r.Location, &r.PriceTier,
			&r.StartDate, &r.EndDate, &r.Booked); err != nil {
			return nil, err
		}
		rentals = append(rentals, r)
	}
	return rentals, rows.Err()
}

// BookCarRental marks a rental as booked.
func (s *Store) BookCarRental(ctx context.Context, rentalID int) (string, error) {
	res, err := s.sql.ExecContext(ctx, `UPDATE car_rentals SET booked = 1 WHERE id = ?`, rentalID)
	if err != nil {
		return "", fmt.Errorf("booking car rental: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no car rental found with id %d", rentalID)
	}
	return fmt.Sprintf("Car rental %d successfully booked.", rentalID), nil
}

// UpdateCarRental changes the pickup or return dates of a booking.
func (s *Store) UpdateCarRental(ctx context.Context, rentalID int, startDate, endDate string) (string, error) {
	if startDate == "" && endDate == "" {
		return "", fmt.Errorf("no new dates provided for car rental %d", rentalID)
	}
	query := "UPDATE car_rentals SET"
	var args []any
	if startDate != "" {
		query += " start_date = ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		if startDate != "" {
			query += ","
		}
		query += " end_date = ?"
		args = append(args, endDate)
	}
	query += " WHERE id = ?"
	args = append(args, rentalID)

	res, err := s.sql.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("updating car rental: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no car rental found with id %d", rentalID)
	}
	return fmt.Sprintf("Car rental %d successfully updated.", rentalID), nil
}

// CancelCarRental clears a rental booking.
func (s *Store) CancelCarRental(ctx context.Context, rentalID int) (string, error) {
	res, err := s.sql.ExecContext(ctx, `UPDATE car_rentals SET booked = 0 WHERE id = ?`, rentalID)
	if err != nil {
		return "", fmt.Errorf("cancelling car rental: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no car rental found with id %d", rentalID)
	}
	return fmt.Sprintf("Car rental %d successfully cancelled.", rentalID), nil
}
