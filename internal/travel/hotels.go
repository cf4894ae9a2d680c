package travel

import (
	"context"
	"fmt"
)

// Hotel is one bookable hotel row.
type Hotel struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	PriceTier    string `json:"price_tier"`
	CheckinDate  string `json:"checkin_date,omitempty"`
	CheckoutDate string `json:"checkout_date,omitempty"`
	Booked       bool   `json:"booked"`
}

// HotelSearch filters SearchHotels. Zero values mean "any".
type HotelSearch struct {
	Location  string
	Name      string
	PriceTier string
}

// SearchHotels returns hotels matching the filters.
func (s *Store) SearchHotels(ctx context.Context, q HotelSearch) ([]Hotel, error) {
	query := `SELECT id, name, location, price_tier, COALESCE(checkin_date, ''),
		COALESCE(checkout_date, ''), booked FROM hotels WHERE 1=1`
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
		return nil, fmt.Errorf("searching hotels: %w", err)
	}
	defer rows.Close()

	var hotels []Hotel
	for rows.Next() {
		var h Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.Location, &h.PriceTier,
			&h.CheckinDate, &h.CheckoutDate, &h.Booked); err != nil {
			return nil, err
		}
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}

// BookHotel marks a hotel as booked.
func (s *Store) BookHotel(ctx context.Context, hotelID int) (string, error) {
	res, err := s.sql.ExecContext(ctx, `UPDATE hotels SET booked = 1 WHERE id = ?`, hotelID)
	if err != nil {
		return "", fmt.Errorf("booking hotel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no hotel found with id %d", hotelID)
	}
	return fmt.Sprintf("Hotel %d successfully booked.", hotelID), nil
}

// UpdateHotel changes the check-in or check-out dates of a booking.
func (s *Store) UpdateHotel(ctx context.Context, hotelID int, checkinDate, checkoutDate string) (string, error) {
	if checkinDate == "" && checkoutDate == "" {
		return "", fmt.Errorf("no new dates provided for hotel %d", hotelID)
	}
	query := "UPDATE hotels SET"
	var args []any
	if checkinDate != "" {
		query += " checkin_date = ?"
		args = append(args, checkinDate)
	}
	if checkoutDate != "" {
		if checkinDate != "" {
			query += ","
		}
		query += " checkout_date = ?"
		args = append(args, checkoutDate)
	}
	query += " WHERE id = ?"
	args = append(args, hotelID)

	res, err := s.sql.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("updating hotel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no hotel found with id %d", hotelID)
	}
	return fmt.Sprintf("Hotel %d successfully updated.", hotelID), nil
}

// CancelHotel clears a hotel booking.
func (s *Store) CancelHotel(ctx context.Context, hotelID int) (string, error) {
	res, err := s.sql.ExecContext(ctx, `UPDATE hotels SET booked = 0 WHERE id = ?`, hotelID)
	if err != nil {
		return "", fmt.Errorf("cancelling hotel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no hotel found with id %d", hotelID)
	}
	return fmt.Sprintf("Hotel %d successfully cancelled.", hotelID), nil
}
