package travel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// minRebookLead is the minimum time before departure of the replacement
// flight for a rebooking to be allowed.
const minRebookLead = 3 * time.Hour

// Flight is one scheduled flight row.
type Flight struct {
	FlightID           int    `json:"flight_id"`
	FlightNo           string `json:"flight_no"`
	DepartureAirport   string `json:"departure_airport"`
	ArrivalAirport     string `json:"arrival_airport"`
	ScheduledDeparture string `json:"scheduled_departure"`
	ScheduledArrival   string `json:"scheduled_arrival"`
	Status             string `json:"status"`
}

// TicketInfo joins a passenger's ticket with its flight and seat.
type TicketInfo struct {
	TicketNo           string `json:"ticket_no"`
	BookRef            string `json:"book_ref"`
	FlightID           int    `json:"flight_id"`
	FlightNo           string `json:"flight_no"`
	DepartureAirport   string `json:"departure_airport"`
	ArrivalAirport     string `json:"arrival_airport"`
	ScheduledDeparture string `json:"scheduled_departure"`
	FareConditions     string `json:"fare_conditions"`
	SeatNo             string `json:"seat_no,omitempty"`
}

// FlightSearch filters SearchFlights. Zero values mean "any".
type FlightSearch struct {
	DepartureAirport string
	ArrivalAirport   string
	StartTime        string
	EndTime          string
	Limit            int
}

// SearchFlights returns flights matching the filters.
func (s *Store) SearchFlights(ctx context.Context, q FlightSearch) ([]Flight, error) {
	query := `SELECT flight_id, flight_no, departure_airport, arrival_airport,
		scheduled_departure, scheduled_arrival, status FROM flights WHERE 1=1`
	var args []any
	if q.DepartureAirport != "" {
		query += " AND departure_airport = ?"
		args = append(args, q.DepartureAirport)
	}
	if q.ArrivalAirport != "" {
		query += " AND arrival_airport = ?"
		args = append(args, q.ArrivalAirport)
	}
	if q.StartTime != "" {
		query += " AND scheduled_departure >= ?"
		args = append(args, q.StartTime)
	}
	if q.EndTime != "" {
		query += " AND scheduled_departure <= ?"
		args = append(args, q.EndTime)
	}
	query += " ORDER BY scheduled_departure"
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching flights: %w", err)
	}
	defer rows.Close()

	var flights []Flight
	for rows.Next() {
		var f Flight
		if err := rows.Scan(&f.FlightID, &f.FlightNo, &f.DepartureAirport, &f.ArrivalAirport,
			&f.ScheduledDeparture, &f.ScheduledArrival, &f.Status); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

// FetchUserFlightInformation returns all tickets held by a passenger with
// flight and seat details.
func (s *Store) FetchUserFlightInformation(ctx context.Context, passengerID string) ([]TicketInfo, error) {
	rows, err := s.sql.QueryContext(ctx, `
		SELECT t.ticket_no, t.book_ref, f.flight_id, f.flight_no,
			f.departure_airport, f.arrival_airport, f.scheduled_departure,
			tf.fare_conditions, COALESCE(bp.seat_no, '')
		FROM tickets t
		JOIN ticket_flights tf ON tf.ticket_no = t.ticket_no
		JOIN flights f ON f.flight_id = tf.flight_id
		LEFT JOIN boarding_passes bp ON bp.ticket_no = t.ticket_no AND bp.flight_id = f.flight_id
		WHERE t.passenger_id = ?
		ORDER BY f.scheduled_departure
	`, passengerID)
	if err != nil {
		return nil, fmt.Errorf("fetching tickets: %w", err)
	}
	defer rows.Close()

	var tickets []TicketInfo
	for rows.Next() {
		var t TicketInfo
		if err := rows.Scan(&t.TicketNo, &t.BookRef, &t.FlightID, &t.FlightNo,
			&t.DepartureAirport, &t.ArrivalAirport, &t.ScheduledDeparture,
			&t.FareConditions, &t.SeatNo); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// ownsTicket verifies the ticket exists and belongs to the passenger.
func (s *Store) ownsTicket(ctx context.Context, ticketNo, passengerID string) error {
	var owner string
	err := s.sql.QueryRowContext(ctx,
		`SELECT passenger_id FROM tickets WHERE ticket_no = ?`, ticketNo,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("no ticket found with number %s", ticketNo)
	}
	if err != nil {
		return err
	}
	if owner != passengerID {
		return fmt.Errorf("ticket %s does not belong to the current passenger", ticketNo)
	}
	return nil
}

// UpdateTicketToNewFlight rebooks a ticket onto another flight. The
// replacement must depart more than 3 hours from now, and the ticket must
// belong to the passenger.
func (s *Store) UpdateTicketToNewFlight(ctx context.Context, ticketNo string, newFlightID int, passengerID string) (string, error) {
	if err := s.ownsTicket(ctx, ticketNo, passengerID); err != nil {
		return "", err
	}

	var departure string
	err := s.sql.QueryRowContext(ctx,
		`SELECT scheduled_departure FROM flights WHERE flight_id = ?`, newFlightID,
	).Scan(&departure)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no flight found with id %d", newFlightID)
	}
	if err != nil {
		return "", err
	}

	dep, err := parseFlightTime(departure)
	if err != nil {
		return "", fmt.Errorf("parsing departure time of flight %d: %w", newFlightID, err)
	}
	if lead := time.Until(dep); lead < minRebookLead {
		return "", fmt.Errorf(
			"not permitted to reschedule to a flight less than 3 hours from the current time; selected flight departs at %s", departure)
	}

	res, err := s.sql.ExecContext(ctx,
		`UPDATE ticket_flights SET flight_id = ? WHERE ticket_no = ?`, newFlightID, ticketNo)
	if err != nil {
		return "", fmt.Errorf("updating ticket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("ticket %s has no flight segment to update", ticketNo)
	}
	return fmt.Sprintf("Ticket %s successfully updated to flight %d.", ticketNo, newFlightID), nil
}

// CancelTicket removes a passenger's ticket from the system.
func (s *Store) CancelTicket(ctx context.Context, ticketNo, passengerID string) (string, error) {
	if err := s.ownsTicket(ctx, ticketNo, passengerID); err != nil {
		return "", err
	}
	if _, err := s.sql.ExecContext(ctx, `DELETE FROM tickets WHERE ticket_no = ?`, ticketNo); err != nil {
		return "", fmt.Errorf("cancelling ticket: %w", err)
	}
	return fmt.Sprintf("Ticket %s successfully cancelled.", ticketNo), nil
}

// parseFlightTime accepts the formats SQLite datetime() and seeders
// produce.
func parseFlightTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
