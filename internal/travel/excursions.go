package travel

import (
	"context"
	"fmt"
	"strings"
)

// TripRecommendation is one suggested excursion row.
type TripRecommendation struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Keywords string `json:"keywords"`
	Details  string `json:"details"`
	Booked   bool   `json:"booked"`
}

// TripSearch filters SearchTripRecommendations. Keywords are matched
// individually against the keyword list.
type TripSearch struct {
	Location string
	Name     string
	Keywords string
}

// SearchTripRecommendations returns excursions matching the filters.
func (s *Store) SearchTripRecommendations(ctx context.Context, q TripSearch) ([]TripRecommendation, error) {
	query := `SELECT id, name, location, keywords, details, booked
		FROM trip_recommendations WHERE 1=1`
	var args []any
	if q.Location != "" {
		query += " AND location LIKE ?"
		args = append(args, "%"+q.Location+"%")
	}
	if q.Name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+q.Name+"%")
	}
	if q.Keywords != "" {
		var clauses []string
		for _, kw := range strings.Split(q.Keywords, ",") {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			clauses = append(clauses, "keywords LIKE ?")
			args = append(args, "%"+kw+"%")
		}
		if len(clauses) > 0 {
			query += " AND (" + strings.Join(clauses, " OR ") + ")"
		}
	}
	query += " ORDER BY id"

	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching trip recommendations: %w", err)
	}
	defer rows.Close()

	var trips []TripRecommendation
	for rows.Next() {
		var tr TripRecommendation
		if err := rows.Scan(&tr.ID, &tr.Name, &tr.Location, &tr.Keywords,
			&tr.Details, &tr.Booked); err != nil {
			return nil, err
		}
		trips = append(trips, tr)
	}
	return trips, rows.Err()
}

// BookExcursion marks a recommendation as booked.
func (s *Store) BookExcursion(ctx context.Context, recommendationID int) (string, error) {
	res, err := s.sql.ExecContext(ctx,
		`UPDATE trip_recommendations SET booked = 1 WHERE id = ?`, recommendationID)
	if err != nil {
		return "", fmt.Errorf("booking excursion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no trip recommendation found with id %d", recommendationID)
	}
	return fmt.Sprintf("Trip recommendation %d successfully booked.", recommendationID), nil
}

// UpdateExcursion replaces the details of a booking.
func (s *Store) UpdateExcursion(ctx context.Context, recommendationID int, details string) (string, error) {
	res, err := s.sql.ExecContext(ctx,
		`UPDATE trip_recommendations SET details = ? WHERE id = ?`, details, recommendationID)
	if err != nil {
		return "", fmt.Errorf("updating excursion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no trip recommendation found with id %d", recommendationID)
	}
	return fmt.Sprintf("Trip recommendation %d successfully updated.", recommendationID), nil
}

// CancelExcursion clears an excursion booking.
func (s *Store) CancelExcursion(ctx context.Context, recommendationID int) (string, error) {
	res, err := s.sql.ExecContext(ctx,
		`UPDATE trip_recommendations SET booked = 0 WHERE id = ?`, recommendationID)
	if err != nil {
		return "", fmt.Errorf("cancelling excursion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("no trip recommendation found with id %d", recommendationID)
	}
	return fmt.Sprintf("Trip recommendation %d successfully cancelled.", recommendationID), nil
}
