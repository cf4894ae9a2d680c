package travel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/logging"
)

// Executor dispatches tool calls to the booking store. It satisfies the
// orchestrator's ToolExecutor interface; errors it returns become failed
// tool results, never turn failures.
type Executor struct {
	store *Store
	log   *logging.Logger
}

// NewExecutor wraps a store.
func NewExecutor(store *Store, log *logging.Logger) *Executor {
	return &Executor{store: store, log: log.Sub("tools")}
}

// Execute runs one named tool with JSON arguments for the given
// passenger.
func (e *Executor) Execute(ctx context.Context, name string, args json.RawMessage, user domain.UserContext) (string, error) {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	e.log.Debug().Str("tool", name).Msg("executing tool")

	switch name {
	case "search_flights":
		var a struct {
			DepartureAirport string `json:"departure_airport"`
			ArrivalAirport   string `json:"arrival_airport"`
			StartTime        string `json:"start_time"`
			EndTime          string `json:"end_time"`
			Limit            int    `json:"limit"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		flights, err := e.store.SearchFlights(ctx, FlightSearch{
			DepartureAirport: a.DepartureAirport,
			ArrivalAirport:   a.ArrivalAirport,
			StartTime:        a.StartTime,
			EndTime:          a.EndTime,
			Limit:            a.Limit,
		})
		if err != nil {
			return "", err
		}
		return encode(flights)

	case "fetch_user_flight_information":
		tickets, err := e.store.FetchUserFlightInformation(ctx, user.PassengerID)
		if err != nil {
			return "", err
		}
		return encode(tickets)

	case "update_ticket_to_new_flight":
		var a struct {
			TicketNo    string `json:"ticket_no"`
			NewFlightID int    `json:"new_flight_id"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.UpdateTicketToNewFlight(ctx, a.TicketNo, a.NewFlightID, user.PassengerID)

	case "cancel_ticket":
		var a struct {
			TicketNo string `json:"ticket_no"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.CancelTicket(ctx, a.TicketNo, user.PassengerID)

	case "lookup_policy":
		var a struct {
			Query string `json:"query"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		snippets, err := e.store.LookupPolicy(ctx, a.Query, 2)
		if err != nil {
			return "", err
		}
		if len(snippets) == 0 {
			return "No matching policy documents found.", nil
		}
		return encode(snippets)

	case "search_hotels":
		var a struct {
			Location  string `json:"location"`
			Name      string `json:"name"`
			PriceTier string `json:"price_tier"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		hotels, err := e.store.SearchHotels(ctx, HotelSearch{Location: a.Location, Name: a.Name, PriceTier: a.PriceTier})
		if err != nil {
			return "", err
		}
		return encode(hotels)

	case "book_hotel":
		var a struct {
			HotelID int `json:"hotel_id"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.BookHotel(ctx, a.HotelID)

	case "update_hotel":
		var a struct {
			HotelID      int    `json:"hotel_id"`
			CheckinDate  string `json:"checkin_date"`
			CheckoutDate string `json:"checkout_date"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.UpdateHotel(ctx, a.HotelID, a.CheckinDate, a.CheckoutDate)

	case "cancel_hotel":
		var a struct {
			HotelID int `json:"hotel_id"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.CancelHotel(ctx, a.HotelID)

	case "search_car_rentals":
		var a struct {
			Location  string `json:"location"`
			Name      string `json:"name"`
			PriceTier string `json:"price_tier"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		rentals, err := e.store.SearchCarRentals(ctx, CarRentalSearch{Location: a.Location, Name: a.Name, PriceTier: a.PriceTier})
		if err != nil {
			return "", err
		}
		return encode(rentals)

	case "book_car_rental":
		var a struct {
			RentalID int `json:"rental_id"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.BookCarRental(ctx, a.RentalID)

	case "update_car_rental":
		var a struct {
			RentalID  int    `json:"rental_id"`
			StartDate string `json:"start_date"`
			EndDate   string `json:"end_date"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.UpdateCarRental(ctx, a.RentalID, a.StartDate, a.EndDate)

	case "cancel_car_rental":
		var a struct {
			RentalID int `json:"rental_id"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.CancelCarRental(ctx, a.RentalID)

	case "search_trip_recommendations":
		var a struct {
			Location string `json:"location"`
			Name     string `json:"name"`
			Keywords string `json:"keywords"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		trips, err := e.store.SearchTripRecommendations(ctx, TripSearch{Location: a.Location, Name: a.Name, Keywords: a.Keywords})
		if err != nil {
			return "", err
		}
		return encode(trips)

	case "book_excursion":
		var a struct {
			RecommendationID int `json:"recommendation_id"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.BookExcursion(ctx, a.RecommendationID)

	case "update_excursion":
		var a struct {
			RecommendationID int    `json:"recommendation_id"`
			Details          string `json:"details"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.UpdateExcursion(ctx, a.RecommendationID, a.Details)

	case "cancel_excursion":
		var a struct {
			RecommendationID int `json:"recommendation_id"`
		}
		if err := decode(args, &a); err != nil {
			return "", err
		}
		return e.store.CancelExcursion(ctx, a.RecommendationID)
	}

	return "", fmt.Errorf("no executor for tool %s", name)
}

func decode(args json.RawMessage, into any) error {
	if err := json.Unmarshal(args, into); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func encode(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(out), nil
}
