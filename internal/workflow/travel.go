package workflow

// Workflow and tool identifiers for the travel support assistants.
const (
	FlightWorkflow    = "update_flight"
	CarRentalWorkflow = "book_car_rental"
	HotelWorkflow     = "book_hotel"
	ExcursionWorkflow = "book_excursion"
)

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func objectSchema(required []string, props map[string]any) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func completeToolDef() ToolDef {
	return ToolDef{
		Name:        CompleteTool,
		Description: "Mark the current task as complete, or escalate back to the main assistant because the task is out of scope or the user changed their mind.",
		InputSchema: objectSchema([]string{"reason"}, map[string]any{
			"cancel": map[string]any{"type": "boolean", "description": "Whether the task is being abandoned rather than completed."},
			"reason": stringProp("Why control is being handed back."),
		}),
	}
}

func delegationToolDef(e Entry) ToolDef {
	return ToolDef{
		Name:        e.DelegationTool,
		Description: "Transfer the conversation to the " + e.Persona + " to handle the user's request.",
		InputSchema: objectSchema([]string{"request"}, map[string]any{
			"request": stringProp("Everything the specialized assistant needs to know to proceed."),
		}),
	}
}

// Default returns the travel support registry: the primary assistant's
// read-only tools plus the four specialized booking workflows.
func Default() *Registry {
	lookupPolicy := ToolDef{
		Name:        "lookup_policy",
		Description: "Consult the company policies to check whether an option is permitted before making changes.",
		InputSchema: objectSchema([]string{"query"}, map[string]any{
			"query": stringProp("Free-text policy question."),
		}),
	}
	searchFlights := ToolDef{
		Name:        "search_flights",
		Description: "Search for flights by departure airport, arrival airport, and departure time window.",
		InputSchema: objectSchema(nil, map[string]any{
			"departure_airport": stringProp("IATA code of the departure airport."),
			"arrival_airport":   stringProp("IATA code of the arrival airport."),
			"start_time":        stringProp("Earliest scheduled departure, RFC 3339."),
			"end_time":          stringProp("Latest scheduled departure, RFC 3339."),
			"limit":             map[string]any{"type": "integer", "description": "Maximum rows to return."},
		}),
	}
	fetchUserFlights := ToolDef{
		Name:        "fetch_user_flight_information",
		Description: "Fetch all tickets for the current passenger together with flight and seat details.",
		InputSchema: objectSchema(nil, map[string]any{}),
	}

	primaryTools := []ToolDef{searchFlights, fetchUserFlights, lookupPolicy}

	entries := []Entry{
		{
			ID:             FlightWorkflow,
			Persona:        "flight updates assistant",
			DelegationTool: "to_flight_booking_assistant",
			Tools: []ToolDef{
				searchFlights,
				fetchUserFlights,
				lookupPolicy,
				{
					Name:        "update_ticket_to_new_flight",
					Description: "Rebook the passenger's ticket onto a different flight.",
					InputSchema: objectSchema([]string{"ticket_no", "new_flight_id"}, map[string]any{
						"ticket_no":     stringProp("Ticket number to rebook."),
						"new_flight_id": map[string]any{"type": "integer", "description": "Identifier of the replacement flight."},
					}),
					Sensitive: true,
				},
				{
					Name:        "cancel_ticket",
					Description: "Cancel the passenger's ticket and remove it from the system.",
					InputSchema: objectSchema([]string{"ticket_no"}, map[string]any{
						"ticket_no": stringProp("Ticket number to cancel."),
					}),
					Sensitive: true,
				},
			},
		},
		{
			ID:             CarRentalWorkflow,
			Persona:        "car rental assistant",
			DelegationTool: "to_book_car_rental",
			Tools: []ToolDef{
				{
					Name:        "search_car_rentals",
					Description: "Search for car rentals by location, name, price tier, and date range.",
					InputSchema: objectSchema(nil, map[string]any{
						"location":   stringProp("City to pick the car up in."),
						"name":       stringProp("Rental company name filter."),
						"price_tier": stringProp("Price tier filter."),
						"start_date": stringProp("Pickup date."),
						"end_date":   stringProp("Return date."),
					}),
				},
				lookupPolicy,
				{
					Name:        "book_car_rental",
					Description: "Book a car rental by its identifier.",
					InputSchema: objectSchema([]string{"rental_id"}, map[string]any{
						"rental_id": map[string]any{"type": "integer", "description": "Identifier of the rental to book."},
					}),
					Sensitive: true,
				},
				{
					Name:        "update_car_rental",
					Description: "Change the pickup or return date of a car rental booking.",
					InputSchema: objectSchema([]string{"rental_id"}, map[string]any{
						"rental_id":  map[string]any{"type": "integer", "description": "Identifier of the rental to update."},
						"start_date": stringProp("New pickup date."),
						"end_date":   stringProp("New return date."),
					}),
					Sensitive: true,
				},
				{
					Name:        "cancel_car_rental",
					Description: "Cancel a car rental booking by its identifier.",
					InputSchema: objectSchema([]string{"rental_id"}, map[string]any{
						"rental_id": map[string]any{"type": "integer", "description": "Identifier of the rental to cancel."},
					}),
					Sensitive: true,
				},
			},
		},
		{
			ID:             HotelWorkflow,
			Persona:        "hotel booking assistant",
			DelegationTool: "to_hotel_booking_assistant",
			Tools: []ToolDef{
				{
					Name:        "search_hotels",
					Description: "Search for hotels by location, name, price tier, and date range.",
					InputSchema: objectSchema(nil, map[string]any{
						"location":      stringProp("City to stay in."),
						"name":          stringProp("Hotel name filter."),
						"price_tier":    stringProp("Price tier filter."),
						"checkin_date":  stringProp("Check-in date."),
						"checkout_date": stringProp("Check-out date."),
					}),
				},
				lookupPolicy,
				{
					Name:        "book_hotel",
					Description: "Book a hotel by its identifier.",
					InputSchema: objectSchema([]string{"hotel_id"}, map[string]any{
						"hotel_id": map[string]any{"type": "integer", "description": "Identifier of the hotel to book."},
					}),
					Sensitive: true,
				},
				{
					Name:        "update_hotel",
					Description: "Change the check-in or check-out date of a hotel booking.",
					InputSchema: objectSchema([]string{"hotel_id"}, map[string]any{
						"hotel_id":      map[string]any{"type": "integer", "description": "Identifier of the hotel to update."},
						"checkin_date":  stringProp("New check-in date."),
						"checkout_date": stringProp("New check-out date."),
					}),
					Sensitive: true,
				},
				{
					Name:        "cancel_hotel",
					Description: "Cancel a hotel booking by its identifier.",
					InputSchema: objectSchema([]string{"hotel_id"}, map[string]any{
						"hotel_id": map[string]any{"type": "integer", "description": "Identifier of the hotel to cancel."},
					}),
					Sensitive: true,
				},
			},
		},
		{
			ID:             ExcursionWorkflow,
			Persona:        "trip recommendation assistant",
			DelegationTool: "to_book_excursion",
			Tools: []ToolDef{
				{
					Name:        "search_trip_recommendations",
					Description: "Search for trip recommendations by location, name, and keywords.",
					InputSchema: objectSchema(nil, map[string]any{
						"location": stringProp("City or region to look in."),
						"name":     stringProp("Recommendation name filter."),
						"keywords": stringProp("Comma-separated keywords to match."),
					}),
				},
				lookupPolicy,
				{
					Name:        "book_excursion",
					Description: "Book an excursion by its recommendation identifier.",
					InputSchema: objectSchema([]string{"recommendation_id"}, map[string]any{
						"recommendation_id": map[string]any{"type": "integer", "description": "Identifier of the recommendation to book."},
					}),
					Sensitive: true,
				},
				{
					Name:        "update_excursion",
					Description: "Update the details of an excursion booking.",
					InputSchema: objectSchema([]string{"recommendation_id", "details"}, map[string]any{
						"recommendation_id": map[string]any{"type": "integer", "description": "Identifier of the recommendation to update."},
						"details":           stringProp("New details for the booking."),
					}),
					Sensitive: true,
				},
				{
					Name:        "cancel_excursion",
					Description: "Cancel an excursion booking by its recommendation identifier.",
					InputSchema: objectSchema([]string{"recommendation_id"}, map[string]any{
						"recommendation_id": map[string]any{"type": "integer", "description": "Identifier of the recommendation to cancel."},
					}),
					Sensitive: true,
				},
			},
		},
	}

	return New(primaryTools, entries)
}
