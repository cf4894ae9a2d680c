package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Default registry tests ---

func TestDefaultRegistryValidates(t *testing.T) {
	r := Default()
	require.NoError(t, r.Validate())
	assert.Len(t, r.Entries(), 4)
}

func TestDefaultClassifications(t *testing.T) {
	r := Default()

	safe := []string{
		"search_flights", "fetch_user_flight_information", "lookup_policy",
		"search_car_rentals", "search_hotels", "search_trip_recommendations",
	}
	for _, name := range safe {
		s, err := r.Classify(name)
		require.NoError(t, err, name)
		assert.Equal(t, Safe, s, name)
	}

	sensitive := []string{
		"update_ticket_to_new_flight", "cancel_ticket",
		"book_car_rental", "update_car_rental", "cancel_car_rental",
		"book_hotel", "update_hotel", "cancel_hotel",
		"book_excursion", "update_excursion", "cancel_excursion",
	}
	for _, name := range sensitive {
		s, err := r.Classify(name)
		require.NoError(t, err, name)
		assert.Equal(t, Sensitive, s, name)
	}
}

func TestClassifyUnknownTool(t *testing.T) {
	r := Default()
	_, err := r.Classify("launch_rocket")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestDelegationLookup(t *testing.T) {
	r := Default()

	e, ok := r.ByDelegation("to_hotel_booking_assistant")
	require.True(t, ok)
	assert.Equal(t, HotelWorkflow, e.ID)

	assert.True(t, r.IsDelegation("to_flight_booking_assistant"))
	assert.True(t, r.IsDelegation("to_book_car_rental"))
	assert.True(t, r.IsDelegation("to_book_excursion"))
	assert.False(t, r.IsDelegation("search_flights"))
	assert.False(t, r.IsDelegation(CompleteTool))
}

func TestToolsForPersona(t *testing.T) {
	r := Default()

	// Primary sees its own tools plus one delegation tool per workflow.
	primary := r.ToolsFor("primary")
	names := toolNames(primary)
	assert.Contains(t, names, "search_flights")
	assert.Contains(t, names, "to_flight_booking_assistant")
	assert.Contains(t, names, "to_book_excursion")
	assert.NotContains(t, names, CompleteTool)
	assert.NotContains(t, names, "cancel_ticket")

	// A specialized assistant sees its tools plus the completion tool.
	flight := toolNames(r.ToolsFor(FlightWorkflow))
	assert.Contains(t, flight, "cancel_ticket")
	assert.Contains(t, flight, CompleteTool)
	assert.NotContains(t, flight, "to_flight_booking_assistant")
}

func toolNames(defs []ToolDef) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// --- Validation tests ---

func TestValidateDuplicateWorkflow(t *testing.T) {
	r := New(nil, []Entry{
		{ID: "w", DelegationTool: "to_w"},
		{ID: "w", DelegationTool: "to_w2"},
	})
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate workflow id")
}

func TestValidateDuplicateDelegation(t *testing.T) {
	r := New(nil, []Entry{
		{ID: "a", DelegationTool: "to_x"},
		{ID: "b", DelegationTool: "to_x"},
	})
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate delegation tool")
}

func TestValidateReservedToolID(t *testing.T) {
	r := New(nil, []Entry{
		{ID: "a", DelegationTool: "to_a", Tools: []ToolDef{{Name: CompleteTool}}},
	})
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")
}

func TestValidateConflictingSafety(t *testing.T) {
	r := New(nil, []Entry{
		{ID: "a", DelegationTool: "to_a", Tools: []ToolDef{{Name: "shared"}}},
		{ID: "b", DelegationTool: "to_b", Tools: []ToolDef{{Name: "shared", Sensitive: true}}},
	})
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both safe and sensitive")
}

func TestValidateEmptyDelegation(t *testing.T) {
	r := New(nil, []Entry{{ID: "a"}})
	assert.Error(t, r.Validate())
}
