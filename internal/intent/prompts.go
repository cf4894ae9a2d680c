package intent

import (
	"fmt"
	"time"

	"github.com/soyeahso/tripdesk/internal/dialog"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

const primaryPrompt = `You are a helpful customer support assistant for Swiss Airlines. ` +
	`Your primary role is to search for flight information and company policies to answer customer queries. ` +
	`If a customer requests to update or cancel a flight, book a car rental, book a hotel, or get trip recommendations, ` +
	`delegate the task to the appropriate specialized assistant by invoking the corresponding tool. ` +
	`You are not able to make these types of changes yourself. Only the specialized assistants are given permission to do this for the user. ` +
	`The user is not aware of the different specialized assistants, so do not mention them; just quietly delegate through function calls. ` +
	`When searching, be persistent. Expand your query bounds if the first search returns no results.`

const specialistPromptFmt = `You are a specialized assistant for handling %s. ` +
	`The primary assistant delegates work to you whenever the user needs help with this task. ` +
	`Confirm the details with the customer and inform them of any applicable policies before making a change. ` +
	`When searching, be persistent. Expand your query bounds if the first search returns no results. ` +
	`If the user changes their mind or needs help with something outside your scope, ` +
	`call the %s tool to return control to the primary assistant. Do not waste the user's time, and do not make up invalid tools or functions.`

var specialistTasks = map[string]string{
	workflow.FlightWorkflow:    "flight updates and cancellations",
	workflow.CarRentalWorkflow: "car rental bookings",
	workflow.HotelWorkflow:     "hotel bookings",
	workflow.ExcursionWorkflow: "trip recommendations and excursion bookings",
}

// SystemPrompt builds the persona prompt for a workflow, grounded in the
// passenger identity and current time.
func SystemPrompt(workflowID, passengerID string, now time.Time) string {
	base := primaryPrompt
	if workflowID != dialog.Primary {
		task, ok := specialistTasks[workflowID]
		if !ok {
			task = "the user's current request"
		}
		base = fmt.Sprintf(specialistPromptFmt, task, workflow.CompleteTool)
	}
	return fmt.Sprintf("%s\n\nCurrent passenger ID: %s\nCurrent time: %s",
		base, passengerID, now.UTC().Format(time.RFC3339))
}
