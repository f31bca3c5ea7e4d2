// Package timeline turns an order's persisted status into the four-stage
// progress view shown on the order page.
package timeline

import (
	"time"

	"avenue/internal/models"
)

type StageStatus string

const (
	StatusUpcoming StageStatus = "upcoming"
	StatusCurrent  StageStatus = "current"
	StatusComplete StageStatus = "complete"
)

const (
	KeyConfirmed  = "confirmed"
	KeyProcessing = "processing"
	KeyInTransit  = "in-transit"
	KeyDelivered  = "delivered"
)

type Stage struct {
	Key         string
	Title       string
	Description string
}

// OrderStages is the fixed template, in display order.
var OrderStages = [...]Stage{
	{Key: KeyConfirmed, Title: "Order confirmed", Description: "We have received your order."},
	{Key: KeyProcessing, Title: "Processing", Description: "Your items are being prepared for dispatch."},
	{Key: KeyInTransit, Title: "In transit", Description: "Your parcel is on its way."},
	{Key: KeyDelivered, Title: "Delivered", Description: "Your parcel has been delivered."},
}

// Cancelled is deliberately absent: it has no place on the progress bar.
var statusToTimelineKey = map[models.OrderStatus]string{
	models.OrderStatusConfirmed:  KeyConfirmed,
	models.OrderStatusProcessing: KeyProcessing,
	models.OrderStatusShipped:    KeyInTransit,
	models.OrderStatusDelivered:  KeyDelivered,
}

// KeyFor returns the stage key an order status marks as current.
func KeyFor(status string) (string, bool) {
	key, ok := statusToTimelineKey[models.OrderStatus(status)]
	return key, ok
}

type Event struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      StageStatus `json:"status"`
	Timestamp   *time.Time  `json:"timestamp,omitempty"`
}

// Derive returns the four stages for status. ok is false when the status
// does not progress along the template (Cancelled or unknown); no stages are
// returned then. When log is given, complete and current stages carry the
// earliest time the order entered a status mapping to that stage.
func Derive(status string, log []models.StatusChange) ([]Event, bool) {
	currentKey, ok := KeyFor(status)
	if !ok {
		return nil, false
	}

	reached := firstReached(log)

	events := make([]Event, 0, len(OrderStages))
	passedCurrent := false
	for _, stage := range OrderStages {
		event := Event{
			Key:         stage.Key,
			Title:       stage.Title,
			Description: stage.Description,
		}
		switch {
		case passedCurrent:
			event.Status = StatusUpcoming
		case stage.Key == currentKey:
			event.Status = StatusCurrent
			passedCurrent = true
		default:
			event.Status = StatusComplete
		}
		if event.Status != StatusUpcoming {
			if at, found := reached[stage.Key]; found {
				ts := at
				event.Timestamp = &ts
			}
		}
		events = append(events, event)
	}
	return events, true
}

func firstReached(log []models.StatusChange) map[string]time.Time {
	if len(log) == 0 {
		return nil
	}
	reached := make(map[string]time.Time, len(log))
	for _, change := range log {
		key, ok := statusToTimelineKey[change.Status]
		if !ok {
			continue
		}
		if prev, seen := reached[key]; !seen || change.At.Before(prev) {
			reached[key] = change.At
		}
	}
	return reached
}

// View is the response shape for an order's progress.
type View struct {
	Status      string  `json:"status"`
	Progressing bool    `json:"progressing"`
	Stages      []Event `json:"stages,omitempty"`
	Message     string  `json:"message,omitempty"`
}

func Build(status string, log []models.StatusChange) View {
	events, ok := Derive(status, log)
	if ok {
		return View{Status: status, Progressing: true, Stages: events}
	}
	if models.OrderStatus(status) == models.OrderStatusCancelled {
		return View{Status: status, Message: "This order has been cancelled."}
	}
	return View{Status: status, Message: "Tracking is not available for this order."}
}
