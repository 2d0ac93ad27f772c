package domain

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID              string      `json:"id"`
	Title           string      `json:"title" validate:"required,max=200"`
	Description     string      `json:"description" validate:"max=10000"`
	Location        string      `json:"location" validate:"required,max=200"`
	StartDate       time.Time   `json:"startDate"`
	EndDate         time.Time   `json:"endDate"`
	ImageURL        string      `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Capacity        int         `json:"capacity" validate:"gte=0"`
	RegistrationURL string      `json:"registrationUrl,omitempty" validate:"omitempty,url"`
	Status          EventStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (e Event) IsUpcoming(now time.Time) bool {
	return e.EndDate.After(now)
}

type EventFilter struct {
	Status EventStatus
	// Upcoming keeps only events that have not ended.
	Upcoming bool
	Limit    int
}
