package domain

import "time"

type VolunteerStatus string

const (
	VolunteerStatusPending   VolunteerStatus = "pending"
	VolunteerStatusApproved  VolunteerStatus = "approved"
	VolunteerStatusRejected  VolunteerStatus = "rejected"
	VolunteerStatusSuspended VolunteerStatus = "suspended"
)

func (s VolunteerStatus) IsValid() bool {
	switch s {
	case VolunteerStatusPending, VolunteerStatusApproved, VolunteerStatusRejected, VolunteerStatusSuspended:
		return true
	}
	return false
}

// CanTransitionTo encodes the admin actions: approve and reject act on pending
// applications, suspend acts on approved volunteers. Nothing leads back to pending.
func (s VolunteerStatus) CanTransitionTo(next VolunteerStatus) bool {
	switch next {
	case VolunteerStatusApproved, VolunteerStatusRejected:
		return s == VolunteerStatusPending
	case VolunteerStatusSuspended:
		return s == VolunteerStatusApproved
	}
	return false
}

type EmergencyContact struct {
	Name         string `json:"name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"required,max=30"`
	Relationship string `json:"relationship" validate:"max=50"`
}

type Volunteer struct {
	ID               string           `json:"id"`
	FirstName        string           `json:"firstName" validate:"required,max=50"`
	LastName         string           `json:"lastName" validate:"required,max=50"`
	Email            string           `json:"email" validate:"required,email"`
	Phone            string           `json:"phone" validate:"required,max=30"`
	Address          string           `json:"address,omitempty" validate:"max=200"`
	DateOfBirth      string           `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Occupation       string           `json:"occupation,omitempty" validate:"max=100"`
	Skills           []string         `json:"skills" validate:"dive,max=50"`
	Interests        []string         `json:"interests" validate:"dive,max=50"`
	Availability     string           `json:"availability" validate:"required,oneof=weekdays weekends both flexible"`
	Motivation       string           `json:"motivation,omitempty" validate:"max=2000"`
	Experience       string           `json:"experience,omitempty" validate:"max=2000"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	Status           VolunteerStatus  `json:"status"`
	OrphanageID      string           `json:"orphanageId,omitempty"`
	ReviewNotes      string           `json:"reviewNotes,omitempty"`
	ReviewedBy       string           `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time       `json:"reviewedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (v Volunteer) FullName() string {
	return v.FirstName + " " + v.LastName
}

type VolunteerFilter struct {
	Status      VolunteerStatus
	OrphanageID string
	Email       string
	Limit       int
}
