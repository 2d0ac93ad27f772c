package domain

import "time"

type Location struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Country string `json:"country"`
}

type Orphanage struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" validate:"required,max=150"`
	Description   string    `json:"description" validate:"max=5000"`
	Location      Location  `json:"location"`
	ContactName   string    `json:"contactName,omitempty" validate:"max=100"`
	ContactEmail  string    `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone  string    `json:"contactPhone,omitempty" validate:"max=30"`
	Capacity      int       `json:"capacity" validate:"gte=0"`
	ChildrenCount int       `json:"childrenCount" validate:"gte=0"`
	Images        []string  `json:"images,omitempty"`
	IsVerified    bool      `json:"isVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type OrphanageFilter struct {
	// Verified filters on IsVerified when non-nil.
	Verified *bool
	Limit    int
}
