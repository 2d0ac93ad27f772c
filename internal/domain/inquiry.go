package domain

import (
	"strings"
	"time"
)

type InquiryStatus string

const (
	InquiryStatusNew     InquiryStatus = "new"
	InquiryStatusRead    InquiryStatus = "read"
	InquiryStatusReplied InquiryStatus = "replied"
	InquiryStatusClosed  InquiryStatus = "closed"
)

// legacyInquiryStatuses maps the older admin vocabulary onto the stored one.
var legacyInquiryStatuses = map[string]InquiryStatus{
	"in_progress": InquiryStatusReplied,
	"in-progress": InquiryStatusReplied,
	"resolved":    InquiryStatusClosed,
	"archived":    InquiryStatusClosed,
}

// ParseInquiryStatus accepts both status vocabularies and returns the stored form.
func ParseInquiryStatus(s string) (InquiryStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch st := InquiryStatus(v); st {
	case InquiryStatusNew, InquiryStatusRead, InquiryStatusReplied, InquiryStatusClosed:
		return st, true
	}
	if st, ok := legacyInquiryStatuses[v]; ok {
		return st, true
	}
	return "", false
}

type InquiryType string

const (
	InquiryTypeGeneral     InquiryType = "general"
	InquiryTypeDonation    InquiryType = "donation"
	InquiryTypeVolunteer   InquiryType = "volunteer"
	InquiryTypePartnership InquiryType = "partnership"
	InquiryTypeOther       InquiryType = "other"
)

type ContactInquiry struct {
	ID          string        `json:"id"`
	Name        string        `json:"name" validate:"required,max=100"`
	Email       string        `json:"email" validate:"required,email"`
	Phone       string        `json:"phone,omitempty" validate:"max=30"`
	Subject     string        `json:"subject" validate:"required,max=200"`
	Message     string        `json:"message" validate:"required,max=5000"`
	InquiryType InquiryType   `json:"inquiryType" validate:"omitempty,oneof=general donation volunteer partnership other"`
	Status      InquiryStatus `json:"status"`
	AdminNotes  string        `json:"adminNotes,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type InquiryFilter struct {
	Status      InquiryStatus
	InquiryType InquiryType
	Limit       int
}

// InquiryStatusAliases returns every stored value that reads back as st.
func InquiryStatusAliases(st InquiryStatus) []string {
	out := []string{string(st)}
	for legacy, canonical := range legacyInquiryStatuses {
		if canonical == st {
			out = append(out, legacy)
		}
	}
	return out
}
