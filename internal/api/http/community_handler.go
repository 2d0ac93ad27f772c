package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/service"
)

// communityHandler serves volunteer applications and contact inquiries.
type communityHandler struct {
	volunteers service.VolunteerService
	inquiries  service.InquiryService
}

func (h *communityHandler) registerVolunteer(w http.ResponseWriter, r *http.Request) {
	var v domain.Volunteer
	if err := decodeJSON(w, r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	v.ID = ""
	if err := h.volunteers.Register(r.Context(), &v); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": v.ID, "status": v.Status})
}

func (h *communityHandler) listVolunteers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	list, err := h.volunteers.ListVolunteers(r.Context(), domain.VolunteerFilter{
		Status:      domain.VolunteerStatus(q.Get("status")),
		OrphanageID: q.Get("orphanageId"),
		Email:       q.Get("email"),
		Limit:       limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *communityHandler) getVolunteer(w http.ResponseWriter, r *http.Request) {
	v, err := h.volunteers.GetVolunteer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type reviewRequest struct {
	Notes string `json:"notes"`
}

type reviewFunc func(ctx context.Context, id, reviewer, notes string) (*domain.Volunteer, error)

// review decodes an optional notes body and records the signed-in admin as reviewer.
func (h *communityHandler) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	var req reviewRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	v, err := fn(r.Context(), mux.Vars(r)["id"], adminEmail(r.Context()), req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *communityHandler) approveVolunteer(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.volunteers.Approve)
}

func (h *communityHandler) rejectVolunteer(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.volunteers.Reject)
}

func (h *communityHandler) suspendVolunteer(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.volunteers.Suspend)
}

type assignmentRequest struct {
	OrphanageID string `json:"orphanageId"`
}

func (h *communityHandler) assignVolunteer(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := h.volunteers.AssignOrphanage(r.Context(), mux.Vars(r)["id"], req.OrphanageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *communityHandler) deleteVolunteer(w http.ResponseWriter, r *http.Request) {
	if err := h.volunteers.DeleteVolunteer(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *communityHandler) submitInquiry(w http.ResponseWriter, r *http.Request) {
	var inq domain.ContactInquiry
	if err := decodeJSON(w, r, &inq); err != nil {
		writeError(w, r, err)
		return
	}
	inq.ID = ""
	if err := h.inquiries.Submit(r.Context(), &inq); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": inq.ID, "status": inq.Status})
}

func (h *communityHandler) listInquiries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	list, err := h.inquiries.ListInquiries(r.Context(), domain.InquiryFilter{
		Status:      domain.InquiryStatus(q.Get("status")),
		InquiryType: domain.InquiryType(q.Get("type")),
		Limit:       limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *communityHandler) getInquiry(w http.ResponseWriter, r *http.Request) {
	inq, err := h.inquiries.GetInquiry(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inq)
}

func (h *communityHandler) updateInquiryStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inq, err := h.inquiries.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inq)
}

type notesRequest struct {
	AdminNotes string `json:"adminNotes"`
}

func (h *communityHandler) updateInquiryNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inq, err := h.inquiries.AddNotes(r.Context(), mux.Vars(r)["id"], req.AdminNotes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inq)
}

func (h *communityHandler) deleteInquiry(w http.ResponseWriter, r *http.Request) {
	if err := h.inquiries.DeleteInquiry(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
