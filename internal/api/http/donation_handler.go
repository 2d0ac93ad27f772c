package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/service"
)

const webhookSignatureHeader = "X-Paystack-Signature"

type donationHandler struct {
	donations service.DonationService
}

func (h *donationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req domain.DonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	checkout, err := h.donations.CreateDonation(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkout)
}

// verify is the landing call after the payment page redirects back.
func (h *donationHandler) verify(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if reference == "" {
		writeError(w, r, domain.NewValidationError("reference", "is required"))
		return
	}
	d, err := h.donations.VerifyDonation(r.Context(), reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d.PublicView())
}

func (h *donationHandler) listPublic(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.donations.ListPublicDonations(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *donationHandler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, r, domain.NewValidationError("body", "unreadable request body"))
		return
	}
	if err := h.donations.HandleWebhook(r.Context(), body, r.Header.Get(webhookSignatureHeader)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *donationHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.DonationFilter{
		Status:  domain.DonationStatus(q.Get("status")),
		IssueID: q.Get("issueId"),
		DonorID: q.Get("donorId"),
		Limit:   limit,
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		writeError(w, r, domain.NewValidationError("status", "must be one of: pending, completed, failed"))
		return
	}
	list, err := h.donations.ListDonations(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *donationHandler) get(w http.ResponseWriter, r *http.Request) {
	d, err := h.donations.GetDonation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *donationHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.donations.UpdateDonationStatus(r.Context(), mux.Vars(r)["id"], domain.DonationStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *donationHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.donations.DeleteDonation(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
