package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/service"
)

// issueHandler serves orphanages and the issues raised for them.
type issueHandler struct {
	issues     service.IssueService
	orphanages service.OrphanageService
}

func (h *issueHandler) listIssues(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	list, err := h.issues.ListIssues(r.Context(), domain.IssueFilter{
		OrphanageID: q.Get("orphanageId"),
		Status:      domain.IssueStatus(q.Get("status")),
		Category:    domain.IssueCategory(q.Get("category")),
		Priority:    domain.IssuePriority(q.Get("priority")),
		Limit:       limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *issueHandler) getIssue(w http.ResponseWriter, r *http.Request) {
	issue, err := h.issues.GetIssue(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *issueHandler) createIssue(w http.ResponseWriter, r *http.Request) {
	var issue domain.Issue
	if err := decodeJSON(w, r, &issue); err != nil {
		writeError(w, r, err)
		return
	}
	issue.ID = ""
	if err := h.issues.CreateIssue(r.Context(), &issue); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (h *issueHandler) updateIssue(w http.ResponseWriter, r *http.Request) {
	var issue domain.Issue
	if err := decodeJSON(w, r, &issue); err != nil {
		writeError(w, r, err)
		return
	}
	issue.ID = mux.Vars(r)["id"]
	if err := h.issues.UpdateIssue(r.Context(), &issue); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *issueHandler) updateIssueStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	issue, err := h.issues.UpdateStatus(r.Context(), mux.Vars(r)["id"], domain.IssueStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *issueHandler) deleteIssue(w http.ResponseWriter, r *http.Request) {
	if err := h.issues.DeleteIssue(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *issueHandler) listOrphanages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := domain.OrphanageFilter{Limit: limit}
	if raw := r.URL.Query().Get("verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, domain.NewValidationError("verified", "must be true or false"))
			return
		}
		filter.Verified = &verified
	}
	list, err := h.orphanages.ListOrphanages(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *issueHandler) getOrphanage(w http.ResponseWriter, r *http.Request) {
	o, err := h.orphanages.GetOrphanage(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *issueHandler) createOrphanage(w http.ResponseWriter, r *http.Request) {
	var o domain.Orphanage
	if err := decodeJSON(w, r, &o); err != nil {
		writeError(w, r, err)
		return
	}
	o.ID = ""
	if err := h.orphanages.CreateOrphanage(r.Context(), &o); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *issueHandler) updateOrphanage(w http.ResponseWriter, r *http.Request) {
	var o domain.Orphanage
	if err := decodeJSON(w, r, &o); err != nil {
		writeError(w, r, err)
		return
	}
	o.ID = mux.Vars(r)["id"]
	if err := h.orphanages.UpdateOrphanage(r.Context(), &o); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *issueHandler) deleteOrphanage(w http.ResponseWriter, r *http.Request) {
	if err := h.orphanages.DeleteOrphanage(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
