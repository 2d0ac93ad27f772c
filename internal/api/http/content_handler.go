package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/service"
)

// contentHandler serves blog posts and events. Public routes only ever see
// published items.
type contentHandler struct {
	blog   service.BlogService
	events service.EventService
}

func (h *contentHandler) blogFilter(r *http.Request) (domain.BlogPostFilter, error) {
	limit, err := queryLimit(r)
	if err != nil {
		return domain.BlogPostFilter{}, err
	}
	q := r.URL.Query()
	return domain.BlogPostFilter{
		Status: domain.PublishStatus(q.Get("status")),
		Tag:    q.Get("tag"),
		Limit:  limit,
	}, nil
}

func (h *contentHandler) listPublishedPosts(w http.ResponseWriter, r *http.Request) {
	filter, err := h.blogFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.Status = domain.PublishStatusPublished
	h.writePosts(w, r, filter)
}

func (h *contentHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	filter, err := h.blogFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writePosts(w, r, filter)
}

func (h *contentHandler) writePosts(w http.ResponseWriter, r *http.Request, filter domain.BlogPostFilter) {
	posts, err := h.blog.ListPosts(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *contentHandler) getPublishedPost(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	post, err := h.blog.GetPostBySlug(r.Context(), slug)
	if err == nil && post.Status != domain.PublishStatusPublished {
		err = fmt.Errorf("%w: blog post %s", domain.ErrNotFound, slug)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *contentHandler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.blog.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *contentHandler) createPost(w http.ResponseWriter, r *http.Request) {
	var post domain.BlogPost
	if err := decodeJSON(w, r, &post); err != nil {
		writeError(w, r, err)
		return
	}
	post.ID = ""
	if post.Author == "" {
		if c := adminFromContext(r.Context()); c != nil {
			post.Author = c.Name
		}
	}
	if err := h.blog.CreatePost(r.Context(), &post); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *contentHandler) updatePost(w http.ResponseWriter, r *http.Request) {
	var post domain.BlogPost
	if err := decodeJSON(w, r, &post); err != nil {
		writeError(w, r, err)
		return
	}
	post.ID = mux.Vars(r)["id"]
	if err := h.blog.UpdatePost(r.Context(), &post); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *contentHandler) publishPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.blog.Publish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *contentHandler) unpublishPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.blog.Unpublish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *contentHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.blog.DeletePost(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *contentHandler) eventFilter(r *http.Request) (domain.EventFilter, error) {
	limit, err := queryLimit(r)
	if err != nil {
		return domain.EventFilter{}, err
	}
	q := r.URL.Query()
	filter := domain.EventFilter{Status: domain.EventStatus(q.Get("status")), Limit: limit}
	if raw := q.Get("upcoming"); raw != "" {
		upcoming, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.EventFilter{}, domain.NewValidationError("upcoming", "must be true or false")
		}
		filter.Upcoming = upcoming
	}
	return filter, nil
}

func (h *contentHandler) listPublishedEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := h.eventFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.Status = domain.EventStatusPublished
	h.writeEvents(w, r, filter)
}

func (h *contentHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := h.eventFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeEvents(w, r, filter)
}

func (h *contentHandler) writeEvents(w http.ResponseWriter, r *http.Request, filter domain.EventFilter) {
	events, err := h.events.ListEvents(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *contentHandler) getPublishedEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	event, err := h.events.GetEvent(r.Context(), id)
	if err == nil && event.Status != domain.EventStatusPublished {
		err = fmt.Errorf("%w: event %s", domain.ErrNotFound, id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *contentHandler) getEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *contentHandler) createEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.Event
	if err := decodeJSON(w, r, &event); err != nil {
		writeError(w, r, err)
		return
	}
	event.ID = ""
	if err := h.events.CreateEvent(r.Context(), &event); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *contentHandler) updateEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.Event
	if err := decodeJSON(w, r, &event); err != nil {
		writeError(w, r, err)
		return
	}
	event.ID = mux.Vars(r)["id"]
	if err := h.events.UpdateEvent(r.Context(), &event); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *contentHandler) publishEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Publish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *contentHandler) cancelEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *contentHandler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
