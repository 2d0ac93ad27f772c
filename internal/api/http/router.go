package http

import (
	"net/http"
	"net/netip"

	"github.com/gorilla/mux"

	"foundation-backend/internal/security"
	"foundation-backend/internal/service"
)

// Services bundles the business services the HTTP API exposes.
type Services struct {
	Donations  service.DonationService
	Ledger     service.LedgerService
	Stats      service.StatsService
	Issues     service.IssueService
	Orphanages service.OrphanageService
	Volunteers service.VolunteerService
	Inquiries  service.InquiryService
	Blog       service.BlogService
	Events     service.EventService
	Images     service.ImageService
	Auth       service.AuthService
}

type Options struct {
	Services Services
	Tokens   security.TokenManager
	// Files serves /files/{path}. Nil when uploads live in a cloud bucket.
	Files FileOpener
	// Limiter throttles public form posts. Nil disables throttling.
	Limiter        RateLimiter
	AllowedOrigins []string
	// TrustedProxies may set the client address through X-Forwarded-For.
	TrustedProxies []netip.Prefix
	MaxUploadBytes int64
}

// NewRouter builds the full HTTP API. Admin routes live under
// /api/v1/admin and require a bearer token.
func NewRouter(opts Options) http.Handler {
	svc := opts.Services
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found", Code: "not_found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Code: "method_not_allowed"})
	})
	r.Use(NewAuthMiddleware(opts.Tokens).Handler)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	donations := &donationHandler{donations: svc.Donations}
	issues := &issueHandler{issues: svc.Issues, orphanages: svc.Orphanages}
	community := &communityHandler{volunteers: svc.Volunteers, inquiries: svc.Inquiries}
	content := &contentHandler{blog: svc.Blog, events: svc.Events}
	finance := &financeHandler{ledger: svc.Ledger, stats: svc.Stats}
	files := &fileHandler{images: svc.Images, files: opts.Files, maxBytes: opts.MaxUploadBytes}
	auth := &authHandler{auth: svc.Auth}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public
	api.Handle("/donations", limitByClient(opts.Limiter, http.HandlerFunc(donations.create))).Methods(http.MethodPost)
	api.HandleFunc("/donations/verify", donations.verify).Methods(http.MethodGet)
	api.HandleFunc("/donations/public", donations.listPublic).Methods(http.MethodGet)
	api.HandleFunc("/payments/webhook", donations.webhook).Methods(http.MethodPost)
	api.Handle("/volunteers", limitByClient(opts.Limiter, http.HandlerFunc(community.registerVolunteer))).Methods(http.MethodPost)
	api.Handle("/inquiries", limitByClient(opts.Limiter, http.HandlerFunc(community.submitInquiry))).Methods(http.MethodPost)
	api.HandleFunc("/orphanages", issues.listOrphanages).Methods(http.MethodGet)
	api.HandleFunc("/orphanages/{id}", issues.getOrphanage).Methods(http.MethodGet)
	api.HandleFunc("/issues", issues.listIssues).Methods(http.MethodGet)
	api.HandleFunc("/issues/{id}", issues.getIssue).Methods(http.MethodGet)
	api.HandleFunc("/blog", content.listPublishedPosts).Methods(http.MethodGet)
	api.HandleFunc("/blog/{slug}", content.getPublishedPost).Methods(http.MethodGet)
	api.HandleFunc("/events", content.listPublishedEvents).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}", content.getPublishedEvent).Methods(http.MethodGet)
	api.Handle("/admin/login", limitByClient(opts.Limiter, http.HandlerFunc(auth.login))).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()

	admin.HandleFunc("/donations", donations.list).Methods(http.MethodGet)
	admin.HandleFunc("/donations/{id}", donations.get).Methods(http.MethodGet)
	admin.HandleFunc("/donations/{id}/status", donations.updateStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/donations/{id}", donations.delete).Methods(http.MethodDelete)

	admin.HandleFunc("/issues", issues.listIssues).Methods(http.MethodGet)
	admin.HandleFunc("/issues", issues.createIssue).Methods(http.MethodPost)
	admin.HandleFunc("/issues/{id}", issues.getIssue).Methods(http.MethodGet)
	admin.HandleFunc("/issues/{id}", issues.updateIssue).Methods(http.MethodPut)
	admin.HandleFunc("/issues/{id}/status", issues.updateIssueStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/issues/{id}", issues.deleteIssue).Methods(http.MethodDelete)

	admin.HandleFunc("/orphanages", issues.listOrphanages).Methods(http.MethodGet)
	admin.HandleFunc("/orphanages", issues.createOrphanage).Methods(http.MethodPost)
	admin.HandleFunc("/orphanages/{id}", issues.getOrphanage).Methods(http.MethodGet)
	admin.HandleFunc("/orphanages/{id}", issues.updateOrphanage).Methods(http.MethodPut)
	admin.HandleFunc("/orphanages/{id}", issues.deleteOrphanage).Methods(http.MethodDelete)

	admin.HandleFunc("/volunteers", community.listVolunteers).Methods(http.MethodGet)
	admin.HandleFunc("/volunteers/{id}", community.getVolunteer).Methods(http.MethodGet)
	admin.HandleFunc("/volunteers/{id}/approve", community.approveVolunteer).Methods(http.MethodPost)
	admin.HandleFunc("/volunteers/{id}/reject", community.rejectVolunteer).Methods(http.MethodPost)
	admin.HandleFunc("/volunteers/{id}/suspend", community.suspendVolunteer).Methods(http.MethodPost)
	admin.HandleFunc("/volunteers/{id}/assignment", community.assignVolunteer).Methods(http.MethodPut)
	admin.HandleFunc("/volunteers/{id}", community.deleteVolunteer).Methods(http.MethodDelete)

	admin.HandleFunc("/inquiries", community.listInquiries).Methods(http.MethodGet)
	admin.HandleFunc("/inquiries/{id}", community.getInquiry).Methods(http.MethodGet)
	admin.HandleFunc("/inquiries/{id}/status", community.updateInquiryStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/inquiries/{id}/notes", community.updateInquiryNotes).Methods(http.MethodPut)
	admin.HandleFunc("/inquiries/{id}", community.deleteInquiry).Methods(http.MethodDelete)

	admin.HandleFunc("/blog", content.listPosts).Methods(http.MethodGet)
	admin.HandleFunc("/blog", content.createPost).Methods(http.MethodPost)
	admin.HandleFunc("/blog/{id}", content.getPost).Methods(http.MethodGet)
	admin.HandleFunc("/blog/{id}", content.updatePost).Methods(http.MethodPut)
	admin.HandleFunc("/blog/{id}/publish", content.publishPost).Methods(http.MethodPost)
	admin.HandleFunc("/blog/{id}/unpublish", content.unpublishPost).Methods(http.MethodPost)
	admin.HandleFunc("/blog/{id}", content.deletePost).Methods(http.MethodDelete)

	admin.HandleFunc("/events", content.listEvents).Methods(http.MethodGet)
	admin.HandleFunc("/events", content.createEvent).Methods(http.MethodPost)
	admin.HandleFunc("/events/{id}", content.getEvent).Methods(http.MethodGet)
	admin.HandleFunc("/events/{id}", content.updateEvent).Methods(http.MethodPut)
	admin.HandleFunc("/events/{id}/publish", content.publishEvent).Methods(http.MethodPost)
	admin.HandleFunc("/events/{id}/cancel", content.cancelEvent).Methods(http.MethodPost)
	admin.HandleFunc("/events/{id}", content.deleteEvent).Methods(http.MethodDelete)

	admin.HandleFunc("/financial", finance.listRecords).Methods(http.MethodGet)
	admin.HandleFunc("/financial", finance.createRecord).Methods(http.MethodPost)
	admin.HandleFunc("/financial/stats", finance.financialStats).Methods(http.MethodGet)
	admin.HandleFunc("/financial/totals", finance.totals).Methods(http.MethodGet)
	admin.HandleFunc("/financial/categories", finance.categories).Methods(http.MethodGet)
	admin.HandleFunc("/financial/{id}", finance.getRecord).Methods(http.MethodGet)
	admin.HandleFunc("/financial/{id}", finance.updateRecord).Methods(http.MethodPut)
	admin.HandleFunc("/financial/{id}", finance.deleteRecord).Methods(http.MethodDelete)
	admin.HandleFunc("/stats/dashboard", finance.dashboard).Methods(http.MethodGet)

	admin.HandleFunc("/uploads", files.upload).Methods(http.MethodPost)
	admin.HandleFunc("/uploads/{key:.*}", files.delete).Methods(http.MethodDelete)

	if opts.Files != nil {
		r.HandleFunc("/files/{path:.*}", files.serve).Methods(http.MethodGet, http.MethodHead)
	}

	var h http.Handler = r
	h = recoverer(h)
	h = cors(opts.AllowedOrigins)(h)
	h = requestLogger(proxyTrust(opts.TrustedProxies))(h)
	return h
}
