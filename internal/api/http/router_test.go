package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundation-backend/internal/cache"
	"foundation-backend/internal/config"
	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/payment"
	"foundation-backend/internal/repository/document"
	"foundation-backend/internal/security"
	"foundation-backend/internal/service"
	"foundation-backend/internal/storage"
)

const (
	paystackSecret = "sk_test_router"
	adminAddr      = "admin@example.org"
	adminPassword  = "correct horse battery"
)

// fakePaystack answers initialize and verify calls and reports every
// initialized charge as paid in full.
type fakePaystack struct {
	mu      sync.Mutex
	charges map[string]map[string]any
}

func (f *fakePaystack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/transaction/initialize":
		var body struct {
			Amount    string `json:"amount"`
			Currency  string `json:"currency"`
			Reference string `json:"reference"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		minor, _ := strconv.ParseInt(body.Amount, 10, 64)
		f.charges[body.Reference] = map[string]any{
			"reference": body.Reference, "status": "success", "amount": minor,
			"currency": body.Currency, "gateway_response": "Approved",
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": true, "message": "Authorization URL created", "data": map[string]any{
			"authorization_url": "https://checkout.paystack.test/" + body.Reference,
			"access_code":       "ac_" + body.Reference,
			"reference":         body.Reference,
		}})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/transaction/verify/"):
		ref := strings.TrimPrefix(r.URL.Path, "/transaction/verify/")
		charge, ok := f.charges[ref]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": false, "message": "Transaction reference not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": true, "message": "Verification successful", "data": charge})
	default:
		http.NotFound(w, r)
	}
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *document.Store
	token   string
}

func newTestAPI(t *testing.T, tweak ...func(*Options)) *testAPI {
	t.Helper()

	gatewaySrv := httptest.NewServer(&fakePaystack{charges: map[string]map[string]any{}})
	t.Cleanup(gatewaySrv.Close)

	store := document.NewStore(docstore.NewMemoryStore())
	gateway := payment.NewPaystackClient(payment.PaystackConfig{SecretKey: paystackSecret, BaseURL: gatewaySrv.URL})
	email := service.NewEmailService("log", "", "noreply@example.org", "Hope Foundation", adminAddr)
	tokens := security.NewTokenManager(strings.Repeat("k", 32), time.Hour)

	hash, err := security.HashPassword(adminPassword)
	require.NoError(t, err)
	local, err := storage.NewLocalStorage("http://localhost:8080", t.TempDir())
	require.NoError(t, err)

	var noCache *cache.Client
	stats := service.NewStatsService(store.DonationRepository, store.IssueRepository, store.VolunteerRepository, store.OrphanageRepository, store.InquiryRepository, store.FinancialRecordRepository, noCache, time.Minute)
	opts := Options{
		Services: Services{
			Donations:  service.NewDonationService(store.DonationRepository, store.IssueRepository, gateway, email, "http://localhost:3000/donate/thank-you", stats),
			Ledger:     service.NewLedgerService(store.FinancialRecordRepository, 0.5, "NGN"),
			Stats:      stats,
			Issues:     service.NewIssueService(store.IssueRepository, store.OrphanageRepository, store.DonationRepository, "NGN"),
			Orphanages: service.NewOrphanageService(store.OrphanageRepository),
			Volunteers: service.NewVolunteerService(store.VolunteerRepository, store.OrphanageRepository, email),
			Inquiries:  service.NewInquiryService(store.InquiryRepository, email),
			Blog:       service.NewBlogService(store.BlogPostRepository),
			Events:     service.NewEventService(store.EventRepository),
			Images:     service.NewImageService(local, 5<<20, []string{"image/png", "image/jpeg", "application/pdf"}),
			Auth:       service.NewAuthService([]config.AdminAccount{{Email: adminAddr, Name: "Site Admin", PasswordHash: hash}}, tokens),
		},
		Tokens:         tokens,
		Files:          local,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadBytes: 5 << 20,
	}
	for _, fn := range tweak {
		fn(&opts)
	}

	token, _, err := tokens.GenerateAccessToken(adminAddr, "Site Admin", []string{security.RoleAdmin})
	require.NoError(t, err)

	return &testAPI{t: t, handler: NewRouter(opts), store: store, token: token}
}

func (a *testAPI) do(method, path string, body any, admin bool) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testAPI) seedIssue() *domain.Issue {
	a.t.Helper()
	ctx := context.Background()
	o := &domain.Orphanage{Name: "Sunrise Home", Location: domain.Location{City: "Lagos", Country: "Nigeria"}}
	require.NoError(a.t, a.store.OrphanageRepository.Create(ctx, o))
	issue := &domain.Issue{
		OrphanageID:   o.ID,
		Title:         "School fees for 12 children",
		Category:      domain.IssueCategoryEducation,
		Priority:      domain.IssuePriorityHigh,
		Status:        domain.IssueStatusOpen,
		EstimatedCost: decimal.NewFromInt(200000),
		RaisedAmount:  decimal.Zero,
		Currency:      "NGN",
	}
	require.NoError(a.t, a.store.IssueRepository.Create(ctx, issue))
	return issue
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRouter_UnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/v1/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[errorResponse](t, rec).Code)
}

func TestRouter_AdminAuth(t *testing.T) {
	api := newTestAPI(t)

	t.Run("MissingToken", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/admin/donations", nil, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeBody[errorResponse](t, rec).Code)
	})

	t.Run("ForgedToken", func(t *testing.T) {
		other := security.NewTokenManager(strings.Repeat("x", 32), time.Hour)
		forged, _, err := other.GenerateAccessToken(adminAddr, "Site Admin", []string{security.RoleAdmin})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/donations", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidToken", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/admin/donations", nil, true)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("PublicReadNeedsNoToken", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/v1/issues", nil, false)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_Login(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/admin/login", loginRequest{Email: adminAddr, Password: "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/admin/login", loginRequest{Email: "Admin@Example.org", Password: adminPassword}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[service.LoginResult](t, rec)
	require.NotEmpty(t, login.AccessToken)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	out := httptest.NewRecorder()
	api.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
}

func TestRouter_DonationCheckoutAndVerify(t *testing.T) {
	api := newTestAPI(t)
	issue := api.seedIssue()

	rec := api.do(http.MethodPost, "/api/v1/donations", map[string]any{
		"donorName":  "Chidi Okeke",
		"donorEmail": "chidi@example.com",
		"amount":     "5000",
		"currency":   "ngn",
		"issueId":    issue.ID,
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	checkout := decodeBody[service.DonationCheckout](t, rec)
	require.NotNil(t, checkout.Donation)
	ref := checkout.Donation.Reference
	assert.Equal(t, "https://checkout.paystack.test/"+ref, checkout.AuthorizationURL)
	assert.Equal(t, domain.DonationStatusPending, checkout.Donation.Status)

	rec = api.do(http.MethodGet, "/api/v1/donations/verify?reference="+ref, nil, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	verified := decodeBody[domain.Donation](t, rec)
	assert.Equal(t, domain.DonationStatusCompleted, verified.Status)
	assert.Empty(t, verified.DonorEmail)

	rec = api.do(http.MethodGet, "/api/v1/issues/"+issue.ID, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decimal.NewFromInt(5000).Equal(decodeBody[domain.Issue](t, rec).RaisedAmount))

	// A second verify must not credit the issue again.
	rec = api.do(http.MethodGet, "/api/v1/donations/verify?reference="+ref, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/issues/"+issue.ID, nil, false)
	assert.True(t, decimal.NewFromInt(5000).Equal(decodeBody[domain.Issue](t, rec).RaisedAmount))

	rec = api.do(http.MethodGet, "/api/v1/donations/public", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	public := decodeBody[[]domain.Donation](t, rec)
	require.Len(t, public, 1)
	assert.Equal(t, "Chidi Okeke", public[0].DonorName)
	assert.Empty(t, public[0].DonorEmail)
}

func TestRouter_DonationValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/donations", map[string]any{
		"donorName": "", "donorEmail": "not-an-email", "amount": "-5", "currency": "NGN",
	}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Contains(t, resp.Fields, "donorEmail")
	assert.Contains(t, resp.Fields, "amount")

	rec = api.do(http.MethodPost, "/api/v1/donations", "{not json", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/donations/verify", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func signWebhook(body string) string {
	mac := hmac.New(sha512.New, []byte(paystackSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestRouter_PaymentWebhook(t *testing.T) {
	api := newTestAPI(t)
	issue := api.seedIssue()

	rec := api.do(http.MethodPost, "/api/v1/donations", map[string]any{
		"donorName": "Ngozi", "donorEmail": "ngozi@example.com", "amount": "2500", "currency": "NGN", "issueId": issue.ID,
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	checkout := decodeBody[service.DonationCheckout](t, rec)

	body := fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"status":"success","amount":250000,"currency":"NGN"}}`,
		checkout.Donation.Reference)

	post := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
		req.Header.Set(webhookSignatureHeader, sig)
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, post("deadbeef").Code)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, post(signWebhook(body)).Code)
	}

	rec = api.do(http.MethodGet, "/api/v1/admin/donations/"+checkout.Donation.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeBody[domain.Donation](t, rec)
	assert.Equal(t, domain.DonationStatusCompleted, d.Status)
	assert.Equal(t, "ngozi@example.com", d.DonorEmail)

	rec = api.do(http.MethodGet, "/api/v1/issues/"+issue.ID, nil, false)
	assert.True(t, decimal.NewFromInt(2500).Equal(decodeBody[domain.Issue](t, rec).RaisedAmount))

	rec = api.do(http.MethodPatch, "/api/v1/admin/donations/"+d.ID+"/status", statusRequest{Status: "failed"}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decodeBody[errorResponse](t, rec).Code)
}

func TestRouter_InquiryValidationShape(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/v1/inquiries", map[string]any{}, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	for _, field := range []string{"name", "email", "subject", "message"} {
		assert.Contains(t, resp.Fields, field)
	}
}

func TestRouter_InquiryLifecycle(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/v1/inquiries", map[string]any{
		"name": "Bola", "email": "bola@example.com", "subject": "Partnership", "message": "We would like to sponsor meals.",
		"inquiryType": "partnership",
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[map[string]any](t, rec)["id"].(string)

	rec = api.do(http.MethodGet, "/api/v1/admin/inquiries/"+id, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.InquiryStatusRead, decodeBody[domain.ContactInquiry](t, rec).Status)

	rec = api.do(http.MethodPatch, "/api/v1/admin/inquiries/"+id+"/status", statusRequest{Status: "resolved"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.InquiryStatusClosed, decodeBody[domain.ContactInquiry](t, rec).Status)

	rec = api.do(http.MethodPut, "/api/v1/admin/inquiries/"+id+"/notes", notesRequest{AdminNotes: "Called back on Monday"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Called back on Monday", decodeBody[domain.ContactInquiry](t, rec).AdminNotes)

	rec = api.do(http.MethodDelete, "/api/v1/admin/inquiries/"+id, nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/admin/inquiries/"+id, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_VolunteerReview(t *testing.T) {
	api := newTestAPI(t)
	application := map[string]any{
		"firstName": "Tunde", "lastName": "Bello", "email": "Tunde@Example.com", "phone": "+2348000000000",
		"availability": "weekends", "emergencyContact": map[string]any{"name": "Kemi Bello", "phone": "+2348000000001"},
	}

	rec := api.do(http.MethodPost, "/api/v1/volunteers", application, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[map[string]any](t, rec)["id"].(string)

	rec = api.do(http.MethodPost, "/api/v1/volunteers", application, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/admin/volunteers/"+id+"/approve", reviewRequest{Notes: "Interviewed"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decodeBody[domain.Volunteer](t, rec)
	assert.Equal(t, domain.VolunteerStatusApproved, v.Status)
	assert.Equal(t, adminAddr, v.ReviewedBy)
	assert.Equal(t, "Interviewed", v.ReviewNotes)

	rec = api.do(http.MethodPost, "/api/v1/admin/volunteers/"+id+"/reject", nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/admin/volunteers/"+id+"/suspend", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.VolunteerStatusSuspended, decodeBody[domain.Volunteer](t, rec).Status)

	rec = api.do(http.MethodGet, "/api/v1/admin/volunteers?status=bogus", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Ledger(t *testing.T) {
	api := newTestAPI(t)
	record := func(kind string, amount int) map[string]any {
		return map[string]any{"type": kind, "category": "Donations", "amount": strconv.Itoa(amount), "date": "2026-02-01T00:00:00Z"}
	}

	rec := api.do(http.MethodPost, "/api/v1/admin/financial", record("income", 100000), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[service.RecordResult](t, rec)
	assert.Equal(t, adminAddr, created.Record.RecordedBy)

	rec = api.do(http.MethodPost, "/api/v1/admin/financial", record("expense", 60000), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "This expense uses 60% of the remaining funds", decodeBody[service.RecordResult](t, rec).Warning)

	rec = api.do(http.MethodPost, "/api/v1/admin/financial", record("expense", 50000), true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "insufficient_funds", decodeBody[errorResponse](t, rec).Code)

	rec = api.do(http.MethodGet, "/api/v1/admin/financial/totals", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "40000.00", decodeBody[map[string]any](t, rec)["available"])

	rec = api.do(http.MethodGet, "/api/v1/admin/financial/categories?type=expense", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody[[]string](t, rec), "Education")

	rec = api.do(http.MethodGet, "/api/v1/admin/financial/categories?type=gift", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/admin/financial?type=income", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.FinancialRecord](t, rec), 1)

	rec = api.do(http.MethodGet, "/api/v1/admin/financial/stats", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_PublishedContentOnly(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/admin/blog", map[string]any{
		"title":   "Our First Harvest",
		"content": []map[string]any{{"type": "paragraph", "text": "The garden is growing."}},
		"tags":    []string{"Farm"},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decodeBody[domain.BlogPost](t, rec)
	assert.Equal(t, "our-first-harvest", post.Slug)
	assert.Equal(t, "Site Admin", post.Author)

	rec = api.do(http.MethodGet, "/api/v1/blog/our-first-harvest", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/blog", nil, false)
	assert.Empty(t, decodeBody[[]domain.BlogPost](t, rec))

	rec = api.do(http.MethodPost, "/api/v1/admin/blog/"+post.ID+"/publish", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/blog/our-first-harvest", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decodeBody[domain.BlogPost](t, rec).PublishedAt)

	rec = api.do(http.MethodGet, "/api/v1/blog?tag=farm", nil, false)
	assert.Len(t, decodeBody[[]domain.BlogPost](t, rec), 1)

	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	rec = api.do(http.MethodPost, "/api/v1/admin/events", map[string]any{
		"title": "Charity Walk", "location": "Ikeja", "startDate": start, "endDate": start.Add(3 * time.Hour),
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decodeBody[domain.Event](t, rec)

	rec = api.do(http.MethodGet, "/api/v1/events/"+event.ID, nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/admin/events/"+event.ID+"/publish", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/events?upcoming=true", nil, false)
	assert.Len(t, decodeBody[[]domain.Event](t, rec), 1)

	rec = api.do(http.MethodPost, "/api/v1/admin/events/"+event.ID+"/cancel", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/events/"+event.ID, nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_OrphanagesAndIssues(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/admin/orphanages", map[string]any{
		"name": "Hope House", "location": map[string]any{"city": "Abuja", "country": "Nigeria"},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decodeBody[domain.Orphanage](t, rec)

	rec = api.do(http.MethodPost, "/api/v1/admin/issues", map[string]any{
		"orphanageId": o.ID, "title": "Roof repair", "category": "infrastructure", "estimatedCost": "150000",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	issue := decodeBody[domain.Issue](t, rec)
	assert.Equal(t, domain.IssueStatusOpen, issue.Status)

	rec = api.do(http.MethodPatch, "/api/v1/admin/issues/"+issue.ID+"/status", statusRequest{Status: "in-progress"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/v1/issues?orphanageId="+o.ID+"&status=in-progress", nil, false)
	assert.Len(t, decodeBody[[]domain.Issue](t, rec), 1)

	rec = api.do(http.MethodGet, "/api/v1/orphanages?verified=maybe", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, "/api/v1/admin/issues/"+issue.ID, nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, "/api/v1/issues/"+issue.ID, nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(640, 480, color.NRGBA{R: 200, G: 120, B: 40, A: 255})))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, folder, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("folder", folder))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestRouter_UploadServeDelete(t *testing.T) {
	api := newTestAPI(t)
	data := pngBytes(t)

	body, ct := multipartUpload(t, "blog", "cover.png", "image/png", data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+api.token)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	uploaded := decodeBody[service.UploadedImage](t, rec)
	assert.True(t, strings.HasPrefix(uploaded.Key, "blog/"))
	assert.NotEmpty(t, uploaded.ThumbnailKey)

	rec = api.do(http.MethodGet, "/files/"+uploaded.Key, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, data, rec.Body.Bytes())

	rec = api.do(http.MethodHead, "/files/"+uploaded.Key, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strconv.Itoa(len(data)), rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Body.Bytes())

	rec = api.do(http.MethodDelete, "/api/v1/admin/uploads/"+uploaded.Key, nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/files/"+uploaded.Key, nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodGet, "/files/"+uploaded.ThumbnailKey, nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("RejectsUnknownFolder", func(t *testing.T) {
		body, ct := multipartUpload(t, "secrets", "x.png", "image/png", data)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+api.token)
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody[errorResponse](t, rec).Fields, "folder")
	})

	t.Run("UploadNeedsAdmin", func(t *testing.T) {
		body, ct := multipartUpload(t, "blog", "x.png", "image/png", data)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRouter_FilesDisabledWithoutLocalStorage(t *testing.T) {
	api := newTestAPI(t, func(o *Options) { o.Files = nil })
	rec := api.do(http.MethodGet, "/files/blog/anything.png", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RateLimitsPublicForms(t *testing.T) {
	api := newTestAPI(t, func(o *Options) { o.Limiter = NewLocalLimiter(2) })
	inquiry := map[string]any{"name": "A", "email": "a@example.com", "subject": "Hi", "message": "Hello"}

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/inquiries", inquiry, false).Code)
	}
	rec := api.do(http.MethodPost, "/api/v1/inquiries", inquiry, false)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Other routes keep their own budget and admin calls are never limited.
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/v1/volunteers", map[string]any{}, false).Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/admin/inquiries", nil, true).Code)
	}
}

func TestRouter_RateLimitKeysOnPeerAddress(t *testing.T) {
	inquiry := `{"name":"A","email":"a@example.com","subject":"Hi","message":"Hello"}`
	post := func(api *testAPI, remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/inquiries", strings.NewReader(inquiry))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("ForwardedHeaderIgnoredFromUntrustedPeer", func(t *testing.T) {
		api := newTestAPI(t, func(o *Options) { o.Limiter = NewLocalLimiter(2) })
		for i, spoofed := range []string{"203.0.113.1", "203.0.113.2"} {
			assert.Equal(t, http.StatusCreated, post(api, "198.51.100.20:4000", spoofed), i)
		}
		assert.Equal(t, http.StatusTooManyRequests, post(api, "198.51.100.20:4000", "203.0.113.3"))
	})

	t.Run("ForwardedHeaderHonouredFromTrustedProxy", func(t *testing.T) {
		api := newTestAPI(t, func(o *Options) {
			o.Limiter = NewLocalLimiter(1)
			o.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
		})
		assert.Equal(t, http.StatusCreated, post(api, "10.1.2.3:4000", "203.0.113.1"))
		assert.Equal(t, http.StatusCreated, post(api, "10.1.2.3:4000", "203.0.113.2"))
		assert.Equal(t, http.StatusTooManyRequests, post(api, "10.1.2.3:4000", "203.0.113.1"))
	})
}

func TestRouter_CORS(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/donations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
