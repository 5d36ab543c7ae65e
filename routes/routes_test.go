package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradocs/database/repository/memory"
	"tradocs/handlers"
	"tradocs/models"
	"tradocs/services/account"
	"tradocs/services/admin"
	"tradocs/services/affiliate"
	"tradocs/services/authenticator"
	"tradocs/services/document"
	"tradocs/services/finance"
	"tradocs/services/notification"
	"tradocs/services/payment"
	"tradocs/services/storage"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterValidators(); err != nil {
		panic(err)
	}
}

type fixture struct {
	router   *gin.Engine
	profiles *memory.Profiles
	docs     *memory.Documents
	notes    *memory.Notifications
	notifier *notification.DefaultNotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	profiles := memory.NewProfiles()
	docs := memory.NewDocuments()
	verifications := memory.NewVerifications()
	translations := memory.NewTranslations()
	payments := memory.NewPayments()
	withdrawals := memory.NewWithdrawals()
	notes := memory.NewNotifications()
	authCache := utils.NewMemoryAuthCache()

	notifier, err := notification.NewDefaultNotificationService(notes, profiles, notification.NewMemoryBroker(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	accounts := account.NewAccountService(profiles, authCache, time.Hour)
	documents := &document.DefaultDocumentService{
		Docs:          docs,
		Verifications: verifications,
		Translations:  translations,
		Folders:       memory.NewFolders(),
		Storage:       storage.NewMemoryStorage(),
		Notifier:      notifier,
		Pricing:       document.NewPricing(1000, "usd"),
	}
	affiliates, err := affiliate.NewAffiliateService(profiles, payments, withdrawals, notifier, "0.10", "20")
	if err != nil {
		t.Fatal(err)
	}
	fin := &finance.DefaultFinanceService{
		Docs:          docs,
		Verifications: verifications,
		Translations:  translations,
		Payments:      payments,
		Withdrawals:   withdrawals,
		Cache:         finance.NewMemoryStatsCache(),
	}

	hb := &handlers.HandlerBundle{
		Accounts:  accounts,
		Documents: documents,
		Payments: &payment.DefaultPaymentService{
			Payments:   payments,
			Docs:       docs,
			Profiles:   profiles,
			Documents:  documents,
			Affiliates: affiliates,
			Notifier:   notifier,
			Settings:   payment.Settings{SecretKey: "sk_test_123", WebhookSecretTest: "whsec_test", Currency: "usd"},
		},
		Notifications: notifier,
		Affiliates:    affiliates,
		Authenticators: &authenticator.DefaultAuthenticatorService{
			Verifications: verifications,
			Translations:  translations,
			Docs:          docs,
			Documents:     documents,
			Notifier:      notifier,
		},
		Finance: fin,
		Admin:   &admin.DefaultAdminService{Finance: fin, Profiles: accounts},
		Now:     func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	}

	r := gin.New()
	RegisterRoutes(r, hb, Deps{Profiles: profiles, AuthCache: authCache})
	return &fixture{router: r, profiles: profiles, docs: docs, notes: notes, notifier: notifier}
}

// signIn seeds a profile with role and returns a live token for it.
func (f *fixture) signIn(t *testing.T, role string) string {
	t.Helper()
	id := role + "-1"
	token, err := utils.GenerateToken(id, id+"@example.com", role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	p := models.Profile{ID: id, Email: id + "@example.com", Role: role, TokenHash: utils.HashToken(token)}
	if err := f.profiles.Create(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
	return token
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) upload(t *testing.T, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "contract.pdf")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("%PDF-1.4 test"))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthAndLegalArePublic(t *testing.T) {
	f := newFixture(t)
	if w := f.do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: got %d", w.Code)
	}
	w := f.do(http.MethodGet, "/api/legal", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("legal: got %d", w.Code)
	}
	body := decode[struct {
		Data []models.LegalSection `json:"data"`
	}](t, w)
	if len(body.Data) == 0 {
		t.Fatal("expected customer legal sections")
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "Ana@Example.com", "password": "short", "fullName": "Ana",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("weak password: got %d", w.Code)
	}

	w = f.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "Ana@Example.com", "password": "s3cretpass", "fullName": "Ana",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: got %d %s", w.Code, w.Body.String())
	}
	if w := f.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ana@example.com", "password": "s3cretpass", "fullName": "Ana",
	}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: got %d", w.Code)
	}

	if w := f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrongpass1"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: got %d", w.Code)
	}
	w = f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "s3cretpass"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d", w.Code)
	}
	token := decode[account.AuthResponse](t, w).Token

	w = f.do(http.MethodGet, "/api/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile: got %d", w.Code)
	}
	if p := decode[models.Profile](t, w); p.Email != "ana@example.com" || p.Role != models.RoleCustomer {
		t.Fatalf("unexpected profile %+v", p)
	}

	if w := f.do(http.MethodPost, "/api/auth/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/profile", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: got %d", w.Code)
	}
}

func TestUploadListAndNotifications(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, models.RoleCustomer)

	w := f.upload(t, token, map[string]string{"pages": "2", "sourceLanguage": "es", "targetLanguage": "en", "translationType": "certified"})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: got %d %s", w.Code, w.Body.String())
	}
	doc := decode[models.Document](t, w)
	if doc.Status != models.DocumentStatusDraft || !doc.TotalCost.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("unexpected document %+v", doc)
	}

	if w := f.upload(t, token, map[string]string{"pages": "1", "sourceLanguage": "en", "targetLanguage": "en", "translationType": "standard"}); w.Code != http.StatusBadRequest {
		t.Fatalf("same languages: got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/api/documents?status=draft", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}
	list := decode[struct {
		Documents []json.RawMessage `json:"documents"`
	}](t, w)
	if len(list.Documents) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(list.Documents))
	}
	if w := f.do(http.MethodGet, "/api/documents?status=lost", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter: got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/documents/stats", token, nil); w.Code != http.StatusOK {
		t.Fatalf("stats: got %d", w.Code)
	}

	strangerToken, _ := utils.GenerateToken("stranger", "s@example.com", models.RoleCustomer, time.Hour)
	f.profiles.Create(context.Background(), &models.Profile{ID: "stranger", Email: "s@example.com", Role: models.RoleCustomer, TokenHash: utils.HashToken(strangerToken)})
	if w := f.do(http.MethodGet, "/api/documents/"+doc.ID, strangerToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign document: got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/api/notifications/unread-count", token, nil)
	if got := decode[map[string]int64](t, w)["count"]; got != 1 {
		t.Fatalf("unread count: got %d", got)
	}
	w = f.do(http.MethodPut, "/api/notifications/read-all", token, nil)
	if got := decode[map[string]int64](t, w)["updated"]; got != 1 {
		t.Fatalf("read-all: got %d", got)
	}

	if w := f.do(http.MethodDelete, "/api/documents/"+doc.ID, token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete draft: got %d", w.Code)
	}
}

func TestRoleGates(t *testing.T) {
	f := newFixture(t)
	tokens := map[string]string{}
	for _, role := range models.Roles {
		tokens[role] = f.signIn(t, role)
	}

	cases := []struct {
		path string
		want map[string]int
	}{
		{"/api/finance/stats", map[string]int{
			models.RoleCustomer: 403, models.RoleAuthenticator: 403, models.RoleFinance: 200, models.RoleAdmin: 200,
		}},
		{"/api/authenticator/queue", map[string]int{
			models.RoleCustomer: 403, models.RoleAuthenticator: 200, models.RoleFinance: 403, models.RoleAdmin: 200,
		}},
		{"/api/admin/overview", map[string]int{
			models.RoleCustomer: 403, models.RoleAuthenticator: 403, models.RoleFinance: 403, models.RoleAdmin: 200,
		}},
	}
	for _, tc := range cases {
		for role, code := range tc.want {
			if w := f.do(http.MethodGet, tc.path, tokens[role], nil); w.Code != code {
				t.Errorf("%s as %s: got %d, want %d", tc.path, role, w.Code, code)
			}
		}
	}
	if w := f.do(http.MethodGet, "/api/finance/stats", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d", w.Code)
	}
}

func TestFinanceExport(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, models.RoleFinance)

	w := f.do(http.MethodGet, "/api/finance/export?format=csv&preset=allTime", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: got %d %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="finance-report-all-2026-03-10.csv"`) {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), strings.Join(finance.CSVHeader, ",")) {
		t.Fatalf("missing CSV header: %q", w.Body.String())
	}

	if w := f.do(http.MethodGet, "/api/finance/export?format=xml", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad format: got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/finance/report?preset=custom&start=2026-03-10&end=2026-03-01", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("inverted range: got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/finance/report?groupBy=week", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad groupBy: got %d", w.Code)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{"id":"evt_1","livemode":false}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestStaffWorkflowErrors(t *testing.T) {
	f := newFixture(t)
	customer := f.signIn(t, models.RoleCustomer)
	adminToken := f.signIn(t, models.RoleAdmin)

	doc := decode[models.Document](t, f.upload(t, customer, map[string]string{
		"pages": "1", "sourceLanguage": "fr", "targetLanguage": "en", "translationType": "standard",
	}))

	if w := f.do(http.MethodPut, "/api/admin/documents/"+doc.ID+"/status", adminToken, map[string]string{"status": "processing"}); w.Code != http.StatusConflict {
		t.Fatalf("unpaid document: got %d", w.Code)
	}
	if w := f.do(http.MethodPut, "/api/admin/documents/"+doc.ID+"/status", adminToken, map[string]string{"status": "shipped"}); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: got %d", w.Code)
	}
	if w := f.do(http.MethodPut, "/api/admin/profiles/admin-1/role", adminToken, map[string]string{"role": "customer"}); w.Code != http.StatusForbidden {
		t.Fatalf("self role change: got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/authenticator/verifications/missing/reject", adminToken, map[string]string{}); w.Code != http.StatusBadRequest {
		t.Fatalf("reject without reason: got %d", w.Code)
	}
}

func TestWithdrawalRequestValidation(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, models.RoleCustomer)

	body := map[string]any{"amount": "25", "method": "paypal", "payoutDetails": "me@example.com"}
	if w := f.do(http.MethodPost, "/api/affiliate/withdrawals", token, body); w.Code != http.StatusForbidden {
		t.Fatalf("not an affiliate: got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/profile/affiliate", token, nil); w.Code != http.StatusOK {
		t.Fatalf("enable affiliate: got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/affiliate/withdrawals", token, body); w.Code != http.StatusBadRequest {
		t.Fatalf("no earnings yet: got %d", w.Code)
	}
	body["amount"] = "5"
	if w := f.do(http.MethodPost, "/api/affiliate/withdrawals", token, body); w.Code != http.StatusBadRequest {
		t.Fatalf("below minimum: got %d", w.Code)
	}
	body["method"] = "cheque"
	if w := f.do(http.MethodPost, "/api/affiliate/withdrawals", token, body); w.Code != http.StatusBadRequest {
		t.Fatalf("bad method: got %d", w.Code)
	}
}

// readEvent reads one server-sent event frame.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended early: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if name != "" || data != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestNotificationStream(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, models.RoleCustomer)
	if err := f.notes.Create(context.Background(), &models.Notification{ID: "n-1", UserID: "customer-1", Title: "Earlier", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if w := f.do(http.MethodGet, "/api/notifications?token="+token, "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("query token outside the stream: got %d", w.Code)
	}

	srv := httptest.NewServer(f.router)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if resp, err := http.Get(srv.URL + "/api/notifications/stream"); err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("stream without token: %v %v", resp, err)
	} else {
		resp.Body.Close()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notifications/stream?token="+token, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	body := bufio.NewReader(resp.Body)
	name, data := readEvent(t, body)
	if name != "ready" || !strings.Contains(data, `"unread":1`) {
		t.Fatalf("expected ready with unread count, got %s %s", name, data)
	}

	if _, err := f.notifier.Notify(ctx, "customer-1", models.NotificationStatusChanged, "Document status updated", "contract.pdf is now processing.", nil); err != nil {
		t.Fatal(err)
	}
	name, data = readEvent(t, body)
	if name != "notification" || !strings.Contains(data, "Document status updated") {
		t.Fatalf("expected notification event, got %s %s", name, data)
	}
	var n models.Notification
	if err := json.Unmarshal([]byte(data), &n); err != nil || n.UserID != "customer-1" || n.Type != models.NotificationStatusChanged {
		t.Fatalf("bad notification payload %q: %v", data, err)
	}
}
