package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradocs/database/repository/memory"
	"tradocs/models"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func issue(t *testing.T, id, role string) (string, string) {
	t.Helper()
	token, err := utils.GenerateToken(id, id+"@example.com", role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return token, utils.HashToken(token)
}

func protected(profiles *memory.Profiles, cache utils.AuthCache, roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/private", JWTAuthMiddleware(profiles, cache), RequireRoles(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c)+":"+CurrentRole(c))
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	token, hash := issue(t, "u1", models.RoleCustomer)
	// a different expiry yields a different token for the same profile
	stale, err := utils.GenerateToken("u1", "u1@example.com", models.RoleCustomer, 2*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	profiles := memory.NewProfiles(models.Profile{ID: "u1", Email: "u1@example.com", Role: models.RoleCustomer, TokenHash: hash})
	cache := utils.NewMemoryAuthCache()
	r := protected(profiles, cache, models.RoleCustomer)

	if w := get(r, "/private", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", w.Code)
	}
	if w := get(r, "/private", "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: got %d", w.Code)
	}

	w := get(r, "/private", token)
	if w.Code != http.StatusOK || w.Body.String() != "u1:customer" {
		t.Fatalf("valid token: got %d %s", w.Code, w.Body.String())
	}
	if cached, _ := cache.Get(context.Background(), "u1"); cached != hash {
		t.Fatal("profile lookup should repopulate the cache")
	}

	if w := get(r, "/private", stale); w.Code != http.StatusUnauthorized {
		t.Fatalf("superseded token: got %d", w.Code)
	}

	// served from cache even when the profile store is empty
	r = protected(memory.NewProfiles(), cache, models.RoleCustomer)
	if w := get(r, "/private", token); w.Code != http.StatusOK {
		t.Fatalf("cached session: got %d", w.Code)
	}

	if w := get(r, "/private?token="+token, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("query token on a header-only route: got %d", w.Code)
	}
}

func TestQueryTokenAuthOnlyWhereMounted(t *testing.T) {
	token, hash := issue(t, "u1", models.RoleCustomer)
	profiles := memory.NewProfiles(models.Profile{ID: "u1", Email: "u1@example.com", Role: models.RoleCustomer, TokenHash: hash})
	cache := utils.NewMemoryAuthCache()

	r := gin.New()
	var seenQuery string
	r.GET("/stream", QueryTokenAuth(), JWTAuthMiddleware(profiles, cache), func(c *gin.Context) {
		seenQuery = c.Request.URL.RawQuery
		c.String(http.StatusOK, CurrentUserID(c))
	})
	r.POST("/stream", QueryTokenAuth(), JWTAuthMiddleware(profiles, cache), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if w := get(r, "/stream?token="+token+"&since=5", ""); w.Code != http.StatusOK || w.Body.String() != "u1" {
		t.Fatalf("query token on stream: got %d %q", w.Code, w.Body.String())
	}
	if seenQuery != "since=5" {
		t.Fatalf("token should be stripped from the URL, got %q", seenQuery)
	}

	req := httptest.NewRequest(http.MethodPost, "/stream?token="+token, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("query token on POST: got %d", w.Code)
	}
}

func TestAccessLogRedactsToken(t *testing.T) {
	line := accessLogFormatter(gin.LogFormatterParams{
		TimeStamp:  time.Now(),
		StatusCode: http.StatusOK,
		Method:     http.MethodGet,
		Path:       "/api/notifications/stream?token=eyJhbGciOi.secret.sig&since=5",
	})
	if strings.Contains(line, "eyJhbGciOi") {
		t.Fatalf("token leaked into access log: %s", line)
	}
	if !strings.Contains(line, "token=REDACTED") || !strings.Contains(line, "since=5") {
		t.Fatalf("unexpected log line: %s", line)
	}
	if got := RedactPath("/api/documents"); got != "/api/documents" {
		t.Fatalf("path without query changed: %q", got)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	token, hash := issue(t, "u1", models.RoleCustomer)
	profile := models.Profile{ID: "u1", Role: models.RoleCustomer, TokenHash: hash}
	profiles := memory.NewProfiles(profile)
	cache := utils.NewMemoryAuthCache()
	r := protected(profiles, cache, models.RoleCustomer)
	if w := get(r, "/private", token); w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	profile.TokenHash = ""
	_ = profiles.Update(context.Background(), &profile)
	_ = cache.Delete(context.Background(), "u1")
	if w := get(r, "/private", token); w.Code != http.StatusUnauthorized {
		t.Fatalf("logged out token: got %d", w.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	tokens := map[string]string{}
	var seed []models.Profile
	for _, role := range models.Roles {
		token, hash := issue(t, role+"-user", role)
		tokens[role] = token
		seed = append(seed, models.Profile{ID: role + "-user", Email: role + "@example.com", Role: role, TokenHash: hash})
	}
	r := protected(memory.NewProfiles(seed...), nil, models.RoleFinance)

	want := map[string]int{
		models.RoleCustomer:      http.StatusForbidden,
		models.RoleAuthenticator: http.StatusForbidden,
		models.RoleFinance:       http.StatusOK,
		models.RoleAdmin:         http.StatusOK,
	}
	for role, code := range want {
		if w := get(r, "/private", tokens[role]); w.Code != code {
			t.Errorf("%s: got %d, want %d", role, w.Code, code)
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(r, "/", "").Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newRateLimiterStore(2)
	store.now = func() time.Time { return clock }

	store.getLimiter("10.0.0.1")
	clock = clock.Add(5 * time.Minute)
	store.getLimiter("10.0.0.2")
	if len(store.limiters) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(store.limiters))
	}

	clock = clock.Add(limiterIdleTTL)
	store.getLimiter("10.0.0.2")
	if _, ok := store.limiters["10.0.0.1"]; ok {
		t.Fatal("idle client should be evicted")
	}
	if len(store.limiters) != 1 {
		t.Fatalf("expected only the active client, got %d", len(store.limiters))
	}
}
