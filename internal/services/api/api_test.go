package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ridepulse/internal/core/timebin"
	"ridepulse/internal/modkit/module"
	"ridepulse/internal/platform/config"
	"ridepulse/internal/platform/logger"
	phttp "ridepulse/internal/platform/net/http"
	"ridepulse/internal/platform/store"
	"ridepulse/internal/platform/testkit"
	"ridepulse/internal/services/api"
	"ridepulse/internal/services/seed"
	"ridepulse/internal/services/tuning"
)

const apiToken = "test-collector-token"

// testFeed covers every bin so observations taken relative to the test's
// wall clock always land on a seeded baseline
func testFeed() seed.Feed {
	schedule := make([]seed.ScheduleEntry, timebin.Bins)
	for i := range schedule {
		schedule[i] = seed.ScheduleEntry{BinID: i, MeanSec: 300}
	}
	return seed.Feed{
		Version: "2026-08-24",
		Segments: []seed.FeedSegment{{
			RouteID:     "12",
			DirectionID: 0,
			FromStopID:  "stop_a",
			ToStopID:    "stop_b",
			Schedule:    schedule,
		}},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("CORE_API_TOKEN", apiToken)
	module.Reset()

	st, err := store.Open(context.Background(), store.Config{
		AppName: "ridepulse-test",
		SQLite:  store.SQLiteConfig{Enabled: true, Path: testkit.TempDB(t)},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	if _, err := seed.New(st.SQL, *logger.Get()).Import(context.Background(), testFeed()); err != nil {
		t.Fatalf("import feed: %v", err)
	}

	mux := chi.NewRouter()
	api.Mount(phttp.AdaptChi(mux), api.Options{
		Config:  config.New().Prefix("CORE_API_"),
		Store:   st,
		Logger:  logger.Get(),
		Params:  tuning.FromConfig(config.New().Prefix("LEARN_")),
		Started: time.Now().UTC(),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       string          `json:"code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, method, url, body string, hdr map[string]string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, env
}

func rideBody(durationSec string) string {
	return `{
		"route_id": "12",
		"direction_id": 0,
		"segments": [
			{
				"from_stop_id": "stop_a",
				"to_stop_id": "stop_b",
				"duration_sec": ` + durationSec + `,
				"observed_at": "` + observedAt() + `"
			}
		]
	}`
}

func observedAt() string {
	return time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
}

func authed(key string) map[string]string {
	return map[string]string{
		"Authorization":   "Bearer " + apiToken,
		"Idempotency-Key": key,
	}
}

func TestRideSummaryRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/v1/ride_summary", rideBody("300"),
		map[string]string{"Idempotency-Key": uuid.NewString()})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if env.Code != "unauthorized" {
		t.Fatalf("expected unauthorized code, got %q", env.Code)
	}
}

func TestRideSummaryRequiresIdempotencyKey(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/v1/ride_summary", rideBody("300"),
		map[string]string{"Authorization": "Bearer " + apiToken})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if env.Code != "invalid_request" {
		t.Fatalf("expected invalid_request code, got %q", env.Code)
	}
}

func TestRideSummaryAcceptsAndSetsRateHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/v1/ride_summary", rideBody("300"),
		authed(uuid.NewString()))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, env.Error)
	}

	var sum struct {
		AcceptedSegments int `json:"accepted_segments"`
		RejectedSegments int `json:"rejected_segments"`
	}
	if err := json.Unmarshal(env.Data, &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.AcceptedSegments != 1 || sum.RejectedSegments != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	if resp.Header.Get("X-RateLimit-Limit") != "500" {
		t.Fatalf("missing X-RateLimit-Limit, got %q", resp.Header.Get("X-RateLimit-Limit"))
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "499" {
		t.Fatalf("expected 499 remaining, got %q", resp.Header.Get("X-RateLimit-Remaining"))
	}
	if resp.Header.Get("X-RateLimit-Reset") == "" {
		t.Fatal("missing X-RateLimit-Reset")
	}
}

func TestRideSummaryReplayIgnoresWhitespaceAndKeyOrder(t *testing.T) {
	srv := newTestServer(t)
	key := uuid.NewString()
	at := observedAt()

	first := `{"route_id":"12","direction_id":0,"segments":[{"from_stop_id":"stop_a","to_stop_id":"stop_b","duration_sec":300,"observed_at":"` + at + `"}]}`
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/ride_summary", first, authed(key))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first submit: %d", resp.StatusCode)
	}

	// same payload, different formatting and key order
	second := `{
		"direction_id": 0,
		"route_id": "12",
		"segments": [ { "observed_at": "` + at + `", "duration_sec": 300, "to_stop_id": "stop_b", "from_stop_id": "stop_a" } ]
	}`
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/v1/ride_summary", second, authed(key))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replay: %d %s", resp.StatusCode, env.Error)
	}

	// the replay did not learn a second time
	resp3, env3 := doJSON(t, http.MethodGet,
		srv.URL+"/v1/eta?route_id=12&direction_id=0&from_stop_id=stop_a&to_stop_id=stop_b&when="+at, "", nil)
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("eta after replay: %d", resp3.StatusCode)
	}
	var est struct {
		N int64 `json:"n"`
	}
	if err := json.Unmarshal(env3.Data, &est); err != nil {
		t.Fatalf("decode estimate: %v", err)
	}
	if est.N != 1 {
		t.Fatalf("replay learned twice, n=%d", est.N)
	}
}

func TestRideSummaryConflictOnTamperedBody(t *testing.T) {
	srv := newTestServer(t)
	key := uuid.NewString()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/ride_summary", rideBody("300"), authed(key))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first submit: %d", resp.StatusCode)
	}

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/v1/ride_summary", rideBody("999"), authed(key))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if env.Code != "conflict" {
		t.Fatalf("expected conflict code, got %q", env.Code)
	}
}

func TestRideSummaryRejectsUnknownFields(t *testing.T) {
	srv := newTestServer(t)

	body := `{"route_id":"12","direction_id":0,"surprise":true,"segments":[{"from_stop_id":"stop_a","to_stop_id":"stop_b","duration_sec":300,"observed_at":"` + observedAt() + `"}]}`
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/v1/ride_summary", body, authed(uuid.NewString()))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if env.Code != "invalid_request" {
		t.Fatalf("expected invalid_request, got %q", env.Code)
	}
}

func TestETAIsPublicAndBlends(t *testing.T) {
	srv := newTestServer(t)

	// cold cell, pure schedule
	when := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	resp, env := doJSON(t, http.MethodGet,
		srv.URL+"/v1/eta?route_id=12&direction_id=0&from_stop_id=stop_a&to_stop_id=stop_b&when="+when, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, env.Error)
	}
	var est struct {
		ETASec      float64 `json:"eta_sec"`
		ScheduleSec float64 `json:"schedule_sec"`
		Confidence  string  `json:"confidence"`
	}
	if err := json.Unmarshal(env.Data, &est); err != nil {
		t.Fatalf("decode estimate: %v", err)
	}
	if est.ETASec != 300 || est.ScheduleSec != 300 {
		t.Fatalf("expected pure schedule 300, got %+v", est)
	}
	if est.Confidence != "low" {
		t.Fatalf("expected low confidence, got %q", est.Confidence)
	}
}

func TestETAUnknownSegmentIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet,
		srv.URL+"/v1/eta?route_id=99&direction_id=0&from_stop_id=x&to_stop_id=y", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if env.Code != "not_found" {
		t.Fatalf("expected not_found, got %q", env.Code)
	}
}

func TestConfigAndHealthArePublic(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/v1/config", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("config: expected 200, got %d", resp.StatusCode)
	}
	var cfg struct {
		N0          int64  `json:"n0"`
		FeedVersion string `json:"feed_version"`
	}
	if err := json.Unmarshal(env.Data, &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.N0 != 20 {
		t.Fatalf("expected default n0 20, got %d", cfg.N0)
	}
	if cfg.FeedVersion != "2026-08-24" {
		t.Fatalf("unexpected feed version %q", cfg.FeedVersion)
	}

	resp, env = doJSON(t, http.MethodGet, srv.URL+"/v1/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.StatusCode)
	}
	var health struct {
		Status string `json:"status"`
		DBOK   bool   `json:"db_ok"`
	}
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || !health.DBOK {
		t.Fatalf("unexpected health: %+v", health)
	}
}
