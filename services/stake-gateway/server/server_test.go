package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"boopstake/native/rewards"
	"boopstake/services/stake-gateway/auth"
	"boopstake/services/stake-gateway/leaderboard"
	"boopstake/services/stake-gateway/models"
	"boopstake/services/stake-gateway/staking"
)

var testSecret = []byte("test-signing-secret")

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testServer(t *testing.T) (*Server, *time.Time) {
	t.Helper()
	db := setupTestDB(t)
	engine, err := staking.New(staking.Config{DB: db, Params: rewards.DefaultParams(), Log: slog.Default()})
	if err != nil {
		t.Fatalf("staking engine: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.Now = func() time.Time { return now }

	verifier, err := auth.NewVerifier(auth.Options{Secret: testSecret})
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	srv := New(Config{
		DB:          db,
		Staking:     engine,
		Leaderboard: leaderboard.New(db, time.Minute, slog.Default()),
		Verifier:    verifier,
		Log:         slog.Default(),
	})
	return srv, &now
}

func bearer(t *testing.T, handle string) string {
	t.Helper()
	token, err := auth.Sign(testSecret, "", handle, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthRequired(t *testing.T) {
	srv, _ := testServer(t)
	if rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/status", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/status", "Bearer garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestStakeLifecycleOverHTTP(t *testing.T) {
	srv, clock := testServer(t)
	handler := srv.Handler()
	token := bearer(t, "ada")

	// Below-minimum stake is rejected with the structured kind.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stakes", token, `{"amount":10}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stakes", token, `{"amount":100000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var pos models.StakePosition
	if err := json.Unmarshal(rec.Body.Bytes(), &pos); err != nil {
		t.Fatalf("unmarshal position: %v", err)
	}

	// Withdrawing an active stake conflicts.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stakes/"+pos.ID.String()+"/withdraw", token, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}

	*clock = clock.Add(30 * 24 * time.Hour)

	// Status reflects live accrual.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/status", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var view staking.StatusView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if view.TotalUnclaimed <= 0 || view.TotalStaked != 100000 {
		t.Fatalf("unexpected status %+v", view)
	}

	// Claim, then hit the cooldown.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/rewards/claim", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/rewards/claim", token, "")
	if rec.Code != http.StatusTooEarly {
		t.Fatalf("expected 425 got %d", rec.Code)
	}
	var engineErr staking.Error
	if err := json.Unmarshal(rec.Body.Bytes(), &engineErr); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if engineErr.Kind != staking.KindTooEarly || engineErr.NextClaimInSeconds <= 0 {
		t.Fatalf("unexpected error body %+v", engineErr)
	}

	// Unstake and try to withdraw inside the countdown.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stakes/"+pos.ID.String()+"/unstake", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stakes/"+pos.ID.String()+"/withdraw", token, "")
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423 got %d", rec.Code)
	}

	*clock = clock.Add(21*24*time.Hour + time.Minute)
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/stakes/"+pos.ID.String()+"/withdraw", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var receipt staking.StakeWithdrawal
	if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("unmarshal receipt: %v", err)
	}
	if receipt.Amount != 100000 || receipt.Fee != 1000 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	// Claimed balance pays out fee-free.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/rewards/withdraw", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payout staking.RewardWithdrawal
	if err := json.Unmarshal(rec.Body.Bytes(), &payout); err != nil {
		t.Fatalf("unmarshal payout: %v", err)
	}
	if payout.Fee != 0 || payout.Net <= 0 {
		t.Fatalf("unexpected payout %+v", payout)
	}
}

func TestIdempotentClaimReplay(t *testing.T) {
	srv, clock := testServer(t)
	handler := srv.Handler()
	token := bearer(t, "ada")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stakes", token, `{"amount":50000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	*clock = clock.Add(48 * time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rewards/claim", nil)
	req.Header.Set("Authorization", token)
	req.Header.Set("Idempotency-Key", "claim-1")
	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", first.Code, first.Body.String())
	}

	// The replay must not execute a second claim (which would hit the
	// cooldown) but return the stored response verbatim.
	replay := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/rewards/claim", nil)
	req.Header.Set("Authorization", token)
	req.Header.Set("Idempotency-Key", "claim-1")
	handler.ServeHTTP(replay, req)
	if replay.Code != http.StatusOK {
		t.Fatalf("replay expected 200 got %d", replay.Code)
	}
	if replay.Body.String() != first.Body.String() {
		t.Fatalf("replay body diverged:\n%s\nvs\n%s", replay.Body.String(), first.Body.String())
	}
}

func TestLeaderboardOverHTTP(t *testing.T) {
	srv, clock := testServer(t)
	handler := srv.Handler()

	for i, handle := range []string{"ada", "byron", "clara"} {
		token := bearer(t, handle)
		amount := 10_000 * (i + 1)
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/stakes", token, fmt.Sprintf(`{"amount":%d}`, amount))
		if rec.Code != http.StatusCreated {
			t.Fatalf("stake for %s: %d", handle, rec.Code)
		}
	}
	*clock = clock.Add(24 * time.Hour)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/leaderboard?limit=2", bearer(t, "ada"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var page leaderboard.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("unmarshal page: %v", err)
	}
	if page.Total != 3 || len(page.Entries) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Entries[0].Handle != "clara" {
		t.Fatalf("leader is %s, want clara (largest stake)", page.Entries[0].Handle)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/leaderboard/me", bearer(t, "byron"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var standing leaderboard.Standing
	if err := json.Unmarshal(rec.Body.Bytes(), &standing); err != nil {
		t.Fatalf("unmarshal standing: %v", err)
	}
	if standing.Entry.Handle != "byron" || standing.Entry.Rank != 2 {
		t.Fatalf("unexpected standing %+v", standing)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/leaderboard?window=weekly", bearer(t, "ada"), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad window, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
