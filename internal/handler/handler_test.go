package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mmeshcher/checkout-sim/internal/game"
	"github.com/mmeshcher/checkout-sim/internal/middleware"
	"github.com/mmeshcher/checkout-sim/internal/model"
	"github.com/mmeshcher/checkout-sim/internal/service"
)

type stubService struct {
	createID  string
	createErr error

	snapshot    game.Snapshot
	snapshotErr error

	events   []game.Event
	receipts []model.Receipt
	mistakes []model.Mistake

	outcome    game.Outcome
	outcomeErr error

	lastGameID   string
	lastInstance string
	lastLabel    model.BarcodeLabel
	lastBrand    model.BrandGrade
	lastAmount   int64
	lastFake     bool
	calls        []string
}

func (s *stubService) intent(name, id string) (game.Outcome, error) {
	s.calls = append(s.calls, name)
	s.lastGameID = id
	return s.outcome, s.outcomeErr
}

func (s *stubService) CreateGame(ctx context.Context) (string, error) {
	return s.createID, s.createErr
}

func (s *stubService) Snapshot(ctx context.Context, id string) (game.Snapshot, error) {
	s.lastGameID = id
	return s.snapshot, s.snapshotErr
}

func (s *stubService) Events(ctx context.Context, id string) ([]game.Event, error) {
	return s.events, nil
}

func (s *stubService) Receipts(ctx context.Context, id string) ([]model.Receipt, error) {
	return s.receipts, nil
}

func (s *stubService) Mistakes(ctx context.Context, id string) ([]model.Mistake, error) {
	return s.mistakes, nil
}

func (s *stubService) Scan(ctx context.Context, id, instanceID string) (game.Outcome, error) {
	s.lastInstance = instanceID
	return s.intent("scan", id)
}

func (s *stubService) ScanFlat(ctx context.Context, id string, value int64) (game.Outcome, error) {
	s.lastAmount = value
	return s.intent("scan-flat", id)
}

func (s *stubService) SwapBarcode(ctx context.Context, id, instanceID string, label model.BarcodeLabel) (game.Outcome, error) {
	s.lastInstance = instanceID
	s.lastLabel = label
	return s.intent("barcode", id)
}

func (s *stubService) SwapBrand(ctx context.Context, id, instanceID string, target model.BrandGrade) (game.Outcome, error) {
	s.lastInstance = instanceID
	s.lastBrand = target
	return s.intent("brand", id)
}

func (s *stubService) CancelBrandSwap(ctx context.Context, id string) (game.Outcome, error) {
	return s.intent("cancel-brand", id)
}

func (s *stubService) Deposit(ctx context.Context, id string, amount int64, fake bool) (game.Outcome, error) {
	s.lastAmount, s.lastFake = amount, fake
	return s.intent("deposit", id)
}

func (s *stubService) Withdraw(ctx context.Context, id string, amount int64, fake bool) (game.Outcome, error) {
	s.lastAmount, s.lastFake = amount, fake
	return s.intent("withdraw", id)
}

func (s *stubService) Checkout(ctx context.Context, id string) (game.Outcome, error) {
	return s.intent("checkout", id)
}

func (s *stubService) ToggleFraudMode(ctx context.Context, id string) (game.Outcome, error) {
	return s.intent("fraud-mode", id)
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth)
}

func gameCookie(t *testing.T, h *Handler, gameID string) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	h.authMiddleware.SetGameCookie(rec, gameID)
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no cookies set by SetGameCookie")
	}
	return cookies[0]
}

func serve(t *testing.T, h *Handler, method, path, body string, cookie *http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec.Result()
}

func TestCreateGame(t *testing.T) {
	svc := &stubService{createID: "game-1"}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/games", "", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var resp createGameResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "game-1" {
		t.Fatalf("id = %q, want game-1", resp.ID)
	}

	cookies := res.Cookies()
	if len(cookies) == 0 || !strings.HasPrefix(cookies[0].Value, "game-1.") {
		t.Fatalf("game cookie not set: %v", cookies)
	}
}

func TestCreateGame_ServiceClosed(t *testing.T) {
	svc := &stubService{createErr: service.ErrServiceClosed}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/games", "", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestGameRoutes_RequireCookie(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := serve(t, h, http.MethodGet, "/api/game/", "", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestGetSnapshot(t *testing.T) {
	svc := &stubService{snapshot: game.Snapshot{ID: "game-1", Total: 1500, FraudMode: true}}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodGet, "/api/game/", "", gameCookie(t, h, "game-1"))
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var snap map[string]any
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap["phase"] != "idle" || snap["total"] != float64(1500) || snap["fraud_mode"] != true {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
	if svc.lastGameID != "game-1" {
		t.Fatalf("game id = %q, want game-1", svc.lastGameID)
	}
}

func TestGetSnapshot_GameNotFound(t *testing.T) {
	svc := &stubService{snapshotErr: service.ErrGameNotFound}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodGet, "/api/game/", "", gameCookie(t, h, "gone"))
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestGetEvents(t *testing.T) {
	tests := []struct {
		name   string
		events []game.Event
		want   int
	}{
		{name: "no events", want: http.StatusNoContent},
		{name: "events", events: []game.Event{{Kind: game.EventCustomerReady, Message: "pork"}}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{events: tt.events})

			res := serve(t, h, http.MethodGet, "/api/game/events", "", gameCookie(t, h, "game-1"))
			defer res.Body.Close()

			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestGetReceiptsAndMistakes(t *testing.T) {
	svc := &stubService{
		receipts: []model.Receipt{{TransactionID: "tx-1", Total: 1500, ItemProfit: 500}},
	}
	h := newTestHandler(t, svc)
	cookie := gameCookie(t, h, "game-1")

	res := serve(t, h, http.MethodGet, "/api/game/receipts", "", cookie)
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("receipts status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var receipts []map[string]any
	if err := json.NewDecoder(res.Body).Decode(&receipts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(receipts) != 1 || receipts[0]["transaction_id"] != "tx-1" || receipts[0]["method"] != "None" {
		t.Fatalf("unexpected receipts: %v", receipts)
	}

	res = serve(t, h, http.MethodGet, "/api/game/mistakes", "", cookie)
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("mistakes status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
}

func TestIntents(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCall string
	}{
		{name: "scan", method: http.MethodPost, path: "/api/game/scan", body: `{"instance_id":"u1"}`, wantCall: "scan"},
		{name: "scan flat", method: http.MethodPost, path: "/api/game/scan-flat", body: `{"value":1000}`, wantCall: "scan-flat"},
		{name: "barcode", method: http.MethodPost, path: "/api/game/barcode", body: `{"instance_id":"u1","barcode":"8801000000012"}`, wantCall: "barcode"},
		{name: "brand", method: http.MethodPost, path: "/api/game/brand", body: `{"instance_id":"u1","brand":"High"}`, wantCall: "brand"},
		{name: "cancel brand", method: http.MethodDelete, path: "/api/game/brand", wantCall: "cancel-brand"},
		{name: "deposit", method: http.MethodPost, path: "/api/game/change/deposit", body: `{"amount":5000,"fake":true}`, wantCall: "deposit"},
		{name: "withdraw", method: http.MethodPost, path: "/api/game/change/withdraw", body: `{"amount":1000}`, wantCall: "withdraw"},
		{name: "checkout", method: http.MethodPost, path: "/api/game/checkout", wantCall: "checkout"},
		{name: "fraud mode", method: http.MethodPost, path: "/api/game/fraud-mode", wantCall: "fraud-mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{outcome: game.Outcome{Status: game.Accepted}}
			h := newTestHandler(t, svc)

			res := serve(t, h, tt.method, tt.path, tt.body, gameCookie(t, h, "game-1"))
			defer res.Body.Close()

			if res.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
			}
			if len(svc.calls) != 1 || svc.calls[0] != tt.wantCall {
				t.Fatalf("calls = %v, want [%s]", svc.calls, tt.wantCall)
			}
			if svc.lastGameID != "game-1" {
				t.Fatalf("game id = %q, want game-1", svc.lastGameID)
			}

			var out map[string]any
			if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out["status"] != "accepted" {
				t.Fatalf("outcome status = %v, want accepted", out["status"])
			}
		})
	}
}

func TestIntents_DecodeArguments(t *testing.T) {
	svc := &stubService{outcome: game.Outcome{Status: game.Accepted}}
	h := newTestHandler(t, svc)
	cookie := gameCookie(t, h, "game-1")

	res := serve(t, h, http.MethodPost, "/api/game/brand", `{"instance_id":"u7","brand":"high"}`, cookie)
	res.Body.Close()
	if svc.lastInstance != "u7" || svc.lastBrand != model.BrandHigh {
		t.Fatalf("brand args = %q %v", svc.lastInstance, svc.lastBrand)
	}

	res = serve(t, h, http.MethodPost, "/api/game/barcode", `{"instance_id":"u2","barcode":"8801000000104","price":700}`, cookie)
	res.Body.Close()
	if svc.lastLabel != (model.BarcodeLabel{ID: "8801000000104", Price: 700}) {
		t.Fatalf("label = %+v", svc.lastLabel)
	}

	res = serve(t, h, http.MethodPost, "/api/game/change/deposit", `{"amount":3500,"fake":true}`, cookie)
	res.Body.Close()
	if svc.lastAmount != 3500 || !svc.lastFake {
		t.Fatalf("deposit args = %d %v", svc.lastAmount, svc.lastFake)
	}
}

func TestIntents_NotAllowedIsConflict(t *testing.T) {
	svc := &stubService{outcome: game.Outcome{Status: game.NotAllowed, Reason: "fraud mode is off"}}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/game/brand", `{"instance_id":"u1","brand":"High"}`, gameCookie(t, h, "game-1"))
	defer res.Body.Close()

	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}

	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(res.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(body.String(), "fraud mode is off") {
		t.Fatalf("body %q does not contain the reason", body.String())
	}
}

func TestIntents_NoOpIsOK(t *testing.T) {
	svc := &stubService{outcome: game.Outcome{Status: game.NoOp, Reason: "no brand swap pending"}}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodDelete, "/api/game/brand", "", gameCookie(t, h, "game-1"))
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestIntents_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "malformed json", path: "/api/game/scan", body: `{`},
		{name: "missing instance", path: "/api/game/scan", body: `{}`},
		{name: "non-positive flat value", path: "/api/game/scan-flat", body: `{"value":0}`},
		{name: "missing barcode", path: "/api/game/barcode", body: `{"instance_id":"u1"}`},
		{name: "unknown brand", path: "/api/game/brand", body: `{"instance_id":"u1","brand":"Gold"}`},
		{name: "missing brand", path: "/api/game/brand", body: `{"instance_id":"u1"}`},
		{name: "null brand", path: "/api/game/brand", body: `{"instance_id":"u1","brand":null}`},
		{name: "non-positive amount", path: "/api/game/change/deposit", body: `{"amount":-5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			h := newTestHandler(t, svc)

			res := serve(t, h, http.MethodPost, tt.path, tt.body, gameCookie(t, h, "game-1"))
			defer res.Body.Close()

			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
			}
			if len(svc.calls) != 0 {
				t.Fatalf("service must not be called, got %v", svc.calls)
			}
		})
	}
}

func TestIntents_GameNotFound(t *testing.T) {
	svc := &stubService{outcomeErr: service.ErrGameNotFound}
	h := newTestHandler(t, svc)

	res := serve(t, h, http.MethodPost, "/api/game/checkout", "", gameCookie(t, h, "gone"))
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}
