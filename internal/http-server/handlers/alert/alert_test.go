package alert_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SolBuddy/internal/http-server/handlers/alert"
	"SolBuddy/internal/lib/api/response"
)

type fakeCore struct {
	subscribers map[string][]int64
	byAddress   map[string][]int64
	err         error
}

func (c *fakeCore) Subscribers(ctx context.Context, category string) ([]int64, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.subscribers[category], nil
}

func (c *fakeCore) ChatsByAddress(ctx context.Context, address string) ([]int64, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.byAddress[address], nil
}

type fakeNotifier struct {
	sent    map[int64]string
	failFor map[int64]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[int64]string), failFor: make(map[int64]bool)}
}

func (n *fakeNotifier) SendText(chatID int64, text string) (int64, error) {
	if n.failFor[chatID] {
		return 0, errors.New("blocked by user")
	}
	n.sent[chatID] = text
	return 1, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func post(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)

	var resp response.Response
	if rec.Code == http.StatusOK || strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func TestBroadcastFansOut(t *testing.T) {
	core := &fakeCore{subscribers: map[string][]int64{"whale_alerts": {1, 2, 3}}}
	notifier := newFakeNotifier()
	h := alert.Broadcast(testLogger(), core, notifier)

	rec, resp := post(t, h, `{"category":"whale_alerts","message":"big move"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Status != response.StatusOK {
		t.Fatalf("envelope status = %q", resp.Status)
	}
	if len(notifier.sent) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(notifier.sent))
	}
	if notifier.sent[2] != "big move" {
		t.Fatalf("delivered text = %q", notifier.sent[2])
	}
}

func TestBroadcastSkipsFailedDeliveries(t *testing.T) {
	core := &fakeCore{subscribers: map[string][]int64{"whale_alerts": {1, 2, 3}}}
	notifier := newFakeNotifier()
	notifier.failFor[2] = true
	h := alert.Broadcast(testLogger(), core, notifier)

	rec, resp := post(t, h, `{"category":"whale_alerts","message":"big move"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	data, _ := json.Marshal(resp.Data)
	var out alert.BroadcastResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Recipients != 3 || out.Delivered != 2 {
		t.Fatalf("recipients=%d delivered=%d, want 3/2", out.Recipients, out.Delivered)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("one delivery should have been skipped, sent=%d", len(notifier.sent))
	}
}

func TestBroadcastNoSubscribers(t *testing.T) {
	core := &fakeCore{subscribers: map[string][]int64{}}
	notifier := newFakeNotifier()
	h := alert.Broadcast(testLogger(), core, notifier)

	rec, resp := post(t, h, `{"category":"whale_alerts","message":"big move"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Data != "No Subscribers found" {
		t.Fatalf("data = %v", resp.Data)
	}
}

func TestBroadcastValidation(t *testing.T) {
	core := &fakeCore{}
	h := alert.Broadcast(testLogger(), core, newFakeNotifier())

	for _, body := range []string{
		`{"category":"","message":"x"}`,
		`{"category":"whale_alerts"}`,
		`not json`,
	} {
		rec, _ := post(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestBroadcastStoreError(t *testing.T) {
	core := &fakeCore{err: errors.New("mongo down")}
	h := alert.Broadcast(testLogger(), core, newFakeNotifier())

	rec, resp := post(t, h, `{"category":"whale_alerts","message":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp.Status != response.StatusError {
		t.Fatalf("envelope status = %q", resp.Status)
	}
}

func TestAddressAlert(t *testing.T) {
	core := &fakeCore{byAddress: map[string][]int64{"So1Addr": {42}}}
	notifier := newFakeNotifier()
	h := alert.Address(testLogger(), core, notifier)

	rec, _ := post(t, h, `{"address":"So1Addr","alert":"incoming transfer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if notifier.sent[42] != "incoming transfer" {
		t.Fatalf("delivered text = %q", notifier.sent[42])
	}
}

func TestAddressAlertValidation(t *testing.T) {
	h := alert.Address(testLogger(), &fakeCore{}, newFakeNotifier())
	rec, _ := post(t, h, `{"address":"So1Addr"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTestEndpoint(t *testing.T) {
	notifier := newFakeNotifier()
	h := alert.Test(testLogger(), notifier)

	rec, _ := post(t, h, `{"chat_id":7,"test_message":"ping"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(notifier.sent[7], "ping") {
		t.Fatalf("delivered text = %q", notifier.sent[7])
	}
}
