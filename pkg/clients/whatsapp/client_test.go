package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/k2nservice/console/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.WhatsAppConfig{
		AccessToken:   "secret",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
	}, nil)
}

func TestSendTextMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/12345/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["to"] != "224620000000" || body["messaging_product"] != "whatsapp" {
			t.Errorf("body = %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	})

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "224620000000", Body: "Bilan"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.MessageID() != "wamid.1" {
		t.Fatalf("message id = %q", resp.MessageID())
	}
}

func TestSendTextMessageRefused(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,"fbtrace_id":"x"}}`))
	})

	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "224620000000", Body: "Bilan"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != 100 || apiErr.Message != "Invalid parameter" {
		t.Fatalf("api error = %+v", apiErr)
	}
}

func TestSendTextMessageRejectedLocally(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent for an invalid message")
	})

	if _, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{Body: "x"}); err == nil {
		t.Error("empty recipient accepted")
	}
	long := strings.Repeat("a", MaxBodyLength+1)
	if _, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: long}); err == nil {
		t.Error("oversize body accepted")
	}
}

func TestMessageIDOnEmptyResponse(t *testing.T) {
	var resp *SendTextMessageResponse
	if resp.MessageID() != "" || (&SendTextMessageResponse{}).MessageID() != "" {
		t.Fatal("expected empty message id")
	}
}
