package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPSender_Send(t *testing.T) {
	var (
		subscriberBody map[string]any
		triggerBody    map[string]any
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "ApiKey test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		switch r.URL.Path {
		case "/subscribers":
			json.NewDecoder(r.Body).Decode(&subscriberBody)
			w.WriteHeader(http.StatusCreated)
		case "/events/trigger":
			json.NewDecoder(r.Body).Decode(&triggerBody)
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	sender := NewHTTPSender("test-key", srv.URL)
	err := sender.Send(context.Background(), Message{
		Workflow:      WorkflowVerifyEmail,
		RecipientID:   "user-123",
		Email:         "driver@fleet.example",
		FullName:      "Test Driver",
		Payload:       map[string]any{"verificationUrl": "https://app/verify?token=abc"},
		TransactionID: "txn-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if subscriberBody["subscriberId"] != "user-123" {
		t.Errorf("unexpected subscriber body: %v", subscriberBody)
	}
	if triggerBody["name"] != WorkflowVerifyEmail {
		t.Errorf("unexpected workflow name: %v", triggerBody["name"])
	}
	if triggerBody["transactionId"] != "txn-1" {
		t.Errorf("unexpected transaction id: %v", triggerBody["transactionId"])
	}
	to, _ := triggerBody["to"].(map[string]any)
	if to["email"] != "driver@fleet.example" {
		t.Errorf("unexpected recipient: %v", triggerBody["to"])
	}
}

func TestHTTPSender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewHTTPSender("wrong-key", srv.URL)
	err := sender.Send(context.Background(), Message{
		Workflow:    WorkflowWelcome,
		RecipientID: "user-123",
		Email:       "driver@fleet.example",
	})
	if err == nil {
		t.Fatal("expected an error from a failing provider")
	}
}
