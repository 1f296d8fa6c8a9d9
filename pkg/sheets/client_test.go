package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ibgp-events/backend/internal/models"
)

func testRegistration() *models.Registration {
	return &models.Registration{
		ID:            uuid.New(),
		PaymentMethod: models.PaymentPix,
		Total:         150.00,
		Participants: []models.Participant{
			{Name: "Ana Silva", Phone: "(62) 98765-4321", TicketType: models.TicketAdult, Value: 100, TaxID: "529.982.247-25"},
			{Name: "Pedro Silva", TicketType: models.TicketChild, Value: 50},
		},
		IdempotencyToken: uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
	}
}

func TestSubmitPostsFormEncodedPayload(t *testing.T) {
	var gotContentType string
	var gotPayload string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotPayload = r.PostFormValue("payload")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, nil)
	reg := testRegistration()
	if err := c.Submit(context.Background(), reg); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotContentType)
	}
	var decoded models.Registration
	if err := json.Unmarshal([]byte(gotPayload), &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.IdempotencyToken != reg.IdempotencyToken {
		t.Errorf("idempotency token = %q, want %q", decoded.IdempotencyToken, reg.IdempotencyToken)
	}
	if len(decoded.Participants) != 2 {
		t.Errorf("participants = %d, want 2", len(decoded.Participants))
	}
	if decoded.Total != 150.00 {
		t.Errorf("total = %v, want 150.00", decoded.Total)
	}
}

func TestSubmitNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, nil)
	if err := c.Submit(context.Background(), testRegistration()); err == nil {
		t.Fatal("Submit() = nil error, want failure on 500")
	}
}

func TestSubmitUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, time.Second, nil)
	if err := c.Submit(context.Background(), testRegistration()); err == nil {
		t.Fatal("Submit() = nil error, want transport failure")
	}
}

func TestTaxIDExists(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]bool{"exists": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, nil)
	exists, err := c.TaxIDExists(context.Background(), "529.982.247-25")
	if err != nil {
		t.Fatalf("TaxIDExists() error = %v", err)
	}
	if !exists {
		t.Error("TaxIDExists() = false, want true")
	}
	if gotQuery.Get("action") != "exists" || gotQuery.Get("tax_id") != "529.982.247-25" {
		t.Errorf("query = %v", gotQuery)
	}
}
