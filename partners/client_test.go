package partners

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCMSValidateOrder(t *testing.T) {
	var gotPath string
	var gotReq ValidationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(ValidationResult{Success: true, ReferenceID: "C1", ContractID: "CONTRACT-9"})
	}))
	defer srv.Close()

	cms := NewCMSClient(srv.URL, time.Second)
	result, err := cms.ValidateOrder(context.Background(), &ValidationRequest{
		OrderID:  42,
		ClientID: "client-1",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if gotPath != "/api/v1/orders/validate" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.OrderID != 42 || gotReq.ClientID != "client-1" {
		t.Errorf("request = %+v", gotReq)
	}
	if !result.Success || result.ReferenceID != "C1" {
		t.Errorf("result = %+v", result)
	}
}

func TestWMSAssignsIdempotencyKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req IntakeRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotKey = req.IdempotencyKey
		json.NewEncoder(w).Encode(IntakeResult{Success: true, TrackingNumber: "TRK-1"})
	}))
	defer srv.Close()

	wms := NewWMSClient(srv.URL, time.Second)
	result, err := wms.CreateIntakeRequest(context.Background(), &IntakeRequest{OrderID: 42})
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	if gotKey == "" {
		t.Error("no idempotency key generated")
	}
	if result.TrackingNumber != "TRK-1" {
		t.Errorf("tracking = %q", result.TrackingNumber)
	}
}

func TestROSOptimizeRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/routes/optimize" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(RouteResult{Success: true, ReferenceID: "R1", EstimatedDeliveryTime: "2026-09-01T10:00:00Z"})
	}))
	defer srv.Close()

	ros := NewROSClient(srv.URL, time.Second)
	result, err := ros.OptimizeRoute(context.Background(), &RouteRequest{OrderID: 42, TrackingNumber: "TRK-1"})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if result.ReferenceID != "R1" {
		t.Errorf("result = %+v", result)
	}
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "contract expired", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	cms := NewCMSClient(srv.URL, time.Second)
	_, err := cms.ValidateOrder(context.Background(), &ValidationRequest{OrderID: 42})
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if !strings.Contains(err.Error(), "contract expired") {
		t.Errorf("err = %v, want body included", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewCMSClient(srv.URL, time.Second).Ping(); err != nil {
		t.Errorf("ping healthy server: %v", err)
	}
	if err := NewCMSClient("http://127.0.0.1:1", time.Second).Ping(); err == nil {
		t.Error("ping unreachable server succeeded")
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	cms := NewCMSClient(srv.URL, time.Minute)
	if _, err := cms.ValidateOrder(ctx, &ValidationRequest{OrderID: 1}); err == nil {
		t.Error("expected context deadline error")
	}
}
