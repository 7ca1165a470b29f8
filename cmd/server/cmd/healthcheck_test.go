package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthcheckAgainstHealthyServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	healthcheckURL = server.URL
	defer func() { healthcheckURL = "" }()

	if err := runHealthcheck(healthcheckCmd, nil); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
}

func TestHealthcheckAgainstUnhealthyServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	healthcheckURL = server.URL
	defer func() { healthcheckURL = "" }()

	if err := runHealthcheck(healthcheckCmd, nil); err == nil {
		t.Fatal("expected error for unhealthy server")
	}
}

func TestHealthcheckUnreachableServer(t *testing.T) {
	healthcheckURL = "http://127.0.0.1:1/healthz"
	defer func() { healthcheckURL = "" }()

	if err := runHealthcheck(healthcheckCmd, nil); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
