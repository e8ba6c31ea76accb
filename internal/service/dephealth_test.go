package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewDephealthService_NoDependencies(t *testing.T) {
	_, err := NewDephealthServiceWithRegisterer(DephealthConfig{
		ServiceID:     "share-test-01",
		Group:         "share",
		CheckInterval: 15 * time.Second,
	}, testLogger(), prometheus.NewRegistry())

	if !errors.Is(err, ErrNoDependencies) {
		t.Fatalf("Ожидалась ErrNoDependencies, получили %v", err)
	}
}

func TestDephealthService_ObjectStoreEndpoint(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer mockServer.Close()

	ds, err := NewDephealthServiceWithRegisterer(DephealthConfig{
		ServiceID:     "share-test-02",
		Group:         "share",
		S3Endpoint:    mockServer.URL,
		S3HealthPath:  "/minio/health/live",
		CheckInterval: time.Second,
	}, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewDephealthServiceWithRegisterer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Даём время на первую проверку (интервал 1s + запас)
	time.Sleep(3 * time.Second)

	health := ds.Health()
	if len(health) == 0 {
		t.Fatal("Health() не содержит зависимостей")
	}
	for key, ok := range health {
		if !ok {
			t.Errorf("Зависимость %q недоступна, ожидалось ok", key)
		}
	}
	if status, msg := ds.CheckReady(); status != "ok" {
		t.Errorf("CheckReady() = %q (%s), ожидалось ok", status, msg)
	}

	ds.Stop()
}

func TestDependencyStatus(t *testing.T) {
	tests := []struct {
		name       string
		health     map[string]bool
		wantStatus string
		wantMsg    string
	}{
		{"нет результатов", nil, "ok", ""},
		{"все доступны", map[string]bool{"postgresql:db:5432": true, "object-store:minio:9000": true}, "ok", ""},
		{
			"часть недоступна",
			map[string]bool{"postgresql:db:5432": false, "object-store:minio:9000": true, "a:b:1": false},
			"degraded",
			"недоступны: a:b:1, postgresql:db:5432",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := dependencyStatus(tt.health)
			if status != tt.wantStatus || msg != tt.wantMsg {
				t.Errorf("dependencyStatus() = (%q, %q), хотели (%q, %q)", status, msg, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}
