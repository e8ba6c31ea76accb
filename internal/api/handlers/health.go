// health.go — обработчики health endpoints Share Module.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (хранилище метаданных, объектное хранилище,
// состояние topologymetrics при запущенном мониторинге)
// /metrics — Prometheus метрики
package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/goartstore/share-module/internal/config"
)

const serviceName = "share-module"

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status, message string)
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	metadataChecker ReadinessChecker
	objectChecker   ReadinessChecker
	// dependencyChecker — nil, если мониторинг зависимостей не запущен
	dependencyChecker ReadinessChecker
	promHandler       http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// nil checker — соответствующая проверка вернёт "fail".
func NewHealthHandler(metadataChecker, objectChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		metadataChecker: metadataChecker,
		objectChecker:   objectChecker,
		promHandler:     promhttp.Handler(),
	}
}

// SetDependencyChecker подключает к readiness состояние мониторинга зависимостей.
func (h *HealthHandler) SetDependencyChecker(c ReadinessChecker) {
	h.dependencyChecker = c
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		MetadataStore healthCheckResult  `json:"metadata_store"`
		ObjectStore   healthCheckResult  `json:"object_store"`
		Dependencies  *healthCheckResult `json:"dependencies,omitempty"`
	} `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe. Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	resp.Checks.MetadataStore = check(h.metadataChecker)
	resp.Checks.ObjectStore = check(h.objectChecker)
	statuses := []string{resp.Checks.MetadataStore.Status, resp.Checks.ObjectStore.Status}
	if h.dependencyChecker != nil {
		deps := check(h.dependencyChecker)
		resp.Checks.Dependencies = &deps
		statuses = append(statuses, deps.Status)
	}
	resp.Status = overallStatus(statuses...)

	status := http.StatusOK
	if resp.Status == statusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

func check(c ReadinessChecker) healthCheckResult {
	if c == nil {
		return healthCheckResult{Status: statusFail, Message: "не инициализирован"}
	}
	status, msg := c.CheckReady()
	return healthCheckResult{Status: status, Message: msg}
}

const statusFail = "fail"

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == "degraded" {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return "degraded"
	}
	return "ok"
}
