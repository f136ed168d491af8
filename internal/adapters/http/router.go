package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/medassure/claims-backoffice/internal/core/ports"
	"github.com/medassure/claims-backoffice/internal/observability/metrics"
)

// TrafficConfig tunes the global throttling middleware. Zero values
// disable the corresponding guard.
type TrafficConfig struct {
	RateLimitRPS   int
	RateLimitBurst int
	MaxInFlight    int
}

type Router struct {
	uploader  ports.DocumentUploader
	remover   ports.DocumentRemover
	reader    ports.DocumentReader
	generator ports.ReportGenerator
	editor    ports.ReportEditor
	queue     ports.JobQueue
	staging   ports.Staging
	metrics   *metrics.HTTPServerMetrics

	maxUploadBytes int64
	traffic        TrafficConfig
}

func NewRouter(
	uploader ports.DocumentUploader,
	remover ports.DocumentRemover,
	reader ports.DocumentReader,
	generator ports.ReportGenerator,
	editor ports.ReportEditor,
	queue ports.JobQueue,
	staging ports.Staging,
	httpMetrics *metrics.HTTPServerMetrics,
	maxUploadBytes int64,
	traffic TrafficConfig,
) *Router {
	return &Router{
		uploader:       uploader,
		remover:        remover,
		reader:         reader,
		generator:      generator,
		editor:         editor,
		queue:          queue,
		staging:        staging,
		metrics:        httpMetrics,
		maxUploadBytes: maxUploadBytes,
		traffic:        traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("GET /metrics", rt.metrics.Handler())

	mux.HandleFunc("POST /v1/claims/{claimID}/documents", rt.uploadBatch)
	mux.HandleFunc("POST /v1/claims/{claimID}/documents/one", rt.uploadOne)
	mux.HandleFunc("GET /v1/claims/{claimID}/documents", rt.listDocuments)
	mux.HandleFunc("GET /v1/claims/{claimID}/documents/count", rt.countDocuments)
	mux.HandleFunc("DELETE /v1/claims/{claimID}/documents", rt.purgeDocuments)
	mux.HandleFunc("GET /v1/documents/{documentID}", rt.getDocument)
	mux.HandleFunc("DELETE /v1/documents/{documentID}", rt.deleteDocument)

	mux.HandleFunc("POST /v1/claims/{claimID}/report", rt.generateReport)
	mux.HandleFunc("POST /v1/claims/{claimID}/report/async", rt.enqueueReport)
	mux.HandleFunc("GET /v1/claims/{claimID}/report", rt.getReportByClaim)
	mux.HandleFunc("GET /v1/reports/{reportID}", rt.getReport)
	mux.HandleFunc("PUT /v1/reports/{reportID}", rt.updateReport)
	mux.HandleFunc("DELETE /v1/reports/{reportID}", rt.deleteReport)
	mux.HandleFunc("PUT /v1/reports/{reportID}/treatments", rt.updateTreatments)
	mux.HandleFunc("PUT /v1/reports/{reportID}/docwise", rt.updateDocWise)
	mux.HandleFunc("POST /v1/reports/{reportID}/generate/summary", rt.regenerateSummary)
	mux.HandleFunc("POST /v1/reports/{reportID}/generate/treatments", rt.regenerateTreatments)
	mux.HandleFunc("POST /v1/reports/{reportID}/generate/docwise", rt.regenerateDocWise)

	var handler http.Handler = mux
	handler = rt.metrics.Middleware("api", handler)
	handler = backpressureMiddleware(handler, rt.traffic.MaxInFlight, defaultBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
}
