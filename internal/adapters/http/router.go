package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
	"github.com/antonkudrin/coverage-assistant/internal/observability/metrics"
)

type Config struct {
	ServiceName    string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	cfg      Config
	coverage ports.CoverageAnswerer
	billing  ports.BillingLookup
	device   ports.DeviceLookup
	drug     ports.DrugLookup
	chat     ports.ChatService
	ingest   ports.DocumentIngestor
	docs     ports.DocumentReader
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg Config,
	coverage ports.CoverageAnswerer,
	billing ports.BillingLookup,
	device ports.DeviceLookup,
	drug ports.DrugLookup,
	chat ports.ChatService,
	ingest ports.DocumentIngestor,
	docs ports.DocumentReader,
	m *metrics.HTTPServerMetrics,
) *Router {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "coverage-api"
	}
	return &Router{
		cfg:      cfg,
		coverage: coverage,
		billing:  billing,
		device:   device,
		drug:     drug,
		chat:     chat,
		ingest:   ingest,
		docs:     docs,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/openapi.json", rt.openapiDoc)
	mux.HandleFunc("/v1/coverage/answer", rt.answerCoverage)
	mux.HandleFunc("/v1/coverage/billing", rt.lookupBilling)
	mux.HandleFunc("/v1/coverage/device", rt.lookupDevice)
	mux.HandleFunc("/v1/coverage/drug", rt.lookupDrug)
	mux.HandleFunc("/v1/chat", rt.chatTurn)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.ServiceName, handler)
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) answerCoverage(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	decision, err := rt.coverage.Answer(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.recordDecision(decision)
	writeJSON(w, http.StatusOK, decision)
}

func (rt *Router) lookupBilling(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	answer, err := rt.billing.LookupBilling(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.recordDecision(&answer.Decision)
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) lookupDevice(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	answer, err := rt.device.LookupDevice(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.recordDecision(&answer.Decision)
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) lookupDrug(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	answer, err := rt.drug.LookupDrug(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.recordDecision(&answer.Decision)
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) chatTurn(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	reply, err := rt.chat.Chat(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil && reply.Safety != "none" {
		rt.metrics.RecordSafetyBlock(rt.cfg.ServiceName, reply.Safety)
	}
	if reply.Decision != nil {
		rt.recordDecision(reply.Decision)
	}
	writeJSON(w, http.StatusOK, reply)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	corpus := r.FormValue("corpus")
	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		corpus,
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) recordDecision(d *domain.Decision) {
	if rt.metrics == nil || d == nil {
		return
	}
	intents := make([]string, 0, len(d.Intents))
	for _, intent := range d.Intents {
		intents = append(intents, string(intent))
	}
	rt.metrics.RecordDecision(rt.cfg.ServiceName, intents, string(d.Verdict), len(d.Conflicts), d.Confidence, d.Provenance)
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (domain.Query, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return domain.Query{}, false
	}

	var query domain.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return domain.Query{}, false
	}
	if strings.TrimSpace(query.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return domain.Query{}, false
	}
	return query, true
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
