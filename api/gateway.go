package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gorilla/mux"

	"AcenteCorpSaas/internal/logger"
	"AcenteCorpSaas/internal/serviceiface"
)

// gatewayRoutes maps public path prefixes to the internal services that own
// them. The importer carries upload/preview/confirm, master carries the
// customer and reference surface.
var gatewayRoutes = map[string]string{
	"/importer/": "http://localhost:5143",
	"/master/":   "http://localhost:2143",
}

type GatewayService struct {
	port int
}

func NewGatewayService(cfg map[string]interface{}) serviceiface.Service {
	port := 8081
	switch v := cfg["port"].(type) {
	case int:
		port = v
	case float64:
		port = int(v)
	}
	return &GatewayService{port: port}
}

func (s *GatewayService) Name() string { return "gateway" }

func (s *GatewayService) Start() error {
	router := mux.NewRouter()
	for prefix, target := range gatewayRoutes {
		proxy, err := newAuditingProxy(target)
		if err != nil {
			return fmt.Errorf("gateway route %s: %w", prefix, err)
		}
		router.PathPrefix(prefix).Handler(proxy)
	}
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("gateway healthy"))
	})
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gatewayAudit("no route for %s from %s", r.URL.Path, r.RemoteAddr)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("404 - route not found"))
	})

	go func() {
		log.Printf("gateway listening on :%d", s.port)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", s.port), router); err != nil {
			log.Fatalf("gateway server failed: %v", err)
		}
	}()
	return nil
}

func (s *GatewayService) Stop() error { return nil }

func gatewayAudit(format string, args ...interface{}) {
	msg := "[Gateway] " + fmt.Sprintf(format, args...)
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(msg)
	} else {
		log.Println(msg)
	}
}

// newAuditingProxy builds a reverse proxy for target that audits every
// request with caller identity and the upstream status.
func newAuditingProxy(target string) (http.HandlerFunc, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	proxy := httputil.NewSingleHostReverseProxy(parsed)

	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.RemoteAddr
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP = xff
		}
		gatewayAudit("%s %s from %s user_id=%s", r.Method, r.URL.Path, clientIP, peekUserID(r))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		proxy.ServeHTTP(rec, r)
		if rec.status >= 400 {
			gatewayAudit("upstream %s for %s returned %d: %s", target, r.URL.Path, rec.status, rec.errBody.String())
		} else {
			gatewayAudit("upstream %s for %s returned %d", target, r.URL.Path, rec.status)
		}
	}, nil
}

// peekUserID reads user_id out of a JSON body without consuming it, so the
// audit line can attribute the call. Multipart uploads carry the id as a
// form field and are attributed downstream instead.
func peekUserID(r *http.Request) string {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ""
	}
	if r.Header.Get("Content-Type") != "application/json" {
		return ""
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	uid, _ := fields["user_id"].(string)
	return uid
}

// statusRecorder captures the upstream status and, for failures, the body so
// the audit trail keeps the error text.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	errBody bytes.Buffer
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status >= 400 && sr.errBody.Len() < 4096 {
		sr.errBody.Write(b)
	}
	return sr.ResponseWriter.Write(b)
}
