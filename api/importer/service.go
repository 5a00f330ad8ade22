package importer

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/constants"
	"AcenteCorpSaas/internal/config"
	"AcenteCorpSaas/internal/scratch"
	"AcenteCorpSaas/internal/serviceiface"
	"AcenteCorpSaas/internal/session"
	"AcenteCorpSaas/pkg/workerpool"
)

type ImporterService struct {
	config  map[string]interface{}
	db      *sql.DB
	pgxPool *pgxpool.Pool

	scratch  *scratch.Store
	sessions *session.Manager
}

func NewImporterService(cfg map[string]interface{}, db *sql.DB, pgxPool *pgxpool.Pool) serviceiface.Service {
	scratchStore, err := scratch.NewStore()
	if err != nil {
		log.Fatalf("Importer Service: scratch storage init failed: %v", err)
	}
	sessions := session.NewManager(config.ImportSessionTTL, func(sess *session.ImportSession) {
		scratchStore.Release(sess.ScratchKey)
		api.LogInfo("import session released: id=%s file=%s processed=%d/%d",
			sess.ID, sess.FileName, sess.Processed, sess.ValidRows)
	})
	return &ImporterService{config: cfg, db: db, pgxPool: pgxPool, scratch: scratchStore, sessions: sessions}
}

func (s *ImporterService) Name() string {
	return "importer"
}

func (s *ImporterService) Start() error {
	go s.run()
	return nil
}

func (s *ImporterService) Stop() error {
	return nil
}

// Sessions exposes the session manager so the jobs service can sweep expired
// imports on its schedule.
func (s *ImporterService) Sessions() *session.Manager {
	return s.sessions
}

func (s *ImporterService) run() {
	handlers := NewHandlers(NewPgStore(s.pgxPool), s.sessions, s.scratch, workerpool.New(0))
	caller := api.CallerContextMiddleware(s.db)

	mux := http.NewServeMux()
	mux.HandleFunc("/importer/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Importer Service is active"))
	})
	mux.Handle("/importer/policies/upload", caller(http.HandlerFunc(handlers.ParsePreview)))
	mux.Handle("/importer/policies/confirm", caller(http.HandlerFunc(handlers.ConfirmFull)))
	mux.Handle("/importer/policies/confirm-batch", caller(http.HandlerFunc(handlers.ConfirmBatch)))
	mux.Handle("/importer/policies/session-status", caller(http.HandlerFunc(handlers.SessionStatus)))
	mux.Handle("/importer/policies/pool", caller(PoolList(s.db)))

	log.Println("Importer Service started on :5143")
	if err := http.ListenAndServe(":5143", mux); err != nil {
		log.Fatalf("Importer Service failed: %v", err)
	}
}

// SessionStatus reports progress for one live session, for upload screens
// that poll while batches run.
func (h *Handlers) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		var req confirmRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sessionID = req.SessionID
	}
	sess, ok := h.sessions.Get(sessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   constants.ErrImportSessionNotFound,
		})
		return
	}
	if sess.UserID != api.UserIDFromRequest(r) {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"success": false,
			"error":   constants.ErrImportSessionOwner,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"session_id":   sess.ID,
		"file_name":    sess.FileName,
		"format_label": sess.FormatLabel,
		"carrier_id":   sess.CarrierID,
		"total_rows":   sess.TotalRows,
		"valid_rows":   sess.ValidRows,
		"processed":    sess.Processed,
		"expires_at":   sess.ExpiresAt,
	})
}
