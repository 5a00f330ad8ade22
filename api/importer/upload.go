package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/constants"
	"AcenteCorpSaas/internal/checksum"
	"AcenteCorpSaas/internal/config"
	"AcenteCorpSaas/internal/logger"
	"AcenteCorpSaas/internal/scratch"
	"AcenteCorpSaas/internal/session"
	"AcenteCorpSaas/pkg/workerpool"
)

// ScratchPayload is what one upload stages between preview and confirm: the
// enriched rows plus the customers the resolver auto-created, which are only
// persisted once a batch is actually confirmed.
type ScratchPayload struct {
	Rows    []ParsedRow `json:"rows"`
	Created []Customer  `json:"created_customers,omitempty"`
}

// Handlers wires the import pipeline's HTTP surface to its dependencies.
type Handlers struct {
	store    Store
	sessions *session.Manager
	scratch  *scratch.Store
	workers  *workerpool.Pool
	now      func() time.Time
}

func NewHandlers(store Store, sessions *session.Manager, scratchStore *scratch.Store, workers *workerpool.Pool) *Handlers {
	return &Handlers{
		store:    store,
		sessions: sessions,
		scratch:  scratchStore,
		workers:  workers,
		now:      time.Now,
	}
}

var allowedUploadExts = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
	".txt":  true,
	".xml":  true,
}

// ParsePreview handles the upload: detect the carrier format, parse and
// validate every row, resolve customer identities, stage the payload in
// scratch storage and open an import session. Nothing is persisted yet.
func (h *Handlers) ParsePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileFieldMissing)
		return
	}
	userID := api.UserIDFromRequest(r)
	if userID == "" {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrUserIDRequired)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileFieldMissing)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExts[ext] {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrUnsupportedFileType)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileUnreadable)
		return
	}
	fileHash := checksum.FileHash(data)

	// Re-uploading a document that is already staged would open a second
	// session over the same rows; point the client back at the open one.
	for _, open := range h.sessions.FindByOwner(userID) {
		if same, err := checksum.NewMatcher(open.FileHash).Match(data); err == nil && same {
			writeJSON(w, http.StatusConflict, PreviewResult{
				SessionID:   open.ID,
				CarrierID:   open.CarrierID,
				FormatLabel: open.FormatLabel,
				TotalRows:   open.TotalRows,
				ValidRows:   open.ValidRows,
				InvalidRows: open.TotalRows - open.ValidRows,
				Error:       constants.ErrFileAlreadyStaged,
			})
			return
		}
	}

	// A textual hint may be a carrier id or a fragment of the carrier name.
	explicitID := ""
	if hint := strings.TrimSpace(r.FormValue("carrier_id")); hint != "" {
		if p := ParserByID(hint); p != nil {
			explicitID = p.ID
		} else if id, _, err := h.store.CarrierByHint(ctx, hint); err == nil {
			if p := ParserByID(id); p != nil {
				explicitID = p.ID
			}
		}
		if explicitID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrCarrierParserMissing)
			return
		}
	}

	// Decoding and parsing are CPU-bound; keep them off the request pool so
	// a burst of large files cannot starve the rest of the API.
	var det *DetectResult
	var parsed []ParsedRow
	err = h.workers.Run(ctx, func() error {
		var derr error
		det, derr = Detect(data, header.Filename, explicitID)
		if derr != nil {
			return derr
		}
		parsed = det.Parser.Parse(det.Rows)
		return nil
	})
	if err == ErrUndetected {
		api.RespondWithPayload(w, false, constants.ErrFormatNotDetected, PreviewResult{
			FormatLabel: FormatUndetected,
		})
		return
	}
	if err != nil {
		api.LogError("import parse failed: %v", err)
		api.RespondWithError(w, http.StatusUnprocessableEntity, constants.ErrFileUnreadable)
		return
	}
	if len(parsed) == 0 {
		api.RespondWithError(w, http.StatusUnprocessableEntity, constants.ErrNoDataRows)
		return
	}

	carrierID := det.Parser.ID
	carrierName, err := h.store.CarrierName(ctx, carrierID)
	if err != nil {
		carrierName = det.Parser.Name
	}

	enriched, created, err := h.resolveRows(ctx, userID, parsed)
	if err != nil {
		api.LogError("customer resolution failed: %v", err)
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrInternalServer)
		return
	}

	validRows := 0
	for i := range enriched {
		if enriched[i].Valid() {
			validRows++
		}
	}

	scratchKey, err := h.scratch.Put(ScratchPayload{Rows: enriched, Created: created})
	if err != nil {
		api.LogError("scratch write failed: %v", err)
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrScratchWriteFailed)
		return
	}

	sess := h.sessions.Create(userID, carrierID, header.Filename, fileHash, det.FormatLabel, scratchKey, len(enriched), validRows)

	if importArchiveEnabled() {
		go archiveOriginal(context.Background(), carrierID, fileHash, ext, data)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogImport(sess.ID, fmt.Sprintf("preview ready: carrier=%s rows=%d valid=%d", carrierID, len(enriched), validRows))
	}
	writeJSON(w, http.StatusOK, PreviewResult{
		Success:     true,
		SessionID:   sess.ID,
		CarrierID:   carrierID,
		CarrierName: carrierName,
		FormatLabel: det.FormatLabel,
		TotalRows:   len(enriched),
		ValidRows:   validRows,
		InvalidRows: len(enriched) - validRows,
		Rows:        enriched,
	})
}

// resolveRows runs the batch resolver over the parsed rows. The customer book
// and the plate history are read once per upload.
func (h *Handlers) resolveRows(ctx context.Context, ownerID string, rows []ParsedRow) ([]ParsedRow, []Customer, error) {
	customers, err := h.store.CustomersByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	cutoff := h.now().AddDate(-config.PlateLookbackYears, 0, 0)
	plates, err := h.store.PlateHistory(ctx, ownerID, cutoff)
	if err != nil {
		return nil, nil, err
	}
	resolver := NewBatchResolver(ownerID, customers, plates, h.now)
	enriched := resolver.ResolveAll(rows)
	return enriched, resolver.Created(), nil
}

// ---------------------------------------------------------------------------
// Original-file archive (S3, env-gated)
// ---------------------------------------------------------------------------

const (
	importArchivePrefix        = "carrier-imports/"
	importArchiveDefaultRegion = "eu-central-1"
)

func importArchiveEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("IMPORT_ARCHIVE_S3_ENABLED")))
	return v == "1" || v == "true" || v == "yes"
}

func importArchiveBucket() string {
	return strings.TrimSpace(os.Getenv("IMPORT_ARCHIVE_S3_BUCKET"))
}

func importArchiveRegion() string {
	if r := strings.TrimSpace(os.Getenv("IMPORT_ARCHIVE_S3_REGION")); r != "" {
		return r
	}
	return importArchiveDefaultRegion
}

func buildImportArchiveKey(carrierID, fileHash, fileExt string) string {
	if !strings.HasPrefix(fileExt, ".") {
		fileExt = "." + fileExt
	}
	return fmt.Sprintf("%s%s/%s%s", importArchivePrefix, carrierID, fileHash, fileExt)
}

// archiveOriginal keeps a copy of the uploaded document for dispute handling.
// Failures are logged and otherwise ignored; the import itself never depends
// on the archive.
func archiveOriginal(ctx context.Context, carrierID, fileHash, fileExt string, body []byte) {
	bucket := importArchiveBucket()
	if bucket == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(importArchiveRegion()))
	if err != nil {
		api.LogError("import archive: load AWS config: %v", err)
		return
	}
	client := s3.NewFromConfig(cfg)
	key := buildImportArchiveKey(carrierID, fileHash, fileExt)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(detectContentType(body)),
	})
	if err != nil {
		api.LogError("import archive: upload (bucket %s, key %s): %v", bucket, key, err)
	}
}

func detectContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	if len(data) > 512 {
		data = data[:512]
	}
	return http.DetectContentType(data)
}
