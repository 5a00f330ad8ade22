package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/constants"
	"AcenteCorpSaas/internal/config"
	"AcenteCorpSaas/internal/logger"
	"AcenteCorpSaas/internal/session"
)

type confirmRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Skip      int    `json:"skip"`
	Take      int    `json:"take"`
}

// ConfirmFull commits every valid row of a session in one pass.
func (h *Handlers) ConfirmFull(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, false)
}

// ConfirmBatch commits one skip/take window of a session's valid rows. The
// client calls it repeatedly, in increasing skip order, until MoreBatches is
// false.
func (h *Handlers) ConfirmBatch(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, true)
}

func (h *Handlers) confirm(w http.ResponseWriter, r *http.Request, batched bool) {
	ctx := r.Context()

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return
	}
	if req.UserID == "" {
		req.UserID = api.UserIDFromRequest(r)
	}
	if req.UserID == "" {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrUserIDRequired)
		return
	}

	sess, ok := h.sessions.Get(req.SessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, ConfirmResult{Error: constants.ErrImportSessionNotFound})
		return
	}
	if sess.UserID != req.UserID {
		writeJSON(w, http.StatusForbidden, ConfirmResult{Error: constants.ErrImportSessionOwner})
		return
	}

	// One batch at a time per session. The commit caches are exclusively
	// owned by whoever holds this lock.
	if !sess.TryAcquire() {
		writeJSON(w, http.StatusConflict, ConfirmResult{Error: constants.ErrBatchAlreadyInProgress})
		return
	}
	defer sess.Release()

	payload, err := h.sessionPayload(sess)
	if err != nil {
		api.LogError("session %s: %v", sess.ID, err)
		writeJSON(w, http.StatusInternalServerError, ConfirmResult{Error: constants.ErrScratchPayloadCorrupted})
		return
	}

	valid := make([]*ParsedRow, 0, sess.ValidRows)
	for i := range payload.Rows {
		if payload.Rows[i].Valid() {
			valid = append(valid, &payload.Rows[i])
		}
	}

	skip, take := 0, len(valid)
	if batched {
		skip, take = req.Skip, req.Take
		if take <= 0 {
			take = config.DefaultBatchSize
		}
		if skip < 0 || skip > len(valid) {
			writeJSON(w, http.StatusBadRequest, ConfirmResult{Error: constants.ErrBatchWindowOutOfRange})
			return
		}
	}
	end := skip + take
	if end > len(valid) {
		end = len(valid)
	}
	window := valid[skip:end]

	if err := h.loadCommitCaches(ctx, sess, payload); err != nil {
		api.LogError("session %s: cache load: %v", sess.ID, err)
		writeJSON(w, http.StatusInternalServerError, ConfirmResult{Error: constants.ErrDB})
		return
	}

	result := h.commitWindow(ctx, sess, window)
	if result.Error != "" {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	sess.Processed += result.Processed
	result.ProcessedSoFar = sess.Processed
	result.TotalValid = len(valid)
	result.MoreBatches = batched && sess.Processed < len(valid)

	if result.MoreBatches {
		h.sessions.Touch(sess.ID)
	} else {
		h.sessions.Remove(sess.ID)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogImport(sess.ID, fmt.Sprintf("confirm: processed=%d ok=%d dup=%d done=%t",
			result.Processed, result.Succeeded, result.Duplicates, !result.MoreBatches))
	}
	writeJSON(w, http.StatusOK, result)
}

// sessionPayload loads the staged rows, from memory when a previous batch
// already read them, else from scratch storage (then kept resident).
func (h *Handlers) sessionPayload(sess *session.ImportSession) (*ScratchPayload, error) {
	if p, ok := sess.ResidentRows.(*ScratchPayload); ok {
		return p, nil
	}
	var p ScratchPayload
	if err := h.scratch.Get(sess.ScratchKey, &p); err != nil {
		return nil, err
	}
	sess.ResidentRows = &p
	return &p, nil
}

// loadCommitCaches runs once per session, on its first confirmed batch: the
// auto-created customers are flushed in one bulk insert, the carrier's
// existing duplicate keys are snapshotted, and a name index over the owner's
// customers is built for rows that still lack a customer id. Subsequent
// batches reuse all of it.
func (h *Handlers) loadCommitCaches(ctx context.Context, sess *session.ImportSession, payload *ScratchPayload) error {
	if sess.CachesLoaded {
		return nil
	}

	if len(payload.Created) > 0 {
		if err := h.store.InsertCustomers(ctx, payload.Created); err != nil {
			return err
		}
		sess.NewCustomers = len(payload.Created)
	}

	keys, err := h.store.ExistingDuplicateKeys(ctx, sess.UserID, sess.CarrierID)
	if err != nil {
		return err
	}
	sess.DupKeys = keys

	customers, err := h.store.CustomersByOwner(ctx, sess.UserID)
	if err != nil {
		return err
	}
	nameIndex := make(map[string]string)
	ambiguous := make(map[string]bool)
	for _, c := range customers {
		full := NormalizeName(c.Name + " " + c.Surname)
		if full == "" {
			continue
		}
		if _, seen := nameIndex[full]; seen {
			ambiguous[full] = true
			continue
		}
		nameIndex[full] = c.ID
	}
	for name := range ambiguous {
		delete(nameIndex, name)
	}
	sess.NameIndex = nameIndex

	sess.CachesLoaded = true
	return nil
}

// commitWindow turns one window of valid rows into pool records and persists
// them in a single bulk write. Duplicate keys are skipped softly and added to
// the session-wide set up front, so repeats inside the same window are caught
// too.
func (h *Handlers) commitWindow(ctx context.Context, sess *session.ImportSession, window []*ParsedRow) ConfirmResult {
	result := ConfirmResult{Success: true, Processed: len(window)}

	records := make([]PoolRecord, 0, len(window))
	attempted := make([]*ParsedRow, 0, len(window))
	for _, row := range window {
		key := row.DuplicateKey()
		if _, dup := sess.DupKeys[key]; dup {
			result.Duplicates++
			continue
		}
		sess.DupKeys[key] = struct{}{}
		attempted = append(attempted, row)

		customerID := row.CustomerID
		if customerID == "" {
			name := NormalizeName(row.InsuredName + " " + row.InsuredSurname)
			customerID = sess.NameIndex[name]
		}

		records = append(records, PoolRecord{
			CarrierID:       sess.CarrierID,
			OwnerID:         sess.UserID,
			CustomerID:      customerID,
			PolicyNo:        row.PolicyNo,
			RenewalNo:       row.RenewalNo,
			EndorsementNo:   row.EndorsementNo,
			EndorsementType: row.EndorsementType,
			BranchID:        row.BranchID,
			Kind:            row.Kind,
			IssueDate:       row.IssueDate,
			StartDate:       row.StartDate,
			EndDate:         row.EndDate,
			GrossPremium:    row.GrossPremium,
			NetPremium:      row.NetPremium,
			Commission:      row.Commission,
			Tax:             row.Tax,
			InsuredName:     strings.TrimSpace(row.InsuredName + " " + row.InsuredSurname),
			Plate:           NormalizePlate(row.Plate),
			AgentCode:       row.AgentCode,
			SourceFileHash:  sess.FileHash,
		})
	}

	if err := h.store.InsertPoolRecords(ctx, records); err != nil {
		api.LogError("pool bulk write failed: session=%s err=%v", sess.ID, err)
		msg := pgUserFriendlyMessage(err)
		failed := ConfirmResult{
			Error:  constants.ErrPoolBulkWriteFailed + ": " + msg,
			Failed: len(attempted),
		}
		for _, row := range attempted {
			failed.RowErrors = append(failed.RowErrors, RowError{
				RowNumber: row.RowNumber,
				PolicyNo:  row.PolicyNo,
				Message:   msg,
			})
		}
		return failed
	}

	result.Succeeded = len(records)
	result.NewCustomers = sess.NewCustomers
	sess.NewCustomers = 0
	return result
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
