package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AcenteCorpSaas/api/constants"
	"AcenteCorpSaas/internal/scratch"
	"AcenteCorpSaas/internal/session"
	"AcenteCorpSaas/pkg/workerpool"
)

// fakeStore is the in-memory Store the confirm tests run against.
type fakeStore struct {
	mu            sync.Mutex
	customers     []Customer
	pool          []PoolRecord
	plates        map[string]PlateRecord
	insertPoolErr error
}

func (f *fakeStore) CarrierName(ctx context.Context, carrierID string) (string, error) {
	return carrierID, nil
}

func (f *fakeStore) CarrierByHint(ctx context.Context, hint string) (string, string, error) {
	return Fold(hint), hint, nil
}

func (f *fakeStore) ExistingDuplicateKeys(ctx context.Context, ownerID, carrierID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make(map[string]struct{})
	for _, r := range f.pool {
		if r.OwnerID == ownerID && r.CarrierID == carrierID {
			keys[duplicateKey(r.PolicyNo, r.EndorsementNo)] = struct{}{}
		}
	}
	return keys, nil
}

func (f *fakeStore) CustomersByOwner(ctx context.Context, ownerID string) ([]Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Customer, 0, len(f.customers))
	for _, c := range f.customers {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) PlateHistory(ctx context.Context, ownerID string, since time.Time) (map[string]PlateRecord, error) {
	return f.plates, nil
}

func (f *fakeStore) InsertCustomers(ctx context.Context, customers []Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers = append(f.customers, customers...)
	return nil
}

func (f *fakeStore) InsertPoolRecords(ctx context.Context, records []PoolRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertPoolErr != nil {
		return f.insertPoolErr
	}
	f.pool = append(f.pool, records...)
	return nil
}

type confirmFixture struct {
	handlers *Handlers
	store    *fakeStore
	sessions *session.Manager
	scratch  *scratch.Store
	released *int
}

func newConfirmFixture(t *testing.T) *confirmFixture {
	t.Helper()
	t.Setenv("IMPORT_SCRATCH_DIR", t.TempDir())

	scratchStore, err := scratch.NewStore()
	require.NoError(t, err)

	released := 0
	sessions := session.NewManager(time.Minute, func(s *session.ImportSession) {
		released++
		scratchStore.Release(s.ScratchKey)
	})

	store := &fakeStore{}
	return &confirmFixture{
		handlers: NewHandlers(store, sessions, scratchStore, workerpool.New(1)),
		store:    store,
		sessions: sessions,
		scratch:  scratchStore,
		released: &released,
	}
}

func (fx *confirmFixture) stage(t *testing.T, userID string, payload ScratchPayload) *session.ImportSession {
	t.Helper()
	key, err := fx.scratch.Put(&payload)
	require.NoError(t, err)

	valid := 0
	for _, r := range payload.Rows {
		if r.Valid() {
			valid++
		}
	}
	return fx.sessions.Create(userID, "HDI", "hdi.xlsx", "hash-1", "HDI", key, len(payload.Rows), valid)
}

func (fx *confirmFixture) confirm(t *testing.T, batched bool, req confirmRequest) (int, ConfirmResult) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/importer/policies/confirm", bytes.NewReader(body))
	w := httptest.NewRecorder()
	if batched {
		fx.handlers.ConfirmBatch(w, r)
	} else {
		fx.handlers.ConfirmFull(w, r)
	}

	var result ConfirmResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	return w.Code, result
}

func poolRow(policy string, endorsement int) ParsedRow {
	return ParsedRow{
		PolicyNo:       policy,
		EndorsementNo:  endorsement,
		BranchID:       BranchTrafik,
		Kind:           KindNewBusiness,
		IssueDate:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		GrossPremium:   decimal.NewFromInt(1500),
		NetPremium:     decimal.NewFromInt(1250),
		InsuredName:    "Mehmet",
		InsuredSurname: "Yılmaz",
		Plate:          "34 ABC 123",
	}
}

func TestConfirmFull(t *testing.T) {
	fx := newConfirmFixture(t)

	invalid := poolRow("BAD", 0)
	invalid.Errors = []string{constants.RowErrDateMissing}

	sess := fx.stage(t, "user-1", ScratchPayload{
		Rows:    []ParsedRow{poolRow("P1", 0), poolRow("P2", 0), poolRow("P3", 1), invalid},
		Created: []Customer{{ID: "new-1", Kind: CustomerIndividual, Name: "Ayşe", Surname: "Demir", OwnerID: "user-1"}},
	})

	code, result := fx.confirm(t, false, confirmRequest{UserID: "user-1", SessionID: sess.ID})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Processed, "invalid rows never reach the pool")
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 1, result.NewCustomers)
	assert.False(t, result.MoreBatches)

	require.Len(t, fx.store.pool, 3)
	rec := fx.store.pool[0]
	assert.Equal(t, "HDI", rec.CarrierID)
	assert.Equal(t, "user-1", rec.OwnerID)
	assert.Equal(t, "Mehmet Yılmaz", rec.InsuredName)
	assert.Equal(t, "34ABC123", rec.Plate)
	assert.Equal(t, "hash-1", rec.SourceFileHash)

	require.Len(t, fx.store.customers, 1, "auto-created customers are flushed on confirm")

	_, ok := fx.sessions.Get(sess.ID)
	assert.False(t, ok, "a completed session is gone")
	assert.Equal(t, 1, *fx.released)
}

func TestConfirmBatchTiling(t *testing.T) {
	fx := newConfirmFixture(t)
	sess := fx.stage(t, "user-1", ScratchPayload{
		Rows: []ParsedRow{
			poolRow("P1", 0), poolRow("P2", 0), poolRow("P3", 0),
			poolRow("P4", 0), poolRow("P5", 0),
		},
		Created: []Customer{{ID: "new-1", Kind: CustomerIndividual, Name: "Ayşe", OwnerID: "user-1"}},
	})

	code, first := fx.confirm(t, true, confirmRequest{UserID: "user-1", SessionID: sess.ID, Skip: 0, Take: 2})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, first.Processed)
	assert.Equal(t, 2, first.ProcessedSoFar)
	assert.Equal(t, 5, first.TotalValid)
	assert.True(t, first.MoreBatches)
	assert.Equal(t, 1, first.NewCustomers, "new customers are reported on the first batch only")

	_, second := fx.confirm(t, true, confirmRequest{UserID: "user-1", SessionID: sess.ID, Skip: 2, Take: 2})
	assert.Equal(t, 4, second.ProcessedSoFar)
	assert.True(t, second.MoreBatches)
	assert.Equal(t, 0, second.NewCustomers)

	_, last := fx.confirm(t, true, confirmRequest{UserID: "user-1", SessionID: sess.ID, Skip: 4, Take: 2})
	assert.Equal(t, 1, last.Processed)
	assert.Equal(t, 5, last.ProcessedSoFar)
	assert.False(t, last.MoreBatches)

	assert.Len(t, fx.store.pool, 5)
	require.Len(t, fx.store.customers, 1)

	_, ok := fx.sessions.Get(sess.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, *fx.released)
}

// Committing in windows must land exactly what one full confirm would.
func TestConfirmBatchMatchesFull(t *testing.T) {
	rows := []ParsedRow{
		poolRow("P1", 0), poolRow("P1", 0), // in-window duplicate
		poolRow("P2", 0), poolRow("P2", 1),
		poolRow("SEED", 0), // already in the pool
	}
	seed := PoolRecord{CarrierID: "HDI", OwnerID: "user-1", PolicyNo: "SEED", EndorsementNo: 0}

	full := newConfirmFixture(t)
	full.store.pool = append(full.store.pool, seed)
	sess := full.stage(t, "user-1", ScratchPayload{Rows: rows})
	_, fullResult := full.confirm(t, false, confirmRequest{UserID: "user-1", SessionID: sess.ID})

	tiled := newConfirmFixture(t)
	tiled.store.pool = append(tiled.store.pool, seed)
	sess = tiled.stage(t, "user-1", ScratchPayload{Rows: rows})
	var succeeded, duplicates int
	for skip := 0; ; skip += 2 {
		_, res := tiled.confirm(t, true, confirmRequest{UserID: "user-1", SessionID: sess.ID, Skip: skip, Take: 2})
		succeeded += res.Succeeded
		duplicates += res.Duplicates
		if !res.MoreBatches {
			break
		}
	}

	assert.Equal(t, fullResult.Succeeded, succeeded)
	assert.Equal(t, fullResult.Duplicates, duplicates)
	assert.Equal(t, len(full.store.pool), len(tiled.store.pool))
}

func TestConfirmReimportAllDuplicates(t *testing.T) {
	fx := newConfirmFixture(t)
	for _, p := range []string{"P1", "P2", "P3"} {
		fx.store.pool = append(fx.store.pool, PoolRecord{CarrierID: "HDI", OwnerID: "user-1", PolicyNo: p})
	}

	sess := fx.stage(t, "user-1", ScratchPayload{
		Rows: []ParsedRow{poolRow("P1", 0), poolRow("P2", 0), poolRow("P3", 0)},
	})
	code, result := fx.confirm(t, false, confirmRequest{UserID: "user-1", SessionID: sess.ID})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, result.Duplicates)
	assert.Equal(t, 0, result.Succeeded)
	assert.Len(t, fx.store.pool, 3, "nothing new lands")
}

func TestConfirmBulkWriteFailureReportsRows(t *testing.T) {
	fx := newConfirmFixture(t)
	fx.store.pool = append(fx.store.pool, PoolRecord{CarrierID: "HDI", OwnerID: "user-1", PolicyNo: "DUP"})
	fx.store.insertPoolErr = errors.New("connection reset")

	r1 := poolRow("P1", 0)
	r1.RowNumber = 4
	r2 := poolRow("P2", 0)
	r2.RowNumber = 7
	sess := fx.stage(t, "user-1", ScratchPayload{Rows: []ParsedRow{r1, poolRow("DUP", 0), r2}})

	code, result := fx.confirm(t, false, confirmRequest{UserID: "user-1", SessionID: sess.ID})
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, result.Error, constants.ErrPoolBulkWriteFailed)
	assert.Equal(t, 2, result.Failed, "the duplicate never reached the write")

	require.Len(t, result.RowErrors, 2)
	assert.Equal(t, 4, result.RowErrors[0].RowNumber)
	assert.Equal(t, "P1", result.RowErrors[0].PolicyNo)
	assert.Equal(t, "connection reset", result.RowErrors[0].Message)
	assert.Equal(t, 7, result.RowErrors[1].RowNumber)
	assert.Equal(t, "P2", result.RowErrors[1].PolicyNo)
}

func TestConfirmNameIndexFallback(t *testing.T) {
	fx := newConfirmFixture(t)
	fx.store.customers = []Customer{
		{ID: "c1", Name: "Mehmet", Surname: "Yılmaz", OwnerID: "user-1"},
		{ID: "c2", Name: "Ortak", Surname: "İsim", OwnerID: "user-1"},
		{ID: "c3", Name: "Ortak", Surname: "İsim", OwnerID: "user-1"},
	}

	unique := poolRow("P1", 0)
	ambiguous := poolRow("P2", 0)
	ambiguous.InsuredName, ambiguous.InsuredSurname = "Ortak", "İsim"
	preResolved := poolRow("P3", 0)
	preResolved.CustomerID = "pre"

	sess := fx.stage(t, "user-1", ScratchPayload{Rows: []ParsedRow{unique, ambiguous, preResolved}})
	_, result := fx.confirm(t, false, confirmRequest{UserID: "user-1", SessionID: sess.ID})
	require.Equal(t, 3, result.Succeeded)

	byPolicy := make(map[string]PoolRecord)
	for _, r := range fx.store.pool {
		byPolicy[r.PolicyNo] = r
	}
	assert.Equal(t, "c1", byPolicy["P1"].CustomerID, "unique name resolves at commit")
	assert.Empty(t, byPolicy["P2"].CustomerID, "ambiguous names stay unassigned")
	assert.Equal(t, "pre", byPolicy["P3"].CustomerID, "upload-time resolution wins")
}

func TestConfirmRejections(t *testing.T) {
	fx := newConfirmFixture(t)
	sess := fx.stage(t, "user-1", ScratchPayload{Rows: []ParsedRow{poolRow("P1", 0)}})

	t.Run("unknown session", func(t *testing.T) {
		code, result := fx.confirm(t, false, confirmRequest{UserID: "user-1", SessionID: "nope"})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, constants.ErrImportSessionNotFound, result.Error)
	})

	t.Run("foreign owner", func(t *testing.T) {
		code, result := fx.confirm(t, false, confirmRequest{UserID: "intruder", SessionID: sess.ID})
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, constants.ErrImportSessionOwner, result.Error)
	})

	t.Run("window out of range", func(t *testing.T) {
		code, result := fx.confirm(t, true, confirmRequest{UserID: "user-1", SessionID: sess.ID, Skip: 10, Take: 2})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, constants.ErrBatchWindowOutOfRange, result.Error)
	})

	t.Run("still confirmable after rejections", func(t *testing.T) {
		code, result := fx.confirm(t, false, confirmRequest{UserID: "user-1", SessionID: sess.ID})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 1, result.Succeeded)
	})
}
