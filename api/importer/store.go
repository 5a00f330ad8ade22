package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence boundary of the import pipeline. Everything the
// handlers and the confirm path need from Postgres goes through here, which
// is also what lets the confirm tests run against an in-memory fake.
type Store interface {
	CarrierName(ctx context.Context, carrierID string) (string, error)
	CarrierByHint(ctx context.Context, hint string) (id, name string, err error)
	ExistingDuplicateKeys(ctx context.Context, ownerID, carrierID string) (map[string]struct{}, error)
	CustomersByOwner(ctx context.Context, ownerID string) ([]Customer, error)
	PlateHistory(ctx context.Context, ownerID string, since time.Time) (map[string]PlateRecord, error)
	InsertCustomers(ctx context.Context, customers []Customer) error
	InsertPoolRecords(ctx context.Context, records []PoolRecord) error
}

// PgStore is the pgxpool-backed Store used in production.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) CarrierName(ctx context.Context, carrierID string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT carrier_name FROM acentecorpsaas.carriers WHERE carrier_id = $1`,
		carrierID).Scan(&name)
	if err == pgx.ErrNoRows {
		return "", fmt.Errorf("carrier %s not found", carrierID)
	}
	return name, err
}

// CarrierByHint resolves a free-text carrier hint against the carrier
// reference list. An exact id hit wins; otherwise the first carrier whose
// folded name contains the folded hint (or vice versa) is taken.
func (s *PgStore) CarrierByHint(ctx context.Context, hint string) (string, string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT carrier_id, carrier_name FROM acentecorpsaas.carriers WHERE status = 'ACTIVE'`)
	if err != nil {
		return "", "", err
	}
	defer rows.Close()

	folded := Fold(hint)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return "", "", err
		}
		if Fold(id) == folded {
			return id, name, nil
		}
		fn := Fold(name)
		if strings.Contains(fn, folded) || strings.Contains(folded, fn) {
			return id, name, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", err
	}
	return "", "", fmt.Errorf("carrier hint %q not matched", hint)
}

// ExistingDuplicateKeys loads the policy/endorsement keys already present in
// the pool for one carrier and owner. Loaded once per session, on the first
// confirmed batch.
func (s *PgStore) ExistingDuplicateKeys(ctx context.Context, ownerID, carrierID string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT policy_no, endorsement_no
		   FROM acentecorpsaas.policy_pool
		  WHERE owner_id = $1 AND carrier_id = $2`,
		ownerID, carrierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var policyNo string
		var endorsementNo int
		if err := rows.Scan(&policyNo, &endorsementNo); err != nil {
			return nil, err
		}
		keys[duplicateKey(policyNo, endorsementNo)] = struct{}{}
	}
	return keys, rows.Err()
}

func (s *PgStore) CustomersByOwner(ctx context.Context, ownerID string) ([]Customer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT customer_id, customer_kind,
		        COALESCE(name, ''), COALESCE(surname, ''),
		        COALESCE(national_id, ''), COALESCE(tax_id, '')
		   FROM acentecorpsaas.customers
		  WHERE owner_id = $1`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c := Customer{OwnerID: ownerID}
		if err := rows.Scan(&c.ID, &c.Kind, &c.Name, &c.Surname, &c.NationalID, &c.TaxID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PlateHistory returns, per normalized plate, the most recent pool entry on
// or after the cutoff. The recency pick happens in SQL so the transferred
// set stays one row per plate.
func (s *PgStore) PlateHistory(ctx context.Context, ownerID string, since time.Time) (map[string]PlateRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (plate)
		        plate, COALESCE(customer_id, ''), COALESCE(insured_name, ''), issue_date
		   FROM acentecorpsaas.policy_pool
		  WHERE owner_id = $1 AND plate <> '' AND issue_date >= $2
		  ORDER BY plate, issue_date DESC`,
		ownerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]PlateRecord)
	for rows.Next() {
		var plate string
		var rec PlateRecord
		if err := rows.Scan(&plate, &rec.CustomerID, &rec.InsuredName, &rec.IssueDate); err != nil {
			return nil, err
		}
		if rec.CustomerID == "" {
			continue
		}
		out[NormalizePlate(plate)] = rec
	}
	return out, rows.Err()
}

func (s *PgStore) InsertCustomers(ctx context.Context, customers []Customer) error {
	if len(customers) == 0 {
		return nil
	}
	copyRows := make([][]interface{}, len(customers))
	for i, c := range customers {
		copyRows[i] = []interface{}{
			c.ID, c.OwnerID, c.Kind, c.Name, c.Surname,
			nullIfEmpty(c.NationalID), nullIfEmpty(c.TaxID), time.Now(),
		}
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"acentecorpsaas", "customers"},
		[]string{"customer_id", "owner_id", "customer_kind", "name", "surname", "national_id", "tax_id", "created_at"},
		pgx.CopyFromRows(copyRows))
	return err
}

// InsertPoolRecords bulk-writes one confirmed window in a single
// transaction, retrying on serialization conflicts with concurrent imports.
func (s *PgStore) InsertPoolRecords(ctx context.Context, records []PoolRecord) error {
	if len(records) == 0 {
		return nil
	}
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = s.insertPoolOnce(ctx, records); err == nil || !retryablePgError(err) {
			return err
		}
	}
	return err
}

func retryablePgError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func (s *PgStore) insertPoolOnce(ctx context.Context, records []PoolRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback(ctx)
		}
	}()

	copyRows := make([][]interface{}, len(records))
	for i, r := range records {
		copyRows[i] = []interface{}{
			r.CarrierID, r.OwnerID, nullIfEmpty(r.CustomerID),
			r.PolicyNo, nullIfEmpty(r.RenewalNo), r.EndorsementNo, nullIfEmpty(r.EndorsementType),
			r.BranchID, string(r.Kind),
			nullIfZeroTime(r.IssueDate), nullIfZeroTime(r.StartDate), nullIfZeroTime(r.EndDate),
			r.GrossPremium, r.NetPremium, r.Commission, r.Tax,
			nullIfEmpty(r.InsuredName), nullIfEmpty(r.Plate), nullIfEmpty(r.AgentCode),
			r.SourceFileHash, time.Now(),
		}
	}
	columns := []string{
		"carrier_id", "owner_id", "customer_id",
		"policy_no", "renewal_no", "endorsement_no", "endorsement_type",
		"branch_id", "row_kind",
		"issue_date", "start_date", "end_date",
		"gross_premium", "net_premium", "commission", "tax",
		"insured_name", "plate", "agent_code",
		"source_file_hash", "created_at",
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"acentecorpsaas", "policy_pool"}, columns, pgx.CopyFromRows(copyRows)); err != nil {
		return err
	}
	committed = true
	return tx.Commit(ctx)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// pgUserFriendlyMessage translates Postgres error codes into messages the
// pool screen can surface to an agent.
func pgUserFriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err.Error()
	}
	switch pgErr.Code {
	case "23505":
		return "A policy with the same number and endorsement already exists in the pool."
	case "23503":
		return "Some referenced data was not found (please refresh and try again)."
	case "23514":
		return "Some fields have invalid values. Please check and try again."
	default:
		return "Database error while processing the request. Please try again."
	}
}
