package importer

import (
	"time"

	"github.com/google/uuid"

	"AcenteCorpSaas/internal/config"
)

// customerKind values persisted on auto-created customers.
const (
	CustomerIndividual   = "INDIVIDUAL"
	CustomerOrganization = "ORGANIZATION"
)

// wellFormedNationalID checks the Turkish national id shape: exactly eleven
// digits with a non-zero leading digit.
func wellFormedNationalID(s string) bool {
	if len(s) != 11 || s[0] == '0' {
		return false
	}
	return allDigits(s)
}

// wellFormedTaxID checks the tax office id shape: exactly ten digits.
func wellFormedTaxID(s string) bool {
	return len(s) == 10 && allDigits(s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// BatchResolver resolves every row of an upload against one snapshot of the
// owner's customer book. The whole book is indexed once; the per-row cascade
// then never touches the database. Customers auto-created along the way are
// collected and flushed in a single bulk insert by the caller; their indexes
// are updated at creation time so a national id repeated across rows resolves
// to the same new customer instead of minting duplicates.
type BatchResolver struct {
	ownerID string
	now     func() time.Time

	byNationalID map[string]string
	byTaxID      map[string]string
	byFullName   map[string][]Customer
	byFirstName  map[string][]Customer
	byPlate      map[string]PlateRecord

	created []Customer
}

// NewBatchResolver indexes the owner's customers and plate history. The
// plate index keeps only the most recent record per plate inside the
// two-year lookback window; nowFn is injectable so the window is
// deterministic under test.
func NewBatchResolver(ownerID string, customers []Customer, plates map[string]PlateRecord, nowFn func() time.Time) *BatchResolver {
	if nowFn == nil {
		nowFn = time.Now
	}
	r := &BatchResolver{
		ownerID:      ownerID,
		now:          nowFn,
		byNationalID: make(map[string]string),
		byTaxID:      make(map[string]string),
		byFullName:   make(map[string][]Customer),
		byFirstName:  make(map[string][]Customer),
		byPlate:      make(map[string]PlateRecord),
	}
	for _, c := range customers {
		r.index(c)
	}
	cutoff := r.now().AddDate(-config.PlateLookbackYears, 0, 0)
	for plate, rec := range plates {
		if rec.IssueDate.Before(cutoff) {
			continue
		}
		key := NormalizePlate(plate)
		if key == "" {
			continue
		}
		if prev, ok := r.byPlate[key]; !ok || rec.IssueDate.After(prev.IssueDate) {
			r.byPlate[key] = rec
		}
	}
	return r
}

func (r *BatchResolver) index(c Customer) {
	if c.NationalID != "" {
		r.byNationalID[c.NationalID] = c.ID
	}
	if c.TaxID != "" {
		r.byTaxID[c.TaxID] = c.ID
	}
	full := NormalizeName(c.Name + " " + c.Surname)
	if full != "" {
		r.byFullName[full] = append(r.byFullName[full], c)
	}
	if first := NormalizeName(c.Name); first != "" && first != full {
		r.byFirstName[first] = append(r.byFirstName[first], c)
	}
}

// Created returns the customers auto-created during resolution, in creation
// order, for a single bulk insert.
func (r *BatchResolver) Created() []Customer {
	return r.created
}

// Resolve runs the matching cascade for one row. First success wins:
// national id, tax id, plate, then name. A well-formed national or tax id
// that matches nothing auto-creates a customer and still resolves Exact;
// plate and name matches never create anything.
func (r *BatchResolver) Resolve(row *ParsedRow) CustomerMatchResult {
	if wellFormedNationalID(row.NationalID) {
		if id, ok := r.byNationalID[row.NationalID]; ok {
			return CustomerMatchResult{CustomerID: id, Confidence: ConfidenceExact, Signal: SignalNationalID}
		}
		c := r.create(Customer{
			Kind:       CustomerIndividual,
			Name:       row.InsuredName,
			Surname:    row.InsuredSurname,
			NationalID: row.NationalID,
		})
		return CustomerMatchResult{CustomerID: c.ID, Confidence: ConfidenceExact, Signal: SignalNationalID, AutoCreated: true}
	}

	if wellFormedTaxID(row.TaxID) {
		if id, ok := r.byTaxID[row.TaxID]; ok {
			return CustomerMatchResult{CustomerID: id, Confidence: ConfidenceExact, Signal: SignalTaxID}
		}
		name := row.InsuredName
		if row.InsuredSurname != "" {
			name += " " + row.InsuredSurname
		}
		c := r.create(Customer{
			Kind:  CustomerOrganization,
			Name:  name,
			TaxID: row.TaxID,
		})
		return CustomerMatchResult{CustomerID: c.ID, Confidence: ConfidenceExact, Signal: SignalTaxID, AutoCreated: true}
	}

	rowName := NormalizeName(row.InsuredName + " " + row.InsuredSurname)

	if plate := NormalizePlate(row.Plate); plate != "" {
		if rec, ok := r.byPlate[plate]; ok {
			if rowName != "" && NormalizeName(rec.InsuredName) == rowName {
				return CustomerMatchResult{CustomerID: rec.CustomerID, Confidence: ConfidenceMedium, Signal: SignalPlate}
			}
			// Name differs: the vehicle may have changed hands, so the
			// previous owner is offered as a candidate only.
			return CustomerMatchResult{
				Confidence: ConfidenceLow,
				Signal:     SignalPlate,
				Candidates: []Customer{{ID: rec.CustomerID, Name: rec.InsuredName}},
			}
		}
	}

	if rowName != "" {
		matches := r.byFullName[rowName]
		if len(matches) == 0 {
			matches = r.byFirstName[rowName]
		}
		switch {
		case len(matches) == 1:
			return CustomerMatchResult{CustomerID: matches[0].ID, Confidence: ConfidenceMedium, Signal: SignalName}
		case len(matches) > 1:
			return CustomerMatchResult{Confidence: ConfidenceLow, Signal: SignalName, Candidates: matches}
		}
	}

	return CustomerMatchResult{Confidence: ConfidenceNone, Signal: SignalNone}
}

func (r *BatchResolver) create(c Customer) Customer {
	c.ID = uuid.NewString()
	c.OwnerID = r.ownerID
	r.created = append(r.created, c)
	r.index(c)
	return c
}

// ResolveAll enriches every valid row with its match result and returns the
// enriched copies. Invalid rows pass through untouched so previews can still
// show them with their errors.
func (r *BatchResolver) ResolveAll(rows []ParsedRow) []ParsedRow {
	out := make([]ParsedRow, 0, len(rows))
	for i := range rows {
		if !rows[i].Valid() {
			out = append(out, rows[i])
			continue
		}
		match := r.Resolve(&rows[i])
		out = append(out, rows[i].WithCustomer(match))
	}
	return out
}
