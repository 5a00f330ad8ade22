package importer

import (
	"time"

	"github.com/shopspring/decimal"
)

// RowKind distinguishes production rows from cancellation rows.
type RowKind string

const (
	KindNewBusiness  RowKind = "NEW_BUSINESS"
	KindCancellation RowKind = "CANCELLATION"
)

// BranchUnclassified is the canonical branch id assigned when a carrier's
// native product code is missing from its mapping table. The row still
// imports; reclassification happens later in the pool screen.
const BranchUnclassified = "UNCLASSIFIED"

// ParsedRow is one normalized record decoded from a carrier export. It is
// immutable once the parser emits it; customer enrichment returns a copy.
type ParsedRow struct {
	RowNumber       int     `json:"row_number"`
	PolicyNo        string  `json:"policy_no"`
	RenewalNo       string  `json:"renewal_no"`
	EndorsementNo   int     `json:"endorsement_no"`
	EndorsementType string  `json:"endorsement_type"`
	BranchCode      string  `json:"branch_code"`
	BranchID        string  `json:"branch_id"`
	Kind            RowKind `json:"kind"`

	IssueDate            time.Time `json:"issue_date"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	EndorsementApproval  time.Time `json:"endorsement_approval_date"`
	EndorsementEffective time.Time `json:"endorsement_effective_date"`

	GrossPremium decimal.Decimal `json:"gross_premium"`
	NetPremium   decimal.Decimal `json:"net_premium"`
	Commission   decimal.Decimal `json:"commission"`
	Tax          decimal.Decimal `json:"tax"`

	InsuredName    string `json:"insured_name"`
	InsuredSurname string `json:"insured_surname"`
	NationalID     string `json:"national_id"`
	TaxID          string `json:"tax_id"`
	Address        string `json:"address"`
	Plate          string `json:"plate"`
	AgentCode      string `json:"agent_code"`

	// Set by enrichment, never by the parser.
	CustomerID string               `json:"customer_id,omitempty"`
	Match      *CustomerMatchResult `json:"match,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// Valid reports whether the row passed every validation rule.
func (r ParsedRow) Valid() bool {
	return len(r.Errors) == 0
}

// WithCustomer returns a copy of the row carrying the resolution outcome.
// Only Exact and Medium matches assign a customer id; Low results keep the
// candidates visible without committing to any of them.
func (r ParsedRow) WithCustomer(match CustomerMatchResult) ParsedRow {
	if match.Confidence == ConfidenceExact || match.Confidence == ConfidenceMedium {
		r.CustomerID = match.CustomerID
	}
	r.Match = &match
	return r
}

// DuplicateKey is the per-carrier uniqueness key inside the pool table.
func (r ParsedRow) DuplicateKey() string {
	return duplicateKey(r.PolicyNo, r.EndorsementNo)
}

// KindSignal tells the generic parser which cancellation signal a carrier's
// export actually carries.
type KindSignal int

const (
	// SignalTypeColumn: an explicit row-type column holds a cancel marker.
	SignalTypeColumn KindSignal = iota
	// SignalBanner: section banner rows split the sheet into a production
	// block and a cancellation block.
	SignalBanner
	// SignalPremiumSign: negative gross premium means cancellation. Always
	// used as the last resort by the other two modes as well.
	SignalPremiumSign
)

// ColumnMap lists, per normalized field, the header fragments that identify
// the carrier's native column. Fragments are matched bidirectionally so both
// abbreviated and expanded header text hit.
type ColumnMap struct {
	PolicyNo             []string
	RenewalNo            []string
	EndorsementNo        []string
	EndorsementType      []string
	Branch               []string
	Kind                 []string
	IssueDate            []string
	StartDate            []string
	EndDate              []string
	EndorsementApproval  []string
	EndorsementEffective []string
	GrossPremium         []string
	NetPremium           []string
	Commission           []string
	Tax                  []string
	Name                 []string
	Surname              []string
	NationalID           []string
	TaxID                []string
	Address              []string
	Plate                []string
	AgentCode            []string
}

// CarrierParser describes one carrier's export format. Instances are static
// package-level values: stateless, shared by every session.
type CarrierParser struct {
	ID   string
	Name string

	// Normalized filename fragments that identify this carrier's exports.
	FilePatterns []string

	// FixedHeaderRow >= 0 skips the keyword scan for carriers that prepend a
	// banner block of known height. -1 means scan.
	FixedHeaderRow int

	// Minimal normalized column fragments every export of this carrier has.
	RequiredColumns []string

	// Rare fragments used only to out-rank carriers with generic layouts
	// during detection. Never required for parsing.
	SignatureColumns []string

	Columns     ColumnMap
	BranchTable map[string]string

	KindSignal   KindSignal
	CancelMarks  []string // normalized values of the type column meaning cancel
	CancelBanner []string // normalized banner fragments opening a cancel block

	// MonthFirst flips the free-text date fallback for the few carriers that
	// export US-style ordering.
	MonthFirst bool

	// XML exports: detection uses the document itself, not the filename.
	// Element names are normalized like sheet headers, so Columns fragments
	// bind XML fields too.
	XMLRoot      string
	XMLRowElem   string
	XMLSignature []string
}

// IsXML reports whether this descriptor decodes XML exports.
func (p *CarrierParser) IsXML() bool {
	return p.XMLRoot != ""
}

// MatchConfidence grades a customer-resolution decision.
type MatchConfidence string

const (
	ConfidenceExact  MatchConfidence = "EXACT"
	ConfidenceMedium MatchConfidence = "MEDIUM"
	ConfidenceLow    MatchConfidence = "LOW"
	ConfidenceNone   MatchConfidence = "NONE"
)

// MatchSignal names the field that produced a customer match.
type MatchSignal string

const (
	SignalNationalID MatchSignal = "NATIONAL_ID"
	SignalTaxID      MatchSignal = "TAX_ID"
	SignalPlate      MatchSignal = "PLATE"
	SignalName       MatchSignal = "NAME"
	SignalNone       MatchSignal = "NONE"
)

// Customer is the destination customer record the resolver matches against.
type Customer struct {
	ID         string `json:"customer_id"`
	Kind       string `json:"kind"` // INDIVIDUAL or ORGANIZATION
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	NationalID string `json:"national_id"`
	TaxID      string `json:"tax_id"`
	OwnerID    string `json:"owner_id"`
}

// CustomerMatchResult is the outcome of one resolver cascade run.
type CustomerMatchResult struct {
	CustomerID  string          `json:"customer_id,omitempty"`
	Confidence  MatchConfidence `json:"confidence"`
	Signal      MatchSignal     `json:"signal"`
	Candidates  []Customer      `json:"candidates,omitempty"`
	AutoCreated bool            `json:"auto_created"`
}

// PlateRecord is the most recent pool entry for a plate inside the lookback
// window, used for plate-based matching with a name cross-check.
type PlateRecord struct {
	CustomerID  string
	InsuredName string
	IssueDate   time.Time
}

// PreviewResult is the parse/preview response payload.
type PreviewResult struct {
	Success     bool        `json:"success"`
	SessionID   string      `json:"session_id,omitempty"`
	CarrierID   string      `json:"carrier_id,omitempty"`
	CarrierName string      `json:"carrier_name,omitempty"`
	FormatLabel string      `json:"format_label"`
	TotalRows   int         `json:"total_rows"`
	ValidRows   int         `json:"valid_rows"`
	InvalidRows int         `json:"invalid_rows"`
	Rows        []ParsedRow `json:"rows,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// RowError reports a single row that failed during commit.
type RowError struct {
	RowNumber int    `json:"row_number"`
	PolicyNo  string `json:"policy_no"`
	Message   string `json:"message"`
}

// ConfirmResult is shared by confirm-full and confirm-batch. The batch fields
// stay zero for confirm-full.
type ConfirmResult struct {
	Success      bool       `json:"success"`
	Processed    int        `json:"processed"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	Duplicates   int        `json:"duplicates"`
	NewCustomers int        `json:"new_customers"`
	RowErrors    []RowError `json:"row_errors,omitempty"`

	ProcessedSoFar int  `json:"processed_so_far,omitempty"`
	TotalValid     int  `json:"total_valid,omitempty"`
	MoreBatches    bool `json:"more_batches,omitempty"`

	Error string `json:"error,omitempty"`
}

// PoolRecord is what actually lands in the policy pool staging table.
type PoolRecord struct {
	CarrierID       string
	OwnerID         string
	CustomerID      string
	PolicyNo        string
	RenewalNo       string
	EndorsementNo   int
	EndorsementType string
	BranchID        string
	Kind            RowKind
	IssueDate       time.Time
	StartDate       time.Time
	EndDate         time.Time
	GrossPremium    decimal.Decimal
	NetPremium      decimal.Decimal
	Commission      decimal.Decimal
	Tax             decimal.Decimal
	InsuredName     string
	Plate           string
	AgentCode       string
	SourceFileHash  string
}
