package importer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"AcenteCorpSaas/api/constants"
)

// Fragments that flag running-total / subtotal rows in any carrier sheet.
var totalRowMarks = []string{"TOPLAM", "GENEL TOPLAM", "ARA TOPLAM", "TOTAL"}

// Banner fragments that open a production block again after a cancellation
// block (SignalBanner carriers).
var productionBannerMarks = []string{"URETIM", "YENI IS", "TANZIM EDILEN", "POLICELER"}

func duplicateKey(policyNo string, endorsementNo int) string {
	return fmt.Sprintf("%s|%d", strings.TrimSpace(policyNo), endorsementNo)
}

// Parse decodes header-keyed raw rows into normalized records. One descriptor
// instance serves every session concurrently; all state below is per-call.
//
// Invalid rows are kept in the output with their reasons so the operator sees
// them in the preview; the commit path filters them out.
func (p *CarrierParser) Parse(rows []map[string]string) []ParsedRow {
	out := make([]ParsedRow, 0, len(rows))
	cancelBlock := false

	for i, raw := range rows {
		rowNo := i + 1

		if p.KindSignal == SignalBanner {
			if banner, cancel := p.bannerState(raw); banner {
				cancelBlock = cancel
				continue
			}
		}
		if isTotalRow(raw) {
			continue
		}

		policyNo := strings.TrimSpace(p.value(raw, p.Columns.PolicyNo))
		if policyNo == "" || p.isHeaderEcho(policyNo) {
			continue
		}

		row := p.parseOne(rowNo, policyNo, raw, cancelBlock)
		out = append(out, row)
	}
	return out
}

// parseOne never lets a malformed row escape as a panic: whatever blows up is
// converted into a row-level error entry so one bad row cannot abort the file.
func (p *CarrierParser) parseOne(rowNo int, policyNo string, raw map[string]string, cancelBlock bool) (row ParsedRow) {
	defer func() {
		if rec := recover(); rec != nil {
			row = ParsedRow{
				RowNumber: rowNo,
				PolicyNo:  policyNo,
				Kind:      KindNewBusiness,
				Errors:    []string{fmt.Sprintf(constants.RowErrRowUnparseable, fmt.Sprint(rec))},
			}
		}
	}()

	row = ParsedRow{
		RowNumber: rowNo,
		PolicyNo:  policyNo,
		RenewalNo: strings.TrimSpace(p.value(raw, p.Columns.RenewalNo)),
		Kind:      KindNewBusiness,
	}

	if v := p.value(raw, p.Columns.EndorsementNo); strings.TrimSpace(v) != "" {
		if n, err := ParseIntCell(v); err == nil && n > 0 {
			row.EndorsementNo = n
		}
	}
	row.EndorsementType = strings.TrimSpace(p.value(raw, p.Columns.EndorsementType))

	row.BranchCode = strings.TrimSpace(p.value(raw, p.Columns.Branch))
	row.BranchID = p.mapBranch(row.BranchCode)

	row.IssueDate = p.date(raw, p.Columns.IssueDate)
	row.StartDate = p.date(raw, p.Columns.StartDate)
	row.EndDate = p.date(raw, p.Columns.EndDate)
	row.EndorsementApproval = p.date(raw, p.Columns.EndorsementApproval)
	row.EndorsementEffective = p.date(raw, p.Columns.EndorsementEffective)

	row.GrossPremium = p.amount(raw, p.Columns.GrossPremium, "gross premium", &row)
	row.NetPremium = p.amount(raw, p.Columns.NetPremium, "net premium", &row)
	row.Commission = p.amount(raw, p.Columns.Commission, "commission", &row)
	row.Tax = p.amount(raw, p.Columns.Tax, "tax", &row)

	row.InsuredName = strings.TrimSpace(p.value(raw, p.Columns.Name))
	row.InsuredSurname = strings.TrimSpace(p.value(raw, p.Columns.Surname))
	row.NationalID = strings.TrimSpace(p.value(raw, p.Columns.NationalID))
	row.TaxID = strings.TrimSpace(p.value(raw, p.Columns.TaxID))
	row.Address = strings.TrimSpace(p.value(raw, p.Columns.Address))
	row.Plate = strings.TrimSpace(p.value(raw, p.Columns.Plate))
	row.AgentCode = strings.TrimSpace(p.value(raw, p.Columns.AgentCode))

	row.Kind = p.rowKind(raw, cancelBlock, row.GrossPremium, row.NetPremium)

	// Backfills before validation so a net-only carrier still validates.
	if row.GrossPremium.IsZero() && !row.NetPremium.IsZero() {
		row.GrossPremium = row.NetPremium
	}
	if row.IssueDate.IsZero() && !row.StartDate.IsZero() {
		row.IssueDate = row.StartDate
	}

	p.validate(&row)
	return row
}

func (p *CarrierParser) validate(row *ParsedRow) {
	if strings.TrimSpace(row.PolicyNo) == "" {
		row.Errors = append(row.Errors, constants.RowErrPolicyNumberMissing)
	}
	if row.IssueDate.IsZero() && row.StartDate.IsZero() {
		row.Errors = append(row.Errors, constants.RowErrDateMissing)
	}
	// Endorsements legitimately carry zero or negative premium deltas.
	if row.EndorsementNo == 0 && row.GrossPremium.IsZero() && row.NetPremium.IsZero() {
		row.Errors = append(row.Errors, constants.RowErrPremiumMissing)
	}
}

// rowKind derives the row type from whichever signal this carrier encodes,
// with sign-of-premium as the universal last resort.
func (p *CarrierParser) rowKind(raw map[string]string, cancelBlock bool, gross, net decimal.Decimal) RowKind {
	switch p.KindSignal {
	case SignalTypeColumn:
		v := Fold(p.value(raw, p.Columns.Kind))
		for _, mark := range p.CancelMarks {
			m := Fold(mark)
			// Single-letter type codes must match exactly; longer markers
			// tolerate the usual caption noise.
			if v == m || (len(m) >= 3 && fragmentMatch(m, v)) {
				return KindCancellation
			}
		}
	case SignalBanner:
		if cancelBlock {
			return KindCancellation
		}
	}
	if gross.IsNegative() || (gross.IsZero() && net.IsNegative()) {
		return KindCancellation
	}
	return KindNewBusiness
}

// mapBranch resolves the carrier's native product code to the canonical
// branch id. Unknown codes land in the unclassified bucket instead of
// failing the row.
func (p *CarrierParser) mapBranch(code string) string {
	if strings.TrimSpace(code) == "" {
		return BranchUnclassified
	}
	if id, ok := p.BranchTable[Fold(code)]; ok {
		return id
	}
	return BranchUnclassified
}

// value returns the first non-empty cell whose header matches one of the
// field's fragments. Headers are visited in sorted order so a fragment that
// happens to match two captions binds the same one on every row.
func (p *CarrierParser) value(raw map[string]string, fragments []string) string {
	headers := make([]string, 0, len(raw))
	for h := range raw {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	for _, frag := range fragments {
		for _, header := range headers {
			if cell := raw[header]; fragmentMatch(frag, header) && strings.TrimSpace(cell) != "" {
				return cell
			}
		}
	}
	return ""
}

func (p *CarrierParser) date(raw map[string]string, fragments []string) time.Time {
	v := strings.TrimSpace(p.value(raw, fragments))
	if v == "" {
		return time.Time{}
	}
	t, err := ParseDate(v, p.MonthFirst)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (p *CarrierParser) amount(raw map[string]string, fragments []string, label string, row *ParsedRow) decimal.Decimal {
	v := strings.TrimSpace(p.value(raw, fragments))
	if v == "" {
		return decimal.Zero
	}
	d, err := ParseAmount(v)
	if err != nil {
		row.Errors = append(row.Errors, fmt.Sprintf("%s %q is not a number", label, v))
		return decimal.Zero
	}
	return d
}

// isHeaderEcho catches data rows that repeat the header caption — carriers
// exporting per-branch blocks repeat the full header before each block.
func (p *CarrierParser) isHeaderEcho(policyCell string) bool {
	v := NormalizeHeader(policyCell)
	for _, frag := range p.Columns.PolicyNo {
		if v == frag {
			return true
		}
	}
	return false
}

// bannerState reports whether this row is a section banner and, if so,
// whether it opens a cancellation block.
func (p *CarrierParser) bannerState(raw map[string]string) (isBanner, cancel bool) {
	nonEmpty := 0
	var text string
	for _, cell := range raw {
		if strings.TrimSpace(cell) != "" {
			nonEmpty++
			text = Fold(cell)
		}
	}
	// Banners are single-cell rows spanning the sheet.
	if nonEmpty != 1 {
		return false, false
	}
	for _, mark := range p.CancelBanner {
		if fragmentMatch(Fold(mark), text) {
			return true, true
		}
	}
	for _, mark := range productionBannerMarks {
		if fragmentMatch(Fold(mark), text) {
			return true, false
		}
	}
	return false, false
}

func isTotalRow(raw map[string]string) bool {
	for _, cell := range raw {
		v := Fold(cell)
		for _, mark := range totalRowMarks {
			if v == mark {
				return true
			}
		}
	}
	return false
}
