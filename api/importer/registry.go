package importer

import (
	"errors"
	"strings"
)

// FormatUndetected is the label returned when no registered parser claims
// the document. Guessing a default parser is never acceptable: a wrong
// carrier mapping silently corrupts the pool.
const FormatUndetected = "undetected"

var ErrUndetected = errors.New("carrier format not detected")

// DetectResult carries the chosen parser together with the header-keyed rows
// already decoded during detection, so the upload path never parses twice.
type DetectResult struct {
	Parser      *CarrierParser
	FormatLabel string
	Rows        []map[string]string
}

// ParserByID looks a parser up by carrier id, case-insensitively.
func ParserByID(id string) *CarrierParser {
	id = Fold(id)
	for _, p := range carrierParsers {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Parsers exposes the registry in detection priority order.
func Parsers() []*CarrierParser {
	return carrierParsers
}

// Detect chooses exactly one parser for an uploaded document, first match
// wins:
//
//  1. explicitID — pre-resolved by the caller (direct id, or the carrier
//     reference list's name-substring fallback);
//  2. XML content sniffing — generic filenames are the norm for
//     machine-generated XML, so content outranks the filename;
//  3. normalized filename patterns in registry priority order;
//  4. header-content CanParse in the same priority order.
//
// The registry order puts signature-column carriers before generic layouts;
// without that, a generic descriptor would claim files that a more specific
// one also satisfies.
func Detect(data []byte, filename, explicitID string) (*DetectResult, error) {
	if explicitID != "" {
		p := ParserByID(explicitID)
		if p == nil {
			return nil, ErrUndetected
		}
		return decodeFor(p, data)
	}

	if looksLikeXML(data) {
		shape, err := sniffXMLShape(data)
		if err != nil {
			return nil, err
		}
		for _, p := range carrierParsers {
			if p.matchesXML(shape) {
				return decodeFor(p, data)
			}
		}
		return nil, ErrUndetected
	}

	normName := NormalizeFilename(filename)
	for _, p := range carrierParsers {
		if p.IsXML() {
			continue
		}
		for _, pattern := range p.FilePatterns {
			if pattern != "" && strings.Contains(normName, pattern) {
				return decodeFor(p, data)
			}
		}
	}

	// Content-based detection: decode once, then try every parser's
	// CanParse against the normalized header row.
	rows, err := DecodeWorkbook(data, filename)
	if err != nil {
		return nil, err
	}
	for _, p := range carrierParsers {
		if p.IsXML() {
			continue
		}
		headerIdx, headers, err := FindHeaderRow(rows, p.FixedHeaderRow)
		if err != nil {
			continue
		}
		if p.CanParse(headers) {
			return &DetectResult{
				Parser:      p,
				FormatLabel: p.ID,
				Rows:        HeaderKeyedRows(rows, headerIdx, headers),
			}, nil
		}
	}
	return nil, ErrUndetected
}

// CanParse reports whether every required column fragment matches one of the
// normalized headers. Signature columns, when declared, must match too —
// that is what lets a signature parser out-rank a generic one that shares
// its required set.
func (p *CarrierParser) CanParse(headers []string) bool {
	for _, frag := range p.RequiredColumns {
		if !anyHeaderMatches(frag, headers) {
			return false
		}
	}
	for _, frag := range p.SignatureColumns {
		if !anyHeaderMatches(frag, headers) {
			return false
		}
	}
	return true
}

func anyHeaderMatches(fragment string, headers []string) bool {
	for _, h := range headers {
		if fragmentMatch(fragment, h) {
			return true
		}
	}
	return false
}

// decodeFor decodes the document with the transport the parser expects and
// returns header-keyed rows ready for Parse.
func decodeFor(p *CarrierParser, data []byte) (*DetectResult, error) {
	if p.IsXML() {
		rows, err := DecodeXMLRows(data, p)
		if err != nil {
			return nil, err
		}
		return &DetectResult{Parser: p, FormatLabel: p.ID, Rows: rows}, nil
	}
	sheet, err := DecodeWorkbook(data, "")
	if err != nil {
		return nil, err
	}
	headerIdx, headers, err := FindHeaderRow(sheet, p.FixedHeaderRow)
	if err != nil {
		return nil, err
	}
	return &DetectResult{
		Parser:      p,
		FormatLabel: p.ID,
		Rows:        HeaderKeyedRows(sheet, headerIdx, headers),
	}, nil
}
