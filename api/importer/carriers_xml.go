package importer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// looksLikeXML sniffs the payload. Content wins over the filename for XML:
// machine-generated exports are usually named export.xml or worse.
func looksLikeXML(data []byte) bool {
	head := bytes.TrimLeft(data, "\xef\xbb\xbf \t\r\n")
	return bytes.HasPrefix(head, []byte("<"))
}

// xmlShape is what detection needs from a document: the root element name
// and the set of element names seen in the first few hundred tokens.
type xmlShape struct {
	root     string
	elements map[string]struct{}
}

func sniffXMLShape(data []byte) (xmlShape, error) {
	shape := xmlShape{elements: make(map[string]struct{})}
	dec := xml.NewDecoder(bytes.NewReader(data))
	seen := 0
	for seen < 500 {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return shape, fmt.Errorf("malformed xml: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if shape.root == "" {
				shape.root = se.Name.Local
			}
			shape.elements[se.Name.Local] = struct{}{}
			seen++
		}
	}
	if shape.root == "" {
		return shape, fmt.Errorf("xml document has no elements")
	}
	return shape, nil
}

// matchesXML checks root-element name plus presence of every signature
// descendant. Both must hold: several carriers use a bare <Liste> root.
func (p *CarrierParser) matchesXML(shape xmlShape) bool {
	if !p.IsXML() || shape.root != p.XMLRoot {
		return false
	}
	for _, sig := range p.XMLSignature {
		if _, ok := shape.elements[sig]; !ok {
			return false
		}
	}
	return true
}

// DecodeXMLRows flattens each row element's children into the same
// normalized-header map shape the sheet path produces, so the generic parser
// handles both transports.
func DecodeXMLRows(data []byte, p *CarrierParser) ([]map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var rows []map[string]string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != p.XMLRowElem {
			continue
		}
		row, err := decodeRowElement(dec, se.Name.Local)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

func decodeRowElement(dec *xml.Decoder, rowElem string) (map[string]string, error) {
	row := make(map[string]string)
	var field string
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed xml row: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			field = t.Name.Local
			text.Reset()
		case xml.CharData:
			if field != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == rowElem {
				return row, nil
			}
			if field != "" {
				key := NormalizeHeader(splitCamel(field))
				if v := strings.TrimSpace(text.String()); v != "" {
					row[key] = v
				}
				field = ""
			}
		}
	}
}

// splitCamel turns PascalCase element names into spaced words so they
// normalize like sheet captions: BrutPrim -> BRUT PRIM, TCKimlikNo ->
// TC KIMLIK NO.
func splitCamel(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
