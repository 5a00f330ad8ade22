package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCamel(t *testing.T) {
	for in, want := range map[string]string{
		"BrutPrim":      "Brut Prim",
		"PoliceNo":      "Police No",
		"TCKimlikNo":    "TC Kimlik No",
		"ZeyilNo":       "Zeyil No",
		"TANZIM":        "TANZIM",
		"TarifeKodu":    "Tarife Kodu",
		"VergiKimlikNo": "Vergi Kimlik No",
	} {
		assert.Equal(t, want, splitCamel(in), "input %q", in)
	}
}

func TestLooksLikeXML(t *testing.T) {
	assert.True(t, looksLikeXML([]byte("<PoliceListesi/>")))
	assert.True(t, looksLikeXML([]byte("\xef\xbb\xbf\n  <PoliceListesi/>")))
	assert.False(t, looksLikeXML(csvBytes("POLICE NO;BRUT PRIM", "P1;1")))
}

func TestSniffXMLShape(t *testing.T) {
	shape, err := sniffXMLShape([]byte(eurekoXMLDoc))
	require.NoError(t, err)
	assert.Equal(t, "PoliceListesi", shape.root)
	assert.Contains(t, shape.elements, "ZeyilNo")
	assert.Contains(t, shape.elements, "BrutPrim")

	assert.True(t, eurekoXMLParser.matchesXML(shape))
	assert.False(t, ankaraXMLParser.matchesXML(shape))
	assert.False(t, hdiParser.matchesXML(shape))
}

func TestDecodeXMLRows(t *testing.T) {
	rows, err := DecodeXMLRows([]byte(eurekoXMLDoc), eurekoXMLParser)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "EUR-1", rows[0]["POLICE NO"])
	assert.Equal(t, "1.500,00", rows[0]["BRUT PRIM"])
	assert.Equal(t, "Ayşe", rows[0]["SIGORTALI ADI"])

	_, err = DecodeXMLRows([]byte("<PoliceListesi></PoliceListesi>"), eurekoXMLParser)
	assert.ErrorIs(t, err, ErrNoDataRows)
}
