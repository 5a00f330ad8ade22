package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvBytes(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

func TestParserByID(t *testing.T) {
	require.NotNil(t, ParserByID("HDI"))
	assert.Equal(t, "HDI", ParserByID("hdi").ID)
	assert.Nil(t, ParserByID("NOPE"))
}

func TestDetectExplicitID(t *testing.T) {
	data := csvBytes(
		"POLICE NO;NET PRIM;BRUT PRIM",
		"P1;100,00;120,00",
	)
	res, err := Detect(data, "whatever.csv", "hdi")
	require.NoError(t, err)
	assert.Equal(t, "HDI", res.Parser.ID)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "P1", res.Rows[0]["POLICE NO"])

	_, err = Detect(data, "whatever.csv", "NOPE")
	assert.ErrorIs(t, err, ErrUndetected)
}

func TestDetectByFilename(t *testing.T) {
	data := csvBytes(
		"POLICE NO;BRUT PRIM;TANZIM TARIHI",
		"A1;120,00;10.01.2025",
	)
	res, err := Detect(data, "AXA_uretim_06_2025.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "AXA", res.Parser.ID)
}

// A header set that satisfies both a signature carrier and a generic layout
// must resolve to the signature carrier; without the signature column the
// first generic descriptor in priority order claims it.
func TestDetectSignatureOutranksGeneric(t *testing.T) {
	withSignature := csvBytes(
		"POLICE NO;SOMPO URUN KODU;NET PRIM;BRUT PRIM;TANZIM TARIHI",
		"SJ-1;310;100,00;120,00;10.01.2025",
	)
	res, err := Detect(withSignature, "export.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "SOMPO", res.Parser.ID)

	withoutSignature := csvBytes(
		"POLICE NO;NET PRIM;BRUT PRIM;TANZIM TARIHI",
		"SJ-1;100,00;120,00;10.01.2025",
	)
	res, err = Detect(withoutSignature, "export.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "ANADOLU", res.Parser.ID)
}

func TestDetectUndetected(t *testing.T) {
	data := csvBytes("FOO;BAR", "1;2")
	_, err := Detect(data, "mystery.csv", "")
	assert.ErrorIs(t, err, ErrUndetected)
}

const eurekoXMLDoc = `<?xml version="1.0" encoding="UTF-8"?>
<PoliceListesi>
  <Police>
    <PoliceNo>EUR-1</PoliceNo>
    <ZeyilNo>0</ZeyilNo>
    <Brans>KASKO</Brans>
    <TanzimTarihi>10.01.2025</TanzimTarihi>
    <BrutPrim>1.500,00</BrutPrim>
    <NetPrim>1.250,00</NetPrim>
    <SigortaliAdi>Ayşe</SigortaliAdi>
    <SigortaliSoyadi>Demir</SigortaliSoyadi>
  </Police>
  <Police>
    <PoliceNo>EUR-2</PoliceNo>
    <ZeyilNo>1</ZeyilNo>
    <Brans>KASKO</Brans>
    <TanzimTarihi>11.01.2025</TanzimTarihi>
    <BrutPrim>-200,00</BrutPrim>
  </Police>
</PoliceListesi>`

func TestDetectXMLByContent(t *testing.T) {
	// Generic filename: the document shape alone must identify the carrier.
	res, err := Detect([]byte(eurekoXMLDoc), "export.xml", "")
	require.NoError(t, err)
	assert.Equal(t, "EUREKO", res.Parser.ID)
	require.Len(t, res.Rows, 2)

	rows := res.Parser.Parse(res.Rows)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Valid(), "errors: %v", rows[0].Errors)
	assert.Equal(t, "EUR-1", rows[0].PolicyNo)
	assert.Equal(t, BranchKasko, rows[0].BranchID)
	assert.Equal(t, "Ayşe", rows[0].InsuredName)
	assert.Equal(t, 1, rows[1].EndorsementNo)
}

func TestDetectXMLUnknownShape(t *testing.T) {
	doc := `<Liste><Satir><PoliceNo>1</PoliceNo></Satir></Liste>`
	_, err := Detect([]byte(doc), "export.xml", "")
	assert.ErrorIs(t, err, ErrUndetected)

	_, err = Detect([]byte("<PoliceListesi><"), "export.xml", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUndetected)
}
