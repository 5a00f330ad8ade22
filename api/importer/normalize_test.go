package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Poliçe":           "POLICE",
		"İPTAL":            "IPTAL",
		"sığorta":          "SIGORTA",
		"Brüt Prim":        "BRUT PRIM",
		"  çok   boşluk  ": "COK BOSLUK",
		"Müşteri Adı":      "MUSTERI ADI",
		"GÜNEŞ":            "GUNES",
		"doğa":             "DOGA",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), "input %q", in)
	}
}

func TestNormalizeHeader(t *testing.T) {
	for in, want := range map[string]string{
		"Poliçe No.":    "POLICE NO",
		"Poliçe-No:":    "POLICE NO",
		"POLİÇE_NO":     "POLICE NO",
		"Brüt Prim(TL)": "BRUT PRIM TL",
		"Zeyil  No":     "ZEYIL NO",
	} {
		assert.Equal(t, want, NormalizeHeader(in), "input %q", in)
	}
}

func TestNormalizeFilename(t *testing.T) {
	assert.Equal(t, "AXA URETIM 2025", NormalizeFilename("axa_üretim-2025.xlsx"))
	assert.Equal(t, "EXPORT", NormalizeFilename("export.xml"))
}

func TestNormalizePlate(t *testing.T) {
	assert.Equal(t, "34ABC123", NormalizePlate("34 ABC 123"))
	assert.Equal(t, "34ABC123", NormalizePlate("34-abc-123"))
	assert.Equal(t, "06XY42", NormalizePlate(" 06 xy 42 "))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "MEHMET YILMAZ", NormalizeName("Mehmet", "Yılmaz"))
	assert.Equal(t, "MEHMET YILMAZ", NormalizeName("  mehmet   yılmaz "))
	assert.Equal(t, "", NormalizeName("", ""))
}

func TestFragmentMatch(t *testing.T) {
	// The abbreviated fragment matches the expanded header and vice versa.
	assert.True(t, fragmentMatch("POLICE NO", "POLICE NO"))
	assert.True(t, fragmentMatch("POLICE NO", "POLICE NOSU"))
	assert.True(t, fragmentMatch("SIGORTALI ADI SOYADI", "ADI"))
	assert.False(t, fragmentMatch("BRUT PRIM", "NET PRIM"))
	assert.False(t, fragmentMatch("", "POLICE NO"))
	assert.False(t, fragmentMatch("POLICE NO", ""))
}
