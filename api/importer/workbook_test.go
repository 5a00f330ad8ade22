package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWorkbookCSV(t *testing.T) {
	comma := csvBytes("POLICE NO,BRUT PRIM", "P1,100")
	rows, err := DecodeWorkbook(comma, "export.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"P1", "100"}, rows[1])

	// Turkish exports use ';' so the decimal comma survives unquoted.
	semicolon := csvBytes("POLICE NO;BRUT PRIM", "P1;1.500,00")
	rows, err = DecodeWorkbook(semicolon, "export.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "1.500,00"}, rows[1])
}

func TestDecodeWorkbookRejects(t *testing.T) {
	_, err := DecodeWorkbook([]byte("<PoliceListesi/>"), "export.xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = DecodeWorkbook(csvBytes("POLICE NO,BRUT PRIM"), "single-line.csv")
	assert.Error(t, err)
}

func TestFindHeaderRowScan(t *testing.T) {
	rows := [][]string{
		{"ACME SİGORTA ÜRETİM RAPORU"},
		{"", ""},
		{"Poliçe No", "Brüt Prim", "Sigortalı Adı"},
		{"P1", "100", "Mehmet"},
	}
	idx, headers, err := FindHeaderRow(rows, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, []string{"POLICE NO", "BRUT PRIM", "SIGORTALI ADI"}, headers)
}

func TestFindHeaderRowFixed(t *testing.T) {
	rows := [][]string{
		{"banner"},
		{"Poliçe No", "Net Prim"},
		{"P1", "100"},
	}
	idx, headers, err := FindHeaderRow(rows, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{"POLICE NO", "NET PRIM"}, headers)

	_, _, err = FindHeaderRow(rows, 9)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestFindHeaderRowMissing(t *testing.T) {
	rows := [][]string{{"a", "b"}, {"c", "d"}}
	_, _, err := FindHeaderRow(rows, -1)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestHeaderKeyedRows(t *testing.T) {
	grid := [][]string{
		{"Poliçe No", "Brüt Prim", ""},
		{"P1", " 100 ", "junk"},
		{"", "", ""},
		{"P2"},
	}
	headers := normalizeHeaders(grid[0])
	rows := HeaderKeyedRows(grid, 0, headers)
	require.Len(t, rows, 2)

	assert.Equal(t, "P1", rows[0]["POLICE NO"])
	assert.Equal(t, "100", rows[0]["BRUT PRIM"], "cells are trimmed")
	_, hasBlank := rows[0][""]
	assert.False(t, hasBlank, "unnamed columns are dropped")

	assert.Equal(t, "P2", rows[1]["POLICE NO"])
	_, hasShort := rows[1]["BRUT PRIM"]
	assert.False(t, hasShort, "short rows omit the missing columns")
}
