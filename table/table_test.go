package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "Nome;Data de Nascimento;E-mail\n", ';'},
		{"tab", "nome\tnascimento\n", '\t'},
		{"pipe", "nome|nascimento|email", '|'},
		{"quoted commas ignored", "\"Silva, Maria\";nascimento", ';'},
		{"leading blank line", "\n\nnome;email", ';'},
		{"single column", "nome", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, string(tt.expected), string(SniffDelimiter([]byte(tt.input))))
		})
	}
}

func TestReadCSVSemicolon(t *testing.T) {
	input := "Nome;Data de Nascimento;E-mail\n" +
		"Maria Silva;12/05/1990;maria@x.com\n" +
		"\n" +
		";;\n" +
		"João Souza;01/01/1980\n"

	tbl, err := ReadCSV(strings.NewReader(input), "filiados.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Nome", "Data de Nascimento", "E-mail"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Maria Silva", tbl.Rows[0].Cell(0))
	assert.Equal(t, 2, tbl.Rows[0].Line)
	assert.Equal(t, "João Souza", tbl.Rows[1].Cell(0))
	assert.Equal(t, "", tbl.Rows[1].Cell(2), "missing trailing cell reads as empty")
	assert.Equal(t, 5, tbl.Rows[1].Line)
}

func TestReadCSVStripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBFnome,email\nAna,ana@x.com\n"

	tbl, err := ReadCSV(strings.NewReader(input), "bom.csv")
	require.NoError(t, err)
	assert.Equal(t, "nome", tbl.Headers[0])
}

func TestReadCSVDecodesWindows1252(t *testing.T) {
	// "Jos\xe9" is "José" in Windows-1252 and invalid UTF-8.
	input := []byte("Nome;Data de Nascimento\nJos\xe9;12/05/1990\n")

	tbl, err := ReadCSV(bytes.NewReader(input), "latin1.csv")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "José", tbl.Rows[0].Cell(0))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("\n\n"), "empty.csv")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nome do Filiado", "Data Nascimento"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Maria Silva", "12/05/1990"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := ReadXLSX(buf, "filiados.xlsx", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nome do Filiado", "Data Nascimento"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, 2, tbl.Rows[0].Line)
	assert.Equal(t, "12/05/1990", tbl.Rows[0].Cell(1))
}

func TestReadXLSXRendersDateCellsAsISO(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nome", "Data Nascimento", "Matrícula"}))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Maria Silva"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Sheet1", "C2", 4712))

	// A day-first custom format must not leak through as display text either.
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "José Souza"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", time.Date(1985, time.January, 3, 0, 0, 0, 0, time.UTC)))
	custom := "dd/mm/yyyy"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "B3", "B3", style))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := ReadXLSX(buf, "filiados.xlsx", "")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "1990-05-12", tbl.Rows[0].Cell(1))
	assert.Equal(t, "4712", tbl.Rows[0].Cell(2))
	assert.Equal(t, "1985-01-03", tbl.Rows[1].Cell(1))
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"dd/mm/yyyy", true},
		{"yyyy-mm-dd hh:mm", true},
		{"0.00", false},
		{"General", false},
		{`"day "0`, false},
		{"[Red]0", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isDateFormatCode(tt.code), tt.code)
	}
}

func TestReadFileDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "members.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("nome,nascimento\nAna,1990-01-01\n"), 0600))

	tbl, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)
	assert.Equal(t, csvPath, tbl.Source)

	odsPath := filepath.Join(dir, "members.ods")
	require.NoError(t, os.WriteFile(odsPath, []byte("x"), 0600))
	_, err = ReadFile(odsPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "filiaDOSdados.csv"), []byte("nome\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "outro.csv"), []byte("nome\n"), 0600))

	found, err := Discover(dir, []string{"FILIADOSDADOS.CSV", "outro.csv"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "filiaDOSdados.csv"), found)

	_, err = Discover(dir, []string{"nada.csv"})
	assert.ErrorIs(t, err, ErrNotFound)
}
