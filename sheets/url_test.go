package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantID  string
		wantGID int64
		hasGID  bool
		rawGID  string
	}{
		{
			name:    "query gid",
			url:     "https://docs.google.com/spreadsheets/d/1tWyQQow2jhP50hSLSc00CvzfWVubpcd48MUeVvWTa_s/edit?gid=0",
			wantID:  "1tWyQQow2jhP50hSLSc00CvzfWVubpcd48MUeVvWTa_s",
			wantGID: 0,
			hasGID:  true,
			rawGID:  "0",
		},
		{
			name:    "fragment gid",
			url:     "https://docs.google.com/spreadsheets/d/abc-DEF_123/edit#gid=456",
			wantID:  "abc-DEF_123",
			wantGID: 456,
			hasGID:  true,
			rawGID:  "456",
		},
		{
			name:    "fragment with range",
			url:     "https://docs.google.com/spreadsheets/d/abc/edit#gid=789&range=A1",
			wantID:  "abc",
			wantGID: 789,
			hasGID:  true,
			rawGID:  "789",
		},
		{
			name:   "no gid",
			url:    "https://docs.google.com/spreadsheets/d/abc/edit",
			wantID: "abc",
		},
		{
			name:   "non-numeric gid",
			url:    "https://docs.google.com/spreadsheets/d/abc/edit?gid=planilha",
			wantID: "abc",
			rawGID: "planilha",
		},
		{
			name:   "no scheme",
			url:    "  docs.google.com/spreadsheets/d/abc  ",
			wantID: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, loc.DocumentID)
			assert.Equal(t, tt.hasGID, loc.HasGID)
			assert.Equal(t, tt.wantGID, loc.GID)
			assert.Equal(t, tt.rawGID, loc.RawGID)
		})
	}
}

func TestParseURLMalformed(t *testing.T) {
	for _, raw := range []string{"", "https://example.com/foo", "https://docs.google.com/document/d/abc/edit", "%zz"} {
		_, err := ParseURL(raw)
		assert.ErrorIs(t, err, ErrMalformedURL, "ParseURL(%q)", raw)
	}
}

func TestQuoteTitle(t *testing.T) {
	assert.Equal(t, "'Respostas'", quoteTitle("Respostas"))
	assert.Equal(t, "'Joana''s tab'", quoteTitle("Joana's tab"))
	assert.Equal(t, "'Página 1'!2:2", rowRange(Worksheet{Title: "Página 1"}, 2))
}
