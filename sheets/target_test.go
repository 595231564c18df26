package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = "doc123"

func newTestService() *MemoryService {
	svc := NewMemoryService()
	svc.AddDocument(testDoc, "Atualização Cadastral",
		Worksheet{ID: 456, Title: "Respostas", Index: 1},
		Worksheet{ID: 0, Title: "Página1", Index: 0},
		Worksheet{ID: 789, Title: "Arquivo", Index: 2},
	)
	return svc
}

func docURL(suffix string) string {
	return "https://docs.google.com/spreadsheets/d/" + testDoc + "/edit" + suffix
}

func TestResolveMatchesGID(t *testing.T) {
	r := NewTargetResolver(newTestService())

	target, err := r.Resolve(context.Background(), docURL("#gid=456"))
	require.NoError(t, err)
	assert.Equal(t, "Respostas", target.Worksheet.Title)
	assert.Equal(t, FallbackNone, target.Fallback)
	assert.Empty(t, target.Notice())
	assert.Equal(t, testDoc, target.Worksheet.DocumentID)
}

func TestResolveFallsBackToFirstWorksheet(t *testing.T) {
	tests := []struct {
		name     string
		suffix   string
		fallback Fallback
	}{
		{"no gid", "", FallbackNoGID},
		{"unknown gid", "?gid=999", FallbackGIDNotFound},
		{"non-numeric gid", "?gid=abc", FallbackNoGID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTargetResolver(newTestService())

			target, err := r.Resolve(context.Background(), docURL(tt.suffix))
			require.NoError(t, err, "fallback is not an error")
			assert.Equal(t, "Página1", target.Worksheet.Title)
			assert.Equal(t, tt.fallback, target.Fallback)
			assert.NotEmpty(t, target.Notice())
		})
	}
}

func TestResolveCachesByURL(t *testing.T) {
	svc := newTestService()
	r := NewTargetResolver(svc)
	ctx := context.Background()

	_, err := r.Resolve(ctx, docURL("?gid=456"))
	require.NoError(t, err)
	_, err = r.Resolve(ctx, docURL("?gid=456"))
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Calls(OpOpen))

	target, err := r.Resolve(ctx, docURL("?gid=789"))
	require.NoError(t, err)
	assert.Equal(t, "Arquivo", target.Worksheet.Title)
	assert.Equal(t, 2, svc.Calls(OpOpen))

	r.Invalidate()
	_, err = r.Resolve(ctx, docURL("?gid=789"))
	require.NoError(t, err)
	assert.Equal(t, 3, svc.Calls(OpOpen))
}

func TestResolveMalformedURL(t *testing.T) {
	svc := newTestService()
	r := NewTargetResolver(svc)

	_, err := r.Resolve(context.Background(), "https://example.com/no-doc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSheetResolution)
	assert.ErrorIs(t, err, ErrMalformedURL)
	assert.Equal(t, 0, svc.Calls(OpOpen))
}

func TestResolveOpenFailure(t *testing.T) {
	svc := newTestService()
	denied := errors.New("permission denied")
	svc.Fail(OpOpen, denied)
	r := NewTargetResolver(svc)

	_, err := r.Resolve(context.Background(), docURL("?gid=456"))
	var re *SheetResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, testDoc, re.DocumentID)
	assert.ErrorIs(t, err, denied)

	// A failed resolution is not cached.
	svc.Fail(OpOpen, nil)
	_, err = r.Resolve(context.Background(), docURL("?gid=456"))
	assert.NoError(t, err)
}

func TestResolveUnknownDocument(t *testing.T) {
	r := NewTargetResolver(newTestService())

	_, err := r.Resolve(context.Background(), "https://docs.google.com/spreadsheets/d/missing/edit")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, err, ErrSheetResolution)
}

func TestResolveDocumentWithoutWorksheets(t *testing.T) {
	svc := NewMemoryService()
	svc.AddDocument("empty", "Vazia")
	r := NewTargetResolver(svc)

	_, err := r.Resolve(context.Background(), "https://docs.google.com/spreadsheets/d/empty")
	assert.ErrorIs(t, err, ErrNoWorksheets)
}
