package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/services"
	"github.com/ersonp/legis/internal/infrastructure/parsers"
)

func newImportHandler(f *fixture) *ImportHandler {
	return NewImportHandler(services.NewImportService(f.db, f.variables, nil))
}

func TestImportHandler_Handle_CSVFile(t *testing.T) {
	f := newFixture()
	path := filepath.Join(t.TempDir(), "variables.csv")
	data := "key,name,type,unit,value,effective_from\n" +
		"prag_tva,Plafon TVA,numeric,RON,300000,2025-01-01\n" +
		"tva_standard,Cota standard TVA,percentage,,19%,2017-01-01\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	result, err := newImportHandler(f).Handle(context.Background(), path, ImportOptions{Format: "auto"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Defined)
	assert.Empty(t, result.Errors)

	v, err := f.variables.Get(context.Background(), "tva_standard")
	require.NoError(t, err)
	assert.Equal(t, "19%", v.Formatted())
}

func TestImportHandler_HandleReader_DefaultsToSkip(t *testing.T) {
	f := newFixture()
	f.defineSalary(t)

	result, err := newImportHandler(f).HandleReader(context.Background(), &parsers.JSONParser{},
		strings.NewReader(`[{"key": "salary_minim_brut", "value": 3700}]`), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)

	result, err = newImportHandler(f).HandleReader(context.Background(), &parsers.JSONParser{},
		strings.NewReader(`[{"key": "salary_minim_brut", "value": 3700}]`), ImportOptions{OnConflict: services.ConflictOverwrite})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
}

func TestImportHandler_Handle_Errors(t *testing.T) {
	f := newFixture()
	handler := newImportHandler(f)
	dir := t.TempDir()

	_, err := handler.Handle(context.Background(), filepath.Join(dir, "variables.txt"), ImportOptions{})
	assert.ErrorContains(t, err, "unsupported format")

	_, err = handler.Handle(context.Background(), filepath.Join(dir, "missing.json"), ImportOptions{})
	assert.ErrorContains(t, err, "opening file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = handler.Handle(context.Background(), bad, ImportOptions{Format: "json"})
	assert.ErrorContains(t, err, "parsing file")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0644))
	result, err := handler.Handle(context.Background(), empty, ImportOptions{})
	require.NoError(t, err)
	assert.Zero(t, result.Defined)
}
