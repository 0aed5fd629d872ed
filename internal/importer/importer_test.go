package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/ccrestaurant/lead-intel/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestImportCSV(t *testing.T) {
	st := newTestStore(t)

	csvData := `Company Name,Website,Phone,Town,POS System
Mario's Pizzeria,https://mariospizzeria.com,(508) 555-0123,Quincy,
Thai Basil,,(617) 555-0456,Boston,Toast
,https://orphan.example.com,,,
`
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0644))

	sum, err := ImportFile(context.Background(), st, path)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 1, sum.Skipped)

	leads, err := st.ListLeads(context.Background(), store.LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	byName := map[string]int{}
	for i, l := range leads {
		byName[l.CompanyName] = i
	}

	mario := leads[byName["Mario's Pizzeria"]]
	assert.Equal(t, "https://mariospizzeria.com", mario.Website)
	assert.Equal(t, "(508) 555-0123", mario.Phone)
	assert.Equal(t, "Quincy", mario.Town)
	assert.Empty(t, mario.POSSystem)

	thai := leads[byName["Thai Basil"]]
	assert.Equal(t, "Toast", thai.POSSystem)
	assert.Empty(t, thai.Website)
}

func TestImportXLSX(t *testing.T) {
	st := newTestStore(t)

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, h := range []string{"name", "website", "cuisine_type"} {
		header.AddCell().SetString(h)
	}
	row := sheet.AddRow()
	row.AddCell().SetString("Golden Dragon")
	row.AddCell().SetString("https://goldendragon.example.com")
	row.AddCell().SetString("chinese")

	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))

	sum, err := ImportFile(context.Background(), st, path)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)

	leads, err := st.ListLeads(context.Background(), store.LeadFilter{Search: "Golden"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "chinese", leads[0].CuisineType)
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	st := newTestStore(t)

	_, err := ImportFile(context.Background(), st, "leads.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestImportRejectsUnrecognizedHeaders(t *testing.T) {
	st := newTestStore(t)

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("foo,bar\n1,2\n"), 0644))

	_, err := ImportFile(context.Background(), st, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognized columns")
}

func TestImportEmptyFile(t *testing.T) {
	st := newTestStore(t)

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,website\n"), 0644))

	_, err := ImportFile(context.Background(), st, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}
