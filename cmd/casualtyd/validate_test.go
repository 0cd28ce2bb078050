package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/casualty-data-service/internal/cache"
	"github.com/couchcryptid/casualty-data-service/internal/domain"
)

func TestCheckDaily(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantErrors int
	}{
		{"sorted unique", "report_date,killed_cum\n2023-10-07,1\n2023-10-08,2\n", 0},
		{"duplicate", "report_date,killed_cum\n2023-10-07,1\n2023-10-07,2\n", 1},
		{"out of order", "report_date,killed_cum\n2023-10-08,1\n2023-10-07,2\n", 1},
		{"no rows", "report_date,killed_cum\n", 1},
		{"missing date column", "day,killed_cum\n2023-10-07,1\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &phase{name: tt.name}
			checkDaily(p, []byte(tt.data))
			assert.Len(t, p.errors, tt.wantErrors, p.errors)
		})
	}
}

func TestCheckNames(t *testing.T) {
	ok := &phase{}
	checkNames(ok, []byte("ID,en_name\n1,A\n"))
	assert.True(t, ok.passed())

	malformed := &phase{}
	checkNames(malformed, []byte("id,en_name\n1,A\n2,B,extra\n"))
	assert.Equal(t, []string{"1 malformed lines"}, malformed.errors)

	noID := &phase{}
	checkNames(noID, []byte("full_name\nA\n"))
	assert.False(t, noID.passed())
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	passed := report(&buf, []*phase{{name: "one"}, {name: "two", errors: []string{"boom"}}})

	assert.False(t, passed)
	assert.Contains(t, buf.String(), "--- two ---")
	assert.Contains(t, buf.String(), "[1] boom")
	assert.Contains(t, buf.String(), "Validation FAILED.")
}

func TestValidateFiles(t *testing.T) {
	store := cache.NewStore(t.TempDir())
	daily := store.PointerPath(domain.DatasetDaily)
	require.NoError(t, store.WriteFile(daily, []byte("report_date,killed_cum\n2023-10-07,1\n2023-10-08,2\n")))

	assert.True(t, validateDailyFile(store, daily).passed())
	assert.False(t, validateDailyFile(store, filepath.Join(store.Dir(), "missing.csv")).passed())
	assert.Nil(t, validateNamesFile(store, store.PointerPath(domain.DatasetNames)), "uncached registry is not checked")
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "names.csv")
	id := int64(5)
	victims := []domain.Victim{{ID: &id, Sex: domain.SexFemale}}

	require.NoError(t, export(path, func(w io.Writer) error { return domain.EncodeVictims(w, victims) }))

	data, err := cache.NewStore(filepath.Dir(path)).Read(path)
	require.NoError(t, err)
	back, _, err := domain.ParseVictims(bytes.NewReader(data), domain.DefaultAliases)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, int64(5), *back[0].ID)
	assert.Equal(t, domain.SexFemale, back[0].Sex)
}
