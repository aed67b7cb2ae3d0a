package ingest

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/udlc/internal/analytics"
	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/config"
)

func sampleTable() detection.Table {
	return detection.Table{
		{Period: 10, Amplitude: 0.8123, FAP: 0.00123, State: detection.StateConvergedOnBand, Iterations: 12},
		{Period: 20, Amplitude: 100, FAP: 0.5, State: detection.StateConvergedAtBoundary, Iterations: 28},
		{Period: -1, Amplitude: math.NaN(), FAP: math.NaN(), State: detection.StateFailed,
			Error: "period must be finite and positive: got -1"},
	}
}

func TestReadSeries(t *testing.T) {
	input := "" +
		",BJD,RV_mlc_nzp,e_RV_mlc_nzp,note\n" +
		"0,2450002.5,1.5,0.9,b\n" +
		"1,2450000.5,-2.0,1.1,a\n" +
		"2,2450001.5,,1.0,missing value\n" +
		"3,2450003.5,NaN,1.0,nan value\n" +
		"4,2450004.5,0.25,1.2,c\n"

	s, err := ReadSeries(strings.NewReader(input), DefaultColumnSpec())
	require.NoError(t, err)

	assert.Equal(t, []float64{2450000.5, 2450002.5, 2450004.5}, s.Times)
	assert.Equal(t, []float64{-2.0, 1.5, 0.25}, s.Values)
	assert.Equal(t, []float64{1.1, 0.9, 1.2}, s.Errors)
}

func TestReadSeries_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty file", "", ErrNoRows},
		{"header only", "BJD,RV_mlc_nzp,e_RV_mlc_nzp\n", ErrNoRows},
		{"missing column", "BJD,RV\n1,2\n", ErrMissingColumn},
		{"non-positive uncertainty", "BJD,RV_mlc_nzp,e_RV_mlc_nzp\n1,2,0\n", analytics.ErrNonPositiveError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeries(strings.NewReader(tt.input), DefaultColumnSpec())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := ReadSeries(strings.NewReader("BJD,RV_mlc_nzp,e_RV_mlc_nzp\n1,abc,1\n"), DefaultColumnSpec())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadSeries_CustomColumns(t *testing.T) {
	cfg := config.IngestConfig{TimeColumn: "t", ValueColumn: "rv", ErrorColumn: "sigma"}
	s, err := ReadSeries(strings.NewReader("t,rv,sigma\n0,1,0.5\n1,2,0.5\n"), ColumnSpecFromConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestReadSeriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "star.csv")
	require.NoError(t, os.WriteFile(path, []byte("BJD,RV_mlc_nzp,e_RV_mlc_nzp\n1,2,1\n"), 0o644))

	s, err := ReadSeriesFile(path, DefaultColumnSpec())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, err = ReadSeriesFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultColumnSpec())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteTable_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	var basic bytes.Buffer
	require.NoError(t, WriteTable(&basic, sampleTable(), WriteOptions{}))
	g.Assert(t, "table_basic", basic.Bytes())

	var detail bytes.Buffer
	require.NoError(t, WriteTable(&detail, sampleTable(), WriteOptions{Detail: true}))
	g.Assert(t, "table_detail", detail.Bytes())
}

func TestReadTable_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleTable(), WriteOptions{Detail: true}))

	got, err := ReadTable(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := sampleTable()
	for i := range want {
		assert.Equal(t, want[i].Period, got[i].Period)
		assert.Equal(t, want[i].State, got[i].State)
		assert.Equal(t, want[i].Iterations, got[i].Iterations)
		assert.Equal(t, want[i].Error, got[i].Error)
	}
	assert.Equal(t, 0.8123, got[0].Amplitude)
	assert.True(t, math.IsNaN(got[2].Amplitude))
}

func TestReadTable_WithoutDetail(t *testing.T) {
	got, err := ReadTable(strings.NewReader("Period,Amplitude,FAP\n5,1.5,0.001\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, detection.Result{Period: 5, Amplitude: 1.5, FAP: 0.001}, got[0])
}

func TestListInputsAndOutputName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.CSV", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	files, err := ListInputs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.CSV"), filepath.Join(dir, "b.csv")}, files)

	assert.Equal(t, "HD1234UpperDetectionLimits.csv", OutputName("NonDetections/HD1234.csv", "UpperDetectionLimits.csv"))
	assert.Equal(t, "starUpperDetectionLimits.csv", OutputName("star", "UpperDetectionLimits.csv"))
}
