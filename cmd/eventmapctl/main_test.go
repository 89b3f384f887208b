package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSheets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Events.csv": "EVID,LOCID,BIOID,EYEAR,LYEAR,EINFO\n" +
			"EV001,LOC1,BCO1,1503,1505,Mass at the cathedral\n" +
			"EV002,LOC2,BMU1,1507,1507,Hired as singer\n" +
			"EV003,LOC9,BCO1,1560,,Letter\n",
		"Locations.csv":     "LOCID,LOCNAME,CITY,COORD\nLOC1,Duomo,Milan,\"45.46,9.19\"\nLOC2,Sistine Chapel,Rome,\"41.90,12.45\"\n",
		"Bio_Composers.csv": "BCOID,BCONAME,ALIAS\nBCO1,Josquin des Prez,Jodocus Pratensis\n",
		"Bio_Musicians.csv": "BMUID,BMUNAME\nBMU1,Gaspar van Weerbeke\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	dir := writeSheets(t)

	out, err := run(t, "summary", "--dir", dir)
	require.NoError(t, err)

	var sum struct {
		Events   int `json:"events"`
		Filtered int `json:"filtered"`
		Mappable int `json:"mappable"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sum), out)
	assert.Equal(t, 3, sum.Events)
	assert.Equal(t, 3, sum.Filtered)
	assert.Equal(t, 2, sum.Mappable)
}

func TestEvents_Flags(t *testing.T) {
	dir := writeSheets(t)

	tests := []struct {
		name string
		args []string
		ids  []string
	}{
		{"all", nil, []string{"EV001", "EV002", "EV003"}},
		{"mappable", []string{"--mappable"}, []string{"EV001", "EV002"}},
		{"search", []string{"--search", "cathedral milan"}, []string{"EV001"}},
		{"range", []string{"--from", "1550", "--to", "1590"}, []string{"EV003"}},
		{"type gate", []string{"--no-composers"}, []string{"EV002"}},
		{"names", []string{"--name", "Josquin des Prez"}, []string{"EV001", "EV003"}},
		{"limit", []string{"--limit", "1"}, []string{"EV001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"events", "--dir", dir}, tt.args...)...)
			require.NoError(t, err)

			var events []struct {
				ID string `json:"evid"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &events), out)

			ids := []string{}
			for _, ev := range events {
				ids = append(ids, ev.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestEvents_InvertedRange(t *testing.T) {
	_, err := run(t, "events", "--dir", writeSheets(t), "--from", "1600", "--to", "1500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from 1600 is after --to 1500")
}

func TestHistogram(t *testing.T) {
	out, err := run(t, "histogram", "--dir", writeSheets(t))
	require.NoError(t, err)

	var buckets []struct {
		Decade int `json:"decade"`
		Count  int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &buckets))
	require.Len(t, buckets, 21)

	counts := map[int]int{}
	for _, b := range buckets {
		counts[b.Decade] = b.Count
	}
	assert.Equal(t, 2, counts[1500])
	assert.Equal(t, 1, counts[1560])
}

func TestPerson(t *testing.T) {
	dir := writeSheets(t)

	out, err := run(t, "person", "BCO1", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Josquin des Prez"`)

	_, err = run(t, "person", "BCO9", "--dir", dir)
	assert.Error(t, err)

	_, err = run(t, "person", "--dir", dir)
	assert.Error(t, err, "BIOID argument is required")
}

func TestNamesAndDiagnostics(t *testing.T) {
	dir := writeSheets(t)

	out, err := run(t, "names", "gaspar", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Gaspar van Weerbeke")

	out, err = run(t, "diagnostics", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Institutions", "missing sheets are reported")
}

func TestInvalidDriver(t *testing.T) {
	_, err := run(t, "summary", "--driver", "ftp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_DRIVER")
}

func TestInferDriver(t *testing.T) {
	tests := []struct {
		flags sourceFlags
		want  string
	}{
		{sourceFlags{}, ""},
		{sourceFlags{dir: "d"}, "csv"},
		{sourceFlags{workbook: "w.xlsx"}, "xlsx"},
		{sourceFlags{sqlitePath: "x.db"}, "sqlite"},
		{sourceFlags{url: "http://x"}, "http"},
		{sourceFlags{databaseURL: "postgres://"}, "postgres"},
		{sourceFlags{driver: "s3", dir: "d"}, "s3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.flags.inferDriver(), "%+v", tt.flags)
	}
}
