package httpsheet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/eventmap/internal/core"
)

func TestDecode(t *testing.T) {
	body := `[
		{"LOCID": "LOC1", "LOCNAME": "Ferrara", "COORD": "44.83, 11.62", "CERTLOC": 1},
		{"LOCID": "LOC2", "LOCNAME": null, "EXTRA": true, "NOTE": {"a": 1}}
	]`

	tbl, err := Decode(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"LOCID", "LOCNAME", "COORD", "CERTLOC", "EXTRA", "NOTE"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "1", tbl.Rows[0]["CERTLOC"])
	assert.Equal(t, "true", tbl.Rows[1]["EXTRA"])
	assert.Equal(t, `{"a": 1}`, tbl.Rows[1]["NOTE"])
	_, present := tbl.Rows[1]["LOCNAME"]
	assert.False(t, present, "null member should be absent")
}

func TestDecode_KeyOrderDrivesKeyInference(t *testing.T) {
	// "Zone ID" precedes "Anid" in the source; the generic heuristic must
	// see the source order, not an alphabetical one.
	tbl, err := Decode(strings.NewReader(`[{"Zone ID": "Z1", "Anid": "A1"}]`))
	require.NoError(t, err)

	col, generic, ok := core.InferKeyColumn(tbl, nil)
	require.True(t, ok)
	assert.True(t, generic)
	assert.Equal(t, "Zone ID", col)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"server error", `{"error": true, "message": "Sheet not found"}`, "Sheet not found"},
		{"plain object", `{"rows": []}`, "expected an array"},
		{"scalar", `42`, "expected an array"},
		{"row not object", `[1]`, "expected an object"},
		{"truncated", `[{"a": "b"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	tbl, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)

	tbl, err = Decode(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
}

func TestClient_LoadSheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("sheet") {
		case "Events":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"EVID": "EV001", "BIOID": "BCO1"}]`))
		case "Locations":
			w.Write([]byte(`{"error": "not_found", "message": "No sheet named Locations"}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/exec?key=abc", time.Second)
	ctx := context.Background()

	tbl, err := c.LoadSheet(ctx, core.SheetEvents)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "BCO1", tbl.Rows[0]["BIOID"])

	_, err = c.LoadSheet(ctx, core.SheetLocations)
	var serr *ServerError
	require.True(t, errors.As(err, &serr), "err = %v", err)
	assert.Equal(t, core.SheetLocations, serr.Sheet)
	assert.Contains(t, err.Error(), "No sheet named Locations")

	_, err = c.LoadSheet(ctx, core.SheetHeaders)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestClient_SheetURL(t *testing.T) {
	c := New("https://script.example.org/exec?key=abc", 0)
	u, err := c.SheetURL(core.SheetComposers)
	require.NoError(t, err)
	assert.Equal(t, "https://script.example.org/exec?key=abc&sheet=Bio_Composers", u)
	assert.Equal(t, DefaultTimeout, c.HTTPClient.Timeout)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, time.Second).LoadSheet(ctx, core.SheetEvents)
	assert.ErrorIs(t, err, context.Canceled)
}
