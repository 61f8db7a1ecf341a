package templates

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/nem12ingest/internal/core"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestDashboard_Runs(t *testing.T) {
	failed := store.Run{
		ID:           uuid.New(),
		FileName:     "meter.csv",
		Status:       store.RunFailed,
		RowsEmitted:  12,
		RowsInserted: 10,
		ErrorCount:   3,
		ErrorMessage: "missing footer",
		StartedAt:    time.Date(2025, 9, 12, 8, 30, 0, 0, time.UTC),
	}
	clean := store.Run{ID: uuid.New(), FileName: "clean.csv", Status: store.RunCompleted}

	html := render(t, Dashboard(DashboardData{
		Runs:    []store.Run{failed, clean},
		Formats: []core.FormatDefinition{{Key: "nem12", Extensions: []string{".csv", ".nem12"}}},
		Status:  core.LimiterStatus{Active: 1, MaxConcurrent: 4},
	}))

	assert.Contains(t, html, "<title>NEM12 ingest</title>")
	assert.Contains(t, html, `accept=".csv,.nem12"`)
	assert.Contains(t, html, "Ingests running: 1 of 4")
	assert.Contains(t, html, "2025-09-12 08:30:00")
	assert.Contains(t, html, `title="missing footer"`)
	assert.Contains(t, html, `data-status="failed"`)
	assert.Contains(t, html, "<td>10</td>")
	assert.Contains(t, html, `href="/api/runs/`+failed.ID.String()+`/errors.xlsx"`)
	assert.NotContains(t, html, clean.ID.String(), "runs without errors get no download link")
	assert.NotContains(t, html, "No runs yet.")
}

func TestDashboard_EmptyWithNotice(t *testing.T) {
	html := render(t, Dashboard(DashboardData{Notice: "Database unavailable"}))

	assert.Contains(t, html, "No runs yet.")
	assert.Contains(t, html, `<p class="notice">Database unavailable</p>`)
	assert.NotContains(t, html, "<table>")
}

func TestDashboard_EscapesContent(t *testing.T) {
	html := render(t, Dashboard(DashboardData{Runs: []store.Run{{
		ID: uuid.New(), FileName: "<script>x</script>.csv", Status: store.RunFailed, ErrorMessage: `"quoted"`,
	}}}))

	assert.NotContains(t, html, "<script>x")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, `title="&#34;quoted&#34;"`)
}

func TestErrorPage(t *testing.T) {
	html := render(t, ErrorPage("Not Found", "File not found", "Check <path>", "FILE002"))

	assert.Contains(t, html, "<title>Not Found</title>")
	assert.Contains(t, html, `<div class="alert" role="alert">`)
	assert.Contains(t, html, "<strong>File not found</strong>")
	assert.Contains(t, html, "Check &lt;path&gt;")
	assert.Contains(t, html, "Code: FILE002")
}

func TestDashboardData_Accept(t *testing.T) {
	assert.Equal(t, "", DashboardData{}.Accept())
	d := DashboardData{Formats: []core.FormatDefinition{
		{Extensions: []string{".csv"}},
		{Extensions: []string{".nem12", ".txt"}},
	}}
	assert.Equal(t, ".csv,.nem12,.txt", d.Accept())
}
