package templates

import (
	"strings"

	"github.com/JonMunkholm/nem12ingest/internal/core"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

// DashboardData is everything the dashboard renders.
type DashboardData struct {
	Runs    []store.Run
	Formats []core.FormatDefinition
	Status  core.LimiterStatus
	Notice  string
}

// Accept lists every registered extension for the file input.
func (d DashboardData) Accept() string {
	var exts []string
	for _, def := range d.Formats {
		exts = append(exts, def.Extensions...)
	}
	return strings.Join(exts, ",")
}

func errorsURL(run store.Run) string {
	return "/api/runs/" + run.ID.String() + "/errors.xlsx"
}
