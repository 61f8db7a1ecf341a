// Package formats registers the file formats the ingest service understands.
// Import it for its side effects.
package formats

import (
	"log/slog"

	"github.com/JonMunkholm/nem12ingest/internal/config"
	"github.com/JonMunkholm/nem12ingest/internal/core"
	"github.com/JonMunkholm/nem12ingest/internal/nem12"
)

// NEM12 is the registry key of the NEM12 interval data format.
const NEM12 = "nem12"

func init() {
	core.Register(core.FormatDefinition{
		Key:        NEM12,
		Label:      "NEM12 interval meter data",
		Extensions: []string{".csv", ".nem12"},
		NewParser:  newNEM12Parser,
	})
}

func newNEM12Parser(cfg config.ParserConfig, logger *slog.Logger) core.Parser {
	return nem12.New(nem12.Config{
		Delimiter:    cfg.Delimiter,
		DateLayout:   cfg.DateLayout,
		MaxLineBytes: cfg.MaxLineBytes,
	}, nem12.WithLogger(logger))
}
