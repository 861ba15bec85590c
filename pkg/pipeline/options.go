// Package pipeline orchestrates the full processing run: load an index
// archive, build and validate the deployment, derive the bean graph and
// render output artifacts. Both the CLI and the HTTP API drive their
// work through a [Runner] so caching behaves the same everywhere.
package pipeline

import (
	"slices"

	"github.com/loomproc/loom/pkg/errors"
)

// Output formats supported by the render stage.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

var knownFormats = []string{FormatJSON, FormatDOT, FormatSVG}

// Options configures a pipeline run.
type Options struct {
	// IndexPath is the index archive to process. Required.
	IndexPath string

	// Formats selects the rendered artifacts. Defaults to json.
	Formats []string

	// Detailed includes scope and metadata in DOT node labels.
	Detailed bool

	// Refresh bypasses the cache and overwrites cached entries.
	Refresh bool

	// StrictCycles fails the run when the injection graph contains a
	// cycle instead of only warning.
	StrictCycles bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.IndexPath == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "index path is required")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	for _, f := range o.Formats {
		if !slices.Contains(knownFormats, f) {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown output format: %s", f)
		}
	}
	return nil
}
