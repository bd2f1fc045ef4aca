// Command ipynb-output-filter reads a Jupyter notebook on stdin and writes it
// to stdout with outputs, execution counts and cell metadata cleared. It is
// meant to run as a git clean filter:
//
//	git config filter.ipynb_output.clean ipynb-output-filter
//	echo '*.ipynb filter=ipynb_output' >> .gitattributes
package main

import (
	"bufio"
	"log/slog"
	"os"

	"github.com/couchcryptid/radon-data-etl/internal/config"
	"github.com/couchcryptid/radon-data-etl/internal/notebook"
	"github.com/couchcryptid/radon-data-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	out := bufio.NewWriter(os.Stdout)
	st, err := notebook.Filter(bufio.NewReader(os.Stdin), out)
	if err != nil {
		logger.Error("notebook filter failed", "error", err)
		os.Exit(1)
	}
	if err := out.Flush(); err != nil {
		logger.Error("write stdout failed", "error", err)
		os.Exit(1)
	}

	logger.Debug("notebook scrubbed",
		"cells", st.Cells,
		"cleared_outputs", st.ClearedOutputs,
		"cleared_counts", st.ClearedCounts,
		"removed_output_types", st.RemovedTypes,
	)
}
