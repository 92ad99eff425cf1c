package cmd

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huangsam/streamscore/schema"
)

// versionCmd reports the build and what this binary can score and store.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and capability details of streamscore.",
	Long: `Print the release, commit and build date stamped in at link time, the Go
runtime, and the assessment tiers, scoring types and store backends this
binary supports. Paste the output into bug reports about scoring differences.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(w, "streamscore %s (%s, built %s, %s %s/%s)\n",
			version, commit, date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		_, _ = fmt.Fprintf(w, "  Tiers:    %s\n", joinKeys(schema.ValidTiers))
		_, _ = fmt.Fprintf(w, "  Scoring:  %s\n", joinKeys(schema.ValidScoringTypes))
		_, _ = fmt.Fprintf(w, "  Backends: %s\n", joinKeys(schema.ValidDatabaseBackends))
	},
}

func joinKeys[K ~string](m map[K]struct{}) string {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return strings.Join(out, ", ")
}
