package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/streamscore/core"
	"github.com/huangsam/streamscore/internal/contract"
)

// curveCmd groups single-curve operations.
var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Evaluate catalog curves directly",
	Long: `Evaluate a catalog curve at one value, or list a layer's points with their
condition bands.

Subcommands:
  eval  - Score one value on a curve
  bands - List a layer's points and derived bands`,
}

var curveEvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score one value on a curve",
	Long: `Interpolate a value on a quantitative curve, or match a label on a
categorical curve, and show which points were used.

Examples:
  streamscore curve eval --curve do_statewide --value 5
  streamscore curve eval --curve do_statewide --layer coldwater --value 7 --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		curveID, _ := cmd.Flags().GetString("curve")
		layerID, _ := cmd.Flags().GetString("layer")
		value, _ := cmd.Flags().GetString("value")
		if err := core.ExecuteCurveEval(rootCtx, cfg, curveID, layerID, value); err != nil {
			contract.LogFatal("Curve evaluation failed", err)
		}
	},
}

var curveBandsCmd = &cobra.Command{
	Use:   "bands",
	Short: "List a curve layer's points with condition bands",
	Long: `Print every point of a curve layer. Points missing yMin/yMax get bands
derived from their neighbours.

Examples:
  streamscore curve bands --curve embeddedness_curve
  streamscore curve bands --curve do_statewide --layer coldwater --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		curveID, _ := cmd.Flags().GetString("curve")
		layerID, _ := cmd.Flags().GetString("layer")
		if err := core.ExecuteCurveBands(rootCtx, cfg, curveID, layerID); err != nil {
			contract.LogFatal("Band derivation failed", err)
		}
	},
}
