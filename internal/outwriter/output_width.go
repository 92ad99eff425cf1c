package outwriter

import (
	"os"

	"github.com/huangsam/streamscore/internal/contract"
	"golang.org/x/term"
)

// getMaxTableTextWidth calculates the maximum width for free-text columns
// (observations, explanations) in table output based on terminal width.
func getMaxTableTextWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Metric + Function + Index + Label with borders/padding
	baseWidth := 60

	if cfg.Explain {
		baseWidth += 20
	}

	// Table borders, separators, and padding
	baseWidth += 15

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
