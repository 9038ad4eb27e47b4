package extract

import (
	"time"

	"github.com/phrazzld/scry-summarizer/internal/generation"
)

// Limits bounds the work done for one document: the download and the model
// call that follows it.
type Limits struct {
	FetchBytes   int64
	FetchTimeout time.Duration

	QuickChars int
	FullChars  int

	QuickTokens int
	FullTokens  int

	ModelTimeout time.Duration
}

// Budget returns the model budget for the requested analysis depth.
func (l Limits) Budget(full bool) generation.Budget {
	if full {
		return generation.Budget{MaxChars: l.FullChars, MaxTokens: l.FullTokens, Timeout: l.ModelTimeout}
	}
	return generation.Budget{MaxChars: l.QuickChars, MaxTokens: l.QuickTokens, Timeout: l.ModelTimeout}
}

const (
	textFetchBytes   = 2 << 20
	binaryFetchBytes = 10 << 20
	fetchTimeout     = 10 * time.Second
)

// Per-strategy limits.
var (
	TextLimits = Limits{
		FetchBytes:   textFetchBytes,
		FetchTimeout: fetchTimeout,
		QuickChars:   8000,
		FullChars:    12000,
		QuickTokens:  600,
		FullTokens:   1200,
		ModelTimeout: 15 * time.Second,
	}

	PDFLimits = Limits{
		FetchBytes:   binaryFetchBytes,
		FetchTimeout: fetchTimeout,
		QuickChars:   6000,
		FullChars:    15000,
		QuickTokens:  800,
		FullTokens:   1500,
		ModelTimeout: 15 * time.Second,
	}

	WordLimits = Limits{
		FetchBytes:   binaryFetchBytes,
		FetchTimeout: fetchTimeout,
		QuickChars:   5000,
		FullChars:    10000,
		QuickTokens:  600,
		FullTokens:   1200,
		ModelTimeout: 12 * time.Second,
	}

	SpreadsheetLimits = Limits{
		FetchBytes:   binaryFetchBytes,
		FetchTimeout: fetchTimeout,
		QuickChars:   3000,
		FullChars:    6000,
		QuickTokens:  500,
		FullTokens:   1000,
		ModelTimeout: 12 * time.Second,
	}

	// MultimodalLimits apply whenever the model reads the file by URL.
	MultimodalLimits = Limits{
		QuickTokens:  500,
		FullTokens:   1000,
		ModelTimeout: 15 * time.Second,
	}
)
