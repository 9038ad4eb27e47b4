package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/phrazzld/scry-summarizer/internal/api"
	"github.com/phrazzld/scry-summarizer/internal/domain"
	"github.com/phrazzld/scry-summarizer/internal/service"
	"github.com/urfave/cli/v2"
)

func summarizeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("summarize takes exactly one file URL", 2)
	}
	req := domain.AnalysisRequest{
		FileURL:         c.Args().First(),
		FileType:        c.String("type"),
		IsFullAnalysis:  c.Bool("full"),
		ExistingSummary: c.String("existing-summary"),
	}

	a, err := buildApp(c)
	if err != nil {
		return err
	}
	return summarize(c.Context, a.Service, req, c.App.Writer, c.Bool("json"))
}

// summarize runs the quick path for req and writes the summary to w.
func summarize(
	ctx context.Context,
	svc service.AnalysisService,
	req domain.AnalysisRequest,
	w io.Writer,
	asJSON bool,
) error {
	result, err := svc.ProcessQuickSummary(ctx, req)
	if err != nil {
		return cli.Exit(api.GetSafeErrorMessage(err), 1)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(api.QuickSummaryResponse{
			Success:   true,
			Summary:   result.Summary,
			IsPartial: result.IsPartial,
		})
	}

	if _, err := fmt.Fprintln(w, result.Summary); err != nil {
		return err
	}
	if result.IsPartial {
		_, err = fmt.Fprintln(w, "\n(summary covers the beginning of the document only)")
	}
	return err
}
