package main

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/phrazzld/scry-summarizer/internal/api"
	"github.com/phrazzld/scry-summarizer/internal/domain"
	"github.com/phrazzld/scry-summarizer/internal/service"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

type startAnalysisInput struct {
	FileURL         string `json:"fileUrl" jsonschema:"absolute http or https URL of the document"`
	FileType        string `json:"fileType,omitempty" jsonschema:"declared file type such as pdf, docx or png"`
	IsFullAnalysis  bool   `json:"isFullAnalysis,omitempty" jsonschema:"request a longer, more detailed summary"`
	ExistingSummary string `json:"existingSummary,omitempty" jsonschema:"earlier summary to extend in full analysis mode"`
	TaskID          string `json:"taskId,omitempty" jsonschema:"caller chosen task id, generated when empty"`
}

type checkResultInput struct {
	TaskID string `json:"taskId" jsonschema:"id returned by startAnalysis"`
}

func mcpAction(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(c.Context)
	runCtx, stop := context.WithCancel(ctx)
	g.Go(func() error {
		return a.Run(runCtx)
	})
	g.Go(func() error {
		// the session ends when the client closes stdin
		defer stop()
		return newMCPServer(a.Service).Run(ctx, &mcp.StdioTransport{})
	})
	return g.Wait()
}

// newMCPServer exposes the start/poll protocol as two tools.
func newMCPServer(svc service.AnalysisService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "docsum", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "startAnalysis",
		Description: "Start summarizing a document. Returns a task id immediately; " +
			"poll checkResult about every 4 seconds until the status is Completed or Failed.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in startAnalysisInput) (*mcp.CallToolResult, api.StartAnalysisResponse, error) {
		taskID, err := svc.StartAnalysis(ctx, domain.AnalysisRequest{
			FileURL:         in.FileURL,
			FileType:        in.FileType,
			IsFullAnalysis:  in.IsFullAnalysis,
			ExistingSummary: in.ExistingSummary,
		}, in.TaskID)
		if err != nil {
			return nil, api.StartAnalysisResponse{}, errors.New(api.GetSafeErrorMessage(err))
		}
		return nil, api.StartAnalysisResponse{
			Success: true,
			TaskID:  taskID,
			Message: service.StartedMessage,
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkResult",
		Description: "Report the status of an analysis task and its summary once Completed.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in checkResultInput) (*mcp.CallToolResult, api.CheckResultResponse, error) {
		t, err := svc.CheckResult(ctx, in.TaskID)
		if err != nil {
			return nil, api.CheckResultResponse{}, errors.New(api.GetSafeErrorMessage(err))
		}
		return nil, api.TaskResponse(t), nil
	})

	return server
}
