package service

import (
	"context"
	"errors"

	"github.com/phrazzld/scry-summarizer/internal/domain"
	"github.com/phrazzld/scry-summarizer/internal/extract"
	"github.com/phrazzld/scry-summarizer/internal/generation"
)

// analyze runs extraction and summarization for req. A returned error means
// the task must be marked Failed; every other outcome, including documents
// that cannot be read, is a summary for the caller.
func (s *analysisServiceImpl) analyze(ctx context.Context, req domain.AnalysisRequest) (domain.SummaryResult, error) {
	ext := s.extractor.Extract(ctx, extract.Reference{
		URL:      req.FileURL,
		FileType: req.NormalizedFileType(),
	})

	switch ext.Action {
	case extract.ActionExplain:
		return domain.SummaryResult{Summary: ext.Explanation}, nil

	case extract.ActionSummarizeText:
		result, err := s.summarizer.SummarizeText(ctx, generation.TextRequest{
			Kind:            ext.Kind,
			Text:            ext.Result.Text,
			Full:            req.IsFullAnalysis,
			Budget:          ext.Budget(req.IsFullAnalysis),
			ExistingSummary: req.ExistingSummary,
			Truncated:       ext.Truncated,
		})
		if err == nil {
			return result, nil
		}
		if !readsAsImage(ext.Kind) || errors.Is(err, generation.ErrContentBlocked) {
			return lastResort(err)
		}
		s.logger.InfoContext(ctx, "text summary failed, retrying with multimodal model",
			"strategy", ext.Strategy,
			"error", err)
		return s.multimodal(ctx, req, ext.Kind)

	case extract.ActionMultimodal:
		return s.multimodal(ctx, req, ext.Kind)

	default:
		return domain.SummaryResult{}, errors.New("unknown extraction action " + ext.Action.String())
	}
}

func (s *analysisServiceImpl) multimodal(
	ctx context.Context,
	req domain.AnalysisRequest,
	kind generation.DocumentKind,
) (domain.SummaryResult, error) {
	result, err := s.summarizer.SummarizeMultimodal(ctx, generation.MultimodalRequest{
		Kind:    kind,
		FileURL: req.FileURL,
		Full:    req.IsFullAnalysis,
		Budget:  extract.MultimodalLimits.Budget(req.IsFullAnalysis),
	})
	if err != nil {
		return lastResort(err)
	}
	return result, nil
}

// readsAsImage reports whether the multimodal model is the next fallback for
// a document of kind after its text summary failed.
func readsAsImage(kind generation.DocumentKind) bool {
	switch kind {
	case generation.KindPDF, generation.KindWord, generation.KindSpreadsheet, generation.KindPresentation:
		return true
	default:
		return false
	}
}

// lastResort ends the cascade. A timeout or unavailable model still gives the
// caller the network explanation; anything else fails the task.
func lastResort(err error) (domain.SummaryResult, error) {
	if errors.Is(err, generation.ErrTransientFailure) {
		return domain.SummaryResult{Summary: extract.Apology(extract.CauseNetwork, "")}, nil
	}
	return domain.SummaryResult{}, err
}
