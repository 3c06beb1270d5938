package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alde1022/spatix/internal/intake"
	"github.com/alde1022/spatix/internal/logging"
)

// AnalyzeHandler forwards uploaded geometry files to the analyzer service.
type AnalyzeHandler struct {
	svc *Services
}

func NewAnalyzeHandler(svc *Services) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

func (h *AnalyzeHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/analyze", h.Analyze, huma.OperationTags("intake"))
	huma.Get(api, "/api/capabilities", h.Capabilities, huma.OperationTags("intake"))
}

type AnalyzeFormData struct {
	File huma.FormFile `form:"file" contentType:"application/octet-stream" required:"true"`
}

type AnalyzeInput struct {
	RawBody huma.MultipartFormFiles[AnalyzeFormData]
}

type AnalyzeOutput struct {
	Body struct {
		Analysis *intake.AnalysisResult `json:"analysis" doc:"Analyzer report for the uploaded file"`
		Filename string                 `json:"filename" doc:"Original filename"`
	}
}

func (h *AnalyzeHandler) Analyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error) {
	if h.svc.Intake == nil {
		return nil, huma.Error503ServiceUnavailable("file analysis is not configured")
	}

	form := input.RawBody.Data()
	if !form.File.IsSet {
		return nil, huma.Error400BadRequest("no file provided")
	}
	if form.File.Size > intake.MaxUploadBytes {
		return nil, huma.NewError(http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
	}

	result, err := h.svc.Intake.Submit(ctx, form.File.Filename, form.File)
	if err != nil {
		if errors.Is(err, intake.ErrUnsupportedFormat) {
			return nil, huma.Error415UnsupportedMediaType(err.Error())
		}
		var analyzerErr *intake.AnalyzerError
		if errors.As(err, &analyzerErr) {
			return nil, huma.Error422UnprocessableEntity(analyzerErr.Detail)
		}
		log := logging.Component("api")
		log.Error().Err(err).Str("filename", form.File.Filename).Msg("analysis failed")
		return nil, huma.Error502BadGateway("analyzer unavailable")
	}

	out := &AnalyzeOutput{}
	out.Body.Analysis = result
	out.Body.Filename = form.File.Filename
	return out, nil
}

type CapabilitiesOutput struct {
	Body struct {
		Formats []intake.Capability `json:"formats" doc:"Accepted upload formats"`
	}
}

func (h *AnalyzeHandler) Capabilities(ctx context.Context, input *struct{}) (*CapabilitiesOutput, error) {
	out := &CapabilitiesOutput{}
	out.Body.Formats = intake.Capabilities()
	return out, nil
}
