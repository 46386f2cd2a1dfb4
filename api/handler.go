package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/podscribe/audio"
	"github.com/kbukum/podscribe/auth"
	"github.com/kbukum/podscribe/episode"
	"github.com/kbukum/podscribe/errors"
	"github.com/kbukum/podscribe/history"
	"github.com/kbukum/podscribe/logger"
	"github.com/kbukum/podscribe/orchestrator"
	"github.com/kbukum/podscribe/server"
	"github.com/kbukum/podscribe/server/middleware"
	"github.com/kbukum/podscribe/sse"
	"github.com/kbukum/podscribe/util"
	"github.com/kbukum/podscribe/validation"
)

// Transcriber is the part of *orchestrator.Orchestrator the API drives.
type Transcriber interface {
	Start(ctx context.Context, ep episode.Episode, src audio.Source) (*orchestrator.Run, error)
	State() orchestrator.State
	CancelCurrent() (string, bool)
}

// HistoryReader is the read side of *history.Store.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Run, error)
	Get(ctx context.Context, runID string) (*history.Run, error)
}

// SourceFactory turns an audio URL into a lazily fetched source.
// *episode.Downloader implements it.
type SourceFactory interface {
	Source(url string) audio.Source
}

// Options carries the collaborators of a Handler.
type Options struct {
	Runs    Transcriber
	History HistoryReader // nil when history is disabled
	Hub     *sse.Hub
	Sources SourceFactory
	Logger  *logger.Logger
}

// Handler serves the /api/v1 routes.
type Handler struct {
	// base outlives individual requests; runs are bound to it, not to the
	// request that started them.
	base    context.Context
	runs    Transcriber
	history HistoryReader
	hub     *sse.Hub
	sources SourceFactory
	log     *logger.Logger
}

// NewHandler creates a Handler. base governs every run it starts.
func NewHandler(base context.Context, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Get("api")
	}
	return &Handler{
		base:    base,
		runs:    opts.Runs,
		history: opts.History,
		hub:     opts.Hub,
		sources: opts.Sources,
		log:     log,
	}
}

// Register mounts the routes on rg.
func (h *Handler) Register(rg gin.IRoutes) {
	rg.POST("/transcriptions", middleware.RequireWrite(), h.startTranscription)
	rg.GET("/transcriptions/current", h.currentTranscription)
	rg.DELETE("/transcriptions/current", middleware.RequireWrite(), h.cancelTranscription)
	rg.GET("/transcriptions/history", h.listHistory)
	rg.GET("/transcriptions/history/:run_id", h.getHistory)
	rg.GET("/events", h.events)
}

// TranscribeRequest is the body of POST /transcriptions. AudioURL may be
// omitted when Episode.AudioURL is set.
type TranscribeRequest struct {
	Episode  episode.Episode `json:"episode"`
	AudioURL string          `json:"audio_url" validate:"omitempty,http_url"`
}

// StartedResponse is returned with 202 for an accepted run.
type StartedResponse struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
}

// SkippedResponse is returned with 200 when the episode already has a
// transcript.
type SkippedResponse struct {
	Status  string `json:"status"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// StatusAlreadyTranscribed is the status of a SkippedResponse.
const StatusAlreadyTranscribed = "already_transcribed"

func (h *Handler) startTranscription(c *gin.Context) {
	var req TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	url := strings.TrimSpace(req.AudioURL)
	if url == "" {
		url = strings.TrimSpace(req.Episode.AudioURL)
	}
	if url == "" {
		server.RespondWithError(c, errors.InvalidInput("audio_url", "audio_url or episode.audio_url is required"))
		return
	}
	ep := req.Episode
	ep.AudioURL = url

	run, err := h.runs.Start(h.base, ep, h.sources.Source(url))
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeAlreadyTranscribed {
			path, _ := appErr.Details["path"].(string)
			server.RespondOK(c, SkippedResponse{
				Status:  StatusAlreadyTranscribed,
				Path:    path,
				Message: appErr.Message,
			})
			return
		}
		server.RespondWithError(c, err)
		return
	}

	fields := logger.Fields("run_id", run.ID, "title", ep.Title, "podcast", ep.Podcast)
	if sub := c.GetString("subject"); sub != "" {
		fields["subject"] = sub
	}
	h.log.Info("transcription accepted", fields)
	server.RespondAccepted(c, StartedResponse{RunID: run.ID, Path: run.Path})
}

func (h *Handler) currentTranscription(c *gin.Context) {
	server.RespondOK(c, h.runs.State())
}

func (h *Handler) cancelTranscription(c *gin.Context) {
	id, ok := h.runs.CancelCurrent()
	if !ok {
		server.RespondWithError(c, errors.NotFound("transcription", "current"))
		return
	}
	h.log.Info("transcription cancel requested", logger.Fields("run_id", id))
	server.RespondAccepted(c, gin.H{"run_id": id, "status": "cancelling"})
}

func (h *Handler) listHistory(c *gin.Context) {
	if h.history == nil {
		server.RespondWithError(c, errors.NotFound("history", "disabled"))
		return
	}
	limit := history.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			server.RespondWithError(c, errors.InvalidInput("limit", "must be between 1 and 500"))
			return
		}
		limit = n
	}
	runs, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOKWithMeta(c, runs, &server.Meta{Limit: limit, Total: len(runs)})
}

func (h *Handler) getHistory(c *gin.Context) {
	if h.history == nil {
		server.RespondWithError(c, errors.NotFound("history", "disabled"))
		return
	}
	id, err := util.ValidateUUID("run_id", c.Param("run_id"))
	if err != nil {
		server.RespondWithError(c, errors.InvalidInput("run_id", err.Error()))
		return
	}
	run, err := h.history.Get(c.Request.Context(), id.String())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, run)
}

func (h *Handler) events(c *gin.Context) {
	var opts []sse.ClientOption
	if claims, ok := auth.ClaimsFromContext(c.Request.Context()); ok {
		opts = append(opts, sse.WithSubject(claims.Subject))
	}
	if id := c.GetString("request_id"); id != "" {
		opts = append(opts, sse.WithMetadata("request_id", id))
	}
	sse.ServeSSE(h.hub, c.Writer, c.Request, uuid.NewString(), opts...)
}
