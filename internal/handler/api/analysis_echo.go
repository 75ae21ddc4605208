package api

import (
	"errors"
	"net/http"
	"time"

	models "StratLab/internal/domain/models"
	svcmetrics "StratLab/internal/service/metrics"
	"StratLab/internal/service/ratelimit"
	"StratLab/internal/usecase"
	xhttp "StratLab/pkg/http"
	xlogger "StratLab/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	watchWriteWait = 5 * time.Second
	watchPongWait  = 60 * time.Second
)

// AnalysisEchoHandler serves the analysis endpoints under /api.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	svc      *usecase.AnalysisService
	uploads  *usecase.Uploads
	limiter  *ratelimit.Limiter
	metrics  *svcmetrics.WatchMetrics
	interval time.Duration
	pongWait time.Duration
	upgrader websocket.Upgrader
}

// NewAnalysisEchoHandler creates the handler. A nil limiter disables rate
// limiting on submission.
func NewAnalysisEchoHandler(
	logger *xlogger.Logger,
	svc *usecase.AnalysisService,
	uploads *usecase.Uploads,
	limiter *ratelimit.Limiter,
	metrics *svcmetrics.WatchMetrics,
	watchInterval time.Duration,
) *AnalysisEchoHandler {
	if watchInterval <= 0 {
		watchInterval = time.Second
	}
	return &AnalysisEchoHandler{
		logger:   xlogger.OrNop(logger).Component("analysis_api"),
		svc:      svc,
		uploads:  uploads,
		limiter:  limiter,
		metrics:  metrics,
		interval: watchInterval,
		pongWait: watchPongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/uploads", h.Upload)
	g.POST("/analysis/run", h.Run)
	g.POST("/analysis", h.Submit)
	g.GET("/analysis/:id", h.Status)
	g.GET("/analysis/:id/watch", h.Watch)
	g.POST("/data/probe", h.Probe)
}

func (h *AnalysisEchoHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_REQUIRED", "file", "file is required", http.StatusBadRequest))
	}
	src, err := fh.Open()
	if err != nil {
		h.logger.Error("open upload", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("cannot read upload"))
	}
	defer src.Close()

	info, err := h.uploads.Save(fh.Filename, src)
	if err != nil {
		return h.fail(c, "upload", err)
	}
	return xhttp.CreatedResponse(c, info)
}

func (h *AnalysisEchoHandler) Run(c echo.Context) error {
	req := &models.RunAnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.svc.RunSync(c.Request().Context(), req.Path, req.Params)
	if err != nil {
		return h.fail(c, "run", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Submit(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		h.reject("rate_limited")
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many submissions, retry later"))
	}

	req := &models.RunAnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	task, err := h.svc.Submit(c.Request().Context(), req.Path, req.Params)
	if err != nil {
		return h.fail(c, "submit", err)
	}
	return xhttp.AcceptedResponse(c, task)
}

func (h *AnalysisEchoHandler) Status(c echo.Context) error {
	task, err := h.svc.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "status", err)
	}
	return xhttp.SuccessResponse(c, task)
}

// Watch pushes the task as JSON every interval until it is terminal or the
// client goes away. Unknown tasks are refused before the upgrade. The
// connection is pinged every 9/10 of the pong wait so a client that only
// listens keeps its read deadline alive.
func (h *AnalysisEchoHandler) Watch(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	task, err := h.svc.Status(ctx, id)
	if err != nil {
		return h.fail(c, "watch", err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()
	if h.metrics != nil {
		h.metrics.Active.Inc()
		defer h.metrics.Active.Dec()
	}

	// The reader only watches for the client closing the socket.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	pinger := time.NewTicker(h.pongWait * 9 / 10)
	defer pinger.Stop()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
		if err := conn.WriteJSON(task); err != nil {
			h.logger.Debug("watch write failed", xlogger.String("task_id", id), xlogger.Error(err))
			return nil
		}
		if h.metrics != nil {
			h.metrics.Pushed.Inc()
		}
		if task.State.Terminal() {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(task.State)),
				time.Now().Add(watchWriteWait))
			return nil
		}

	wait:
		for {
			select {
			case <-gone:
				return nil
			case <-ctx.Done():
				return nil
			case <-pinger.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(watchWriteWait)); err != nil {
					h.logger.Debug("watch ping failed", xlogger.String("task_id", id), xlogger.Error(err))
					return nil
				}
			case <-ticker.C:
				break wait
			}
		}

		next, err := h.svc.Status(ctx, id)
		if err != nil {
			h.logger.Warn("watch lookup failed", xlogger.String("task_id", id), xlogger.Error(err))
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "task unavailable"),
				time.Now().Add(watchWriteWait))
			return nil
		}
		task = next
	}
}

func (h *AnalysisEchoHandler) Probe(c echo.Context) error {
	req := &models.ProbeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.svc.Probe(req.Path, req.Sample))
}

func (h *AnalysisEchoHandler) reject(reason string) {
	if h.metrics != nil {
		h.metrics.Rejected.WithLabelValues(reason).Inc()
	}
}

// fail maps a service error onto the response envelope.
func (h *AnalysisEchoHandler) fail(c echo.Context, op string, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.Is(err, usecase.ErrInvalidPath):
		appErr = xhttp.NewAppError("ERR_INVALID_PATH", "path", err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrExtensionNotAllowed):
		appErr = xhttp.NewAppError("ERR_EXTENSION", "path", err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidParams):
		appErr = xhttp.NewAppError("ERR_INVALID_PARAMS", "params", err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrUploadTooLarge):
		appErr = xhttp.PayloadTooLargeError(err.Error())
	case errors.Is(err, models.ErrSourceNotFound):
		appErr = xhttp.NotFoundError("data file not found")
	case errors.Is(err, models.ErrTaskNotFound):
		appErr = xhttp.NotFoundErrorf("task %q not found", c.Param("id"))
	default:
		h.logger.Error(op+" failed", xlogger.Error(err))
		appErr = xhttp.InternalError("Something went wrong")
	}
	if appErr.Status < http.StatusInternalServerError {
		h.reject(appErr.Code)
	}
	return xhttp.AppErrorResponse(c, appErr.WithError(err))
}
