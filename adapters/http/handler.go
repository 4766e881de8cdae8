package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/model-compare/adapters/render"
	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/usecase"
	"github.com/satriahrh/model-compare/utils/log"
)

type CompareHandler struct {
	svc      *usecase.CompareService
	renderer *render.Renderer
	hasher   domain.Hasher
}

type MessageRequest struct {
	Content string `json:"content" form:"content"`
}

type ClearResponse struct {
	Pending bool `json:"pending"`
	Turns   int  `json:"turns"`
}

func NewCompareHandler(svc *usecase.CompareService, renderer *render.Renderer, hasher domain.Hasher) *CompareHandler {
	return &CompareHandler{
		svc:      svc,
		renderer: renderer,
		hasher:   hasher,
	}
}

// Register mounts the page, form and JSON routes.
func (h *CompareHandler) Register(e *echo.Echo) {
	e.GET("/", h.Page)
	e.POST("/messages", h.SubmitMessage)
	e.POST("/settings", h.SubmitSettings)
	e.POST("/history/clear", h.RequestClear)
	e.POST("/history/clear/confirm", h.ConfirmClear)
	e.POST("/history/clear/cancel", h.CancelClear)

	api := e.Group("/api/v1")
	api.GET("/health", h.HealthCheck)
	api.GET("/models", h.ListModels)
	api.GET("/turns", h.ListTurns)
	api.POST("/messages", h.CreateMessage)
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.PutSettings)
	api.POST("/history/clear", h.APIRequestClear)
	api.POST("/history/clear/confirm", h.APIConfirmClear)
	api.DELETE("/history/clear", h.APICancelClear)
}

// Page redraws the whole conversation. The ETag is a hash of the body, so an
// unchanged store answers 304.
func (h *CompareHandler) Page(c echo.Context) error {
	body, err := h.renderer.PageBytes(h.svc.State())
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("rendering page", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to render page")
	}

	etag := h.hasher.Hash(body)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.HTMLBlob(http.StatusOK, body)
}

func (h *CompareHandler) SubmitMessage(c echo.Context) error {
	if _, err := h.dispatch(c.Request().Context(), c.FormValue("content")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *CompareHandler) SubmitSettings(c echo.Context) error {
	settings, err := parseSettingsForm(c)
	if err != nil {
		return err
	}
	if err := h.svc.UpdateSettings(c.Request().Context(), settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *CompareHandler) RequestClear(c echo.Context) error {
	h.svc.RequestClear(c.Request().Context())
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *CompareHandler) ConfirmClear(c echo.Context) error {
	if err := h.confirmClear(c.Request().Context()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *CompareHandler) CancelClear(c echo.Context) error {
	h.svc.CancelClear()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *CompareHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "model-compare",
	})
}

func (h *CompareHandler) ListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Models())
}

func (h *CompareHandler) ListTurns(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Turns())
}

func (h *CompareHandler) CreateMessage(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	turn, err := h.dispatch(c.Request().Context(), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, turn)
}

func (h *CompareHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Settings())
}

// PutSettings applies a partial update; omitted fields keep their values.
func (h *CompareHandler) PutSettings(c echo.Context) error {
	settings := h.svc.Settings()
	if err := c.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := h.svc.UpdateSettings(c.Request().Context(), settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.Settings())
}

func (h *CompareHandler) APIRequestClear(c echo.Context) error {
	pending := h.svc.RequestClear(c.Request().Context())
	return c.JSON(http.StatusAccepted, ClearResponse{Pending: pending, Turns: len(h.svc.Turns())})
}

func (h *CompareHandler) APIConfirmClear(c echo.Context) error {
	if err := h.confirmClear(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ClearResponse{Turns: len(h.svc.Turns())})
}

func (h *CompareHandler) APICancelClear(c echo.Context) error {
	h.svc.CancelClear()
	return c.JSON(http.StatusOK, ClearResponse{Pending: h.svc.ClearPending(), Turns: len(h.svc.Turns())})
}

func (h *CompareHandler) dispatch(ctx context.Context, content string) (domain.Turn, error) {
	turn, err := h.svc.Dispatch(ctx, content)
	if errors.Is(err, domain.ErrEmptyPrompt) {
		return domain.Turn{}, echo.NewHTTPError(http.StatusBadRequest, "Prompt is missing or empty")
	}
	if err != nil {
		log.WithCtx(ctx).Error("dispatching prompt", zap.Error(err))
		return domain.Turn{}, echo.NewHTTPError(http.StatusInternalServerError, "Failed to dispatch prompt")
	}
	return turn, nil
}

func (h *CompareHandler) confirmClear(ctx context.Context) error {
	err := h.svc.ConfirmClear(ctx)
	if errors.Is(err, domain.ErrClearNotRequested) {
		return echo.NewHTTPError(http.StatusConflict, "Clear history was not requested")
	}
	return err
}

func parseSettingsForm(c echo.Context) (domain.Settings, error) {
	settings := domain.Settings{SystemMessage: c.FormValue("system_message")}
	raw := strings.TrimSpace(c.FormValue("temperature"))
	temperature, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.Settings{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid temperature")
	}
	// Browsers may submit 0.7500000001 style values from a range input.
	settings.Temperature = roundToStep(temperature)
	return settings, nil
}

func roundToStep(v float64) float64 {
	return math.Round(v/domain.TemperatureStep) * domain.TemperatureStep
}
