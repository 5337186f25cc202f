package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/th3rrry/minees/internal/market"
	"github.com/th3rrry/minees/internal/model"
	"github.com/th3rrry/minees/internal/recorder"
)

const (
	banner         = "Trading Signals Server is running!"
	waitingMessage = "Signal will be available on next update cycle"
)

// SignalReader is the read side of the signal store.
type SignalReader interface {
	Get(pair string) (model.Signal, bool)
	Snapshot() []model.Signal
}

// ProviderStats reports journalled provider health.
type ProviderStats interface {
	Stats(ctx context.Context, since time.Time) ([]recorder.ProviderStat, error)
}

// Handler serves the read API. It never triggers generation.
type Handler struct {
	store     SignalReader
	board     *market.Board
	providers ProviderStats
	socket    http.Handler
	now       func() time.Time
}

func NewHandler(store SignalReader, board *market.Board, providers ProviderStats, socket http.Handler) *Handler {
	return &Handler{store: store, board: board, providers: providers, socket: socket, now: time.Now}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.health)
	e.GET("/healthz", h.health)
	if h.socket != nil {
		e.GET("/ws", echo.WrapHandler(h.socket))
	}

	api := e.Group("/api")
	api.GET("/signals", h.listSignals)
	api.GET("/signals/:pair", h.getSignal)
	api.GET("/markets", h.markets)
	api.GET("/providers", h.providerStats)
}

func (h *Handler) health(c echo.Context) error {
	return c.String(http.StatusOK, banner)
}

func (h *Handler) listSignals(c echo.Context) error {
	return dataResponse(c, http.StatusOK, h.store.Snapshot())
}

type signalRequest struct {
	Pair string `param:"pair" validate:"required,min=6,max=16"`
}

type waitingNotice struct {
	Pair    string `json:"pair"`
	Message string `json:"message"`
}

// getSignal returns the held signal, or 202 with the waiting notice when the
// instrument has not been generated yet.
func (h *Handler) getSignal(c echo.Context) error {
	var req signalRequest
	if errs := bindRequest(c, &req); errs != nil {
		return dataResponse(c, http.StatusBadRequest, errs)
	}
	pair := strings.ToUpper(req.Pair)
	if sig, ok := h.store.Get(pair); ok {
		return dataResponse(c, http.StatusOK, sig)
	}
	return dataResponse(c, http.StatusAccepted, waitingNotice{Pair: pair, Message: waitingMessage})
}

func (h *Handler) markets(c echo.Context) error {
	return dataResponse(c, http.StatusOK, h.board.All())
}

type providersRequest struct {
	Minutes int `query:"minutes" default:"60" validate:"min=1,max=10080"`
}

func (h *Handler) providerStats(c echo.Context) error {
	var req providersRequest
	if errs := bindRequest(c, &req); errs != nil {
		return dataResponse(c, http.StatusBadRequest, errs)
	}
	if h.providers == nil {
		return dataResponse(c, http.StatusOK, []recorder.ProviderStat{})
	}
	since := h.now().Add(-time.Duration(req.Minutes) * time.Minute)
	stats, err := h.providers.Stats(c.Request().Context(), since)
	if err != nil {
		return dataResponse(c, http.StatusInternalServerError, []ValidationError{{Code: "ERR_JOURNAL", Message: err.Error()}})
	}
	return dataResponse(c, http.StatusOK, stats)
}
