// Package httpapi serves the report page, the editing actions and the
// exports over HTTP on the local machine.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/gyeh/sonobill/internal/export"
	"github.com/gyeh/sonobill/internal/session"
)

// Handler exposes one Session. The session is not safe for concurrent
// use, so every handler holds mu while it touches it.
type Handler struct {
	mu   sync.Mutex
	sess *session.Session
	pipe *export.Pipeline
	log  zerolog.Logger
	now  func() time.Time
}

func NewHandler(sess *session.Session, pipe *export.Pipeline, log zerolog.Logger) *Handler {
	return &Handler{sess: sess, pipe: pipe, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Page)

	api := e.Group("/api")
	api.GET("/state", h.GetState)
	api.GET("/valuation", h.GetValuation)

	api.POST("/entries", h.CreateEntry)
	api.PATCH("/entries/:id", h.UpdateEntry)
	api.DELETE("/entries/:id", h.DeleteEntry)
	api.POST("/entries/:id/duplicate", h.DuplicateEntry)
	api.DELETE("/entries", h.ClearEntries)

	api.PUT("/prices/:unit", h.SetPrice)
	api.DELETE("/prices", h.ResetPrices)

	api.GET("/clinics", h.ListClinics)
	api.POST("/clinics", h.CreateClinic)

	api.PUT("/selection", h.SetSelection)

	e.GET("/export/:format", h.Export)
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(h *Handler, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(log))
	e.Use(echomw.RequestID())
	e.Use(Logger(log))
	e.Use(echomw.BodyLimit("1M"))

	h.RegisterRoutes(e)
	return e
}

// Serve runs e on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
