package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger   *slog.Logger
	handlers *handlers
}

func New(logger *slog.Logger, rooms roomFinder, results resultLister, publicURL string) *Server {
	logger = logger.With("component", "rest")

	return &Server{
		logger:   logger,
		handlers: newHandlers(logger, rooms, results, publicURL),
	}
}

func (that *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/ping", pingHandler)
	router.GET("/rooms/:code", that.handlers.getRoom)
	router.GET("/rooms/:code/qr", that.handlers.getRoomQR)
	router.GET("/results", that.handlers.listResults)
	router.GET("/leaderboard", that.handlers.leaderboard)

	return router
}

// Start - serves the REST API on port until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down http server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
