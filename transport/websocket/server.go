package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
	"github.com/rocketscienceinc/bingo-backend/internal/relay"
)

const (
	disconnectTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
	internalErrorText = "internal error"
)

// rejections are the errors whose text is safe to show to the participant.
var rejections = []error{
	apperror.ErrRoomNotFound,
	apperror.ErrRoomFull,
	apperror.ErrNotInRoom,
	apperror.ErrAlreadyInRoom,
	apperror.ErrInvalidName,
	apperror.ErrGameFinished,
	apperror.ErrGameIsNotStarted,
	apperror.ErrGameNotFinished,
	apperror.ErrNotYourTurn,
	apperror.ErrAlreadyStruck,
	apperror.ErrNumberNotOnBoard,
	apperror.ErrInvalidTossChoice,
	apperror.ErrNotTossCaller,
	apperror.ErrTossNotPending,
	relay.ErrUnknownAction,
	relay.ErrInvalidPayload,
}

type roomDispatcher interface {
	Dispatch(ctx context.Context, handle string, cmd relay.Command) error
	Disconnect(ctx context.Context, handle string) error
}

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	rooms    roomDispatcher
	upgrader ws.Upgrader
}

func New(logger *slog.Logger, hub *Hub, rooms roomDispatcher) *Server {
	return &Server{
		logger: logger.With("component", "websocket"),
		hub:    hub,
		rooms:  rooms,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

func (that *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/ws", that.serveWS)

	return router
}

// Start - serves the relay on port until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		that.hub.CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(pkg.GenerateSessionID(), conn)
	that.hub.register(c)

	log = log.With("handle", c.handle)
	log.Info("client connected")

	go c.writePump()
	that.readPump(r.Context(), c)

	that.hub.unregister(c)
	c.close()

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err = that.rooms.Disconnect(ctx, c.handle); err != nil {
		log.Error("failed to release client", "error", err)
	}

	log.Info("client disconnected")
}

func (that *Server) readPump(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				that.logger.Warn("unexpected close", "handle", c.handle, "error", err)
			}
			return
		}

		that.handleMessage(ctx, c.handle, data)
	}
}

func (that *Server) handleMessage(ctx context.Context, handle string, data []byte) {
	log := that.logger.With("method", "handleMessage", "handle", handle)

	cmd, err := relay.Decode(data)
	if err == nil {
		err = that.rooms.Dispatch(ctx, handle, cmd)
	}

	if err == nil {
		return
	}

	text := errorText(err)
	if text == internalErrorText {
		log.Error("failed to handle message", "error", err)
	} else {
		log.Info("message rejected", "error", err)
	}

	that.hub.Publish(handle, relay.ErrorMessage{Text: text})
}

func errorText(err error) string {
	for _, rejection := range rejections {
		if errors.Is(err, rejection) {
			return rejection.Error()
		}
	}

	return internalErrorText
}
