package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/skip2/go-qrcode"
)

const (
	defaultResultsLimit = 10
	maxResultsLimit     = 100
	qrSize              = 320
)

type roomFinder interface {
	GetByCode(ctx context.Context, code string) (*entity.RoomSnapshot, error)
}

type resultLister interface {
	Recent(ctx context.Context, limit int) ([]*entity.MatchResult, error)
	Wins(ctx context.Context) (map[string]int, error)
}

type handlers struct {
	logger    *slog.Logger
	rooms     roomFinder
	results   resultLister
	publicURL string
}

func newHandlers(logger *slog.Logger, rooms roomFinder, results resultLister, publicURL string) *handlers {
	return &handlers{
		logger:    logger,
		rooms:     rooms,
		results:   results,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (that *handlers) getRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snapshot, ok := that.findRoom(w, r, ps)
	if !ok {
		return
	}

	that.writeJSON(w, snapshot)
}

// getRoomQR - PNG QR code of the invite link of a live room.
func (that *handlers) getRoomQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snapshot, ok := that.findRoom(w, r, ps)
	if !ok {
		return
	}

	png, err := qrcode.Encode(that.inviteURL(snapshot.Code), qrcode.Medium, qrSize)
	if err != nil {
		that.logger.Error("failed to encode qr code", "room", snapshot.Code, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err = w.Write(png); err != nil {
		that.logger.Error("failed to write qr code", "error", err)
	}
}

func (that *handlers) listResults(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}

		limit = min(n, maxResultsLimit)
	}

	results, err := that.results.Recent(r.Context(), limit)
	if err != nil {
		that.logger.Error("failed to list results", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, results)
}

func (that *handlers) leaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	wins, err := that.results.Wins(r.Context())
	if err != nil {
		that.logger.Error("failed to get wins", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, wins)
}

func (that *handlers) findRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (*entity.RoomSnapshot, bool) {
	code := strings.ToUpper(ps.ByName("code"))

	snapshot, err := that.rooms.GetByCode(r.Context(), code)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		http.Error(w, apperror.ErrRoomNotFound.Error(), http.StatusNotFound)
		return nil, false
	}

	if err != nil {
		that.logger.Error("failed to get room", "room", code, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}

	return snapshot, true
}

func (that *handlers) inviteURL(code string) string {
	return that.publicURL + "/?room=" + url.QueryEscape(code)
}

func (that *handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
