package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/tcriess/lightspeed-board/auth"
	"github.com/tcriess/lightspeed-board/roomstore"
	"github.com/tcriess/lightspeed-board/types"
)

// Handler serves the room store REST surface.
type Handler struct {
	service *roomstore.Service
	logger  hclog.Logger
}

func NewHandler(service *roomstore.Service, logger hclog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register attaches the room store routes to the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/room", h.listRooms).Methods(http.MethodGet)
	router.HandleFunc("/room/{roomId}", h.getRoom).Methods(http.MethodGet)
	router.HandleFunc("/room/{roomId}", h.createRoom).Methods(http.MethodPost)
	router.HandleFunc("/room/{roomId}/pin", h.listPinnedItems).Methods(http.MethodGet)
	router.HandleFunc("/room/{roomId}/pin", h.pinItem).Methods(http.MethodPost)
	router.HandleFunc("/room/{roomId}/pin/{itemId}", h.unpinItem).Methods(http.MethodDelete)
	router.HandleFunc("/room/{roomId}/pin/{itemId}", h.moveItem).Methods(http.MethodPatch)
	router.HandleFunc("/room/{roomId}/pinned-background", h.pinnedBackground).Methods(http.MethodGet)
}

// errBadRequest marks malformed request bodies. It never leaves the package.
var errBadRequest = errors.New("bad request")

func statusForError(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, roomstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, roomstore.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, roomstore.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, roomstore.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, roomstore.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForError(err))
	_ = json.NewEncoder(w).Encode(types.FetchResult{IsSuccessful: false, Message: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("could not encode response", "error", err)
	}
}

func (h *Handler) writeOk(w http.ResponseWriter) {
	h.writeJSON(w, types.FetchResult{IsSuccessful: true})
}

// wallet authenticates the request's wallet credentials; invalid credentials
// are treated as anonymous after a log line, exactly like an absent wallet.
func (h *Handler) wallet(r *http.Request) string {
	address, err := auth.FromRequest(r)
	if err != nil {
		h.logger.Debug("wallet authentication failed", "error", err)
		return ""
	}
	return address
}
