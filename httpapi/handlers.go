package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tcriess/lightspeed-board/types"
)

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["roomId"]
	room, err := h.service.GetRoom(r.Context(), roomId, h.wallet(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, room)
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, rooms)
}

type createRoomRequest struct {
	IsLocked        bool   `json:"isLocked"`
	ContractAddress string `json:"contractAddress,omitempty"`
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["roomId"]
	req := createRoomRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("could not decode request: %v: %w", err, errBadRequest))
		return
	}
	err := h.service.CreateRoom(r.Context(), roomId, req.IsLocked, req.ContractAddress, h.wallet(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeOk(w)
}

type pinItemRequest struct {
	Item types.PinnedItem `json:"item"`
}

func (h *Handler) pinItem(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["roomId"]
	req := pinItemRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("could not decode item: %v: %w", err, errBadRequest))
		return
	}
	if err := h.service.PinItem(r.Context(), roomId, h.wallet(r), req.Item); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeOk(w)
}

func (h *Handler) unpinItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.service.UnpinItem(r.Context(), vars["roomId"], h.wallet(r), vars["itemId"]); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeOk(w)
}

func (h *Handler) listPinnedItems(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["roomId"]
	items, err := h.service.ListPinnedItems(r.Context(), roomId)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, items)
}

func (h *Handler) moveItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	req := pinItemRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("could not decode item: %v: %w", err, errBadRequest))
		return
	}
	itemId := vars["itemId"]
	if itemId == "" {
		itemId = req.Item.StoreKey()
	}
	err := h.service.MoveItem(r.Context(), vars["roomId"], h.wallet(r), itemId, req.Item.Top, req.Item.Left)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeOk(w)
}

func (h *Handler) pinnedBackground(w http.ResponseWriter, r *http.Request) {
	roomId := mux.Vars(r)["roomId"]
	data, err := h.service.PinnedBackground(r.Context(), roomId)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, types.BackgroundData{Data: data})
}
