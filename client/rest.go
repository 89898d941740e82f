// Package client provides the Go client of the board server: the room store
// REST surface plus the realtime websocket session.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tcriess/lightspeed-board/auth"
	"github.com/tcriess/lightspeed-board/types"
)

// Credentials identify a wallet towards the server. Zero value means
// anonymous access.
type Credentials struct {
	Address   string
	Signature string
}

// RestClient talks to the room store HTTP endpoints.
type RestClient struct {
	BaseURL     string
	Credentials Credentials
	HTTPClient  *http.Client
}

func NewRestClient(baseURL string, credentials Credentials) *RestClient {
	return &RestClient{
		BaseURL:     baseURL,
		Credentials: credentials,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs an HTTP request and decodes the error envelope on
// non-2xx replies.
func (c *RestClient) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Credentials.Address != "" {
		req.Header.Set(auth.HeaderWalletAddress, c.Credentials.Address)
		req.Header.Set(auth.HeaderWalletSignature, c.Credentials.Signature)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		result := types.FetchResult{}
		_ = json.Unmarshal(respBody, &result)
		if result.Message != "" {
			return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, result.Message)
		}
		return nil, fmt.Errorf("server error %d", resp.StatusCode)
	}

	return respBody, nil
}

// GetRoom fetches one room document.
func (c *RestClient) GetRoom(roomId string) (*types.Room, error) {
	respBody, err := c.doRequest(http.MethodGet, "/room/"+roomId, nil)
	if err != nil {
		return nil, err
	}
	room := types.Room{}
	if err := json.Unmarshal(respBody, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms fetches all room documents.
func (c *RestClient) ListRooms() ([]*types.Room, error) {
	respBody, err := c.doRequest(http.MethodGet, "/room", nil)
	if err != nil {
		return nil, err
	}
	rooms := []*types.Room{}
	if err := json.Unmarshal(respBody, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

type createRoomRequest struct {
	IsLocked        bool   `json:"isLocked,omitempty"`
	ContractAddress string `json:"contractAddress,omitempty"`
}

// CreateRoom creates a room; locked rooms require wallet credentials.
func (c *RestClient) CreateRoom(roomId string, isLocked bool, contractAddress string) error {
	body, err := json.Marshal(createRoomRequest{IsLocked: isLocked, ContractAddress: contractAddress})
	if err != nil {
		return err
	}
	_, err = c.doRequest(http.MethodPost, "/room/"+roomId, body)
	return err
}

type pinItemRequest struct {
	Item types.PinnedItem `json:"item"`
}

// PinItem persists a pinned item; positions are viewport fractions.
func (c *RestClient) PinItem(roomId string, item *types.PinnedItem) error {
	body, err := json.Marshal(pinItemRequest{Item: *item})
	if err != nil {
		return err
	}
	_, err = c.doRequest(http.MethodPost, "/room/"+roomId+"/pin", body)
	return err
}

// UnpinItem removes a pinned item; unpinning an absent key succeeds.
func (c *RestClient) UnpinItem(roomId, docKey string) error {
	_, err := c.doRequest(http.MethodDelete, "/room/"+roomId+"/pin/"+docKey, nil)
	return err
}

// MoveItem updates only the stored position of a pinned item.
func (c *RestClient) MoveItem(roomId, docKey string, top, left float64) error {
	body, err := json.Marshal(pinItemRequest{Item: types.PinnedItem{Key: docKey, Top: top, Left: left}})
	if err != nil {
		return err
	}
	_, err = c.doRequest(http.MethodPatch, "/room/"+roomId+"/pin/"+docKey, body)
	return err
}

// PinnedItems lists the persisted decorations of a room.
func (c *RestClient) PinnedItems(roomId string) ([]*types.PinnedItem, error) {
	respBody, err := c.doRequest(http.MethodGet, "/room/"+roomId+"/pin", nil)
	if err != nil {
		return nil, err
	}
	items := []*types.PinnedItem{}
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// PinnedBackground fetches the persisted background of a room.
func (c *RestClient) PinnedBackground(roomId string) (*types.BackgroundData, error) {
	respBody, err := c.doRequest(http.MethodGet, "/room/"+roomId+"/pinned-background", nil)
	if err != nil {
		return nil, err
	}
	background := types.BackgroundData{}
	if err := json.Unmarshal(respBody, &background); err != nil {
		return nil, err
	}
	return &background, nil
}
