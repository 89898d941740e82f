package types

// FetchResult is the uniform response envelope of the room store HTTP
// surface.
type FetchResult struct {
	IsSuccessful bool   `json:"isSuccessful"`
	Message      string `json:"message,omitempty"`
}

// BackgroundData is the reply of the pinned-background read: the background
// image name for image backgrounds, the map payload for map backgrounds.
type BackgroundData struct {
	Data interface{} `json:"data"`
}
