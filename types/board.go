package types

import "time"

// Ephemeral board items. Shape matches the pinned items, but these live only
// in client memory and self-remove after their display timeout unless they
// are pinned in time.

// EmojiDict is one entry of the emoji palette. Speed optionally overrides the
// display timeout so all peers animate the burst at the same pace.
type EmojiDict struct {
	Name  string `json:"name" mapstructure:"name"`
	Url   string `json:"url,omitempty" mapstructure:"url"`
	Speed int    `json:"speed,omitempty" mapstructure:"speed"` // milliseconds
}

type Emoji struct {
	Top       float64   `json:"top"`
	Left      float64   `json:"left"`
	Key       string    `json:"key"`
	Dict      EmojiDict `json:"dict"`
	ExpiresAt time.Time `json:"-"`
}

type MusicNote struct {
	Top       float64   `json:"top"`
	Left      float64   `json:"left"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"-"`
}

type ChatMessage struct {
	Top        float64   `json:"top"`
	Left       float64   `json:"left"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	IsCentered bool      `json:"isCentered,omitempty"`
	ExpiresAt  time.Time `json:"-"`
}

type BoardGif struct {
	Top       float64                `json:"top"`
	Left      float64                `json:"left"`
	Key       string                 `json:"key"`
	Data      map[string]interface{} `json:"data"` // provider gif object
	IsPinned  bool                   `json:"isPinned,omitempty"`
	ExpiresAt time.Time              `json:"-"`
}

type BoardImage struct {
	Top       float64   `json:"top"`
	Left      float64   `json:"left"`
	Key       string    `json:"key"`
	Url       string    `json:"url"`
	IsPinned  bool      `json:"isPinned,omitempty"`
	ExpiresAt time.Time `json:"-"`
}

type BoardNFT struct {
	Top       float64   `json:"top"`
	Left      float64   `json:"left"`
	Key       string    `json:"key"`
	Order     Order     `json:"order"`
	IsPinned  bool      `json:"isPinned,omitempty"`
	ExpiresAt time.Time `json:"-"`
}

// Animation types for full-screen banner animations.
const (
	AnimationStartGame = "start game"
	AnimationInfo      = "info"
	AnimationEndGame   = "end game"
)

type Animation struct {
	Type      string    `json:"type" mapstructure:"type"`
	Text      string    `json:"text,omitempty" mapstructure:"text"`
	ExpiresAt time.Time `json:"-" mapstructure:"-"`
}

// BackgroundState is the current (possibly unpinned) room background.
type BackgroundState struct {
	SubType  string   `json:"subType,omitempty"`
	Name     string   `json:"name,omitempty"`
	IsPinned bool     `json:"isPinned,omitempty"`
	MapData  *MapData `json:"mapData,omitempty"`
}

// WaterfallMessage is one line of the floating room transcript.
type WaterfallMessage struct {
	Avatar  string `json:"avatar" mapstructure:"avatar"`
	Message string `json:"message" mapstructure:"message"`
}

// WaterfallChat is the single per-room transcript. It is movable like a
// pinned item but never persisted to the room store.
type WaterfallChat struct {
	Top      float64            `json:"top"`
	Left     float64            `json:"left"`
	Messages []WaterfallMessage `json:"messages"`
	Show     bool               `json:"show"`
}

// WhiteboardStroke is one brush stroke relayed to all peers.
type WhiteboardStroke struct {
	Color  string   `json:"color" mapstructure:"color"`
	Points []LatLng `json:"points,omitempty" mapstructure:"points"`
}

// BrushColors is the fixed whiteboard palette.
var BrushColors = []string{"yellow", "orange", "red", "pink", "violet", "blue", "green", "gray"}

// SoundTypes is the palette of playable one-shot sounds.
var SoundTypes = []string{
	"drum", "cymbal", "guitar", "trumpet", "gong", "harp",
	"meme", "noice", "stop_it", "ahh", "air", "applause", "groan", "clang", "horn", "laugh",
	"bee", "dog", "flying_fox", "lightning", "nature", "sealion", "water",
}

// BackgroundNames is the built-in background catalog. A background name
// starting with "http" is treated as an external image url instead.
var BackgroundNames = []string{
	"butterflys", "grey_board", "ice", "mountain", "nature",
	"night_sky", "stones", "tree", "tiles", "triangles",
}
