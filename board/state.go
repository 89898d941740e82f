package board

import (
	"time"

	"github.com/tcriess/lightspeed-board/types"
)

// Display timeouts of ephemeral items: how long they stay on the board
// unless they are pinned in time.
const (
	emojiTimeout = time.Second
	noteTimeout  = time.Second
	chatTimeout  = 7 * time.Second
	gifTimeout   = 5 * time.Second
	imageTimeout = 5 * time.Second
	nftTimeout   = 5 * time.Second
	animTimeout  = 5 * time.Second
)

// State is the aggregate in-memory room state of one viewer: every feature
// slice plus the presence of all peers. All positions are pixels on this
// viewer's viewport.
type State struct {
	Emojis       []types.Emoji
	MusicNotes   []types.MusicNote
	ChatMessages []types.ChatMessage
	Gifs         []types.BoardGif
	Images       []types.BoardImage
	NFTs         []types.BoardNFT
	PinnedText   map[string]types.PinnedItem
	Background   types.BackgroundState
	Animations   []types.Animation
	Whiteboard   []types.WhiteboardStroke

	UserProfiles   map[string]types.UserProfile
	UserLocations  map[string]types.Position
	AvatarMessages map[string][]string

	// PendingTowers tracks the cursor-bound tower selection of each peer so
	// the view can render it next to their cursor. Selection never arms
	// placement on this machine.
	PendingTowers map[string]types.Tower

	Waterfall types.WaterfallChat

	VideoId     string
	SettingsURL string

	// ErrorMessage is shown in a modal when a store call fails and an
	// optimistic change was rolled back. Cleared by the view layer.
	ErrorMessage string
}

func newState() State {
	return State{
		PinnedText:     make(map[string]types.PinnedItem),
		UserProfiles:   make(map[string]types.UserProfile),
		UserLocations:  make(map[string]types.Position),
		AvatarMessages: make(map[string][]string),
		PendingTowers:  make(map[string]types.Tower),
		Waterfall:      types.WaterfallChat{Show: true},
	}
}

// Prune removes expired ephemeral items. Pinned items never expire.
func (s *State) Prune(now time.Time) {
	emojis := s.Emojis[:0]
	for _, e := range s.Emojis {
		if e.ExpiresAt.After(now) {
			emojis = append(emojis, e)
		}
	}
	s.Emojis = emojis

	notes := s.MusicNotes[:0]
	for _, n := range s.MusicNotes {
		if n.ExpiresAt.After(now) {
			notes = append(notes, n)
		}
	}
	s.MusicNotes = notes

	chats := s.ChatMessages[:0]
	for _, c := range s.ChatMessages {
		if c.ExpiresAt.After(now) {
			chats = append(chats, c)
		}
	}
	s.ChatMessages = chats

	gifs := s.Gifs[:0]
	for _, g := range s.Gifs {
		if g.IsPinned || g.ExpiresAt.After(now) {
			gifs = append(gifs, g)
		}
	}
	s.Gifs = gifs

	images := s.Images[:0]
	for _, i := range s.Images {
		if i.IsPinned || i.ExpiresAt.After(now) {
			images = append(images, i)
		}
	}
	s.Images = images

	nfts := s.NFTs[:0]
	for _, n := range s.NFTs {
		if n.IsPinned || n.ExpiresAt.After(now) {
			nfts = append(nfts, n)
		}
	}
	s.NFTs = nfts

	anims := s.Animations[:0]
	for _, a := range s.Animations {
		if a.ExpiresAt.After(now) {
			anims = append(anims, a)
		}
	}
	s.Animations = anims
}
