package types

// Weather is the current condition a user chose to share.
type Weather struct {
	Temp      string `json:"temp" mapstructure:"temp"`
	Condition string `json:"condition" mapstructure:"condition"`
}

// MusicMetadata describes the currently shared music link.
type MusicMetadata struct {
	Description string `json:"description" mapstructure:"description"`
	Icon        string `json:"icon" mapstructure:"icon"`
	Image       string `json:"image" mapstructure:"image"`
	Title       string `json:"title" mapstructure:"title"`
	Url         string `json:"url" mapstructure:"url"`
	Type        string `json:"type" mapstructure:"type"`
	Provider    string `json:"provider" mapstructure:"provider"`
}

// UserProfile is the per-connection presence record. Individual relay events
// mutate single fields; the whole profile is pruned when the connection goes
// away.
type UserProfile struct {
	Name          string         `json:"name" mapstructure:"name"`
	Avatar        string         `json:"avatar" mapstructure:"avatar"`
	Message       string         `json:"message,omitempty" mapstructure:"message"`
	IsTyping      bool           `json:"isTyping,omitempty" mapstructure:"isTyping"`
	SoundType     string         `json:"soundType,omitempty" mapstructure:"soundType"`
	Weather       *Weather       `json:"weather,omitempty" mapstructure:"weather"`
	MusicMetadata *MusicMetadata `json:"musicMetadata,omitempty" mapstructure:"musicMetadata"`
	CurrentRoom   string         `json:"currentRoom,omitempty" mapstructure:"currentRoom"`
	Email         string         `json:"email,omitempty" mapstructure:"email"`
}
