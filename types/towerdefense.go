package types

// Tower-defense sub-protocol commands, carried as the value of a
// KeyTowerDefense envelope.
const (
	TDCommandStart       = "start"
	TDCommandEnd         = "end"
	TDCommandSpawnEnemy  = "spawn enemy"
	TDCommandSelectTower = "select tower"
	TDCommandAddTower    = "add tower"
	TDCommandFireTowers  = "fire towers"
	TDCommandHitUnit     = "hit unit"
)

// Position is an on-screen pixel coordinate.
type Position struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// Rect is a live on-screen bounding rect of a rendered unit, reported by the
// view layer. Projectile endpoints are resolved from it at hit time.
type Rect struct {
	Top    float64 `json:"top" mapstructure:"top"`
	Left   float64 `json:"left" mapstructure:"left"`
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// Tower is a placed tower building. Top/Left are viewport fractions when
// broadcast, pixels in local state.
type Tower struct {
	Key  string  `json:"key" mapstructure:"key"`
	Type string  `json:"type" mapstructure:"type"`
	Top  float64 `json:"top" mapstructure:"top"`
	Left float64 `json:"left" mapstructure:"left"`
	Cost int     `json:"cost" mapstructure:"cost"`
}

// Unit is an enemy moving across the board.
type Unit struct {
	Key   string  `json:"key" mapstructure:"key"`
	Type  string  `json:"type" mapstructure:"type"`
	Top   float64 `json:"top" mapstructure:"top"`
	Left  float64 `json:"left" mapstructure:"left"`
	Value int     `json:"value" mapstructure:"value"`
}

// Projectile is transient: the view layer removes it once its travel
// animation completes.
type Projectile struct {
	Key      string   `json:"key"`
	TowerKey string   `json:"towerKey"`
	UnitKey  string   `json:"unitKey"`
	StartPos Position `json:"startPos"`
	EndPos   Position `json:"endPos"`
}

// TowerDefenseState is the embedded mini-game state.
type TowerDefenseState struct {
	IsPlaying              bool         `json:"isPlaying"`
	Gold                   int          `json:"gold"`
	Towers                 []Tower      `json:"towers"`
	Units                  []Unit       `json:"units"`
	Projectiles            []Projectile `json:"projectiles"`
	SelectedPlacementTower *Tower       `json:"selectedPlacementTower,omitempty"`
}
