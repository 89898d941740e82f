package towerdefense

import (
	"math"

	"github.com/google/uuid"
	"github.com/tcriess/lightspeed-board/types"
)

// fireRange is the targeting threshold as a fraction of viewport width.
const fireRange = 0.4

// TowerCosts is the tower catalog: type to gold cost.
var TowerCosts = map[string]int{
	"basic":  30,
	"cannon": 60,
	"flame":  90,
}

// UnitValues is the enemy catalog: type to point value.
var UnitValues = map[string]int{
	"grunt": 10,
	"brute": 25,
}

// Emitter broadcasts a tower-defense envelope field set to the room peers.
type Emitter func(command string, fields map[string]interface{})

// RectResolver reports the live on-screen bounding rect of a rendered unit.
// Projectile endpoints are resolved from it at the moment a hit is
// processed, so they reflect the unit's current position, not its spawn
// position.
type RectResolver func(unitKey string) (types.Rect, bool)

// Engine is the embedded tower-defense state machine. Two states: idle and
// playing. Every peer runs its own engine fed by broadcast events, there is
// no authoritative server simulation; diverging unit lists between peers are
// accepted best-effort.
type Engine struct {
	state       types.TowerDefenseState
	initialGold int

	viewportWidth  float64
	viewportHeight float64

	emit    Emitter
	rectOf  RectResolver
	keyFunc func() string
}

func NewEngine(initialGold int, viewportWidth, viewportHeight float64, emit Emitter) *Engine {
	if initialGold <= 0 {
		initialGold = 100
	}
	if emit == nil {
		emit = func(string, map[string]interface{}) {}
	}
	return &Engine{
		initialGold:    initialGold,
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
		emit:           emit,
		keyFunc:        func() string { return uuid.New().String() },
	}
}

// SetRectResolver wires the view layer in; optional, stored unit positions
// are the fallback.
func (e *Engine) SetRectResolver(rectOf RectResolver) {
	e.rectOf = rectOf
}

func (e *Engine) State() *types.TowerDefenseState {
	return &e.state
}

func (e *Engine) IsPlaying() bool {
	return e.state.IsPlaying
}

// Start transitions idle -> playing: gold is reset to the initial amount and
// all transient entities are cleared.
func (e *Engine) Start() {
	e.state = types.TowerDefenseState{
		IsPlaying:   true,
		Gold:        e.initialGold,
		Towers:      []types.Tower{},
		Units:       []types.Unit{},
		Projectiles: []types.Projectile{},
	}
}

// End transitions playing -> idle and clears all transient entities.
func (e *Engine) End() {
	e.state = types.TowerDefenseState{}
}

// NewEnemy builds an enemy entering from the left edge at vertical
// mid-screen with a type-derived point value.
func (e *Engine) NewEnemy(unitType string) types.Unit {
	return types.Unit{
		Key:   e.keyFunc(),
		Type:  unitType,
		Top:   e.viewportHeight / 2,
		Left:  0,
		Value: UnitValues[unitType],
	}
}

// AddUnit appends an enemy broadcast by a peer (or spawned locally).
func (e *Engine) AddUnit(unit types.Unit) {
	if !e.state.IsPlaying {
		return
	}
	e.state.Units = append(e.state.Units, unit)
}

// SelectTower toggles the placement-pending tower selection. Selecting the
// pending type again cancels it.
func (e *Engine) SelectTower(towerType string) {
	if !e.state.IsPlaying {
		return
	}
	if e.state.SelectedPlacementTower != nil && e.state.SelectedPlacementTower.Type == towerType {
		e.state.SelectedPlacementTower = nil
		return
	}
	e.state.SelectedPlacementTower = &types.Tower{
		Type: towerType,
		Cost: TowerCosts[towerType],
	}
}

// TryPlaceTower attempts to place the pending tower at a board click. The
// pending selection is cancelled regardless of the outcome. Placement
// succeeds only if the resulting gold stays non-negative; on success the
// cost is deducted and the tower is broadcast with normalized coordinates.
// The second return is false when there was no pending tower at all.
func (e *Engine) TryPlaceTower(x, y float64) (placed, pending bool) {
	selected := e.state.SelectedPlacementTower
	e.state.SelectedPlacementTower = nil
	if !e.state.IsPlaying || selected == nil {
		return false, false
	}
	if e.state.Gold-selected.Cost < 0 {
		return false, true
	}
	tower := types.Tower{
		Key:  e.keyFunc(),
		Type: selected.Type,
		Cost: selected.Cost,
		Top:  y,
		Left: x,
	}
	e.state.Gold -= tower.Cost
	e.state.Towers = append(e.state.Towers, tower)

	broadcast := tower
	broadcast.Top = tower.Top / e.viewportHeight
	broadcast.Left = tower.Left / e.viewportWidth
	e.emit(types.TDCommandAddTower, map[string]interface{}{"tower": broadcast})
	return true, true
}

// AddTower applies a tower placement broadcast by a peer; coordinates arrive
// normalized. The peer's gold is deducted as well so all peers agree on the
// shared pool, floored at zero if the lists have diverged.
func (e *Engine) AddTower(tower types.Tower) {
	if !e.state.IsPlaying {
		return
	}
	tower.Top = tower.Top * e.viewportHeight
	tower.Left = tower.Left * e.viewportWidth
	e.state.Towers = append(e.state.Towers, tower)
	e.state.Gold -= tower.Cost
	if e.state.Gold < 0 {
		e.state.Gold = 0
	}
}

// Hit is one resolved tower/unit pairing of a fire invocation.
type Hit struct {
	TowerKey string
	UnitKey  string
}

// FireTowers fires every tower whose type is in towerTypes: each qualifying
// tower yields exactly one hit for the first unit (by iteration order, not
// nearest) within the relative range threshold; towers with no unit in range
// yield nothing. Resolution runs independently on every peer from the same
// broadcast, so the hits are applied locally and returned, never
// rebroadcast.
func (e *Engine) FireTowers(towerTypes []string) []Hit {
	if !e.state.IsPlaying {
		return nil
	}
	selected := make(map[string]struct{}, len(towerTypes))
	for _, t := range towerTypes {
		selected[t] = struct{}{}
	}
	var hits []Hit
	for _, tower := range e.state.Towers {
		if _, ok := selected[tower.Type]; !ok {
			continue
		}
		for _, unit := range e.state.Units {
			if e.relativeDistance(tower, unit) < fireRange {
				hits = append(hits, Hit{TowerKey: tower.Key, UnitKey: unit.Key})
				break // at most one hit per tower per invocation
			}
		}
	}
	for _, h := range hits {
		e.HitUnit(h.TowerKey, h.UnitKey)
	}
	return hits
}

func (e *Engine) relativeDistance(tower types.Tower, unit types.Unit) float64 {
	dx := tower.Left - unit.Left
	dy := tower.Top - unit.Top
	return math.Hypot(dx, dy) / e.viewportWidth
}

// HitUnit spawns a projectile for a tower/unit pair. Endpoints are resolved
// from the tower's stored position and the unit's live bounding rect at the
// moment the event is processed.
func (e *Engine) HitUnit(towerKey, unitKey string) {
	if !e.state.IsPlaying {
		return
	}
	var tower *types.Tower
	for i := range e.state.Towers {
		if e.state.Towers[i].Key == towerKey {
			tower = &e.state.Towers[i]
			break
		}
	}
	if tower == nil {
		return
	}
	end, ok := e.liveUnitPos(unitKey)
	if !ok {
		return
	}
	e.state.Projectiles = append(e.state.Projectiles, types.Projectile{
		Key:      e.keyFunc(),
		TowerKey: towerKey,
		UnitKey:  unitKey,
		StartPos: types.Position{X: tower.Left, Y: tower.Top},
		EndPos:   end,
	})
}

func (e *Engine) liveUnitPos(unitKey string) (types.Position, bool) {
	if e.rectOf != nil {
		if rect, ok := e.rectOf(unitKey); ok {
			return types.Position{X: rect.Left + rect.Width/2, Y: rect.Top + rect.Height/2}, true
		}
	}
	for _, unit := range e.state.Units {
		if unit.Key == unitKey {
			return types.Position{X: unit.Left, Y: unit.Top}, true
		}
	}
	return types.Position{}, false
}

// RemoveProjectile is called by the view layer once the travel animation of
// a projectile completed.
func (e *Engine) RemoveProjectile(key string) {
	projectiles := e.state.Projectiles[:0]
	for _, p := range e.state.Projectiles {
		if p.Key != key {
			projectiles = append(projectiles, p)
		}
	}
	e.state.Projectiles = projectiles
}
