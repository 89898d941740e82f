package towerdefense

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tcriess/lightspeed-board/types"
)

type captured struct {
	command string
	fields  map[string]interface{}
}

func newTestEngine() (*Engine, *[]captured) {
	emitted := []captured{}
	e := NewEngine(100, 1000, 800, func(command string, fields map[string]interface{}) {
		emitted = append(emitted, captured{command, fields})
	})
	n := 0
	e.keyFunc = func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}
	return e, &emitted
}

func TestStartResetsState(t *testing.T) {
	e, _ := newTestEngine()
	e.Start()
	e.AddUnit(types.Unit{Key: "u1"})
	e.state.Gold = 7

	e.Start()
	state := e.State()
	assert.True(t, state.IsPlaying)
	assert.Equal(t, 100, state.Gold)
	assert.Len(t, state.Units, 0)
	assert.Len(t, state.Towers, 0)
	assert.Len(t, state.Projectiles, 0)

	e.End()
	assert.False(t, e.State().IsPlaying)
	assert.Equal(t, 0, e.State().Gold)
}

func TestEnemyEntersLeftEdgeMidScreen(t *testing.T) {
	e, _ := newTestEngine()
	e.Start()
	unit := e.NewEnemy("grunt")
	assert.Equal(t, 0.0, unit.Left)
	assert.Equal(t, 400.0, unit.Top)
	assert.Equal(t, UnitValues["grunt"], unit.Value)
}

func TestSelectToggles(t *testing.T) {
	e, _ := newTestEngine()
	e.Start()

	e.SelectTower("basic")
	assert.NotNil(t, e.State().SelectedPlacementTower)
	assert.Equal(t, "basic", e.State().SelectedPlacementTower.Type)

	// a second select of the same type cancels the pending placement
	e.SelectTower("basic")
	assert.Nil(t, e.State().SelectedPlacementTower)

	e.SelectTower("basic")
	e.SelectTower("cannon")
	assert.Equal(t, "cannon", e.State().SelectedPlacementTower.Type)
}

func TestPlacementDeductsGold(t *testing.T) {
	e, emitted := newTestEngine()
	e.Start()

	e.SelectTower("basic")
	placed, pending := e.TryPlaceTower(500, 400)
	assert.True(t, placed)
	assert.True(t, pending)
	assert.Equal(t, 100-TowerCosts["basic"], e.State().Gold)
	assert.Len(t, e.State().Towers, 1)
	// the pending selection is consumed by the click
	assert.Nil(t, e.State().SelectedPlacementTower)

	// the broadcast carries normalized coordinates
	assert.Len(t, *emitted, 1)
	assert.Equal(t, types.TDCommandAddTower, (*emitted)[0].command)
	tower := (*emitted)[0].fields["tower"].(types.Tower)
	assert.Equal(t, 0.5, tower.Top)
	assert.Equal(t, 0.5, tower.Left)
}

func TestPlacementRejectedWhenGoldInsufficient(t *testing.T) {
	e, emitted := newTestEngine()
	e.Start()
	e.state.Gold = TowerCosts["cannon"] - 1

	e.SelectTower("cannon")
	placed, pending := e.TryPlaceTower(100, 100)
	assert.False(t, placed)
	assert.True(t, pending)
	assert.Equal(t, TowerCosts["cannon"]-1, e.State().Gold)
	assert.Len(t, e.State().Towers, 0)
	assert.Len(t, *emitted, 0)
	// the pending placement is cancelled regardless of the outcome
	assert.Nil(t, e.State().SelectedPlacementTower)
}

func TestClickWithoutSelectionIsNotPending(t *testing.T) {
	e, _ := newTestEngine()
	e.Start()
	placed, pending := e.TryPlaceTower(100, 100)
	assert.False(t, placed)
	assert.False(t, pending)
}

func TestRemoteTowerDeductsGold(t *testing.T) {
	e, _ := newTestEngine()
	e.Start()
	e.AddTower(types.Tower{Key: "t1", Type: "basic", Cost: 30, Top: 0.5, Left: 0.5})
	state := e.State()
	assert.Equal(t, 70, state.Gold)
	// coordinates arrive normalized and are mapped onto this viewport
	assert.Equal(t, 400.0, state.Towers[0].Top)
	assert.Equal(t, 500.0, state.Towers[0].Left)
}

func TestFireTowersFirstInRange(t *testing.T) {
	e, _ := newTestEngine()
	e.Start()
	e.state.Towers = []types.Tower{
		{Key: "t1", Type: "basic", Top: 100, Left: 100},
		{Key: "t2", Type: "basic", Top: 700, Left: 900},
		{Key: "t3", Type: "cannon", Top: 100, Left: 100},
	}
	// u1 is in range of t1 but appended after u2; u2 is also in range.
	// First by iteration order wins, not nearest.
	e.state.Units = []types.Unit{
		{Key: "u2", Top: 150, Left: 400},
		{Key: "u1", Top: 100, Left: 120},
	}

	hits := e.FireTowers([]string{"basic"})
	assert.Len(t, hits, 1)
	assert.Equal(t, Hit{TowerKey: "t1", UnitKey: "u2"}, hits[0])

	// every hit became a projectile
	assert.Len(t, e.State().Projectiles, 1)
	assert.Equal(t, "t1", e.State().Projectiles[0].TowerKey)
}

func TestFireTowersOneHitPerTower(t *testing.T) {
	e, _ := newTestEngine()
	e.Start()
	e.state.Towers = []types.Tower{
		{Key: "t1", Type: "basic", Top: 100, Left: 100},
		{Key: "t2", Type: "basic", Top: 120, Left: 140},
	}
	e.state.Units = []types.Unit{
		{Key: "u1", Top: 100, Left: 120},
		{Key: "u2", Top: 110, Left: 130},
	}
	hits := e.FireTowers([]string{"basic"})
	assert.Len(t, hits, 2)
	assert.Equal(t, "u1", hits[0].UnitKey)
	assert.Equal(t, "u1", hits[1].UnitKey)
}

func TestProjectileUsesLiveUnitRect(t *testing.T) {
	e, _ := newTestEngine()
	e.Start()
	e.state.Towers = []types.Tower{{Key: "t1", Type: "basic", Top: 100, Left: 100}}
	e.state.Units = []types.Unit{{Key: "u1", Top: 100, Left: 120}}
	// the view layer reports the unit further along its path than its
	// spawn position
	e.SetRectResolver(func(unitKey string) (types.Rect, bool) {
		return types.Rect{Top: 90, Left: 290, Width: 20, Height: 20}, true
	})

	e.HitUnit("t1", "u1")
	projectiles := e.State().Projectiles
	assert.Len(t, projectiles, 1)
	assert.Equal(t, types.Position{X: 100, Y: 100}, projectiles[0].StartPos)
	assert.Equal(t, types.Position{X: 300, Y: 100}, projectiles[0].EndPos)

	e.RemoveProjectile(projectiles[0].Key)
	assert.Len(t, e.State().Projectiles, 0)
}

func TestIdleEngineIgnoresEvents(t *testing.T) {
	e, emitted := newTestEngine()
	e.AddUnit(types.Unit{Key: "u1"})
	e.SelectTower("basic")
	placed, pending := e.TryPlaceTower(10, 10)
	assert.False(t, placed)
	assert.False(t, pending)
	assert.Nil(t, e.FireTowers([]string{"basic"}))
	assert.Len(t, e.State().Units, 0)
	assert.Len(t, *emitted, 0)
}
