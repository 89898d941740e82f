package towerdefense

import (
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/tcriess/lightspeed-board/globals"
)

const spawnSchedule = "*/5 * * * * *"

// UnitTypes is the wave rotation the spawner draws from.
var UnitTypes = []string{"grunt", "brute"}

// Spawner runs the wave schedule. Only the session that started the game
// runs one, the other peers just apply the spawn broadcasts.
type Spawner struct {
	spawn func()

	mu   sync.Mutex
	cron *cron.Cron
}

func NewSpawner(spawn func()) *Spawner {
	return &Spawner{spawn: spawn}
}

// Start schedules the wave ticks. A repeated call is a no-op until Stop.
func (s *Spawner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(spawnSchedule, s.spawn)
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	globals.AppLogger.Debug("wave spawner started")
	return nil
}

// Stop halts the schedule; already running ticks complete.
func (s *Spawner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
	globals.AppLogger.Debug("wave spawner stopped")
}
