package board

import "math/rand"

// panelHeight is the height of the fixed bottom panel in pixels. Gif spawns
// are pushed up by this offset so they don't appear beneath the panel.
const panelHeight = 200

type placer struct {
	rng      *rand.Rand
	viewport Viewport
}

// randomXY draws a spawn position in pixels: uniformly over the full
// viewport, or over the middle half of each axis when centered (chat, gifs
// and images appear centered so they don't spawn at the screen edges).
func (p *placer) randomXY(centered bool) (x, y float64) {
	if centered {
		// 1/4 to 3/4
		x = p.rng.Float64()*p.viewport.Width/2 + p.viewport.Width/4
		y = p.rng.Float64()*p.viewport.Height/2 + p.viewport.Height/4
		return x, y
	}
	x = p.rng.Float64() * p.viewport.Width
	y = p.rng.Float64() * p.viewport.Height
	return x, y
}

// randomGifXY draws a centered position with the vertical draw pushed up by
// the bottom panel height.
func (p *placer) randomGifXY() (x, y float64) {
	x, y = p.randomXY(true)
	y -= panelHeight
	if y < 0 {
		y = 0
	}
	return x, y
}
