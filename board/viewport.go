package board

// Viewport is the size of the viewer's screen in pixels. Positions are kept
// as pixels in memory for display and converted to viewport fractions at the
// store boundary so persisted positions are independent of screen size.
type Viewport struct {
	Width  float64
	Height float64
}

// Normalize converts a pixel position to viewport fractions.
func (v Viewport) Normalize(top, left float64) (float64, float64) {
	return top / v.Height, left / v.Width
}

// Denormalize converts viewport fractions back to pixels on this viewport.
func (v Viewport) Denormalize(top, left float64) (float64, float64) {
	return top * v.Height, left * v.Width
}
