package sdf

// Percent returns p percent of the raster width.
func (c *Context) Percent(p float32) float32 {
	return float32(c.width) * p / 100
}

// PercentX is Percent.
func (c *Context) PercentX(p float32) float32 {
	return c.Percent(p)
}

// PercentY returns p percent of the raster height.
func (c *Context) PercentY(p float32) float32 {
	return float32(c.height) * p / 100
}

// PercentOfMin returns p percent of the shorter side.
func (c *Context) PercentOfMin(p float32) float32 {
	return float32(min(c.width, c.height)) * p / 100
}

// Pt returns one point: 1% of the longer side. Sizes expressed in points
// scale with the raster.
func (c *Context) Pt() float32 {
	return float32(max(c.width, c.height)) / 100
}

// PercentPoint returns the point at px percent of the width and py
// percent of the height.
func (c *Context) PercentPoint(px, py float32) Point {
	return Point{X: c.PercentX(px), Y: c.PercentY(py)}
}
