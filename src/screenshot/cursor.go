package screenshot

import (
	"image"
	"image/color"
	"math"
)

type Point struct {
	X int
	Y int
}

// arrow is a standard pointer outline with its hotspot at (0,0).
var arrow = []Point{
	{0, 0}, {0, 17}, {4, 13}, {7, 20}, {10, 19}, {7, 12}, {12, 12},
}

// DrawCursor paints an arrow pointer with its tip at pt (image coordinates):
// black outline, white fill. Pixels outside the image are skipped.
func DrawCursor(img *image.RGBA, pt image.Point) {
	polygon := make([]Point, len(arrow))
	minX, minY, maxX, maxY := math.MaxInt, math.MaxInt, math.MinInt, math.MinInt
	for i, p := range arrow {
		polygon[i] = Point{X: p.X + pt.X, Y: p.Y + pt.Y}
		minX = min(minX, polygon[i].X)
		minY = min(minY, polygon[i].Y)
		maxX = max(maxX, polygon[i].X)
		maxY = max(maxY, polygon[i].Y)
	}

	b := img.Bounds()
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := max(minY, b.Min.Y); y <= maxY && y < b.Max.Y; y++ {
		for x := max(minX, b.Min.X); x <= maxX && x < b.Max.X; x++ {
			px, py := float64(x), float64(y)
			if !pointInPolygon(px, py, polygon) {
				continue
			}
			if onOutline(px, py, polygon) {
				img.SetRGBA(x, y, black)
			} else {
				img.SetRGBA(x, y, white)
			}
		}
	}
}

func onOutline(px, py float64, polygon []Point) bool {
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		if pointOnSegment(px, py, float64(polygon[i].X), float64(polygon[i].Y), float64(polygon[j].X), float64(polygon[j].Y)) {
			return true
		}
	}
	return false
}

func pointInPolygon(px, py float64, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		xi := float64(polygon[i].X)
		yi := float64(polygon[i].Y)
		xj := float64(polygon[j].X)
		yj := float64(polygon[j].Y)

		if pointOnSegment(px, py, xi, yi, xj, yj) {
			return true
		}

		intersects := ((yi > py) != (yj > py)) &&
			(px < (xj-xi)*(py-yi)/(yj-yi)+xi)
		if intersects {
			inside = !inside
		}
	}

	return inside
}

func pointOnSegment(px, py, x1, y1, x2, y2 float64) bool {
	const epsilon = 0.5
	cross := (px-x1)*(y2-y1) - (py-y1)*(x2-x1)
	if math.Abs(cross) > epsilon*math.Hypot(x2-x1, y2-y1) {
		return false
	}

	minX := math.Min(x1, x2) - epsilon
	maxX := math.Max(x1, x2) + epsilon
	minY := math.Min(y1, y2) - epsilon
	maxY := math.Max(y1, y2) + epsilon
	return px >= minX && px <= maxX && py >= minY && py <= maxY
}
