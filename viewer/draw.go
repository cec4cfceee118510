package viewer

import (
	"math"

	"github.com/akmonengine/helium/camera"
	"github.com/akmonengine/helium/room"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// cellAspect is the height of a terminal cell in units of its width
const cellAspect = 2

// surface maps normalized device coordinates onto a grid of cells
type surface struct {
	width, height int
}

func (s surface) toCell(ndc mgl64.Vec3) (x, y int) {
	x = int(math.Floor((ndc.X() + 1) / 2 * float64(s.width)))
	y = int(math.Floor((1 - ndc.Y()) / 2 * float64(s.height)))

	return x, y
}

// toNDC returns the coordinates of the centre of a cell
func (s surface) toNDC(x, y int) (float64, float64) {
	ndcX := (float64(x)+0.5)/float64(s.width)*2 - 1
	ndcY := 1 - (float64(y)+0.5)/float64(s.height)*2

	return ndcX, ndcY
}

func (s surface) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.width && y < s.height
}

// line returns the cells from (x0, y0) to (x1, y1), Bresenham style
func line(x0, y0, x1, y1 int) [][2]int {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	var cells [][2]int
	err := dx + dy
	for {
		cells = append(cells, [2]int{x0, y0})
		if x0 == x1 && y0 == y1 {
			return cells
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// disc returns the cells covered by a circle of radius given in cell widths
func disc(cx, cy int, radius float64) [][2]int {
	var cells [][2]int
	rows := int(math.Ceil(radius / cellAspect))
	columns := int(math.Ceil(radius))

	for dy := -rows; dy <= rows; dy++ {
		for dx := -columns; dx <= columns; dx++ {
			fx, fy := float64(dx), float64(dy)*cellAspect
			if fx*fx+fy*fy <= radius*radius {
				cells = append(cells, [2]int{cx + dx, cy + dy})
			}
		}
	}
	if len(cells) == 0 {
		cells = append(cells, [2]int{cx, cy})
	}

	return cells
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// roomEdges returns the twelve edges of the room box, spin included
func roomEdges(r *room.Room) [][2]mgl64.Vec3 {
	d := r.Dimensions()
	center := d.Center()
	spin := mgl64.QuatRotate(r.Angle(), mgl64.Vec3{0, 0, 1})

	corner := func(sx, sy, sz float64) mgl64.Vec3 {
		local := mgl64.Vec3{sx * d.Width / 2, sy * d.Height / 2, sz * d.Depth / 2}
		return center.Add(spin.Rotate(local))
	}

	var edges [][2]mgl64.Vec3
	signs := []float64{-1, 1}
	for _, a := range signs {
		for _, b := range signs {
			edges = append(edges,
				[2]mgl64.Vec3{corner(-1, a, b), corner(1, a, b)},
				[2]mgl64.Vec3{corner(a, -1, b), corner(a, 1, b)},
				[2]mgl64.Vec3{corner(a, b, -1), corner(a, b, 1)},
			)
		}
	}

	return edges
}

func (v *Viewer) drawSegment(cam *camera.Camera, a, b mgl64.Vec3, r rune, style tcell.Style) {
	ndcA, okA := cam.Project(a)
	ndcB, okB := cam.Project(b)
	if !okA || !okB {
		return
	}

	x0, y0 := v.surface.toCell(ndcA)
	x1, y1 := v.surface.toCell(ndcB)
	for _, cell := range line(x0, y0, x1, y1) {
		v.set(cell[0], cell[1], r, style)
	}
}

func (v *Viewer) set(x, y int, r rune, style tcell.Style) {
	if v.surface.contains(x, y) {
		v.screen.SetContent(x, y, r, nil, style)
	}
}

func (v *Viewer) print(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		v.set(x, y, r, style)
		x++
	}
}
