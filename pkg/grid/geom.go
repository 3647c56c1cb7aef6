package grid

import (
	"math"

	"github.com/chewxy/math32"
)

// Vec is an integer displacement, in pixels
type Vec struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vec) Len() float32 {
	return math32.Sqrt(float32(v.X*v.X + v.Y*v.Y))
}

func (v Vec) Float() VecF {
	return VecF{X: float32(v.X), Y: float32(v.Y)}
}

// VecF is a float displacement
type VecF struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (v VecF) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v VecF) Len() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v VecF) Float() VecF {
	return v
}

func (v VecF) Add(b VecF) VecF {
	return VecF{X: v.X + b.X, Y: v.Y + b.Y}
}

func (v VecF) Sub(b VecF) VecF {
	return VecF{X: v.X - b.X, Y: v.Y - b.Y}
}

func (v VecF) Scale(s float32) VecF {
	return VecF{X: v.X * s, Y: v.Y * s}
}

// Normalized returns the unit vector, or zero if v has no length
func (v VecF) Normalized() VecF {
	l := v.Len()
	if l == 0 {
		return VecF{}
	}
	return VecF{X: v.X / l, Y: v.Y / l}
}

// Round returns the nearest integer vector
func (v VecF) Round() Vec {
	return Vec{X: int(math.Round(float64(v.X))), Y: int(math.Round(float64(v.Y)))}
}

// Vector is satisfied by both integer and float vectors
type Vector interface {
	Vec | VecF
	Float() VecF
}

// Point is a cell coordinate
type Point struct {
	X int `json:"x"` // Column
	Y int `json:"y"` // Row
}

// Rect is an axis-aligned rectangle with inclusive max coordinates.
// A single cell at (x,y) is Rect{x, y, x, y}.
type Rect struct {
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

// PointRect returns a rectangle covering a single cell
func PointRect(x, y int) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x, MaxY: y}
}

func (r Rect) Width() int {
	return r.MaxX - r.MinX + 1
}

func (r Rect) Height() int {
	return r.MaxY - r.MinY + 1
}

func (r Rect) Area() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Width() * r.Height()
}

func (r Rect) IsEmpty() bool {
	return r.MaxX < r.MinX || r.MaxY < r.MinY
}

func (r Rect) Offset(dx, dy int) Rect {
	return Rect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// Expand grows the rectangle to include (x,y)
func (r Rect) Expand(x, y int) Rect {
	r.MinX = min(r.MinX, x)
	r.MinY = min(r.MinY, y)
	r.MaxX = max(r.MaxX, x)
	r.MaxY = max(r.MaxY, y)
	return r
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

func (r Rect) Intersects(b Rect) bool {
	return !r.Intersection(b).IsEmpty()
}

// Intersection may return an empty rectangle
func (r Rect) Intersection(b Rect) Rect {
	return Rect{
		MinX: max(r.MinX, b.MinX),
		MinY: max(r.MinY, b.MinY),
		MaxX: min(r.MaxX, b.MaxX),
		MaxY: min(r.MaxY, b.MaxY),
	}
}

// Union returns the bounding box of both rectangles
func (r Rect) Union(b Rect) Rect {
	return Rect{
		MinX: min(r.MinX, b.MinX),
		MinY: min(r.MinY, b.MinY),
		MaxX: max(r.MaxX, b.MaxX),
		MaxY: max(r.MaxY, b.MaxY),
	}
}

// Scale converts cell coordinates into pixels, where a cell is sx by sy pixels.
// The result covers every pixel of the boundary cells.
func (r Rect) Scale(sx, sy int) Rect {
	return Rect{
		MinX: r.MinX * sx,
		MinY: r.MinY * sy,
		MaxX: (r.MaxX+1)*sx - 1,
		MaxY: (r.MaxY+1)*sy - 1,
	}
}
