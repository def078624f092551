package engine

// Tile is a rectangular pixel region within a View's canvas, the unit of
// work dispatched to the worker pool.
type Tile struct {
	X, Y          int // top-left corner, canvas pixel coordinates
	W, H          int
	CanvasW       int
	CanvasH       int
}

// Origin returns the complex-plane coordinate of the tile's top-left pixel
// (2D views only).
func (t Tile) Origin(v View) complex128 {
	step := v.PixelStep()
	dx := (float64(t.X) - float64(t.CanvasW)/2) * step
	dy := (float64(t.CanvasH)/2 - float64(t.Y)) * step
	return v.CenterF64 + complex(dx, dy)
}

// PixelStep returns the per-pixel complex-plane increment for this tile's
// view (2D views only); identical across all tiles of a view.
func (t Tile) PixelStep(v View) float64 {
	return v.PixelStep()
}

// TilesForCanvas partitions a width*height canvas into tileSize*tileSize
// tiles (edge tiles clipped to the canvas boundary), row-major order.
func TilesForCanvas(width, height, tileSize int) []Tile {
	if tileSize <= 0 {
		tileSize = width
	}
	var tiles []Tile
	for y := 0; y < height; y += tileSize {
		h := tileSize
		if y+h > height {
			h = height - y
		}
		for x := 0; x < width; x += tileSize {
			w := tileSize
			if x+w > width {
				w = width - x
			}
			tiles = append(tiles, Tile{X: x, Y: y, W: w, H: h, CanvasW: width, CanvasH: height})
		}
	}
	return tiles
}

// TileKind distinguishes the shape of a TileResult's payload.
type TileKind uint8

const (
	TileKind2D TileKind = iota
	TileKind3D
)

// TileResultVersion is the binary-layout version stamped into exported tile
// buffers; bump on any field addition or reordering.
const TileResultVersion uint16 = 1

// TileResultFlags records auxiliary-buffer presence and degenerate
// conditions observed while filling a TileResult.
type TileResultFlags uint32

const (
	FlagHasFinalZ TileResultFlags = 1 << iota
	FlagHasDegenerate
	FlagGlitched
)

// TileResult holds one tile's computed pixel buffers, pixel-major
// (row-major, origin at the tile's top-left corner), ready for transfer by
// move into the compositor.
//
// 2D tiles populate Iterations and Escaped, and optionally FinalZ for
// advanced coloring. 3D tiles populate Hit, Distance, Steps and Normal.
// A single TileResult carries only one kind's fields, selected by Kind.
type TileResult struct {
	Kind    TileKind
	X, Y    int
	W, H    int
	Flags   TileResultFlags

	// 2D payload.
	Iterations []float32   // one fractional iteration count per pixel
	Escaped    []uint8     // 1 if the pixel escaped, 0 if interior
	FinalZ     []float32   // optional: re, im pairs, 2 per pixel

	// 3D payload.
	Hit      []uint8   // 1 if the ray hit the surface
	Distance []float32 // total distance traveled along the ray
	Steps    []uint16  // march step count at termination
	Normal   []float32 // x, y, z triples, 3 per pixel, zero for misses
}

// NewTileResult2D allocates a TileResult sized for a w*h 2D tile.
func NewTileResult2D(x, y, w, h int, withFinalZ bool) *TileResult {
	r := &TileResult{
		Kind:       TileKind2D,
		X:          x,
		Y:          y,
		W:          w,
		H:          h,
		Iterations: make([]float32, w*h),
		Escaped:    make([]uint8, w*h),
	}
	if withFinalZ {
		r.FinalZ = make([]float32, 2*w*h)
		r.Flags |= FlagHasFinalZ
	}
	return r
}

// NewTileResult3D allocates a TileResult sized for a w*h 3D tile.
func NewTileResult3D(x, y, w, h int) *TileResult {
	return &TileResult{
		Kind:     TileKind3D,
		X:        x,
		Y:        y,
		W:        w,
		H:        h,
		Hit:      make([]uint8, w*h),
		Distance: make([]float32, w*h),
		Steps:    make([]uint16, w*h),
		Normal:   make([]float32, 3*w*h),
	}
}

// tileResultHeader mirrors the binary layout's fixed-size header:
// {version, kind, width, height, x, y, flags}.
type tileResultHeader struct {
	Version uint16
	Kind    uint8
	Width   uint16
	Height  uint16
	X       uint32
	Y       uint32
	Flags   uint32
}

func (r *TileResult) header() tileResultHeader {
	return tileResultHeader{
		Version: TileResultVersion,
		Kind:    uint8(r.Kind),
		Width:   uint16(r.W),
		Height:  uint16(r.H),
		X:       uint32(r.X),
		Y:       uint32(r.Y),
		Flags:   uint32(r.Flags),
	}
}
