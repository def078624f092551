// Package engine provides the external API of the fractal explorer: the
// data model (View, Tile, parameter snapshots) and the handle that ties
// the numerical kernels, the perturbation engine, the raymarcher, and the
// worker pool together into Prepare / SubmitTile / Cancel
// / PollResult / QueryStats / Dispose.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - view.go, tile.go: the data model (View, Tile, TileResult)
//   - handle.go: the external API
//   - admission.go: parameter and precision validation at prepare time
//
// # Architecture
//
// The numerical kernels live outside this package, in
// github.com/fractalkit/engine/kernel, so that they can be shared with
// raymarch without an import cycle back through this package. The tightly
// coupled subsystems live in their own packages:
//   - kernel/: 2D escape-time iteration and 3D distance estimators
//   - perturbation/: high-precision reference orbit, delta recurrence,
//     glitch detection and rebasing, series approximation
//   - raymarch/: sphere-tracing raymarcher and shading estimators
//   - scheduler/: tile priority queue and CPU worker pool
//   - engine/palette/: colorMode -> image.Image mapping for the CLI driver
//   - etrace/: decision tracing for glitch/rebase/worker-replace
//
// A Handle owns a worker pool, a reference-orbit cache and running
// statistics; the embedder may create one or many handles.
package engine
