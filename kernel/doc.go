// Package kernel implements the direct (non-perturbative) numerical
// kernels shared by the engine and raymarch packages: 2D escape-time
// iteration over the complex plane (kernel2d.go) and 3D distance
// estimators for sphere tracing (kernel3d.go), plus the shared parameter
// type, FractalParams, and its validation.
//
// This package sits below engine so that raymarch can depend on it
// without importing the engine package itself, which in turn depends on
// raymarch to drive 3D tile rendering.
package kernel
