// Package peaks finds and quantifies peaks in a single spectrum.
//
// Extraction runs in three steps:
//
//  1. Clamp: every intensity below the floor is raised to the floor.
//  2. Find: local maxima (plateaus report their midpoint) are filtered by
//     minimum height, then by minimum index separation (highest first, ties
//     to the lower index), then by minimum prominence.
//  3. Quantify: each peak gets a region of RegionHalfWidth wavelength units
//     on either side, clipped to the domain, and its area is the trapezoidal
//     integral of the clamped intensities inside that region.
//
// A peak whose region cannot be integrated is reported as a Failure and
// skipped; the rest of the table is still produced.
package peaks
