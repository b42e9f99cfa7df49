// Package spectrum defines the wavelength/intensity trace every analysis
// stage consumes, and the reader that turns a raw instrument export into one.
//
// A Spectrum is immutable once constructed: its wavelengths are strictly
// ascending and it always has at least one point. Readers drop malformed rows
// with a ParseError instead of failing the whole trace.
package spectrum
