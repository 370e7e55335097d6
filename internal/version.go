// Package internal holds metadata shared by every executable of the
// module.
package internal

// Version is the release version of the module's executables.
const Version = "0.1.0"
