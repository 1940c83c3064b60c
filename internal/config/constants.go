// Package config holds small conventions shared across the concolic
// tooling that don't belong to any one component: the binary's version
// and the recognized source-file extensions the CLI uses when resolving
// a class's source text.
package config

// Version is the current release version, set at build time via -ldflags.
var Version = "0.1.0"

// SourceFileExtensions are the file extensions cmd/concolic tries, in
// order, when resolving a class name to source text.
var SourceFileExtensions = []string{".fun", ".fx", ".lang"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source
// extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}
