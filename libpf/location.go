package libpf

// SentinelFilename is the pseudo-filename reported when a stack walk finds
// no frame belonging to profiled user code. Downstream consumers treat it
// specially, so it must never collide with a real source path.
const SentinelFilename = "<BOGUS>"

// Location identifies the user source position a sample is charged to.
type Location struct {
	// File is the source file identifier as reported by the interpreter.
	File string
	// Line is the 1-based source line.
	Line int
	// Instruction is the bytecode offset within the line, 0 on runtimes
	// that cannot expose it.
	Instruction int
}

// NoLocation returns the sentinel location for samples that could not be
// attributed to any profiled file.
func NoLocation() Location {
	return Location{File: SentinelFilename, Line: 1, Instruction: 0}
}

// Found reports whether the location refers to a real source position
// rather than the sentinel.
func (l Location) Found() bool {
	return l.File != SentinelFilename
}
