package batch

import "agl/internal/compiler"

// InputModule is one source file as read from disk.
type InputModule struct {
	Path   string
	Source string
}

// CompiledUnit is the generated text for one InputModule. It is consumed by
// the write step immediately and never retained.
type CompiledUnit struct {
	SourcePath string
	Text       string
}

// Config describes a single batch run.
//
// OutputFile is only meaningful when Concat is set; otherwise it is ignored
// and Run reports an advisory.
type Config struct {
	Inputs     []string
	Mode       compiler.Mode
	Concat     bool
	OutputFile string

	// Version is stamped into every banner line.
	Version string

	// StrictPaths turns output path collisions into a fatal error raised
	// before any file is read or written.
	StrictPaths bool
}

// WriteMode is the file-open policy for one unit.
type WriteMode string

const (
	Create WriteMode = "create"
	Append WriteMode = "append"
)

// OutputTarget is the resolved destination for one compiled unit.
type OutputTarget struct {
	Path string
	Mode WriteMode
}

// Write records one completed unit write.
type Write struct {
	Index  int
	Source string
	Target OutputTarget
	Bytes  int
}

// Result summarizes a run. On failure it still lists the writes that
// completed before the abort; those files are left on disk.
type Result struct {
	Writes     []Write
	Advisories []string
	Final      State
	History    []Step
}

// Outputs returns each distinct output path in first-write order.
func (r *Result) Outputs() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool, len(r.Writes))
	var out []string
	for _, w := range r.Writes {
		if seen[w.Target.Path] {
			continue
		}
		seen[w.Target.Path] = true
		out = append(out, w.Target.Path)
	}
	return out
}
