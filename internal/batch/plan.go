package batch

import (
	"errors"
	"fmt"
	"strings"
)

// Plan resolves the output target of every input before any I/O happens and
// reports path hazards:
//   - two inputs of a non-concatenated run deriving the same output, where
//     the later write silently replaces the earlier one
//   - an output path equal to an input path, which would overwrite a source
//
// The targets are exactly what Run uses; Plan has no side effects.
func Plan(cfg Config) ([]OutputTarget, []string) {
	first := ""
	if len(cfg.Inputs) > 0 {
		first = cfg.Inputs[0]
	}

	inputs := make(map[string]bool, len(cfg.Inputs))
	for _, in := range cfg.Inputs {
		inputs[in] = true
	}

	targets := make([]OutputTarget, 0, len(cfg.Inputs))
	owner := make(map[string]string, len(cfg.Inputs))
	var hazards []string
	for i, in := range cfg.Inputs {
		out := ResolveOutputPath(in, cfg.Concat, cfg.OutputFile, first)
		targets = append(targets, OutputTarget{Path: out, Mode: DecideWriteMode(i, cfg.Concat)})

		if inputs[out] && !(cfg.Concat && i > 0) {
			hazards = append(hazards, fmt.Sprintf("output path %q is also an input; the source will be overwritten", out))
		}
		if cfg.Concat {
			continue
		}
		if prev, ok := owner[out]; ok && prev != in {
			hazards = append(hazards, fmt.Sprintf("inputs %q and %q both write %q; the later one replaces the earlier", prev, in, out))
			continue
		}
		owner[out] = in
	}
	return targets, hazards
}

func collisionError(hazards []string) error {
	return stageError(ErrPathCollision, -1, "", errors.New(strings.Join(hazards, "; ")))
}
