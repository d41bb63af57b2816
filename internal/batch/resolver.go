package batch

import "strings"

const (
	SourceExt = ".agl"
	OutputExt = ".gs"
)

// DerivedOutputPath swaps the source extension for the patch-code extension.
// This is a literal text substitution: a path without ".agl" comes back
// unchanged.
func DerivedOutputPath(input string) string {
	return strings.ReplaceAll(input, SourceExt, OutputExt)
}

// ResolveOutputPath returns the file the unit compiled from input is written
// to. It never fails.
//
//   - !concat: input's own derived path
//   - concat with outputFile: outputFile, for every unit
//   - concat without outputFile: first's derived path, for every unit
func ResolveOutputPath(input string, concat bool, outputFile, first string) string {
	if !concat {
		return DerivedOutputPath(input)
	}
	if outputFile != "" {
		return outputFile
	}
	return DerivedOutputPath(first)
}
