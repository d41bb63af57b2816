// Package batch drives compilation of an ordered list of AGL modules and
// writes the generated patch code to disk.
//
// It is split into:
//   - Pure decisions: ResolveOutputPath, DecideWriteMode, Banner, FormatUnit, Plan
//   - One I/O call site per stage: reading inputs and WriteUnit
//   - Sequencing: Driver.Run, guarded by the run state Machine
//
// Modules are processed strictly in input order on a single goroutine. With
// concatenation enabled, unit i+1 appends to the file unit i just wrote, so
// write order is file order.
package batch
