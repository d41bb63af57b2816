package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agl/internal/batch"
	"agl/internal/compiler"
	"agl/internal/trace"
)

const testVersion = "0.1.0"

// echoCompiler returns a mode-tagged copy of the trimmed source.
var echoCompiler = compiler.InvokerFunc(func(src string, mode compiler.Mode) (string, error) {
	return mode.String() + ":" + strings.TrimSpace(src), nil
})

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func banner(src string) string { return batch.Banner(testVersion, src) }

func run(t *testing.T, d *batch.Driver, cfg batch.Config) (*batch.Result, error) {
	t.Helper()
	cfg.Version = testVersion
	if cfg.Mode == "" {
		cfg.Mode = compiler.ModePSX
	}
	return d.Run(context.Background(), cfg)
}

func TestRun_NoConcat_OneOutputPerInput(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	b := writeSource(t, dir, "b.agl", "beta")

	d := batch.NewDriver(echoCompiler, nil)
	res, err := run(t, d, batch.Config{Inputs: []string{a, b}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Final != batch.StateDone {
		t.Fatalf("final state %s", res.Final)
	}

	if got := readFile(t, filepath.Join(dir, "a.gs")); got != banner(a)+"\nPSX:alpha\n" {
		t.Fatalf("a.gs = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "b.gs")); got != banner(b)+"\nPSX:beta\n" {
		t.Fatalf("b.gs = %q", got)
	}
	for _, w := range res.Writes {
		if w.Target.Mode != batch.Create {
			t.Fatalf("write %d used %s, want create", w.Index, w.Target.Mode)
		}
	}
}

func TestRun_ConcatWithoutOutputFile_TargetsFirstInput(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	b := writeSource(t, dir, "b.agl", "beta")

	res, err := run(t, batch.NewDriver(echoCompiler, nil), batch.Config{Inputs: []string{a, b}, Concat: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := banner(a) + "\nPSX:alpha\n" + banner(b) + "\nPSX:beta"
	if got := readFile(t, filepath.Join(dir, "a.gs")); got != want {
		t.Fatalf("a.gs\n got: %q\nwant: %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.gs")); !os.IsNotExist(err) {
		t.Fatalf("b.gs must not be written in concat mode (stat err %v)", err)
	}
	if outs := res.Outputs(); len(outs) != 1 || outs[0] != filepath.Join(dir, "a.gs") {
		t.Fatalf("unexpected outputs %v", outs)
	}
	if res.Writes[0].Target.Mode != batch.Create || res.Writes[1].Target.Mode != batch.Append {
		t.Fatalf("unexpected write modes %+v", res.Writes)
	}
}

func TestRun_ConcatThreeInputs_EachBannerOnItsOwnLine(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	b := writeSource(t, dir, "b.agl", "beta")
	c := writeSource(t, dir, "c.agl", "gamma")

	if _, err := run(t, batch.NewDriver(echoCompiler, nil), batch.Config{Inputs: []string{a, b, c}, Concat: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := banner(a) + "\nPSX:alpha\n" +
		banner(b) + "\nPSX:beta\n" +
		banner(c) + "\nPSX:gamma"
	got := readFile(t, filepath.Join(dir, "a.gs"))
	if got != want {
		t.Fatalf("a.gs\n got: %q\nwant: %q", got, want)
	}
	var banners int
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "// generated by agl") {
			banners++
		} else if strings.Contains(line, "//") {
			t.Fatalf("banner merged into code line %q", line)
		}
	}
	if banners != 3 {
		t.Fatalf("expected 3 banner lines, got %d", banners)
	}
}

func TestRun_ConcatWithOutputFile_SingleInput(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	out := filepath.Join(dir, "out.gs")

	if _, err := run(t, batch.NewDriver(echoCompiler, nil), batch.Config{Inputs: []string{a}, Concat: true, OutputFile: out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readFile(t, out); got != banner(a)+"\nPSX:alpha\n" {
		t.Fatalf("out.gs = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.gs")); !os.IsNotExist(err) {
		t.Fatalf("a.gs must not be written when an output file is given")
	}
}

func TestRun_OutputFileWithoutConcat_IsAdvisory(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	b := writeSource(t, dir, "b.agl", "beta")
	out := filepath.Join(dir, "out.gs")

	rec := trace.NewRecorder()
	d := batch.NewDriver(echoCompiler, nil)
	d.Trace = rec
	res, err := run(t, d, batch.Config{Inputs: []string{a, b}, OutputFile: out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Advisories) != 1 || !strings.Contains(res.Advisories[0], "ignored because concat is not set") {
		t.Fatalf("expected advisory, got %v", res.Advisories)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("out.gs must be untouched")
	}
	readFile(t, filepath.Join(dir, "a.gs"))
	readFile(t, filepath.Join(dir, "b.gs"))

	events := rec.Snapshot()
	if events[0].Kind != trace.EventAdvisory || events[0].Reason != "OutputFileIgnored" {
		t.Fatalf("expected advisory event first, got %+v", events[0])
	}
}

func TestRun_NoConcat_RerunIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	cfg := batch.Config{Inputs: []string{a}}

	if _, err := run(t, batch.NewDriver(echoCompiler, nil), cfg); err != nil {
		t.Fatalf("run1: %v", err)
	}
	first := readFile(t, filepath.Join(dir, "a.gs"))
	if _, err := run(t, batch.NewDriver(echoCompiler, nil), cfg); err != nil {
		t.Fatalf("run2: %v", err)
	}
	if second := readFile(t, filepath.Join(dir, "a.gs")); second != first {
		t.Fatalf("rerun changed output\n1=%q\n2=%q", first, second)
	}
}

func TestRun_Concat_StaleOutputReplacedNotDoubled(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	b := writeSource(t, dir, "b.agl", "beta")
	out := filepath.Join(dir, "all.gs")
	if err := os.WriteFile(out, []byte("stale\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cfg := batch.Config{Inputs: []string{a, b}, Concat: true, OutputFile: out}

	if _, err := run(t, batch.NewDriver(echoCompiler, nil), cfg); err != nil {
		t.Fatalf("run1: %v", err)
	}
	first := readFile(t, out)
	if _, err := run(t, batch.NewDriver(echoCompiler, nil), cfg); err != nil {
		t.Fatalf("run2: %v", err)
	}
	second := readFile(t, out)

	if first != second {
		t.Fatalf("concat rerun not reproducible\n1=%q\n2=%q", first, second)
	}
	if strings.Contains(second, "stale") {
		t.Fatalf("stale content survived: %q", second)
	}
	if strings.Count(second, "// generated by agl") != 2 {
		t.Fatalf("expected exactly two banners, got %q", second)
	}
}

func TestRun_WithReferenceCompiler(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "if16 0x800681c8 == 5 { write8 0x800681c8 6 }")

	if _, err := run(t, batch.NewDriver(compiler.Default, nil), batch.Config{Inputs: []string{a}, Mode: compiler.ModePSX}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := banner(a) + "\nD00681c8 0005\n300681c8 0006\n"
	if got := readFile(t, filepath.Join(dir, "a.gs")); got != want {
		t.Fatalf("a.gs\n got: %q\nwant: %q", got, want)
	}
}

func TestRun_InputReadError_AbortsAndKeepsEarlierOutputs(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	missing := filepath.Join(dir, "missing.agl")
	c := writeSource(t, dir, "c.agl", "gamma")

	res, err := run(t, batch.NewDriver(echoCompiler, nil), batch.Config{Inputs: []string{a, missing, c}})
	if !errors.Is(err, batch.ErrInputRead) {
		t.Fatalf("expected ErrInputRead, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	var se *batch.StageError
	if !errors.As(err, &se) || se.Index != 1 || se.Path != missing {
		t.Fatalf("unexpected stage error %#v", se)
	}
	if res.Final != batch.StateAborted {
		t.Fatalf("final state %s", res.Final)
	}
	readFile(t, filepath.Join(dir, "a.gs"))
	if _, err := os.Stat(filepath.Join(dir, "c.gs")); !os.IsNotExist(err) {
		t.Fatalf("modules after the failure must not run")
	}
}

func TestRun_CompileError_NoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "write8 0x80000000 999")

	res, err := run(t, batch.NewDriver(compiler.Default, nil), batch.Config{Inputs: []string{a}})
	if !errors.Is(err, batch.ErrCompile) {
		t.Fatalf("expected ErrCompile, got %v", err)
	}
	var ce *compiler.Error
	if !errors.As(err, &ce) || ce.Line != 1 {
		t.Fatalf("expected compiler diagnostic to be preserved, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.gs")); !os.IsNotExist(statErr) {
		t.Fatalf("no output must be written for a failed module")
	}
	last := res.History[len(res.History)-1]
	if last.State != batch.StateAborted || last.Index != 0 {
		t.Fatalf("unexpected last step %v", last)
	}
	prev := res.History[len(res.History)-2]
	if prev.State != batch.StateCompiling {
		t.Fatalf("expected abort from COMPILING, got %v", prev)
	}
}

func TestRun_OutputWriteError(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	out := filepath.Join(dir, "no-such-dir", "out.gs")

	_, err := run(t, batch.NewDriver(echoCompiler, nil), batch.Config{Inputs: []string{a}, Concat: true, OutputFile: out})
	if !errors.Is(err, batch.ErrOutputWrite) {
		t.Fatalf("expected ErrOutputWrite, got %v", err)
	}
	if !strings.Contains(err.Error(), out) {
		t.Fatalf("error should name the output path: %v", err)
	}
}

func TestRun_StrictPaths_AbortsBeforeAnyIO(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "codes.txt", "alpha")

	var reads int
	d := batch.NewDriver(echoCompiler, nil)
	d.ReadFile = func(p string) ([]byte, error) {
		reads++
		return os.ReadFile(p)
	}

	_, err := run(t, d, batch.Config{Inputs: []string{src}, StrictPaths: true})
	if !errors.Is(err, batch.ErrPathCollision) {
		t.Fatalf("expected ErrPathCollision, got %v", err)
	}
	if reads != 0 {
		t.Fatalf("expected no reads, got %d", reads)
	}
	if got := readFile(t, src); got != "alpha" {
		t.Fatalf("source was modified: %q", got)
	}
}

func TestRun_PathHazardIsAdvisoryByDefault(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "lib.agl"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "lib.gs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	first := writeSource(t, dir, filepath.Join("lib.agl", "main.agl"), "first")
	second := writeSource(t, dir, filepath.Join("lib.gs", "main.agl"), "second")

	res, err := run(t, batch.NewDriver(echoCompiler, nil), batch.Config{Inputs: []string{first, second}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Advisories) != 1 {
		t.Fatalf("expected a collision advisory, got %v", res.Advisories)
	}
	got := readFile(t, filepath.Join(dir, "lib.gs", "main.gs"))
	if !strings.Contains(got, "PSX:second") || strings.Contains(got, "PSX:first") {
		t.Fatalf("expected last write to win, got %q", got)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := batch.NewDriver(echoCompiler, nil).Run(context.Background(), batch.Config{Mode: "gba"})
	if !errors.Is(err, batch.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	d := &batch.Driver{}
	if _, err := d.Run(context.Background(), batch.Config{Inputs: []string{"a.agl"}, Mode: compiler.ModePSX, Version: testVersion}); !errors.Is(err, batch.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for missing compiler, got %v", err)
	}

	_, err = batch.NewDriver(echoCompiler, nil).Run(context.Background(), batch.Config{Inputs: []string{"a.agl"}, Mode: compiler.ModePSX})
	if !errors.Is(err, batch.ErrInvalidConfig) || !strings.Contains(err.Error(), "version") {
		t.Fatalf("expected ErrInvalidConfig for empty version, got %v", err)
	}
}

func TestRun_ModeIsNormalizedBeforeCompiling(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "write8 0x80010000 1\n")

	res, err := run(t, batch.NewDriver(compiler.Default, nil), batch.Config{Inputs: []string{a}, Mode: "PSX"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Final != batch.StateDone {
		t.Fatalf("final state %s", res.Final)
	}
	if got := readFile(t, filepath.Join(dir, "a.gs")); got != banner(a)+"\n30010000 0001\n" {
		t.Fatalf("a.gs = %q", got)
	}
}

func TestNewDriver_DiscardsEventsByDefault(t *testing.T) {
	d := batch.NewDriver(echoCompiler, nil)
	if _, ok := d.Trace.(trace.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", d.Trace)
	}
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	if _, err := run(t, d, batch.Config{Inputs: []string{a}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_TraceRecordsOrderedEvents(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.agl", "alpha")
	b := writeSource(t, dir, "b.agl", "beta")
	out := filepath.Join(dir, "a.gs")

	rec := trace.NewRecorder()
	d := batch.NewDriver(echoCompiler, nil)
	d.Trace = rec
	if _, err := run(t, d, batch.Config{Inputs: []string{a, b}, Concat: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []trace.Event{
		{Kind: trace.EventModuleRead, Index: 0, Source: a},
		{Kind: trace.EventModuleCompiled, Index: 0, Source: a},
		{Kind: trace.EventOutputCreated, Index: 0, Source: a, Output: out},
		{Kind: trace.EventModuleRead, Index: 1, Source: b},
		{Kind: trace.EventModuleCompiled, Index: 1, Source: b},
		{Kind: trace.EventOutputAppended, Index: 1, Source: b, Output: out},
	}
	got := rec.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d\n got: %+v\nwant: %+v", i, got[i], want[i])
		}
	}
}
