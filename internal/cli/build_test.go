package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/coffersys/coffer/pkg/container"
	"github.com/coffersys/coffer/pkg/observability"
)

const testManifest = `
container = "game/props"
core = "engine/core"
roots = ["Barrel1"]

[[types]]
name = "Barrel"
super = "engine/core:Object"
flags = ["public"]

[[instances]]
name = "Barrel1"
class = "Barrel"
flags = ["public", "assetLike"]
`

func quietContext() context.Context {
	l := log.NewWithOptions(io.Discard, log.Options{})
	return withLogger(context.Background(), l)
}

func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "props.toml")
	if err := os.WriteFile(path, []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunBuildWritesContainer(t *testing.T) {
	path := writeManifest(t)

	opts := buildOpts{profile: "runtime", noCache: true}
	if err := runBuild(quietContext(), &opts, path); err != nil {
		t.Fatalf("runBuild: %v", err)
	}

	out := strings.TrimSuffix(path, ".toml") + ".coffer"
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("container not written: %v", err)
	}
	defer f.Close()

	file, err := container.Read(f)
	if err != nil {
		t.Fatalf("written container does not parse: %v", err)
	}
	if file.Container != "game/props" {
		t.Errorf("container = %q", file.Container)
	}
	if len(file.Tables.Exports) != 3 {
		t.Errorf("exports = %d, want 3 (type, default, instance)", len(file.Tables.Exports))
	}
}

func TestRunBuildExplicitOutput(t *testing.T) {
	path := writeManifest(t)
	out := filepath.Join(t.TempDir(), "nested", "props.coffer")

	opts := buildOpts{profile: "runtime", noCache: true, output: out}
	if err := runBuild(quietContext(), &opts, path); err != nil {
		t.Fatalf("runBuild: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not created: %v", err)
	}
}

func TestRunBuildBadProfile(t *testing.T) {
	opts := buildOpts{profile: "nightly"}
	if err := runBuild(quietContext(), &opts, writeManifest(t)); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestRunBuildMissingManifest(t *testing.T) {
	opts := buildOpts{profile: "runtime", noCache: true}
	err := runBuild(quietContext(), &opts, filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestRunGraphWritesDOT(t *testing.T) {
	path := writeManifest(t)
	out := filepath.Join(t.TempDir(), "props.dot")

	opts := graphOpts{rankdir: "LR", profile: "runtime", output: out, noCache: true}
	if err := runGraph(quietContext(), &opts, path); err != nil {
		t.Fatalf("runGraph: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	src := string(data)
	if !strings.HasPrefix(src, "digraph G {") {
		t.Errorf("not a DOT file:\n%s", src)
	}
	if !strings.Contains(src, "rankdir=LR;") {
		t.Error("rankdir flag not honored")
	}
	if !strings.Contains(src, `label="Barrel"`) {
		t.Errorf("type node missing:\n%s", src)
	}
}

// renderCacheRecorder counts render-artifact cache traffic.
type renderCacheRecorder struct {
	observability.NoopCacheHooks
	hits, sets int
}

func (r *renderCacheRecorder) OnCacheHit(_ context.Context, kind string) {
	if kind == "render" {
		r.hits++
	}
}

func (r *renderCacheRecorder) OnCacheSet(_ context.Context, kind string, _ int) {
	if kind == "render" {
		r.sets++
	}
}

func TestRunGraphCachesRenderedSVG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	rec := &renderCacheRecorder{}
	observability.SetCacheHooks(rec)
	defer observability.Reset()

	path := writeManifest(t)
	out := filepath.Join(t.TempDir(), "props.svg")

	opts := graphOpts{rankdir: "TB", profile: "runtime", svg: true, output: out}
	if err := runGraph(quietContext(), &opts, path); err != nil {
		t.Fatalf("first runGraph: %v", err)
	}
	if rec.sets == 0 {
		t.Fatal("first render not cached")
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(first), "<svg") {
		t.Errorf("not an SVG:\n%.200s", first)
	}

	if err := runGraph(quietContext(), &opts, path); err != nil {
		t.Fatalf("second runGraph: %v", err)
	}
	if rec.hits == 0 {
		t.Error("second render not served from cache")
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cached render differs from fresh render")
	}
}

func TestRunInspectPrintsTables(t *testing.T) {
	path := writeManifest(t)
	opts := buildOpts{profile: "runtime", noCache: true}
	if err := runBuild(quietContext(), &opts, path); err != nil {
		t.Fatal(err)
	}

	out := strings.TrimSuffix(path, ".toml") + ".coffer"
	if err := runInspect(&inspectOpts{deps: true, imports: true}, out); err != nil {
		t.Errorf("runInspect: %v", err)
	}
}

func TestRunInspectMissingFile(t *testing.T) {
	if err := runInspect(&inspectOpts{}, filepath.Join(t.TempDir(), "nope.coffer")); err == nil {
		t.Error("expected error")
	}
}
