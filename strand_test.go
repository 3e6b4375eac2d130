package strand

import (
	"context"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/strand/config"
	"github.com/kingrea/strand/loader"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := New(config.Default(), io.Discard)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineCompileAndLoadSoloScript(t *testing.T) {
	engine := newTestEngine(t)
	scripts := engine.NewCollection("home")
	s, err := scripts.Add("answer.go", "package main\n\nfunc Answer() int { return 42 }\n")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m, err := engine.Compile(ctx, s, scripts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	value, err := m.Await(ctx)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	mod, ok := value.(*loader.Module)
	if !ok {
		t.Fatalf("loaded value is %T", value)
	}
	answer, ok := mod.Lookup("Answer")
	if !ok {
		t.Fatalf("Answer not exported")
	}
	if got := answer.Call(nil)[0].Int(); got != 42 {
		t.Fatalf("Answer() = %d", got)
	}
}

func TestEngineRewritesAcrossCollection(t *testing.T) {
	engine := newTestEngine(t)
	scripts := engine.NewCollection("home")
	scripts.Add("lib.go", "package lib\n\nfunc Twice(n int) int { return 2 * n }\n")
	root, err := scripts.Add("main.go", "package main\n\nimport _ \"./lib\"\n")
	if err != nil {
		t.Fatalf("add root: %v", err)
	}

	if _, err := engine.Compile(context.Background(), root, scripts); err != nil {
		t.Fatalf("compile: %v", err)
	}
	deps := root.Dependencies()
	if len(deps) != 2 {
		t.Fatalf("expected [lib main] handles, got %d", len(deps))
	}
	content, ok := engine.Store.Read(root.URL().Locator())
	if !ok {
		t.Fatalf("root blob missing")
	}
	if !strings.Contains(string(content), strconv.Quote(deps[0].Locator())) {
		t.Fatalf("root blob lacks rewritten locator:\n%s", content)
	}
	if !strings.Contains(string(content), "// source: home/main.go") {
		t.Fatalf("root blob lacks source annotation:\n%s", content)
	}
}

func TestEngineAwaitsRewrittenImports(t *testing.T) {
	engine := newTestEngine(t)
	scripts := engine.NewCollection("home")
	if _, err := scripts.Add("lib.go", "package lib\n\nfunc Twice(n int) int { return 2 * n }\n"); err != nil {
		t.Fatalf("add lib: %v", err)
	}
	root, err := scripts.Add("main.go", "package main\n\nimport \"./lib\"\n\nfunc Doubled() int { return lib.Twice(21) }\n")
	if err != nil {
		t.Fatalf("add root: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m, err := engine.Compile(ctx, root, scripts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	value, err := m.Await(ctx)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	mod := value.(*loader.Module)
	doubled, ok := mod.Lookup("Doubled")
	if !ok {
		t.Fatalf("Doubled not exported; have %v", mod.Symbols)
	}
	if got := doubled.Call(nil)[0].Int(); got != 42 {
		t.Fatalf("Doubled() = %d", got)
	}
}

func TestEngineAwaitsNonMainEntry(t *testing.T) {
	engine := newTestEngine(t)
	scripts := engine.NewCollection("home")
	if _, err := scripts.Add("c.go", "package c\n\nconst Base = 7\n"); err != nil {
		t.Fatalf("add c: %v", err)
	}
	root, err := scripts.Add("b.go", "package b\n\nimport \"./c\"\n\nfunc Mid() int { return c.Base * 3 }\n")
	if err != nil {
		t.Fatalf("add b: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m, err := engine.Compile(ctx, root, scripts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	value, err := m.Await(ctx)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	mod := value.(*loader.Module)
	if mod.Package != "b" {
		t.Fatalf("package %q", mod.Package)
	}
	mid, ok := mod.Lookup("Mid")
	if !ok {
		t.Fatalf("Mid not exported; have %v", mod.Symbols)
	}
	if got := mid.Call(nil)[0].Int(); got != 21 {
		t.Fatalf("Mid() = %d", got)
	}
}

func TestEngineHonorsAnnotationToggle(t *testing.T) {
	cfg := config.Default()
	cfg.SourceAnnotations = false
	engine, err := New(cfg, io.Discard)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	scripts := engine.NewCollection("home")
	s, _ := scripts.Add("solo.go", "package solo\n")
	if _, err := engine.Compile(context.Background(), s, scripts); err != nil {
		t.Fatalf("compile: %v", err)
	}
	content, _ := engine.Store.Read(s.URL().Locator())
	if strings.Contains(string(content), "// source:") {
		t.Fatalf("annotation emitted despite toggle:\n%s", content)
	}
}

func TestEngineCompileAll(t *testing.T) {
	engine := newTestEngine(t)
	scripts := engine.NewCollection("home")
	scripts.Add("c.go", "package c\n")
	scripts.Add("b.go", "package b\n\nimport _ \"./c\"\n")
	scripts.Add("a.go", "package a\n\nimport _ \"./b\"\n")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := engine.CompileAll(ctx, scripts); err != nil {
		t.Fatalf("compile all: %v", err)
	}
	for _, s := range scripts.All() {
		m := s.Module()
		if m == nil {
			t.Fatalf("%s not compiled", s.Filename())
		}
		if _, err := m.Await(ctx); err != nil {
			t.Fatalf("%s failed to load: %v", s.Filename(), err)
		}
	}
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	if _, err := New(cfg, io.Discard); err == nil {
		t.Fatalf("invalid config accepted")
	}
}
