package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kingrea/strand"
	"github.com/kingrea/strand/config"
)

func main() {
	server := flag.String("server", "home", "server name the scripts belong to")
	dir := flag.String("dir", "", "directory of .go scripts to load (required)")
	entry := flag.String("entry", "", "entry script filename to compile (required)")
	configFile := flag.String("config-file", "", "path to YAML settings file")
	await := flag.Bool("await", false, "wait for the module load to settle and report the outcome")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	if strings.TrimSpace(*dir) == "" {
		die("--dir is required")
	}
	if strings.TrimSpace(*entry) == "" {
		die("--entry is required")
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			die("load config: %v", err)
		}
	}

	engine, err := strand.New(cfg, os.Stderr)
	if err != nil {
		die("build engine: %v", err)
	}

	scripts := engine.NewCollection(*server)
	entries, err := os.ReadDir(*dir)
	if err != nil {
		die("read %s: %v", *dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".go" {
			continue
		}
		code, err := os.ReadFile(filepath.Join(*dir, e.Name()))
		if err != nil {
			die("read %s: %v", e.Name(), err)
		}
		if _, err := scripts.Add(e.Name(), string(code)); err != nil {
			die("register %s: %v", e.Name(), err)
		}
	}

	root, ok := scripts.Lookup(*entry)
	if !ok {
		die("entry script %s not found in %s", *entry, *dir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	module, err := engine.Compile(ctx, root, scripts)
	if err != nil {
		die("compile %s: %v", *entry, err)
	}

	fmt.Printf("compiled %s/%s\n", *server, *entry)
	for _, dep := range root.Dependencies() {
		fmt.Printf("  %-24s %s\n", dep.Filename(), dep.Locator())
	}

	if *await {
		value, err := module.Await(ctx)
		if err != nil {
			die("load module: %v", err)
		}
		fmt.Printf("module loaded: %T\n", value)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "strand-compile: "+format+"\n", args...)
	os.Exit(1)
}
