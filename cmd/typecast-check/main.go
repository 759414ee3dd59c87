// Package main implements typecast-check, a command line client for the cast
// engine and the catalog snapshot tooling.
//
// Usage:
//
//	typecast-check [-json] [-catalog PATH] SOURCE TARGET
//	typecast-check matrix [-json] TYPE...
//	typecast-check common TYPE...
//	typecast-check snapshot export|import [-config FILE] [-data-dir DIR] [-key KEY]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/arkilian/typecast/internal/casts"
	"github.com/arkilian/typecast/internal/catalog"
	"github.com/arkilian/typecast/internal/config"
	"github.com/arkilian/typecast/internal/parser"
	"github.com/arkilian/typecast/internal/storage"
	"github.com/arkilian/typecast/pkg/types"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "matrix":
			return runMatrix(args[1:], stdout, stderr)
		case "common":
			return runCommon(args[1:], stdout, stderr)
		case "snapshot":
			return runSnapshot(ctx, args[1:], stdout, stderr)
		}
	}
	return runCheck(ctx, args, stdout, stderr)
}

// checkOutput is the -json form of a single check.
type checkOutput struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Implicit     bool   `json:"implicit"`
	Explicit     bool   `json:"explicit"`
	Rule         string `json:"rule"`
	ImplicitRule string `json:"implicit_rule"`
}

func runCheck(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("typecast-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Print the decision as JSON")
	catalogPath := fs.String("catalog", "", "Catalog database used to resolve named structured types")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: typecast-check [-json] [-catalog PATH] SOURCE TARGET\n")
		fmt.Fprintf(stderr, "       typecast-check matrix [-json] TYPE...\n")
		fmt.Fprintf(stderr, "       typecast-check common TYPE...\n")
		fmt.Fprintf(stderr, "       typecast-check snapshot export|import [options]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}

	parse := func(s string) (types.LogicalType, error) { return parser.Parse(s) }
	if *catalogPath != "" {
		cat, err := catalog.NewCatalog(*catalogPath, 1)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitError
		}
		defer cat.Close()
		parse = func(s string) (types.LogicalType, error) { return cat.ParseType(ctx, s) }
	}

	source, err := parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "invalid source type: %v\n", err)
		return exitUsage
	}
	target, err := parse(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "invalid target type: %v\n", err)
		return exitUsage
	}

	d := casts.Resolve(source, target)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.Encode(checkOutput{
			Source:       source.String(),
			Target:       target.String(),
			Implicit:     d.Implicit,
			Explicit:     d.Explicit,
			Rule:         string(d.Rule),
			ImplicitRule: string(d.ImplicitRule),
		})
		return exitOK
	}

	fmt.Fprintf(stdout, "%s -> %s\n", source, target)
	fmt.Fprintf(stdout, "  implicit: %-5v (%s)\n", d.Implicit, d.ImplicitRule)
	fmt.Fprintf(stdout, "  explicit: %-5v (%s)\n", d.Explicit, d.Rule)
	return exitOK
}

func parseAll(args []string, stderr io.Writer) ([]types.LogicalType, bool) {
	list := make([]types.LogicalType, 0, len(args))
	for _, s := range args {
		t, err := parser.Parse(s)
		if err != nil {
			fmt.Fprintf(stderr, "invalid type %q: %v\n", s, err)
			return nil, false
		}
		list = append(list, t)
	}
	return list, true
}

// matrixCell renders a decision as I (implicit), E (explicit only) or -.
func matrixCell(d casts.Decision) string {
	switch {
	case d.Implicit:
		return "I"
	case d.Explicit:
		return "E"
	default:
		return "-"
	}
}

func runMatrix(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("matrix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Print the matrix as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Usage: typecast-check matrix [-json] TYPE...\n")
		return exitUsage
	}

	list, ok := parseAll(fs.Args(), stderr)
	if !ok {
		return exitUsage
	}
	matrix := casts.Matrix(list)

	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.String()
	}

	if *asJSON {
		out := struct {
			Types  []string   `json:"types"`
			Matrix [][]string `json:"matrix"`
		}{Types: names, Matrix: make([][]string, len(matrix))}
		for i, row := range matrix {
			out.Matrix[i] = make([]string, len(row))
			for j, d := range row {
				out.Matrix[i][j] = matrixCell(d)
			}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out)
		return exitOK
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "source \\ target\t%s\n", strings.Join(names, "\t"))
	for i, row := range matrix {
		cells := make([]string, len(row))
		for j, d := range row {
			cells[j] = matrixCell(d)
		}
		fmt.Fprintf(w, "%s\t%s\n", names[i], strings.Join(cells, "\t"))
	}
	w.Flush()
	fmt.Fprintf(stdout, "\nI = implicit, E = explicit only, - = not castable\n")
	return exitOK
}

func runCommon(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(stderr, "Usage: typecast-check common TYPE...\n")
		return exitUsage
	}
	list, ok := parseAll(args, stderr)
	if !ok {
		return exitUsage
	}
	common, ok := casts.CommonAssignable(list...)
	if !ok {
		fmt.Fprintf(stderr, "no common type among the inputs\n")
		return exitError
	}
	fmt.Fprintln(stdout, common)
	return exitOK
}

func runSnapshot(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || (args[0] != "export" && args[0] != "import") {
		fmt.Fprintf(stderr, "Usage: typecast-check snapshot export|import [-config FILE] [-data-dir DIR] [-key KEY]\n")
		return exitUsage
	}
	action := args[0]

	fs := flag.NewFlagSet("snapshot "+action, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to configuration file (YAML or JSON)")
	dataDir := fs.String("data-dir", "", "Base directory for the catalog and local snapshots")
	key := fs.String("key", "", "Snapshot object key")
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitError
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *key != "" {
		cfg.Storage.SnapshotKey = *key
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return exitError
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	store, err := storage.New(ctx, cfg.Storage.Type, cfg.Storage.Path, cfg.Storage.S3.Bucket, storage.S3Config{
		Region:       cfg.Storage.S3.Region,
		Endpoint:     cfg.Storage.S3.Endpoint,
		UsePathStyle: cfg.Storage.S3.Endpoint != "",
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	cat, err := catalog.NewCatalog(cfg.Catalog.Path, 1)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	defer cat.Close()

	var info *catalog.SnapshotInfo
	if action == "export" {
		info, err = cat.ExportSnapshot(ctx, store, cfg.Storage.SnapshotKey)
	} else {
		info, err = cat.ImportSnapshot(ctx, store, cfg.Storage.SnapshotKey)
	}
	if err != nil {
		fmt.Fprintf(stderr, "snapshot %s failed: %v\n", action, err)
		return exitError
	}

	fmt.Fprintf(stdout, "%sed %s: %d types, %d schema versions, %d bytes\n",
		action, info.Key, info.Types, info.Schemas, info.SizeBytes)
	return exitOK
}
