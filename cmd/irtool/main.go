// irtool replays graph snapshots through the compile pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/irgraph/config"
	"github.com/chazu/irgraph/diag"
	"github.com/chazu/irgraph/pipeline"
	"github.com/chazu/irgraph/snapshot"
)

func main() {
	configPath := flag.String("config", "", "Path to irgraph.toml (default: search upward from the working directory)")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides [log] verbosity)")
	workers := flag.Int("workers", 0, "Concurrent units (overrides [pipeline] workers)")
	outDir := flag.String("o", "", "Write canonicalized snapshots to this directory")
	listReports := flag.Bool("reports", false, "List the ICE reports archived in the configured database and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: irtool [options] snapshot.cbor...\n\n")
		fmt.Fprintf(os.Stderr, "Canonicalizes each graph snapshot as an independent unit.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  irtool ice/*.cbor               # Replay snapshots\n")
		fmt.Fprintf(os.Stderr, "  irtool -v 2 -workers 1 g.cbor   # Debug one graph serially\n")
		fmt.Fprintf(os.Stderr, "  irtool -o out/ graphs/*.cbor    # Save canonical forms\n")
		fmt.Fprintf(os.Stderr, "  irtool -reports                 # Show archived ICEs\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}

	var logFile *string
	if cfg.Log.File != "" {
		path := cfg.Resolve(cfg.Log.File)
		logFile = &path
	}
	commonlog.Configure(cfg.Log.Verbosity, logFile)

	if *listReports {
		if err := printReports(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	recorder, err := openRecorder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer recorder.Close()

	units := make([]*pipeline.Unit, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		g, err := snapshot.Decode(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			os.Exit(1)
		}
		u := pipeline.NewUnit(g)
		u.Name = path
		units = append(units, u)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := pipeline.New(cfg, recorder).Run(ctx, units)
	names := outputNames(units)
	failed := false
	for i, r := range results {
		switch {
		case r.Bailout:
			failed = true
			fmt.Printf("ICE   %s: %v\n", r.Name, r.Err)
		case r.Err != nil:
			failed = true
			fmt.Printf("SKIP  %s: %v\n", r.Name, r.Err)
		default:
			fmt.Printf("ok    %s  %s -> %s  (-%d phis, -%d proxies)\n",
				r.Name, r.Before.Short(), r.After.Short(), r.Stats.PhisRemoved, r.Stats.ProxiesRemoved)
			if *outDir != "" {
				if err := writeSnapshot(*outDir, names[i], units[i]); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					failed = true
				}
			}
		}
	}
	fmt.Println(pipeline.Summarize(results))

	if failed {
		recorder.Close()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

// openRecorder builds the recorders the [diagnostics] section enables.
func openRecorder(cfg *config.Config) (diag.Recorder, error) {
	var recs diag.MultiRecorder
	if dir := cfg.Resolve(cfg.Diagnostics.DumpDir); dir != "" {
		d, err := diag.NewDirRecorder(dir)
		if err != nil {
			return nil, err
		}
		recs = append(recs, d)
	}
	if db := cfg.Resolve(cfg.Diagnostics.Database); db != "" {
		s, err := diag.OpenSQLite(db)
		if err != nil {
			recs.Close()
			return nil, err
		}
		recs = append(recs, s)
	}
	if len(recs) == 0 {
		return diag.Discard, nil
	}
	return recs, nil
}

func printReports(cfg *config.Config) error {
	db := cfg.Resolve(cfg.Diagnostics.Database)
	if db == "" {
		return fmt.Errorf("no [diagnostics] database configured")
	}
	s, err := diag.OpenSQLite(db)
	if err != nil {
		return err
	}
	defer s.Close()

	reports, err := s.List(context.Background())
	if err != nil {
		return err
	}
	for _, r := range reports {
		fmt.Printf("%s  %-20s %-14s %s#%d  %s\n",
			r.Time.Format("2006-01-02 15:04:05"), r.UnitName, r.Violation, r.NodeKind, r.Node, r.UnitID)
	}
	fmt.Printf("%d reports\n", len(reports))
	return nil
}

// outputNames picks a file name per unit for -o. Units whose inputs share
// a base name get their 1-based position appended, and no two units ever
// get the same name.
func outputNames(units []*pipeline.Unit) []string {
	bases := make([]string, len(units))
	count := make(map[string]int)
	for i, u := range units {
		bases[i] = strings.TrimSuffix(filepath.Base(u.Name), filepath.Ext(u.Name))
		count[bases[i]]++
	}

	names := make([]string, len(units))
	taken := make(map[string]bool)
	for i, base := range bases {
		name := base
		if count[base] > 1 {
			name = fmt.Sprintf("%s-%d", base, i+1)
		}
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d.%d", base, i+1, n)
		}
		taken[name] = true
		names[i] = name + ".cbor"
	}
	return names
}

func writeSnapshot(dir, name string, u *pipeline.Unit) error {
	data, err := snapshot.Encode(u.Graph)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}
