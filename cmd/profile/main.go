// Command profile runs the profiling engine against a local CSV, Excel or
// JSON file and prints the resulting artifact as indented JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"datalens/adapters/tabular"
	"datalens/internal/profiling"
	"datalens/internal/rules"
	"datalens/ports"
)

func main() {
	var (
		filePath   = flag.String("file", "", "path to a CSV, Excel or JSON file")
		withRules  = flag.Bool("rules", false, "also print generated rules per column")
		sampleSize = flag.Int("sample-size", profiling.DefaultSampleSize, "max values sampled for pattern detection")
		seed       = flag.Int64("seed", 42, "sampling seed")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: profile -file data.csv [-rules]")
		os.Exit(2)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	var loader ports.DatasetLoader = tabular.NewReader()
	if strings.ToLower(filepath.Ext(*filePath)) == ".json" {
		loader = tabular.NewJSONReader()
	}

	ctx := context.Background()
	ds, err := loader.Load(ctx, filepath.Base(*filePath), f)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	engine := profiling.NewEngineWithOptions(*sampleSize, *seed)
	prof, err := engine.ProfileDataset(ctx, ds)
	if err != nil {
		log.Fatalf("Profiling failed: %v", err)
	}

	out := map[string]interface{}{"profile": prof}
	if *withRules {
		gen := rules.NewGenerator()
		ruleSets := make([]interface{}, 0, len(ds.Columns))
		for i := range ds.Columns {
			ruleSets = append(ruleSets, gen.GenerateRules(&ds.Columns[i]))
		}
		out["rules"] = ruleSets
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
