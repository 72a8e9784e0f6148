package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/quvis/engine/pkg/circuit"
	"github.com/quvis/engine/pkg/config"
	"github.com/quvis/engine/pkg/engine"
	"github.com/quvis/engine/pkg/history"
	"github.com/quvis/engine/pkg/logging"
	"github.com/quvis/engine/pkg/metrics"
)

func main() {
	var (
		datasetFile = flag.String("dataset", "", "Path to a quvis dataset JSON export")
		configFile  = flag.String("config", "", "Optional engine config YAML")
		circuitIdx  = flag.Int("circuit", 0, "Circuit index inside a multi-circuit dataset")
		sliceIdx    = flag.Int("slice", -1, "Timeline slice to snapshot (-1 = last slice)")
		windowSize  = flag.Int("window", 0, "Trailing window size in slices (0 = unbounded)")
		outFile     = flag.String("out", "", "Output file for the snapshot JSON (default: stdout)")
	)
	flag.Parse()

	if *datasetFile == "" {
		log.Fatal("--dataset is required")
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	var reg *metrics.Registry
	if cfg.Metrics {
		reg = metrics.DefaultRegistry()
	}

	datasets, err := circuit.LoadFile(*datasetFile)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	if *circuitIdx < 0 || *circuitIdx >= len(datasets) {
		log.Fatalf("Circuit index %d out of range: file has %d circuits", *circuitIdx, len(datasets))
	}
	ds := datasets[*circuitIdx]

	eng := engine.New(cfg, logger, reg)
	defer eng.Close()

	run, err := eng.LoadDataset(ds)
	if err != nil {
		log.Fatalf("Failed to load dataset into engine: %v", err)
	}

	if *windowSize > 0 {
		eng.SetWindow(history.Fixed(*windowSize))
	}

	// Wait for aggregation and the initial layout before snapshotting
	<-eng.IngestDone()
	<-run.Done()

	target := *sliceIdx
	if target < 0 {
		target = len(ds.Slices) - 1
		if target < 0 {
			target = 0
		}
	}
	eng.SetCurrentSlice(target)
	eng.SyncClusters()

	data, err := eng.Snapshot().ExportJSON()
	if err != nil {
		log.Fatalf("Failed to export snapshot: %v", err)
	}

	if *outFile == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*outFile, data, 0o644); err != nil {
		log.Fatalf("Failed to write snapshot: %v", err)
	}
	logger.Info("snapshot written", logging.Path(*outFile), logging.Count(len(data)))
}
