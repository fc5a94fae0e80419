// Command pfbench-mixed is harness (a): a mixed read/write driver that
// exercises a buffer pool's replacement policy under a uniform random
// page-access pattern and reports the Stats Registry's counters plus
// wall-clock time as one CSV row.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aashcharya1/toydb-storage-engine/core/buffer"
	"github.com/Aashcharya1/toydb-storage-engine/core/pagedfile"
	"github.com/Aashcharya1/toydb-storage-engine/core/pfstats"
	"github.com/Aashcharya1/toydb-storage-engine/pkg/config"
	"github.com/Aashcharya1/toydb-storage-engine/pkg/csvreport"
	"github.com/Aashcharya1/toydb-storage-engine/pkg/logger"
	"github.com/Aashcharya1/toydb-storage-engine/pkg/metrics"
)

type harnessConfig struct {
	File        string `mapstructure:"file"`
	Pages       int    `mapstructure:"pages"`
	Ops         int    `mapstructure:"ops"`
	Buffers     int    `mapstructure:"buffers"`
	Policy      string `mapstructure:"policy"`
	Mix         string `mapstructure:"mix"`
	Seed        int64  `mapstructure:"seed"`
	Header      bool   `mapstructure:"header"`
	Out         string `mapstructure:"out"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

const pageSize = 4096

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "optional YAML overlay (flags on the command line win)")
	file := flag.String("file", "pfbench-mixed.db", "path to the paged file to create and drive")
	pages := flag.Int("pages", 400, "number of data pages to extend the file to")
	ops := flag.Int("ops", 12000, "number of read/write operations to issue")
	buffers := flag.Int("buffers", 64, "buffer pool frame capacity")
	policy := flag.String("policy", "lru", "replacement policy: lru|mru")
	mix := flag.String("mix", "8:2", "read:write weight, e.g. 8:2")
	seed := flag.Int64("seed", 1, "PRNG seed for page selection and read/write draw")
	header := flag.Bool("header", false, "write the CSV header row before the data row")
	out := flag.String("out", "", "CSV output path (default: standard output)")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve live Stats Registry counters on this address for the run's duration")
	logLevel := flag.String("log-level", "info", "log level: debug|info|warn|error")
	logFormat := flag.String("log-format", "console", "log format: console|json")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := harnessConfig{
		File: *file, Pages: *pages, Ops: *ops, Buffers: *buffers, Policy: *policy,
		Mix: *mix, Seed: *seed, Header: *header, Out: *out, MetricsAddr: *metricsAddr,
		LogLevel: *logLevel, LogFormat: *logFormat,
	}
	var overlay harnessConfig
	if err := config.Load(*cfgPath, &overlay); err != nil {
		return err
	}
	applyOverlay(&cfg, overlay, set)

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputFile: "stderr"})
	if err != nil {
		return err
	}
	defer log.Sync()
	runID := uuid.New()
	log.Info("starting mixed read/write driver",
		zap.String("run_id", runID.String()),
		zap.String("file", cfg.File), zap.Int("pages", cfg.Pages), zap.Int("ops", cfg.Ops),
		zap.Int("buffers", cfg.Buffers), zap.String("policy", cfg.Policy), zap.String("mix", cfg.Mix),
		zap.Int64("seed", cfg.Seed))

	readWeight, writeWeight, err := parseMix(cfg.Mix)
	if err != nil {
		return err
	}
	pol := buffer.ParsePolicy(cfg.Policy)

	stats := pfstats.New()
	pool := buffer.NewPool(cfg.Buffers, pageSize, pol, stats, log)

	if _, err := os.Stat(cfg.File); err == nil {
		if err := pagedfile.Destroy(cfg.File); err != nil {
			return err
		}
	}
	if err := pagedfile.Create(cfg.File, pageSize); err != nil {
		return err
	}
	pf, err := pagedfile.Open(pool, cfg.File, log)
	if err != nil {
		return err
	}
	defer pf.Close()

	var metricsSrv *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsSrv, err = metrics.Start(cfg.MetricsAddr, "pfbench-mixed", stats)
		if err != nil {
			return err
		}
		defer metricsSrv.Shutdown(context.Background())
	}

	pageOf := make([]uint64, cfg.Pages)
	for i := 0; i < cfg.Pages; i++ {
		page, frame, err := pf.AllocPage()
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(frame.Data[0:8], uint64(i))
		if err := pf.UnfixPage(page, true); err != nil {
			return err
		}
		pageOf[i] = page
	}

	stats.Reset()
	rng := rand.New(rand.NewSource(cfg.Seed))
	start := time.Now()
	for i := 0; i < cfg.Ops; i++ {
		page := pageOf[rng.Intn(cfg.Pages)]
		frame, err := pf.GetThisPage(page)
		if err != nil {
			return err
		}
		isRead := rng.Intn(readWeight+writeWeight) < readWeight
		if isRead {
			if err := pf.UnfixPage(page, false); err != nil {
				return err
			}
			continue
		}
		binary.LittleEndian.PutUint32(frame.Data[0:4], uint32(i))
		if err := pf.UnfixPage(page, true); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	if metricsSrv != nil {
		metricsSrv.ObserveRunDuration(elapsed)
	}

	snap := stats.Snapshot()
	row := csvreport.MixedRow{
		Policy: cfg.Policy, ReadWeight: readWeight, WriteWeight: writeWeight,
		Buffers: cfg.Buffers, Pages: cfg.Pages, Ops: cfg.Ops,
		LogicalReads: snap.LogicalReads, LogicalWrites: snap.LogicalWrites,
		PhysicalReads: snap.PhysicalReads, PhysicalWrites: snap.PhysicalWrites,
		InputCount: snap.InputCount, OutputCount: snap.OutputCount,
		PageFixes: snap.PageFixes, DirtyMarks: snap.DirtyMarks,
		ElapsedMs: float64(elapsed.Microseconds()) / 1000.0,
	}

	sink := os.Stdout
	if cfg.Out != "" {
		f, err := os.Create(cfg.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		sink = f
	}
	return csvreport.WriteMixed(sink, []csvreport.MixedRow{row}, cfg.Header)
}

func parseMix(mix string) (int, int, error) {
	parts := strings.SplitN(mix, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("pfbench-mixed: --mix must be R:W, got %q", mix)
	}
	r, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("pfbench-mixed: invalid read weight in %q: %w", mix, err)
	}
	w, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("pfbench-mixed: invalid write weight in %q: %w", mix, err)
	}
	if r+w <= 0 {
		return 0, 0, fmt.Errorf("pfbench-mixed: --mix weights must sum to > 0, got %q", mix)
	}
	return r, w, nil
}

func applyOverlay(cfg *harnessConfig, overlay harnessConfig, explicit map[string]bool) {
	if !explicit["file"] && overlay.File != "" {
		cfg.File = overlay.File
	}
	if !explicit["pages"] && overlay.Pages != 0 {
		cfg.Pages = overlay.Pages
	}
	if !explicit["ops"] && overlay.Ops != 0 {
		cfg.Ops = overlay.Ops
	}
	if !explicit["buffers"] && overlay.Buffers != 0 {
		cfg.Buffers = overlay.Buffers
	}
	if !explicit["policy"] && overlay.Policy != "" {
		cfg.Policy = overlay.Policy
	}
	if !explicit["mix"] && overlay.Mix != "" {
		cfg.Mix = overlay.Mix
	}
	if !explicit["seed"] && overlay.Seed != 0 {
		cfg.Seed = overlay.Seed
	}
	if !explicit["header"] && overlay.Header {
		cfg.Header = overlay.Header
	}
	if !explicit["out"] && overlay.Out != "" {
		cfg.Out = overlay.Out
	}
	if !explicit["metrics-addr"] && overlay.MetricsAddr != "" {
		cfg.MetricsAddr = overlay.MetricsAddr
	}
	if !explicit["log-level"] && overlay.LogLevel != "" {
		cfg.LogLevel = overlay.LogLevel
	}
	if !explicit["log-format"] && overlay.LogFormat != "" {
		cfg.LogFormat = overlay.LogFormat
	}
}
