// Command pfbench-load is harness (b): loads a text file's lines as
// variable-length records into slotted pages, optionally deletes every
// k-th record in scan order, and reports slotted-page space utilization
// against hypothetical fixed-length static layouts.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aashcharya1/toydb-storage-engine/core/buffer"
	"github.com/Aashcharya1/toydb-storage-engine/core/pagedfile"
	"github.com/Aashcharya1/toydb-storage-engine/core/pfstats"
	"github.com/Aashcharya1/toydb-storage-engine/core/slotted"
	"github.com/Aashcharya1/toydb-storage-engine/pkg/config"
	"github.com/Aashcharya1/toydb-storage-engine/pkg/csvreport"
	"github.com/Aashcharya1/toydb-storage-engine/pkg/logger"
)

type harnessConfig struct {
	Data       string `mapstructure:"data"`
	Out        string `mapstructure:"out"`
	Buffers    int    `mapstructure:"buffers"`
	DeleteStep int    `mapstructure:"delete_step"`
	NoDelete   bool   `mapstructure:"no_delete"`
	Metrics    string `mapstructure:"metrics"`
	StaticLens string `mapstructure:"static_lens"`
	LogLevel   string `mapstructure:"log_level"`
	LogFormat  string `mapstructure:"log_format"`
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
	data := flag.String("data", "", "path to a text file, one record per line")
	out := flag.String("out", "pfbench-load.db", "path to the paged file to build")
	buffers := flag.Int("buffers", 32, "buffer pool frame capacity")
	deleteStep := flag.Int("delete-step", 0, "delete every k-th record in scan order after loading; 0 disables")
	noDelete := flag.Bool("no-delete", false, "force deletion off regardless of --delete-step")
	metricsPath := flag.String("metrics", "", "space-metrics CSV output path (default: standard output)")
	staticLens := flag.String("static-lens", "128,256,512,768", "comma-separated fixed record lengths to compare against")
	logLevel := flag.String("log-level", "info", "log level: debug|info|warn|error")
	logFormat := flag.String("log-format", "console", "log format: console|json")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := harnessConfig{
		Data: *data, Out: *out, Buffers: *buffers, DeleteStep: *deleteStep, NoDelete: *noDelete,
		Metrics: *metricsPath, StaticLens: *staticLens, LogLevel: *logLevel, LogFormat: *logFormat,
	}
	var overlay harnessConfig
	if err := config.Load(*cfgPath, &overlay); err != nil {
		return err
	}
	applyOverlay(&cfg, overlay, set)

	if cfg.Data == "" {
		return fmt.Errorf("pfbench-load: --data is required")
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputFile: "stderr"})
	if err != nil {
		return err
	}
	defer log.Sync()
	runID := uuid.New()
	log.Info("starting variable-length record loader",
		zap.String("run_id", runID.String()), zap.String("data", cfg.Data), zap.String("file", cfg.Out),
		zap.Int("delete_step", cfg.DeleteStep), zap.Bool("no_delete", cfg.NoDelete))

	records, err := readRecords(cfg.Data)
	if err != nil {
		return err
	}

	stats := pfstats.New()
	pool := buffer.NewPool(cfg.Buffers, pageSize, buffer.LRU, stats, log)

	if _, err := os.Stat(cfg.Out); err == nil {
		if err := pagedfile.Destroy(cfg.Out); err != nil {
			return err
		}
	}
	if err := pagedfile.Create(cfg.Out, pageSize); err != nil {
		return err
	}
	pf, err := pagedfile.Open(pool, cfg.Out, log)
	if err != nil {
		return err
	}
	defer pf.Close()

	if err := loadRecords(pf, records); err != nil {
		return err
	}

	effectiveDeleteStep := cfg.DeleteStep
	if cfg.NoDelete {
		effectiveDeleteStep = 0
	}
	if effectiveDeleteStep > 0 {
		if err := deleteEveryKth(pf, effectiveDeleteStep); err != nil {
			return err
		}
	}

	liveRecords, payloadBytes, pageCount, err := scanLive(pf)
	if err != nil {
		return err
	}
	log.Info("load complete", zap.Int("live_records", liveRecords), zap.Int64("payload_bytes", payloadBytes), zap.Int("pages", pageCount))

	rows := []csvreport.SpaceRow{{
		Layout:          "slotted",
		MaxRecordLength: 0,
		Records:         liveRecords,
		Pages:           pageCount,
		SpaceBytes:      int64(pageCount) * pageSize,
		PayloadBytes:    payloadBytes,
		Utilization:     float64(payloadBytes) / float64(pageCount*pageSize),
	}}
	for _, maxLen := range parseStaticLens(cfg.StaticLens) {
		perPage := pageSize / maxLen
		if perPage < 1 {
			perPage = 1
		}
		staticPages := (liveRecords + perPage - 1) / perPage
		rows = append(rows, csvreport.SpaceRow{
			Layout:          "static",
			MaxRecordLength: maxLen,
			Records:         liveRecords,
			Pages:           staticPages,
			SpaceBytes:      int64(staticPages) * pageSize,
			PayloadBytes:    payloadBytes,
			Utilization:     float64(payloadBytes) / float64(staticPages*pageSize),
		})
	}

	sink := os.Stdout
	if cfg.Metrics != "" {
		f, err := os.Create(cfg.Metrics)
		if err != nil {
			return err
		}
		defer f.Close()
		sink = f
	}
	return csvreport.WriteSpace(sink, rows, true)
}

// readRecords reads data line-by-line, trimming whitespace and skipping
// any line not starting with a digit.
func readRecords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pfbench-load: opening %s: %w", path, err)
	}
	defer f.Close()

	var records []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] < '0' || line[0] > '9' {
			continue
		}
		records = append(records, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pfbench-load: reading %s: %w", path, err)
	}
	return records, nil
}

// loadRecords packs each record into the current page, rolling over to
// a freshly allocated page whenever an insert returns no-space. A record
// that fails to fit even on an empty page is a caller error: the dataset
// is assumed bounded to the page size.
func loadRecords(pf *pagedfile.File, records []string) error {
	page, frame, err := pf.AllocPage()
	if err != nil {
		return err
	}
	slotted.Init(frame.Data)

	for _, rec := range records {
		data := []byte(rec)
		if _, err := slotted.Insert(frame.Data, data); err != nil {
			if err := pf.UnfixPage(page, true); err != nil {
				return err
			}
			page, frame, err = pf.AllocPage()
			if err != nil {
				return err
			}
			slotted.Init(frame.Data)
			if _, err := slotted.Insert(frame.Data, data); err != nil {
				return fmt.Errorf("pfbench-load: record of %d bytes does not fit on an empty page: %w", len(data), err)
			}
		}
	}
	return pf.UnfixPage(page, true)
}

// deleteEveryKth walks every live record in scan order (across pages, in
// allocation order) and deletes every k-th one.
func deleteEveryKth(pf *pagedfile.File, k int) error {
	n := 0
	page, frame, err := pf.GetFirstPage()
	for err == nil {
		c := slotted.NewCursor()
		var toDelete []int16
		for {
			slotID, _, cerr := c.Next(frame.Data)
			if cerr != nil {
				break
			}
			n++
			if n%k == 0 {
				toDelete = append(toDelete, slotID)
			}
		}
		for _, slotID := range toDelete {
			if err := slotted.Delete(frame.Data, slotID); err != nil {
				return err
			}
		}
		dirty := len(toDelete) > 0
		if err := pf.UnfixPage(page, dirty); err != nil {
			return err
		}
		page, frame, err = pf.GetNextPage(page)
	}
	if err != pagedfile.ErrEndOfPages {
		return err
	}
	return nil
}

// scanLive tallies live record count, total payload bytes, and page
// count across the whole file.
func scanLive(pf *pagedfile.File) (records int, payloadBytes int64, pages int, err error) {
	page, frame, ferr := pf.GetFirstPage()
	for ferr == nil {
		pages++
		payloadBytes += int64(slotted.UsedBytes(frame.Data))
		c := slotted.NewCursor()
		for {
			_, _, cerr := c.Next(frame.Data)
			if cerr != nil {
				break
			}
			records++
		}
		if uerr := pf.UnfixPage(page, false); uerr != nil {
			return 0, 0, 0, uerr
		}
		page, frame, ferr = pf.GetNextPage(page)
	}
	if ferr != pagedfile.ErrEndOfPages {
		return 0, 0, 0, ferr
	}
	return records, payloadBytes, pages, nil
}

func parseStaticLens(s string) []int {
	if s == "" {
		return nil
	}
	var lens []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			continue
		}
		lens = append(lens, n)
	}
	return lens
}

func applyOverlay(cfg *harnessConfig, overlay harnessConfig, explicit map[string]bool) {
	if !explicit["data"] && overlay.Data != "" {
		cfg.Data = overlay.Data
	}
	if !explicit["out"] && overlay.Out != "" {
		cfg.Out = overlay.Out
	}
	if !explicit["buffers"] && overlay.Buffers != 0 {
		cfg.Buffers = overlay.Buffers
	}
	if !explicit["delete-step"] && overlay.DeleteStep != 0 {
		cfg.DeleteStep = overlay.DeleteStep
	}
	if !explicit["no-delete"] && overlay.NoDelete {
		cfg.NoDelete = overlay.NoDelete
	}
	if !explicit["metrics"] && overlay.Metrics != "" {
		cfg.Metrics = overlay.Metrics
	}
	if !explicit["static-lens"] && overlay.StaticLens != "" {
		cfg.StaticLens = overlay.StaticLens
	}
	if !explicit["log-level"] && overlay.LogLevel != "" {
		cfg.LogLevel = overlay.LogLevel
	}
	if !explicit["log-format"] && overlay.LogFormat != "" {
		cfg.LogFormat = overlay.LogFormat
	}
}
