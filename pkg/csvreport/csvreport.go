// Package csvreport writes the three fixed CSV schemas the benchmark
// harnesses emit. It uses the standard library's encoding/csv: none of
// the retrieval pack's dependencies offer a CSV writer, and a flat
// comma-separated row of scalars has no structure a third-party encoder
// would meaningfully help with.
package csvreport

import (
	"encoding/csv"
	"io"
	"strconv"
)

// MixedRow is one row of the mixed read/write workload CSV.
type MixedRow struct {
	Policy        string
	ReadWeight    int
	WriteWeight   int
	Buffers       int
	Pages         int
	Ops           int
	LogicalReads  uint64
	LogicalWrites uint64
	PhysicalReads uint64
	PhysicalWrites uint64
	InputCount    uint64
	OutputCount   uint64
	PageFixes     uint64
	DirtyMarks    uint64
	ElapsedMs     float64
}

var mixedHeader = []string{
	"policy", "read_weight", "write_weight", "buffers", "pages", "ops",
	"logical_reads", "logical_writes", "physical_reads", "physical_writes",
	"input_count", "output_count", "page_fixes", "dirty_marks", "elapsed_ms",
}

func (r MixedRow) record() []string {
	return []string{
		r.Policy,
		strconv.Itoa(r.ReadWeight),
		strconv.Itoa(r.WriteWeight),
		strconv.Itoa(r.Buffers),
		strconv.Itoa(r.Pages),
		strconv.Itoa(r.Ops),
		strconv.FormatUint(r.LogicalReads, 10),
		strconv.FormatUint(r.LogicalWrites, 10),
		strconv.FormatUint(r.PhysicalReads, 10),
		strconv.FormatUint(r.PhysicalWrites, 10),
		strconv.FormatUint(r.InputCount, 10),
		strconv.FormatUint(r.OutputCount, 10),
		strconv.FormatUint(r.PageFixes, 10),
		strconv.FormatUint(r.DirtyMarks, 10),
		strconv.FormatFloat(r.ElapsedMs, 'f', 3, 64),
	}
}

// WriteMixed writes the mixed-workload CSV header followed by rows.
// writeHeader is false when appending data-only rows to a file a prior
// invocation already put a header on.
func WriteMixed(w io.Writer, rows []MixedRow, writeHeader bool) error {
	cw := csv.NewWriter(w)
	if writeHeader {
		if err := cw.Write(mixedHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SpaceRow is one row of the record-loader space-utilization CSV.
type SpaceRow struct {
	Layout          string
	MaxRecordLength int
	Records         int
	Pages           int
	SpaceBytes      int64
	PayloadBytes    int64
	Utilization     float64
}

var spaceHeader = []string{
	"layout", "max_record_length", "records", "pages",
	"space_bytes", "payload_bytes", "utilization",
}

func (r SpaceRow) record() []string {
	return []string{
		r.Layout,
		strconv.Itoa(r.MaxRecordLength),
		strconv.Itoa(r.Records),
		strconv.Itoa(r.Pages),
		strconv.FormatInt(r.SpaceBytes, 10),
		strconv.FormatInt(r.PayloadBytes, 10),
		strconv.FormatFloat(r.Utilization, 'f', 4, 64),
	}
}

// WriteSpace writes the space-metrics CSV header followed by rows.
func WriteSpace(w io.Writer, rows []SpaceRow, writeHeader bool) error {
	cw := csv.NewWriter(w)
	if writeHeader {
		if err := cw.Write(spaceHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// IndexRow is one row of the index-construction comparator CSV: one row
// per (method, phase) pair, where phase distinguishes the build pass
// from the subsequent lookup pass.
type IndexRow struct {
	Method        string
	Phase         string
	LogicalReads  uint64
	LogicalWrites uint64
	PhysicalReads uint64
	PhysicalWrites uint64
	PageFixes     uint64
	DirtyMarks    uint64
	ElapsedMs     float64
}

var indexHeader = []string{
	"method", "phase", "logical_reads", "logical_writes",
	"physical_reads", "physical_writes", "page_fixes", "dirty_marks", "elapsed_ms",
}

func (r IndexRow) record() []string {
	return []string{
		r.Method,
		r.Phase,
		strconv.FormatUint(r.LogicalReads, 10),
		strconv.FormatUint(r.LogicalWrites, 10),
		strconv.FormatUint(r.PhysicalReads, 10),
		strconv.FormatUint(r.PhysicalWrites, 10),
		strconv.FormatUint(r.PageFixes, 10),
		strconv.FormatUint(r.DirtyMarks, 10),
		strconv.FormatFloat(r.ElapsedMs, 'f', 3, 64),
	}
}

// WriteIndex writes the index-metrics CSV header followed by rows.
func WriteIndex(w io.Writer, rows []IndexRow, writeHeader bool) error {
	cw := csv.NewWriter(w)
	if writeHeader {
		if err := cw.Write(indexHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
