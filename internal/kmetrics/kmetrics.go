// Package kmetrics instruments the scheduler, VFS and ramfs with the same
// opencensus stats/view measures gcsfuse uses for its GCS/ops/file-cache
// counters, exported to Prometheus via contrib.go.opencensus.io's exporter
// rather than gcsfuse's Cloud Monitoring exporter (this module has no cloud
// project to export to).
//
// Grounded on common/oc_metrics.go's measure/view/tag shape: an
// *stats.Int64Measure per counted event, a tag.Key per dimension
// (mirroring its FSOp/FSErrCategory keys), and package-level Record*
// functions that stay cheap to call from a hot path by doing nothing but
// a single stats.Record when no view is registered for the
// measure.
package kmetrics

import (
	"context"
	"net/http"
	"sync"

	occlient "contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Dimension keys, mirroring common/oc_metrics.go's FSOp/FSErrCategory.
var (
	keyOp    = tag.MustNewKey("op")
	keyError = tag.MustNewKey("error_category")
)

var (
	schedContextSwitches = stats.Int64("sched/context_switches", "task hand-offs performed by Schedule", stats.UnitDimensionless)
	schedTicksAccounted  = stats.Int64("sched/ticks_accounted", "timer ticks accounted to a task", stats.UnitDimensionless)

	vfsOpCount  = stats.Int64("vfs/op_count", "VFS operations processed", stats.UnitDimensionless)
	vfsOpErrors = stats.Int64("vfs/op_errors", "VFS operations that returned an error", stats.UnitDimensionless)

	ramfsBlocksAllocated = stats.Int64("ramfs/blocks_allocated", "4KiB blocks allocated by ramfs file writes", stats.UnitDimensionless)
)

var registerOnce sync.Once

// Register installs the opencensus views backing every measure above and
// registers a contrib.go.opencensus.io/exporter/prometheus exporter as
// their collector, returning its http.Handler so a caller can serve
// /metrics directly. Safe to call more than once; only the first call does
// anything, and the *same* handler is returned on every call.
func Register(namespace string) (http.Handler, error) {
	var err error

	registerOnce.Do(func() {
		registered, err = occlient.NewExporter(occlient.Options{Namespace: namespace})
		if err != nil {
			return
		}
		view.RegisterExporter(registered)

		err = view.Register(
			&view.View{Name: "sched_context_switches_total", Measure: schedContextSwitches, Aggregation: view.Count()},
			&view.View{Name: "sched_ticks_accounted_total", Measure: schedTicksAccounted, Aggregation: view.Count()},
			&view.View{Name: "vfs_op_count_total", Measure: vfsOpCount, Aggregation: view.Count(), TagKeys: []tag.Key{keyOp}},
			&view.View{Name: "vfs_op_errors_total", Measure: vfsOpErrors, Aggregation: view.Count(), TagKeys: []tag.Key{keyOp, keyError}},
			&view.View{Name: "ramfs_blocks_allocated_total", Measure: ramfsBlocksAllocated, Aggregation: view.Sum()},
		)
	})
	if err != nil {
		return nil, err
	}
	return registered, nil
}

// registered holds the exporter Register installed, so a second Register
// call (registerOnce is a no-op by then) still returns the same handler.
var registered *occlient.Exporter

// RecordContextSwitch is called once per completed Core.Schedule hand-off.
func RecordContextSwitch(ctx context.Context) {
	stats.Record(ctx, schedContextSwitches.M(1))
}

// RecordTick is called once per Core.AccountTick.
func RecordTick(ctx context.Context) {
	stats.Record(ctx, schedTicksAccounted.M(1))
}

// RecordVFSOp records one VFS-level operation, and an error if err != nil.
func RecordVFSOp(ctx context.Context, op string, err error) {
	tagged, tagErr := tag.New(ctx, tag.Upsert(keyOp, op))
	if tagErr != nil {
		tagged = ctx
	}
	stats.Record(tagged, vfsOpCount.M(1))
	if err != nil {
		errTagged, tagErr := tag.New(tagged, tag.Upsert(keyError, errorCategory(err)))
		if tagErr != nil {
			errTagged = tagged
		}
		stats.Record(errTagged, vfsOpErrors.M(1))
	}
}

// RecordBlockAllocated is called once per new ramfs block a file write
// allocates.
func RecordBlockAllocated(ctx context.Context) {
	stats.Record(ctx, ramfsBlocksAllocated.M(1))
}

func errorCategory(err error) string {
	type kinded interface{ Errno() int }
	if _, ok := err.(kinded); ok {
		return "kernel_error"
	}
	return "other"
}
