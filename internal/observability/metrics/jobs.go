// Package metrics emits the standard job and ledger metrics through a statsd.Sink.
package metrics

import (
	"time"

	obserrors "github.com/target/jobdesk-api/internal/observability/errors"
	"github.com/target/jobdesk-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Job operation names used as the "op" tag.
const (
	OpCreate  = "create"
	OpEdit    = "edit"
	OpReopen  = "reopen"
	OpReorder = "reorder"
	OpCompact = "compact"
)

// JobMetric captures the outcome of one job mutation for metric emission.
type JobMetric struct {
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitJobOperation emits standardised job operation metrics.
func EmitJobOperation(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"op":     in.Operation,
		"result": in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.operation", 1, tags)

	if in.Duration > 0 {
		sink.Timing("job.operation.duration", in.Duration, CloneTags(tags))
	}
}

// ResultFor picks the result tag for err.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ScopeAuditMetric summarizes one pass of the scope auditor.
type ScopeAuditMetric struct {
	Scanned   int
	Drifted   int
	Corrupted int
	Repaired  int
	Duration time.Duration
	Err      error
}

// EmitScopeAudit emits the per-pass auditor metrics.
func EmitScopeAudit(sink statsd.Sink, in ScopeAuditMetric) {
	if sink == nil {
		return
	}

	result := ResultFor(in.Err)
	tags := map[string]string{"result": result}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("ledger.audit.run", 1, tags)
	sink.Gauge("ledger.audit.scopes", float64(in.Scanned), nil)
	sink.Gauge("ledger.audit.drifted", float64(in.Drifted), nil)
	sink.Gauge("ledger.audit.corrupted", float64(in.Corrupted), nil)
	if in.Repaired > 0 {
		sink.Count("ledger.audit.repaired", int64(in.Repaired), nil)
	}
	if in.Duration > 0 {
		sink.Timing("ledger.audit.duration", in.Duration, CloneTags(tags))
	}
}

// EmitScopeGaps reports one scope whose ranks only have the gaps closes leave behind.
func EmitScopeGaps(sink statsd.Sink, gaps int) {
	if sink == nil {
		return
	}
	sink.Count("ledger.scope.gapped", 1, nil)
	sink.Gauge("ledger.scope.gaps", float64(gaps), nil)
}

// EmitScopeDrift reports one corrupt scope: a duplicated rank or a rank below 1.
func EmitScopeDrift(sink statsd.Sink, duplicates, gaps, outOfRange int) {
	if sink == nil {
		return
	}
	sink.Count("ledger.scope.drift", 1, nil)
	sink.Gauge("ledger.scope.duplicates", float64(duplicates), nil)
	sink.Gauge("ledger.scope.gaps", float64(gaps), nil)
	if outOfRange > 0 {
		sink.Gauge("ledger.scope.out_of_range", float64(outOfRange), nil)
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
