package telemetry

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

type ReportKind int

const (
	REPORT_BROKEN ReportKind = iota
	REPORT_WARNING
	REPORT_DEBUG
	REPORT_COUNT
)

type Report struct {
	Kind   ReportKind
	Id     string
	Params []any
}

// TestingAPI records every report and mirrors it to the test log.
type TestingAPI struct {
	t       testing.TB
	lock    sync.Mutex
	reports []Report
}

func NewTestingAPI(t testing.TB) *TestingAPI {
	return &TestingAPI{t: t}
}

func (a *TestingAPI) record(kind ReportKind, id string, params []any) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.reports = append(a.reports, Report{Kind: kind, Id: id, Params: params})
}

func (a *TestingAPI) ReportBroken(id string, params ...any) {
	a.t.Log("[broken]", id, fmt.Sprint(params...))
	a.record(REPORT_BROKEN, id, params)
}

func (a *TestingAPI) ReportWarning(id string, params ...any) {
	a.t.Log("[warning]", id, fmt.Sprint(params...))
	a.record(REPORT_WARNING, id, params)
}

func (a *TestingAPI) ReportDebug(msg string, params ...any) {
	a.record(REPORT_DEBUG, msg, params)
}

func (a *TestingAPI) ReportCount(id string, count int64) {
	a.record(REPORT_COUNT, id, []any{count})
}

// Reports returns a copy of all reports of the given kind.
func (a *TestingAPI) Reports(kind ReportKind) []Report {
	a.lock.Lock()
	defer a.lock.Unlock()

	var out []Report
	for _, r := range a.reports {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of reports of a kind whose id contains substr.
func (a *TestingAPI) Count(kind ReportKind, substr string) int {
	n := 0
	for _, r := range a.Reports(kind) {
		if strings.Contains(r.Id, substr) {
			n++
		}
	}
	return n
}
