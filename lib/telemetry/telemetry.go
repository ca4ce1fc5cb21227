package telemetry

import (
	"fmt"
)

// API is an abstraction over diagnostics so that tests can assert a
// component actually reported its failure.
type API interface {
	// ReportBroken reports a component that failed and returned nothing useful.
	//
	// The `id` names the failing component, not the line that failed, ex.
	// `read-k-fields` or `organize`. Use ScopedAPI to prefix it with the package.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use dashes between words
	// 3) use dots to separate a component from one of its methods
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that may be worth a look but did not
	// stop the component from producing a result.
	ReportWarning(id string, params ...any)

	// ReportDebug reports debug information, ignored unless debug logging is on.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the number of things a component handled.
	ReportCount(id string, count int64)
}

// ScopedAPI attaches a namespace to every id reported through it.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
