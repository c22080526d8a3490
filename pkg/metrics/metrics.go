// Package metrics holds the Prometheus collectors exported by the API and
// the workers. Every constructor accepts a nil Registerer and every recorder
// is safe on a nil receiver, so callers never guard metric calls.
package metrics

const namespace = "wedplan"

// normalizeLabel keeps empty label values out of the series set.
func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
