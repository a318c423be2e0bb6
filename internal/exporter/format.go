package exporter

import (
	"predictflow/pkg/contracts/domain"
)

// tableRecord renders row i of table as strings, padded to the header width
func tableRecord(table domain.Table, i int) []string {
	rec := make([]string, len(table.Headers))
	for c := range table.Headers {
		rec[c] = table.Value(i, c).String()
	}
	return rec
}
