// Package index provides vector indexes with an explicit lifecycle:
// Absent -> Building (Create) -> Ready (Load); a later Create over an
// existing index passes through Stale. The primary key always accompanies a
// hit; requested fields control whether content is included.
package index

import "docquery/internal/domain"

// project restricts a hit to the requested fields. Nil or empty fields
// means no restriction. Unknown field names are ignored.
func project(hit domain.ScoredSegment, fields []string) domain.ScoredSegment {
	if len(fields) == 0 {
		return hit
	}
	content := false
	for _, f := range fields {
		if f == "content" {
			content = true
		}
	}
	if !content {
		hit.Content = ""
	}
	return hit
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
