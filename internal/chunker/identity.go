package chunker

import "docquery/internal/domain"

// AssignIDs turns chunked pieces into segments with sequential ids starting
// at 1, in input order. Ids form the contiguous range [1, N].
func AssignIDs(pieces []string) []domain.Segment {
	segments := make([]domain.Segment, len(pieces))
	for i, piece := range pieces {
		segments[i] = domain.Segment{ID: int64(i + 1), Content: piece}
	}
	return segments
}
