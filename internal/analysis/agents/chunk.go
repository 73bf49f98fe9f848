package agents

import "github.com/datasleuth/server/internal/analysis/model"

// partition slices records into consecutive non-overlapping windows of at
// most size rows. A non-positive size yields a single window.
func partition(records []model.Record, size int) [][]model.Record {
	if size <= 0 || len(records) <= size {
		return [][]model.Record{records}
	}
	windows := make([][]model.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		windows = append(windows, records[start:end])
	}
	return windows
}
