// Package sample reduces a record set to a bounded representative subset so
// a model call never sees more rows than its practical input budget allows.
package sample

import (
	"math/rand"

	"github.com/datasleuth/server/internal/analysis/model"
)

// Method selects the sampling strategy.
type Method string

const (
	// Stratified keeps boundary rows and evenly spaced middle rows in
	// original order. Default, and the right choice for time-ordered data.
	Stratified Method = "stratified"
	// Systematic takes every step-th record with a fixed step, in order.
	Systematic Method = "systematic"
	// Random shuffles and truncates. Non-reproducible; only for
	// order-insensitive datasets.
	Random Method = "random"
)

// boundaryShare is the fraction of the target reserved for each of the head
// and tail segments under stratified sampling.
const boundaryShare = 0.2

// Take returns at most target records drawn from records without mutating the
// source. When len(records) <= target the input is returned as a fresh slice
// so callers cannot grow it into the caller's backing array. Stratified and
// Systematic preserve relative order.
func Take(records []model.Record, target int, method Method) []model.Record {
	if target <= 0 {
		return []model.Record{}
	}
	if len(records) <= target {
		out := make([]model.Record, len(records))
		copy(out, records)
		return out
	}

	switch method {
	case Systematic:
		return systematic(records, target)
	case Random:
		return random(records, target)
	default:
		return stratified(records, target)
	}
}

func stratified(records []model.Record, target int) []model.Record {
	head := int(float64(target) * boundaryShare)
	tail := int(float64(target) * boundaryShare)
	mid := target - head - tail

	out := make([]model.Record, 0, target)
	out = append(out, records[:head]...)

	middle := records[head : len(records)-tail]
	for i := 0; i < mid; i++ {
		out = append(out, middle[i*len(middle)/mid])
	}

	out = append(out, records[len(records)-tail:]...)
	return out
}

func systematic(records []model.Record, target int) []model.Record {
	step := len(records) / target
	if step < 1 {
		step = 1
	}
	out := make([]model.Record, 0, target)
	for i := 0; i < len(records) && len(out) < target; i += step {
		out = append(out, records[i])
	}
	return out
}

func random(records []model.Record, target int) []model.Record {
	shuffled := make([]model.Record, len(records))
	copy(shuffled, records)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:target]
}
