package groups

import (
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Comments maps a slot index (decimal string) to free text.
type Comments map[string]string

func decodeComments(raw string) Comments {
	out := Comments{}
	if raw == "" {
		return out
	}
	if err := json.UnmarshalFromString(raw, &out); err != nil {
		// Unreadable comment blobs are treated as empty, like an unreadable group map.
		return Comments{}
	}
	return out
}

// encode returns a stable JSON object; keys are sorted by the encoder.
func (c Comments) encode() (string, error) {
	if len(c) == 0 {
		return "{}", nil
	}
	return json.MarshalToString(map[string]string(c))
}

func (c Comments) clone() Comments {
	out := make(Comments, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// slots returns the commented slot indexes in ascending order.
func (c Comments) slots() []int {
	out := make([]int, 0, len(c))
	for k := range c {
		if n, err := strconv.Atoi(k); err == nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// remap moves comments the same way Table.Reorder moves rows. spliced reports
// whether the target was occupied (rows between source and target shifted).
// When it was not, a comment left on the empty target trades places with the
// source comment, so the mapping stays one to one.
func (c Comments) remap(source, target int, spliced bool) Comments {
	out := make(Comments, len(c))
	for k, v := range c {
		idx, err := strconv.Atoi(k)
		if err != nil {
			out[k] = v
			continue
		}
		out[strconv.Itoa(movedIndex(idx, source, target, spliced))] = v
	}
	return out
}

func movedIndex(idx, source, target int, spliced bool) int {
	if idx == source {
		return target
	}
	if !spliced {
		if idx == target {
			return source
		}
		return idx
	}
	switch {
	case source < target && idx > source && idx <= target:
		return idx - 1
	case source > target && idx >= target && idx < source:
		return idx + 1
	}
	return idx
}
