// Package distribution turns a sparse percentile map into a function that
// can be sampled at any percentile.
package distribution

import (
	"fmt"
	"sort"
)

// Distribution maps three-digit percentiles (0 to 1000) to values, e.g. a
// latency distribution in milliseconds:
//
//	0    -> 0
//	500  -> 1
//	990  -> 50
//	1000 -> 100
//
// Values between known percentiles are linearly interpolated.
type Distribution map[int]int64

// FromMap copies m, fills in the 0 and 1000 percentiles and checks that
// values never decrease as percentiles increase.
func FromMap(m map[int]int64) (Distribution, error) {
	dist := Distribution{0: 0}

	var max int64
	for p, v := range m {
		if p < 0 || p > 1000 {
			return nil, fmt.Errorf("percentile %d is out of range", p)
		}
		dist[p] = v
		if v > max {
			max = v
		}
	}

	if _, ok := dist[1000]; !ok {
		dist[1000] = max
	}

	if err := dist.CheckValidity(); err != nil {
		return nil, err
	}
	return dist, nil
}

// SortedKeys returns the percentiles in ascending order.
func (dist Distribution) SortedKeys() []int {
	keys := make([]int, 0, len(dist))
	for p := range dist {
		keys = append(keys, p)
	}
	sort.Ints(keys)
	return keys
}

// CheckValidity ensures values are non-decreasing in percentile order.
func (dist Distribution) CheckValidity() error {
	keys := dist.SortedKeys()
	for i := 1; i < len(keys); i++ {
		if dist[keys[i]] < dist[keys[i-1]] {
			return fmt.Errorf("p%d=%d is smaller than p%d=%d", keys[i], dist[keys[i]], keys[i-1], dist[keys[i-1]])
		}
	}
	return nil
}

// Get returns the value at percentile p, clamped to [0, 1000].
func (dist Distribution) Get(p int) int64 {
	if p < 0 {
		p = 0
	} else if p > 1000 {
		p = 1000
	}
	if v, ok := dist[p]; ok {
		return v
	}

	keys := dist.SortedKeys()
	i := sort.SearchInts(keys, p)
	if i == 0 || i == len(keys) {
		// only reachable for a Distribution not built by FromMap
		return 0
	}

	low, high := keys[i-1], keys[i]
	lowValue, highValue := dist[low], dist[high]
	return lowValue + (highValue-lowValue)*int64(p-low)/int64(high-low)
}
