// Package percentiles parses percentile=value lists such as
// "50=10,99=100,999=200,100=1000".
package percentiles

import (
	"fmt"
	"strconv"
	"strings"
)

// Scale converts a two-digit percentile to the three-digit space, so that
// 50 becomes 500 and 999 (99.9) is kept as is.
func Scale(p int) int {
	if p > 100 {
		return p
	}
	return p * 10
}

// ParsePercentiles returns a map of three-digit percentiles to values.
// Percentiles above 1000 are rejected.
func ParsePercentiles(input string) (map[int]int64, error) {
	percentiles := make(map[int]int64)

	for _, pair := range strings.Split(input, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("percentile %q is not of the form p=value", pair)
		}

		p, err := strconv.Atoi(kv[0])
		if err != nil {
			return nil, err
		}
		if p < 0 || p > 1000 {
			return nil, fmt.Errorf("percentile %d is out of range", p)
		}

		value, err := strconv.ParseInt(kv[1], 10, 64)
		if err != nil {
			return nil, err
		}

		percentiles[Scale(p)] = value
	}

	return percentiles, nil
}
