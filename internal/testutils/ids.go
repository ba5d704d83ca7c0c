package testutils

import (
	"fmt"
	"sync/atomic"
)

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
// Tests use it to get predictable runtime ids.
func SequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
