package watch

import "fmt"

// Summary describes how curr differs from the previous successful run.
// prev is nil for the first build.
func Summary(prev, curr *RunResult) string {
	switch {
	case curr == nil:
		return "no output"
	case prev == nil:
		return fmt.Sprintf("%d bytes", curr.Size)
	case prev.Digest == curr.Digest:
		return "unchanged"
	}

	delta := curr.Size - prev.Size

	switch {
	case delta > 0:
		return fmt.Sprintf("%d bytes (+%d)", curr.Size, delta)
	case delta < 0:
		return fmt.Sprintf("%d bytes (%d)", curr.Size, delta)
	default:
		return fmt.Sprintf("%d bytes (changed)", curr.Size)
	}
}
