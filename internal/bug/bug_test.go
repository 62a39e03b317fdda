package bug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorfPanicsInTests(t *testing.T) {
	require.PanicsWithValue(t, "BUG: index 3 out of range", func() {
		_ = Errorf("index %d out of range", 3)
	})
}
