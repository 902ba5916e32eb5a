package nc4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateNameAccepts(t *testing.T) {
	for _, name := range []string{"x", "_private", "temp_2m", "lat:bnds", "a b", "a-b"} {
		require.NoError(t, validateName("variable", name), name)
	}
}

func TestValidateNameRejects(t *testing.T) {
	for _, name := range []string{"", "2x", "-lead", "bad/slash", "bad.dot"} {
		require.Error(t, validateName("variable", name), name)
	}
}
