package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cascade-engine/internal/derive"
	"cascade-engine/internal/derive/builtin"
)

func stockRegistry(t *testing.T) *derive.Registry {
	t.Helper()

	reg, err := builtin.NewRegistry(builtin.Options{})
	require.NoError(t, err)

	return reg
}
