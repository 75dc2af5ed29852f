package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"estSF", "fieldTech", "sizeTier"},
		SortedKeys(map[string]any{"sizeTier": "M", "estSF": 22000, "fieldTech": nil}))
	assert.Empty(t, SortedKeys(map[string]int(nil)))
}
