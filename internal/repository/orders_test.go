package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyoadidey/mother-julie/internal/entity"
)

func TestBuildItemInsert(t *testing.T) {
	items := []entity.OrderItem{
		{Name: "Garlic Bread", Quantity: 2, UnitPrice: 69, LineTotal: 138},
		{Name: "Cheesy Bacon Spuds", Size: "large", Quantity: 1, UnitPrice: 159, LineTotal: 159},
	}

	query, values, ok := buildItemInsert(7, items)

	require.True(t, ok)
	assert.Equal(t, 2, strings.Count(query, "(?, ?, ?, ?, ?, ?)"))
	assert.False(t, strings.HasSuffix(query, ","))
	require.Len(t, values, 12)
	assert.Equal(t, int64(7), values[0])
	assert.Equal(t, "Garlic Bread", values[1])
	assert.Equal(t, int64(7), values[6])
	assert.Equal(t, "large", values[8])
}

func TestBuildItemInsert_NoItems(t *testing.T) {
	query, values, ok := buildItemInsert(7, nil)

	assert.False(t, ok)
	assert.Empty(t, query)
	assert.Empty(t, values)
}
