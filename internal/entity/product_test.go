package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceFor_SizedProduct(t *testing.T) {
	p := Product{
		Name:        "Cheesy Bacon Spuds",
		Price:       129,
		SizeOptions: map[string]float64{"regular": 129, "large": 159},
	}

	assert.True(t, p.HasSizes())

	price, ok := p.PriceFor("large")
	assert.True(t, ok)
	assert.Equal(t, 159.0, price)

	// A sized product needs a size selection.
	_, ok = p.PriceFor("")
	assert.False(t, ok)

	_, ok = p.PriceFor("jumbo")
	assert.False(t, ok)
}

func TestPriceFor_SingleSize(t *testing.T) {
	p := Product{Name: "Garlic Bread", Price: 69}

	assert.False(t, p.HasSizes())

	price, ok := p.PriceFor("")
	assert.True(t, ok)
	assert.Equal(t, 69.0, price)

	_, ok = p.PriceFor("large")
	assert.False(t, ok)
}
