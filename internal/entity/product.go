package entity

type Product struct {
	ID          int                `json:"id"`
	Name        string             `json:"name"`
	Category    string             `json:"category"`
	Price       float64            `json:"price"`
	SizeOptions map[string]float64 `json:"sizeOptions,omitempty"`
	Stock       int                `json:"stock"`
	Image       string             `json:"image,omitempty"`
}

// HasSizes reports whether the product is sold in size variants. Such
// products require a size selection before they can be added to a cart.
func (p *Product) HasSizes() bool {
	return len(p.SizeOptions) > 0
}

// PriceFor resolves the unit price for a size selection. For products without
// size variants the size must be empty and the single price applies.
func (p *Product) PriceFor(size string) (float64, bool) {
	if !p.HasSizes() {
		if size != "" {
			return 0, false
		}
		return p.Price, true
	}
	price, ok := p.SizeOptions[size]
	return price, ok
}

/*
MySQL table

CREATE TABLE products (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	category VARCHAR(50) NOT NULL,
	price DOUBLE NOT NULL,
	size_options TEXT,
	stock INT NOT NULL,
	image VARCHAR(512) NOT NULL DEFAULT ''
);
*/
