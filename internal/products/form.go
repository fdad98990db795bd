package products

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bazaar-console/internal/gateway"
)

// Input is the editable part of a product as entered in the create and edit forms.
type Input struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Category    string          `json:"category" validate:"required,max=100"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Description string          `json:"description" validate:"max=2000"`
	Photo       *Photo          `json:"-"`
}

// Photo is an uploaded product image.
type Photo struct {
	Filename string
	Data     []byte
}

// CreateForm encodes the input the way POST /Product/add expects it.
func (in Input) CreateForm() *gateway.Form {
	return in.form("name", "stock", "price", "category", "description", "photo", false)
}

// UpdateForm encodes the input the way PUT /Product/{id} expects it; that endpoint binds
// capitalised field names. Description is always sent so an edit can clear it.
func (in Input) UpdateForm() *gateway.Form {
	return in.form("Name", "Stock", "Price", "Category", "Description", "Photo", true)
}

func (in Input) form(name, stock, price, category, description, photo string, sendEmpty bool) *gateway.Form {
	f := gateway.NewForm().
		Set(name, in.Name).
		Set(stock, strconv.Itoa(in.Stock)).
		Set(price, in.Price.String()).
		Set(category, in.Category)
	if in.Description != "" || sendEmpty {
		f.Set(description, in.Description)
	}
	if in.Photo != nil && len(in.Photo.Data) > 0 {
		f.File(photo, in.Photo.Filename, in.Photo.Data)
	}
	return f
}
