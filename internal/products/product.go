package products

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
)

const (
	defaultPhotoType   = "image/jpeg"
	noDescriptionLabel = "No description available."
)

// Product mirrors the backend's Product resource. Photo holds base64 image bytes.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Price       decimal.Decimal `json:"price"`
	Photo       string          `json:"photo,omitempty"`
	Description string          `json:"description,omitempty"`
}

func ID(p Product) int64 {
	return p.ID
}

// SearchFields are the values the product list filter matches against.
func SearchFields(p Product) []string {
	return []string{p.Name, p.Category, p.Description}
}

// PhotoDataURI renders Photo as a data URI suitable for an <img> src. Empty when there is
// no photo.
func (p Product) PhotoDataURI() string {
	photo := strings.TrimSpace(p.Photo)
	if photo == "" {
		return ""
	}
	if strings.HasPrefix(photo, "data:") {
		return photo
	}
	return "data:" + sniffPhotoType(photo) + ";base64," + photo
}

// DisplayDescription falls back to a placeholder for products without a description.
func (p Product) DisplayDescription() string {
	if strings.TrimSpace(p.Description) == "" {
		return noDescriptionLabel
	}
	return p.Description
}

func sniffPhotoType(encoded string) string {
	// A short prefix is enough for magic-number detection.
	head := encoded
	if len(head) > 64 {
		head = head[:64]
	}
	raw, err := base64.StdEncoding.DecodeString(head[:len(head)/4*4])
	if err != nil || len(raw) == 0 {
		return defaultPhotoType
	}
	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return defaultPhotoType
	}
	return mt.String()
}

// Card is the render form of a product. The raw photo is replaced by its data URI.
type Card struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Price       decimal.Decimal `json:"price"`
	PhotoURI    string          `json:"photoUri,omitempty"`
	Description string          `json:"description"`
}

func Present(p Product) Card {
	return Card{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Stock:       p.Stock,
		Price:       p.Price,
		PhotoURI:    p.PhotoDataURI(),
		Description: p.DisplayDescription(),
	}
}
