package controllers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bazaar-console/api/responses"
	"github.com/angelmondragon/bazaar-console/api/validators"
	"github.com/angelmondragon/bazaar-console/internal/products"
	"github.com/angelmondragon/bazaar-console/pkg/config"
	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

// ProductScreen is the product catalogue screen.
type ProductScreen = ListScreen[products.Product, products.Card]

// ProductCreate accepts the multipart product form and forwards it to the backend.
func ProductCreate(cfg *config.Config, screen ProductScreen, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		input, err := readProductForm(w, r, cfg.Console.MaxUploadBytes())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		res, err := screen.Create(ctx, input.CreateForm())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMutationResponse(screen, res))
	}
}

func ProductUpdate(cfg *config.Config, screen ProductScreen, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := readProductForm(w, r, cfg.Console.MaxUploadBytes())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		res, err := screen.Update(ctx, id, input.UpdateForm())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(screen, res))
	}
}

func readProductForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (products.Input, error) {
	var input products.Input
	if err := validators.ParseMultipartForm(w, r, maxBytes); err != nil {
		return input, err
	}

	input.Name = validators.FormValue(r, "name", 0)
	input.Category = validators.FormValue(r, "category", 0)
	input.Description = validators.FormValue(r, "description", 0)

	invalid := map[string]string{}
	if raw := validators.FormValue(r, "stock", 32); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			invalid["stock"] = "must be a whole number"
		}
		input.Stock = stock
	}
	if raw := validators.FormValue(r, "price", 64); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			invalid["price"] = "must be a number"
		}
		input.Price = price
	}
	if len(invalid) > 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(invalid)
	}

	photo, err := validators.FormFile(r, "photo", maxBytes)
	if err != nil {
		return input, err
	}
	if photo != nil {
		input.Photo = &products.Photo{Filename: photo.Filename, Data: photo.Data}
	}
	return input, validators.ValidateStruct(&input)
}
