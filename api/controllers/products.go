package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/api/responses"
	productsvc "github.com/marisca-pt/marisca-backend/internal/products"
	"github.com/marisca-pt/marisca-backend/pkg/db/models"
	pkgerrors "github.com/marisca-pt/marisca-backend/pkg/errors"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
)

// ListProducts returns the storefront catalog, filtered by an optional
// substring query. Unavailable products are hidden unless all=true.
func ListProducts(repo productsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product repository unavailable"))
			return
		}

		filters := productsvc.Filters{
			Query:         strings.TrimSpace(r.URL.Query().Get("q")),
			OnlyAvailable: r.URL.Query().Get("all") != "true",
		}

		items, err := repo.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products"))
			return
		}

		views := make([]productResponse, 0, len(items))
		for i := range items {
			views = append(views, newProductResponse(&items[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

// GetProduct returns a single catalog entry by id.
func GetProduct(repo productsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product repository unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := repo.FindByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch product"))
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type productResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	PriceCents        int       `json:"price_cents"`
	Stock             int       `json:"stock"`
	IsAvailable       bool      `json:"is_available"`
	FulfillmentStates []string  `json:"fulfillment_states,omitempty"`
}

func newProductResponse(p *models.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
		IsAvailable: p.IsAvailable,
	}
	if p.FulfillmentStates != "" {
		for _, state := range strings.Split(p.FulfillmentStates, ",") {
			if s := strings.TrimSpace(state); s != "" {
				resp.FulfillmentStates = append(resp.FulfillmentStates, s)
			}
		}
	}
	return resp
}
