package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/api/responses"
	ordersvc "github.com/marisca-pt/marisca-backend/internal/orders"
	pkgerrors "github.com/marisca-pt/marisca-backend/pkg/errors"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
)

// GetOrderBySession lets the post-payment page poll order state by the
// provider session reference.
func GetOrderBySession(repo ordersvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id required"))
			return
		}

		order, err := repo.FindBySessionID(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch order"))
			return
		}

		responses.WriteSuccess(w, ordersvc.NewView(order))
	}
}
