package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marisca-pt/marisca-backend/api/middleware"
	"github.com/marisca-pt/marisca-backend/api/responses"
	"github.com/marisca-pt/marisca-backend/api/validators"
	checkoutsvc "github.com/marisca-pt/marisca-backend/internal/checkout"
	"github.com/marisca-pt/marisca-backend/pkg/enums"
	pkgerrors "github.com/marisca-pt/marisca-backend/pkg/errors"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
	"github.com/marisca-pt/marisca-backend/pkg/types"
)

// Checkout handles cart submission: it opens a provider payment session and
// returns the redirect URL plus the pending order id.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type checkoutItemRequest struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=100"`
	Price    float64   `json:"price" validate:"required,gt=0,max=999999"`
	Quantity int       `json:"quantity" validate:"required,min=1,max=99"`
	State    string    `json:"state" validate:"required,fulfillment_state"`
}

type deliveryAddressRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,postal_code"`
	Phone      string `json:"phone" validate:"required,min=9,max=20"`
}

type checkoutRequest struct {
	Items            []checkoutItemRequest  `json:"items" validate:"required,min=1,max=50,dive"`
	DeliveryAddress  deliveryAddressRequest `json:"deliveryAddress" validate:"required"`
	DeliveryTimeSlot *string                `json:"deliveryTimeSlot,omitempty" validate:"omitempty,time_slot"`
	Notes            *string                `json:"notes,omitempty" validate:"omitempty,max=500"`
	GuestEmail       *string                `json:"guestEmail,omitempty" validate:"omitempty,email,max=255"`
}

func (req checkoutRequest) toInput(r *http.Request) (checkoutsvc.Input, error) {
	input := checkoutsvc.Input{
		DeliveryAddress: types.DeliveryAddress{
			Name:       req.DeliveryAddress.Name,
			Street:     req.DeliveryAddress.Street,
			City:       req.DeliveryAddress.City,
			PostalCode: req.DeliveryAddress.PostalCode,
			Phone:      req.DeliveryAddress.Phone,
		},
		Notes:      req.Notes,
		GuestEmail: req.GuestEmail,
	}

	for _, item := range req.Items {
		state, err := enums.ParseFulfillmentState(item.State)
		if err != nil {
			return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item state")
		}
		input.Lines = append(input.Lines, checkoutsvc.CartLine{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			State:     state,
		})
	}

	if req.DeliveryTimeSlot != nil {
		slot, err := enums.ParseDeliveryTimeSlot(*req.DeliveryTimeSlot)
		if err != nil {
			return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery time slot")
		}
		input.TimeSlot = &slot
	}

	if rawID := middleware.UserIDFromContext(r.Context()); rawID != "" {
		uid, err := uuid.Parse(rawID)
		if err != nil {
			return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
		}
		input.UserID = &uid
		input.UserEmail = strings.TrimSpace(middleware.UserEmailFromContext(r.Context()))
	}

	return input, nil
}
