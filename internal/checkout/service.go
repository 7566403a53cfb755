package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/internal/orders"
	"github.com/marisca-pt/marisca-backend/pkg/config"
	"github.com/marisca-pt/marisca-backend/pkg/db/models"
	"github.com/marisca-pt/marisca-backend/pkg/enums"
	pkgerrors "github.com/marisca-pt/marisca-backend/pkg/errors"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
	"github.com/marisca-pt/marisca-backend/pkg/metrics"
)

const (
	maxCartLines  = 50
	maxLineQty    = 99
	maxUnitPrice  = 999999
	maxNameLen    = 100
	maxNotesLen   = 500
	currencyEUR   = "eur"
	deliveryLabel = "Taxa de entrega"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service opens a provider payment session and records the pending order.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	ordersRepo orders.Repository
	stripe     StripeCheckoutClient
	tx         txRunner
	appCfg     config.AppConfig
	cfg        config.CheckoutConfig
	logg       *logger.Logger
	metrics    *metrics.PaymentMetrics
}

// ServiceParams collects the checkout service dependencies.
type ServiceParams struct {
	OrdersRepo        orders.Repository
	StripeClient      StripeCheckoutClient
	TransactionRunner txRunner
	AppConfig         config.AppConfig
	CheckoutConfig    config.CheckoutConfig
	Logger            *logger.Logger
	Metrics           *metrics.PaymentMetrics
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.StripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		ordersRepo: params.OrdersRepo,
		stripe:     params.StripeClient,
		tx:         params.TransactionRunner,
		appCfg:     params.AppConfig,
		cfg:        params.CheckoutConfig,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Checkout validates the cart, derives pricing server-side, opens the payment
// session and persists the pending order keyed by the session id. Validation
// happens before any side effect; a persistence failure after the session was
// created is logged as a reconciliation risk.
func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		s.metrics.IncCheckout("validation_failed")
		return nil, err
	}

	email, err := resolveEmail(input)
	if err != nil {
		s.metrics.IncCheckout("validation_failed")
		return nil, err
	}

	pricing := PriceCart(input.Lines)

	customer, err := s.resolveCustomer(ctx, email, input.DeliveryAddress.Name)
	if err != nil {
		s.metrics.IncCheckout("gateway_failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payment customer")
	}

	session, err := s.stripe.CreateSession(ctx, s.buildSessionParams(input, pricing, customer.ID, email))
	if err != nil {
		s.metrics.IncCheckout("gateway_failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}

	order := buildOrder(input, pricing, session.ID)
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, createErr := s.ordersRepo.WithTx(tx).Create(ctx, order)
		return createErr
	}); err != nil {
		// The payment session already exists with no matching ledger row.
		if s.logg != nil {
			fields := map[string]any{
				"session_id":  session.ID,
				"email":       email,
				"total_cents": pricing.TotalCents,
			}
			s.logg.Error(s.logg.WithFields(ctx, fields), "checkout.persist_failed.reconciliation_risk", err)
		}
		s.metrics.IncCheckout("persistence_failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist order")
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		ctx = s.logg.WithSessionRef(ctx, session.ID)
		s.logg.Info(ctx, "checkout.session_created")
	}
	s.metrics.IncCheckout("created")

	return &Result{URL: session.URL, OrderID: order.ID}, nil
}

func validateInput(input Input) error {
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if len(input.Lines) > maxCartLines {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cart exceeds %d lines", maxCartLines))
	}
	for _, line := range input.Lines {
		name := strings.TrimSpace(line.Name)
		if name == "" || len(name) > maxNameLen {
			return pkgerrors.New(pkgerrors.CodeValidation, "item name is required and must be at most 100 chars")
		}
		if line.Quantity < 1 || line.Quantity > maxLineQty {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be between 1 and 99")
		}
		if line.Price <= 0 || line.Price > maxUnitPrice {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price is out of range")
		}
		if !line.State.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item fulfillment state is invalid")
		}
	}
	if err := input.DeliveryAddress.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
	}
	if input.TimeSlot != nil && !input.TimeSlot.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery time slot")
	}
	if input.Notes != nil && len(*input.Notes) > maxNotesLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "notes must be at most 500 chars")
	}
	return nil
}

func resolveEmail(input Input) (string, error) {
	if input.UserID != nil && strings.TrimSpace(input.UserEmail) != "" {
		return strings.ToLower(strings.TrimSpace(input.UserEmail)), nil
	}
	if input.GuestEmail != nil && strings.TrimSpace(*input.GuestEmail) != "" {
		return strings.ToLower(strings.TrimSpace(*input.GuestEmail)), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "email required: sign in or provide a guest email")
}

// resolveCustomer reuses the provider customer registered under email, creating
// one on first purchase.
func (s *service) resolveCustomer(ctx context.Context, email, name string) (*stripe.Customer, error) {
	existing, err := s.stripe.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if strings.TrimSpace(name) != "" {
		params.Name = stripe.String(name)
	}
	return s.stripe.CreateCustomer(ctx, params)
}

func (s *service) buildSessionParams(input Input, pricing Pricing, customerID, email string) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Lines)+1)
	for _, line := range input.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(line.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currencyEUR),
				UnitAmount: stripe.Int64(int64(unitPriceCents(line.Price))),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s (%s)", line.Name, line.State)),
				},
			},
		})
	}
	if pricing.DeliveryFeeCents > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currencyEUR),
				UnitAmount: stripe.Int64(int64(pricing.DeliveryFeeCents)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(deliveryLabel),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(s.appCfg.BaseURL + s.cfg.SuccessPath + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.appCfg.BaseURL + s.cfg.CancelPath),
	}

	if input.UserID != nil {
		params.AddMetadata("user_id", input.UserID.String())
	} else {
		params.AddMetadata("guest_email", email)
	}
	if input.TimeSlot != nil {
		params.AddMetadata("time_slot", input.TimeSlot.String())
	}
	if input.Notes != nil && *input.Notes != "" {
		params.AddMetadata("notes", *input.Notes)
	}
	if addr, err := json.Marshal(input.DeliveryAddress); err == nil {
		params.AddMetadata("delivery_address", string(addr))
	}

	return params
}

func buildOrder(input Input, pricing Pricing, sessionID string) *models.Order {
	order := &models.Order{
		UserID:           input.UserID,
		Status:           enums.OrderStatusPending,
		PaymentStatus:    enums.PaymentStatusPending,
		SubtotalCents:    pricing.SubtotalCents,
		DeliveryFeeCents: pricing.DeliveryFeeCents,
		TotalCents:       pricing.TotalCents,
		DeliveryAddress:  input.DeliveryAddress,
		DeliveryTimeSlot: input.TimeSlot,
		Notes:            input.Notes,
		StripeSessionID:  sessionID,
	}
	if input.UserID == nil {
		order.GuestEmail = input.GuestEmail
	}
	for _, line := range input.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:        line.ProductID,
			Name:             strings.TrimSpace(line.Name),
			FulfillmentState: line.State,
			Quantity:         line.Quantity,
			UnitPriceCents:   unitPriceCents(line.Price),
		})
	}
	return order
}
