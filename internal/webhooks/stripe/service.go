package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/internal/notifications"
	"github.com/marisca-pt/marisca-backend/internal/orders"
	"github.com/marisca-pt/marisca-backend/internal/products"
	"github.com/marisca-pt/marisca-backend/pkg/db/models"
	pkgerrors "github.com/marisca-pt/marisca-backend/pkg/errors"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
	"github.com/marisca-pt/marisca-backend/pkg/metrics"
)

const effectTimeout = 30 * time.Second

// Service reconciles provider events into the order ledger. The ledger is the
// only source of truth: events that reference unknown orders, arrive out of
// order, or replay a transition collapse into logged no-ops.
type Service struct {
	ordersRepo   orders.Repository
	productsRepo products.Repository
	notifier     notifications.Service
	logg         *logger.Logger
	metrics      *metrics.PaymentMetrics

	// effectHook runs after detached effects finish; tests use it to
	// synchronize, production leaves it nil.
	effectHook func()
}

// ServiceParams collects the reconciler dependencies.
type ServiceParams struct {
	OrdersRepo   orders.Repository
	ProductsRepo products.Repository
	Notifier     notifications.Service
	Logger       *logger.Logger
	Metrics      *metrics.PaymentMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.ProductsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products repo required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	return &Service{
		ordersRepo:   params.OrdersRepo,
		productsRepo: params.ProductsRepo,
		notifier:     params.Notifier,
		logg:         params.Logger,
		metrics:      params.Metrics,
	}, nil
}

// HandleEvent applies one provider event to the ledger. Returning an error
// signals the controller to release the dedup mark so the provider retry can
// run again; benign outcomes (unknown order, stale transition, unknown event
// type) return nil.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		return s.handleSessionCompleted(ctx, &session)

	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.handlePaymentSucceeded(ctx, intent.ID)

	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.handlePaymentFailed(ctx, intent.ID)

	default:
		s.metrics.IncWebhookEvent(string(event.Type), "ignored")
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_type", string(event.Type)), "webhook.event_ignored")
		}
		return nil
	}
}

// handleSessionCompleted confirms the order and, exactly once, kicks off the
// post-confirmation effects. The conditional transition is the gate: only the
// delivery that actually moved the row runs stock decrement and email.
func (s *Service) handleSessionCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	if session == nil || session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	order, transitioned, err := s.ordersRepo.MarkSessionCompleted(ctx, session.ID, paymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logUnknownOrder(ctx, "session", session.ID)
			s.metrics.IncWebhookEvent(string(stripe.EventTypeCheckoutSessionCompleted), "unknown_order")
			return nil
		}
		s.metrics.IncWebhookEvent(string(stripe.EventTypeCheckoutSessionCompleted), "failed")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
	}
	if !transitioned {
		// Unknown session or already confirmed/cancelled.
		if existing, findErr := s.ordersRepo.FindBySessionID(ctx, session.ID); findErr != nil {
			s.logUnknownOrder(ctx, "session", session.ID)
			s.metrics.IncWebhookEvent(string(stripe.EventTypeCheckoutSessionCompleted), "unknown_order")
		} else if s.logg != nil {
			fields := map[string]any{"order_id": existing.ID.String(), "status": existing.Status.String()}
			s.logg.Info(s.logg.WithFields(ctx, fields), "webhook.session_completed.noop")
			s.metrics.IncWebhookEvent(string(stripe.EventTypeCheckoutSessionCompleted), "replayed")
		}
		return nil
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithSessionRef(logCtx, session.ID), "webhook.order_confirmed")
	}
	s.metrics.IncWebhookEvent(string(stripe.EventTypeCheckoutSessionCompleted), "confirmed")

	s.dispatchPostConfirmation(ctx, order)
	return nil
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, paymentIntentID string) error {
	if paymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}

	updated, err := s.ordersRepo.MarkPaymentSucceeded(ctx, paymentIntentID)
	if err != nil {
		s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentSucceeded), "failed")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment success")
	}
	if !updated {
		// Either the intent is unknown (the session event may not have landed
		// yet) or payment status already advanced. Both are benign.
		s.logUnknownOrder(ctx, "payment_intent", paymentIntentID)
		s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentSucceeded), "noop")
		return nil
	}

	s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentSucceeded), "paid")
	return nil
}

func (s *Service) handlePaymentFailed(ctx context.Context, paymentIntentID string) error {
	if paymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}

	order, transitioned, err := s.ordersRepo.MarkPaymentFailed(ctx, paymentIntentID)
	if err != nil {
		s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentPaymentFailed), "failed")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if !transitioned {
		s.logUnknownOrder(ctx, "payment_intent", paymentIntentID)
		s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentPaymentFailed), "noop")
		return nil
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "webhook.order_cancelled")
	}
	s.metrics.IncWebhookEvent(string(stripe.EventTypePaymentIntentPaymentFailed), "cancelled")
	return nil
}

// dispatchPostConfirmation runs stock decrement and the confirmation email on a
// detached context so webhook response latency stays flat. Failures are logged
// only; the order stays confirmed.
func (s *Service) dispatchPostConfirmation(ctx context.Context, order *models.Order) {
	detached := context.WithoutCancel(ctx)
	go func() {
		effectCtx, cancel := context.WithTimeout(detached, effectTimeout)
		defer cancel()

		s.decrementStock(effectCtx, order)
		s.sendConfirmation(effectCtx, order)

		if s.effectHook != nil {
			s.effectHook()
		}
	}()
}

// decrementStock applies each line independently; one exhausted product must
// not block the rest of the order.
func (s *Service) decrementStock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		err := s.productsRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err == nil {
			s.metrics.IncStockDecrement("ok")
			continue
		}

		s.metrics.IncStockDecrement("failed")
		if s.logg != nil {
			fields := map[string]any{
				"order_id":   order.ID.String(),
				"product_id": item.ProductID.String(),
				"quantity":   item.Quantity,
			}
			s.logg.Error(s.logg.WithFields(ctx, fields), "webhook.stock_decrement_failed", err)
		}
	}
}

func (s *Service) sendConfirmation(ctx context.Context, order *models.Order) {
	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "webhook.confirmation_email_failed", err)
	}
}

func (s *Service) logUnknownOrder(ctx context.Context, refKind, ref string) {
	if s.logg == nil {
		return
	}
	fields := map[string]any{"ref_kind": refKind, "ref": ref}
	s.logg.Warn(s.logg.WithFields(ctx, fields), "webhook.order_not_found")
}
