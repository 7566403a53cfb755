package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/internal/orders"
	"github.com/marisca-pt/marisca-backend/pkg/config"
	"github.com/marisca-pt/marisca-backend/pkg/db/models"
	"github.com/marisca-pt/marisca-backend/pkg/enums"
	pkgerrors "github.com/marisca-pt/marisca-backend/pkg/errors"
	"github.com/marisca-pt/marisca-backend/pkg/types"
)

type stubOrdersRepo struct {
	created   *models.Order
	createErr error
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListRecent(ctx context.Context, filters orders.AdminFilters) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) MarkSessionCompleted(ctx context.Context, sessionID, paymentIntentID string) (*models.Order, bool, error) {
	return nil, false, nil
}

func (s *stubOrdersRepo) MarkPaymentSucceeded(ctx context.Context, paymentIntentID string) (bool, error) {
	return false, nil
}

func (s *stubOrdersRepo) MarkPaymentFailed(ctx context.Context, paymentIntentID string) (*models.Order, bool, error) {
	return nil, false, nil
}

type stubStripeClient struct {
	existingCustomer *stripe.Customer
	customerCreated  *stripe.CustomerParams
	sessionParams    *stripe.CheckoutSessionParams
	sessionErr       error
	customerErr      error
	calls            int
}

func (s *stubStripeClient) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	s.calls++
	if s.customerErr != nil {
		return nil, s.customerErr
	}
	return s.existingCustomer, nil
}

func (s *stubStripeClient) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	s.calls++
	s.customerCreated = params
	return &stripe.Customer{ID: "cus_new"}, nil
}

func (s *stubStripeClient) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.calls++
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	s.sessionParams = params
	return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.test/cs_test_123"}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubOrdersRepo, client *stubStripeClient) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		OrdersRepo:        repo,
		StripeClient:      client,
		TransactionRunner: stubTxRunner{},
		AppConfig:         config.AppConfig{BaseURL: "https://marisca.pt"},
		CheckoutConfig:    config.CheckoutConfig{SuccessPath: "/payment-success", CancelPath: "/checkout"},
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func validAddress() types.DeliveryAddress {
	return types.DeliveryAddress{
		Name:       "Ana Silva",
		Street:     "Rua do Peixe 12",
		City:       "Matosinhos",
		PostalCode: "4450-123",
		Phone:      "912345678",
	}
}

func guestInput() Input {
	email := "ana@example.com"
	return Input{
		Lines: []CartLine{
			{ProductID: uuid.New(), Name: "Camarão tigre", Price: 12.50, Quantity: 2, State: enums.FulfillmentStateRaw},
		},
		DeliveryAddress: validAddress(),
		GuestEmail:      &email,
	}
}

func TestCheckoutCreatesPendingOrderKeyedBySession(t *testing.T) {
	repo := &stubOrdersRepo{}
	client := &stubStripeClient{}
	svc := newTestService(t, repo, client)

	result, err := svc.Checkout(context.Background(), guestInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.URL != "https://checkout.stripe.test/cs_test_123" {
		t.Fatalf("unexpected redirect url %q", result.URL)
	}

	order := repo.created
	if order == nil {
		t.Fatal("expected order persisted")
	}
	if order.StripeSessionID != "cs_test_123" {
		t.Fatalf("order keyed by %q, want session id", order.StripeSessionID)
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("order created %s/%s, want pending/pending", order.Status, order.PaymentStatus)
	}
	if order.SubtotalCents != 2500 || order.DeliveryFeeCents != 499 || order.TotalCents != 2999 {
		t.Fatalf("pricing %d/%d/%d, want 2500/499/2999", order.SubtotalCents, order.DeliveryFeeCents, order.TotalCents)
	}
	if len(order.Items) != 1 || order.Items[0].UnitPriceCents != 1250 {
		t.Fatalf("unexpected items snapshot: %+v", order.Items)
	}
	if order.GuestEmail == nil || *order.GuestEmail != "ana@example.com" {
		t.Fatal("expected guest email on order")
	}
}

func TestCheckoutAddsDeliveryFeeLineToSession(t *testing.T) {
	repo := &stubOrdersRepo{}
	client := &stubStripeClient{}
	svc := newTestService(t, repo, client)

	if _, err := svc.Checkout(context.Background(), guestInput()); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	params := client.sessionParams
	if params == nil {
		t.Fatal("expected session params captured")
	}
	if len(params.LineItems) != 2 {
		t.Fatalf("got %d line items, want item + delivery fee", len(params.LineItems))
	}
	fee := params.LineItems[1]
	if *fee.PriceData.UnitAmount != 499 {
		t.Fatalf("fee line amount = %d, want 499", *fee.PriceData.UnitAmount)
	}
	if !strings.Contains(*params.SuccessURL, "{CHECKOUT_SESSION_ID}") {
		t.Fatalf("success url %q missing session placeholder", *params.SuccessURL)
	}
}

func TestCheckoutReusesExistingCustomer(t *testing.T) {
	repo := &stubOrdersRepo{}
	client := &stubStripeClient{existingCustomer: &stripe.Customer{ID: "cus_existing"}}
	svc := newTestService(t, repo, client)

	if _, err := svc.Checkout(context.Background(), guestInput()); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if client.customerCreated != nil {
		t.Fatal("expected no customer creation when one exists")
	}
	if got := *client.sessionParams.Customer; got != "cus_existing" {
		t.Fatalf("session customer = %q, want cus_existing", got)
	}
}

func TestCheckoutRequiresEmail(t *testing.T) {
	repo := &stubOrdersRepo{}
	client := &stubStripeClient{}
	svc := newTestService(t, repo, client)

	input := guestInput()
	input.GuestEmail = nil

	_, err := svc.Checkout(context.Background(), input)
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.calls != 0 {
		t.Fatal("expected no gateway calls before validation passes")
	}
}

func TestCheckoutValidatesBeforeSideEffects(t *testing.T) {
	repo := &stubOrdersRepo{}
	client := &stubStripeClient{}
	svc := newTestService(t, repo, client)

	input := guestInput()
	input.Lines[0].Quantity = 100

	if _, err := svc.Checkout(context.Background(), input); err == nil {
		t.Fatal("expected validation error")
	}
	if client.calls != 0 {
		t.Fatal("expected no gateway calls")
	}
	if repo.created != nil {
		t.Fatal("expected no order persisted")
	}
}

func TestCheckoutSurfacesGatewayFailureAsRetryable(t *testing.T) {
	repo := &stubOrdersRepo{}
	client := &stubStripeClient{sessionErr: errors.New("stripe 503")}
	svc := newTestService(t, repo, client)

	_, err := svc.Checkout(context.Background(), guestInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created != nil {
		t.Fatal("expected no order persisted after gateway failure")
	}
}

func TestCheckoutPersistFailureAfterSessionIsInternal(t *testing.T) {
	repo := &stubOrdersRepo{createErr: errors.New("connection reset")}
	client := &stubStripeClient{}
	svc := newTestService(t, repo, client)

	_, err := svc.Checkout(context.Background(), guestInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.sessionParams == nil {
		t.Fatal("expected the session to have been created before the write failed")
	}
}

func TestCheckoutAuthenticatedBuyerIgnoresGuestEmail(t *testing.T) {
	repo := &stubOrdersRepo{}
	client := &stubStripeClient{}
	svc := newTestService(t, repo, client)

	uid := uuid.New()
	input := guestInput()
	input.UserID = &uid
	input.UserEmail = "cliente@marisca.pt"

	if _, err := svc.Checkout(context.Background(), input); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	order := repo.created
	if order.UserID == nil || *order.UserID != uid {
		t.Fatal("expected order attributed to user")
	}
	if order.GuestEmail != nil {
		t.Fatal("expected guest email dropped for authenticated buyer")
	}
}
