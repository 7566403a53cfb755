package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	ordersvc "github.com/marisca-pt/marisca-backend/internal/orders"
	"github.com/marisca-pt/marisca-backend/pkg/db/models"
	"github.com/marisca-pt/marisca-backend/pkg/enums"
)

type fakeOrdersRepo struct {
	order *models.Order
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) ordersvc.Repository { return f }

func (f *fakeOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (f *fakeOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.order != nil && f.order.ID == id {
		return f.order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	if f.order != nil && f.order.StripeSessionID == sessionID {
		return f.order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) ListRecent(ctx context.Context, filters ordersvc.AdminFilters) ([]models.Order, error) {
	if f.order == nil {
		return nil, nil
	}
	return []models.Order{*f.order}, nil
}

func (f *fakeOrdersRepo) MarkSessionCompleted(ctx context.Context, sessionID, paymentIntentID string) (*models.Order, bool, error) {
	return nil, false, nil
}

func (f *fakeOrdersRepo) MarkPaymentSucceeded(ctx context.Context, paymentIntentID string) (bool, error) {
	return false, nil
}

func (f *fakeOrdersRepo) MarkPaymentFailed(ctx context.Context, paymentIntentID string) (*models.Order, bool, error) {
	return nil, false, nil
}

func newOrdersTestRouter(repo *fakeOrdersRepo) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/orders/session/{sessionID}", GetOrderBySession(repo, nil))
	return r
}

func TestGetOrderBySessionReturnsView(t *testing.T) {
	order := &models.Order{
		ID:              uuid.New(),
		Status:          enums.OrderStatusConfirmed,
		PaymentStatus:   enums.PaymentStatusPaid,
		SubtotalCents:   3100,
		TotalCents:      3100,
		StripeSessionID: "cs_123",
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "Camarão tigre", Quantity: 2, UnitPriceCents: 1550},
		},
	}
	router := newOrdersTestRouter(&fakeOrdersRepo{order: order})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/session/cs_123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data ordersvc.View `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != order.ID {
		t.Fatalf("order id %s, want %s", envelope.Data.ID, order.ID)
	}
	if envelope.Data.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status %s, want confirmed", envelope.Data.Status)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("items %d, want 1", len(envelope.Data.Items))
	}
	if envelope.Data.OrderNumber == "" {
		t.Fatal("expected a derived order number")
	}
}

func TestGetOrderBySessionUnknownSessionIs404(t *testing.T) {
	router := newOrdersTestRouter(&fakeOrdersRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/session/cs_missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}
