package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/marisca-pt/marisca-backend/internal/orders"
	"github.com/marisca-pt/marisca-backend/internal/users"
	"github.com/marisca-pt/marisca-backend/pkg/db/models"
	"github.com/marisca-pt/marisca-backend/pkg/logger"
	"github.com/marisca-pt/marisca-backend/pkg/mailer"
	"github.com/marisca-pt/marisca-backend/pkg/metrics"
)

// Service sends customer-facing notifications. Failures are logged only and
// never affect order state.
type Service interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type service struct {
	mail    mailer.Sender
	users   users.Repository
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
}

// ServiceParams collects the notification service dependencies.
type ServiceParams struct {
	Mailer  mailer.Sender
	Users   users.Repository
	Logger  *logger.Logger
	Metrics *metrics.PaymentMetrics
}

// NewService builds a notification service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{
		mail:    params.Mailer,
		users:   params.Users,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// SendOrderConfirmation renders and delivers the confirmation for a confirmed
// order. The recipient is the profile email for authenticated buyers, else the
// guest email; the display name falls back to the delivery-address name.
func (s *service) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}

	email, name := s.resolveRecipient(ctx, order)
	if email == "" {
		s.metrics.IncEmail("skipped")
		return fmt.Errorf("order %s has no recipient email", order.ID)
	}

	number := orders.OrderNumber(order.ID)
	msg := mailer.Message{
		ToName:    name,
		ToAddress: email,
		Subject:   fmt.Sprintf("Encomenda %s confirmada - Marisca", number),
		PlainBody: renderPlainBody(order, number, name),
		HTMLBody:  renderHTMLBody(order, number, name),
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		s.metrics.IncEmail("failed")
		return fmt.Errorf("send confirmation for order %s: %w", order.ID, err)
	}

	s.metrics.IncEmail("sent")
	return nil
}

func (s *service) resolveRecipient(ctx context.Context, order *models.Order) (email, name string) {
	name = order.DeliveryAddress.Name

	if order.UserID != nil {
		profile, err := s.users.FindProfileByUserID(ctx, *order.UserID)
		if err == nil && profile != nil {
			email = profile.Email
			if display := strings.TrimSpace(profile.FirstName + " " + profile.LastName); display != "" {
				name = display
			}
			return email, name
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "notifications.profile_lookup_failed")
		}
	}

	return order.OwnerEmail(), name
}

func renderPlainBody(order *models.Order, number, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s,\n\n", name)
	fmt.Fprintf(&b, "A sua encomenda %s foi confirmada.\n\n", number)
	b.WriteString("Itens:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  - %dx %s (%s) — %s\n", item.Quantity, item.Name, item.FulfillmentState, formatEuros(item.UnitPriceCents*item.Quantity))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", formatEuros(order.SubtotalCents))
	fmt.Fprintf(&b, "Entrega: %s\n", formatEuros(order.DeliveryFeeCents))
	fmt.Fprintf(&b, "Total: %s\n\n", formatEuros(order.TotalCents))
	fmt.Fprintf(&b, "Morada de entrega:\n%s\n%s\n%s %s\n", order.DeliveryAddress.Name, order.DeliveryAddress.Street, order.DeliveryAddress.PostalCode, order.DeliveryAddress.City)
	if order.DeliveryTimeSlot != nil {
		fmt.Fprintf(&b, "\nJanela de entrega: %s\n", order.DeliveryTimeSlot.String())
	}
	b.WriteString("\nObrigado,\nMarisca\n")
	return b.String()
}

func renderHTMLBody(order *models.Order, number, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Olá %s,</p>", name)
	fmt.Fprintf(&b, "<p>A sua encomenda <strong>%s</strong> foi confirmada.</p>", number)
	b.WriteString("<ul>")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<li>%dx %s (%s) — %s</li>", item.Quantity, item.Name, item.FulfillmentState, formatEuros(item.UnitPriceCents*item.Quantity))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Subtotal: %s<br>Entrega: %s<br><strong>Total: %s</strong></p>",
		formatEuros(order.SubtotalCents), formatEuros(order.DeliveryFeeCents), formatEuros(order.TotalCents))
	fmt.Fprintf(&b, "<p>Morada de entrega:<br>%s<br>%s<br>%s %s</p>",
		order.DeliveryAddress.Name, order.DeliveryAddress.Street, order.DeliveryAddress.PostalCode, order.DeliveryAddress.City)
	if order.DeliveryTimeSlot != nil {
		fmt.Fprintf(&b, "<p>Janela de entrega: %s</p>", order.DeliveryTimeSlot.String())
	}
	b.WriteString("<p>Obrigado,<br>Marisca</p>")
	return b.String()
}

func formatEuros(cents int) string {
	return fmt.Sprintf("%.2f EUR", float64(cents)/100)
}
