// utils/email.go
package utils

import (
	"fmt"
	"html"

	"github.com/keighl/postmark"
	"go.uber.org/zap"

	"go-grocery/models"
)

// EmailService handles sending emails using Postmark. A service built
// without a token logs instead of sending.
type EmailService struct {
	client *postmark.Client
	sender string
	logger *zap.Logger
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(apiToken, sender string, logger *zap.Logger) *EmailService {
	es := &EmailService{sender: sender, logger: logger}
	if apiToken != "" {
		es.client = postmark.NewClient(apiToken, "")
	} else {
		logger.Warn("POSTMARK_API_TOKEN not set, order emails are disabled")
	}
	return es
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es.client == nil {
		es.logger.Debug("email skipped", zap.String("to", toEmail), zap.String("subject", subject))
		return nil
	}

	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	es.logger.Info("email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// OrderPlaced sends an order confirmation email to the user
func (es *EmailService) OrderPlaced(user models.User, order models.Order) error {
	return es.SendEmail(user.Email, "Order Confirmation", orderPlacedBody(user, order))
}

func orderPlacedBody(user models.User, order models.Order) string {
	return fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been placed successfully.<br><br>Items: <strong>%.2f</strong><br>Shipping: <strong>%.2f</strong><br>Tax: <strong>%.2f</strong><br>Total Amount: <strong>%.2f</strong><br>Payment Method: <strong>%s</strong><br><br>Thank you for shopping with us!",
		html.EscapeString(user.Name),
		order.ID.Hex(),
		order.ItemsPrice,
		order.ShippingPrice,
		order.TaxPrice,
		order.TotalPrice,
		order.PaymentMethod,
	)
}

// OrderStatusChanged tells the user their order moved to a new status
func (es *EmailService) OrderStatusChanged(user models.User, order models.Order) error {
	return es.SendEmail(user.Email, "Order Status Updated", statusChangedBody(user, order))
}

func statusChangedBody(user models.User, order models.Order) string {
	return fmt.Sprintf(
		"Dear %s,<br><br>Your order (ID: %s) is now <strong>%s</strong>.<br><br>Thank you for shopping with us!",
		html.EscapeString(user.Name),
		order.ID.Hex(),
		order.Status,
	)
}
