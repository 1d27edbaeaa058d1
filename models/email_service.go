package models

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"
)

type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService() (*EmailService, error) {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")

	if smtpHost == "" || smtpUser == "" || smtpPass == "" {
		return nil, fmt.Errorf("SMTP configuration missing")
	}

	port, err := strconv.Atoi(smtpPort)
	if err != nil {
		port = 587
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = smtpUser
	}

	return &EmailService{
		dialer: gomail.NewDialer(smtpHost, port, smtpUser, smtpPass),
		from:   from,
	}, nil
}

// SendOrderConfirmation mails the customer after a successful checkout.
func (s *EmailService) SendOrderConfirmation(order *Order) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", order.CustomerEmail)
	m.SetHeader("Subject", fmt.Sprintf("Order Confirmation %s - RINOS Bikes", order.OrderNr))

	var rows strings.Builder
	for _, item := range order.Items {
		rows.WriteString(fmt.Sprintf(`
        <tr>
            <td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
            <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
            <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">%s EUR</td>
        </tr>`, item.ArticleName, item.Quantity, item.UnitPrice.StringFixed(2)))
	}

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px; }
        .logo { font-size: 24px; font-weight: bold; color: #1d4ed8; text-align: center; }
        .order-box { background-color: #eff6ff; border: 2px solid #1d4ed8; padding: 16px; text-align: center; margin: 24px 0; border-radius: 8px; }
        .ordernr { font-size: 28px; font-weight: bold; color: #1d4ed8; letter-spacing: 2px; }
        table { width: 100%%; border-collapse: collapse; }
        .total-row td { padding: 8px; font-weight: bold; }
        .footer { text-align: center; margin-top: 30px; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">RINOS Bikes</div>
        <h2>Thank you for your order, %s!</h2>
        <div class="order-box">
            <div style="color: #666; font-size: 14px;">Your order number</div>
            <div class="ordernr">%s</div>
        </div>
        <table>
            <tr>
                <th style="text-align: left; padding: 8px;">Article</th>
                <th style="padding: 8px;">Qty</th>
                <th style="text-align: right; padding: 8px;">Price</th>
            </tr>
            %s
            <tr class="total-row"><td>Subtotal</td><td></td><td style="text-align: right;">%s EUR</td></tr>
            <tr class="total-row"><td>VAT</td><td></td><td style="text-align: right;">%s EUR</td></tr>
            <tr class="total-row"><td>Shipping</td><td></td><td style="text-align: right;">%s EUR</td></tr>
            <tr class="total-row"><td>Total</td><td></td><td style="text-align: right;">%s EUR</td></tr>
        </table>
        <p>We will notify you as soon as your order ships.</p>
        <div class="footer">
            <p>This is an automated email. Please do not reply.</p>
            <p>RINOS Bikes - rinosbike.at</p>
        </div>
    </div>
</body>
</html>
	`, order.CustomerName, order.OrderNr, rows.String(),
		order.Subtotal.StringFixed(2), order.TaxAmount.StringFixed(2),
		order.Shipping.StringFixed(2), order.TotalAmount.StringFixed(2))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}

	return nil
}

// SendPaymentReceipt mails the customer after Stripe reports a successful payment.
func (s *EmailService) SendPaymentReceipt(order *Order) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", order.CustomerEmail)
	m.SetHeader("Subject", fmt.Sprintf("Payment Received for %s - RINOS Bikes", order.OrderNr))

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
    <h2>Payment received</h2>
    <p>Hello %s,</p>
    <p>We have received your payment of <strong>%s %s</strong> for order <strong>%s</strong>.</p>
    <p>Your order is now being prepared for shipment.</p>
    <p>RINOS Bikes Team</p>
</body>
</html>
	`, order.CustomerName, order.TotalAmount.StringFixed(2), order.Currency, order.OrderNr)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send payment receipt: %w", err)
	}

	return nil
}
