// utils/email.go
package utils

import (
	"fmt"
	"pfw-commerce/models"

	"github.com/keighl/postmark"
)

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
	sender string
	port   string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(apiToken, sender, port string) *EmailService {
	client := postmark.NewClient(apiToken, "")
	return &EmailService{
		client: client,
		sender: sender,
		port:   port,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
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

	return nil
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(toEmail, token string) error {
	subject := "Verify Your Email"
	verificationLink := fmt.Sprintf("http://localhost:%s/verify?token=%s", es.port, token)
	htmlContent := fmt.Sprintf(
		"<strong>Please verify your email by clicking on the following link:</strong> <a href=\"%s\">Verify Email</a>",
		verificationLink,
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(toEmail, name string, order *models.Order) error {
	subject := fmt.Sprintf("Order %s Confirmed", order.OrderNumber)
	htmlContent := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your purchase! Your order <strong>%s</strong> has been placed successfully.<br><br>Total Amount: <strong>%s</strong><br>Shipping to: %s, %s %s<br><br>Thank you for shopping with us!",
		name,
		order.OrderNumber,
		order.TotalAmount,
		order.ShippingAddress,
		order.City,
		order.PostalCode,
	)

	return es.SendEmail(toEmail, subject, htmlContent)
}
