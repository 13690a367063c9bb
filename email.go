package miniauth

import (
	"fmt"
	"log"

	mail "github.com/wneessen/go-mail"
)

// EmailSender delivers one-time passcodes out-of-band. Applications can plug
// their own implementation.
type EmailSender interface {
	SendOTPEmail(to string, code string) error
}

// ConsoleEmailSender is a development implementation that logs emails to console.
type ConsoleEmailSender struct{}

func (c *ConsoleEmailSender) SendOTPEmail(to string, code string) error {
	log.Printf("\n=== EMAIL: One-Time Passcode ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: Checking if it's really you.")
	log.Printf("Body: Your verification code is %s", code)
	log.Printf("================================\n")
	return nil
}

// SMTPEmailSender sends OTP emails through an SMTP relay.
type SMTPEmailSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s *SMTPEmailSender) SendOTPEmail(to string, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject("Checking if it's really you.")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("Your verification code is %s. It expires shortly.", code))

	client, err := mail.NewClient(s.Host,
		mail.WithPort(s.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.Username),
		mail.WithPassword(s.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}
