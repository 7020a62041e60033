package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/shopspring/decimal"
)

type EmailData struct {
	Name     string
	Message  string
	Purchase models.PurchaseSnapshot
	LogoURL  string
}

// EmailLine is one rendered row of the purchase table.
type EmailLine struct {
	Name     string
	Quantity int
	Price    string
	Subtotal string
}

func (d EmailData) Lines() []EmailLine {
	lines := make([]EmailLine, 0, len(d.Purchase.Items))
	for _, it := range d.Purchase.Items {
		lines = append(lines, EmailLine{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price.StringFixed(2),
			Subtotal: it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2),
		})
	}
	return lines
}

func (d EmailData) Total() string { return d.Purchase.Total.StringFixed(2) }

func (d EmailData) Date() string { return d.Purchase.CreatedAt.Format(time.DateOnly) }

type MailConfig struct {
	From         string
	Password     string
	SMTPHost     string
	SMTPAddress  string
	TemplatesDir string
	LogoURL      string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends transactional HTML e-mail over SMTP.
type Mailer struct {
	cfg  MailConfig
	send sendFunc
}

func NewMailer(cfg MailConfig) *Mailer {
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = "templates"
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (m *Mailer) Enabled() bool {
	return m.cfg.From != "" && m.cfg.SMTPAddress != ""
}

func (m *Mailer) SendPurchaseConfirmation(to, name string, purchase models.PurchaseSnapshot) error {
	data := EmailData{
		Name:     name,
		Message:  "Thank you for your purchase! Here is a summary of your order.",
		Purchase: purchase,
		LogoURL:  m.cfg.LogoURL,
	}
	return m.SendEmail(to, "Your Texas Store order", data, filepath.Join(m.cfg.TemplatesDir, "purchase_confirmation.html"))
}

func (m *Mailer) SendEmail(emailTo string, emailSubject string, data EmailData, templatePath string) error {
	message, err := m.render(emailSubject, data, templatePath)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.SMTPHost)

	err = m.send(m.cfg.SMTPAddress, auth, m.cfg.From, []string{emailTo}, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (m *Mailer) render(subject string, data EmailData, templatePath string) ([]byte, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("template execution error: %w", err)
	}

	return []byte(fmt.Sprintf(
		"From: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		m.cfg.From,
		subject,
		body.String(),
	)), nil
}
