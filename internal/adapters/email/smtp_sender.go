package email

import (
	"context"
	"fmt"
	"io"
	"net/smtp"

	mail "github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

const (
	reportAttachmentName   = "weekly_report.pdf"
	congratulationsSubject = "Congratulations on Your Achievement!"
)

// SMTPSender delivers the two kinds of mail the pipeline produces: weekly
// reports with a PDF attachment and plain-text achievement notifications.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
	log  *logrus.Entry
}

func NewSMTPSender(host, port, username, password, from string, log *logrus.Logger) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: host + ":" + port,
		auth: auth,
		from: from,
		log:  log.WithField("component", "smtp_sender"),
	}
}

// SendReport sends a multipart message with the PDF attached as
// weekly_report.pdf.
func (s *SMTPSender) SendReport(ctx context.Context, recipient, subject string, attachment io.Reader) error {
	msg := mail.NewEmail()
	msg.From = s.from
	msg.To = []string{recipient}
	msg.Subject = subject
	msg.Text = []byte("Your weekly habit report is attached.")

	if _, err := msg.Attach(attachment, reportAttachmentName, "application/pdf"); err != nil {
		return fmt.Errorf("attach report pdf: %w", err)
	}

	if err := msg.Send(s.addr, s.auth); err != nil {
		return fmt.Errorf("send report email to %s: %w", recipient, err)
	}
	s.log.Infof("report email sent to %s", recipient)
	return nil
}

// SendCongratulation sends the fixed-subject achievement notification.
func (s *SMTPSender) SendCongratulation(ctx context.Context, recipient, achievementType string) error {
	msg := mail.NewEmail()
	msg.From = s.from
	msg.To = []string{recipient}
	msg.Subject = congratulationsSubject
	msg.Text = []byte(fmt.Sprintf("Congratulations! You've unlocked a new achievement: %s", achievementType))

	if err := msg.Send(s.addr, s.auth); err != nil {
		return fmt.Errorf("send congratulation email to %s: %w", recipient, err)
	}
	s.log.Infof("congratulation email sent to %s", recipient)
	return nil
}
