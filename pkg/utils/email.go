package utils

import "gopkg.in/gomail.v2"

type SMTPMailer struct {
	dialer *gomail.Dialer
	sender string
}

func CreateSMTPMailer(smtpServer string, smtpPort int, sender string, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(smtpServer, smtpPort, sender, password),
		sender: sender,
	}
}

func (m *SMTPMailer) Send(to string, subject string, body string) error {
	return m.dialer.DialAndSend(buildMessage(m.sender, to, subject, body))
}

func buildMessage(sender, to, subject, body string) *gomail.Message {
	message := gomail.NewMessage()
	message.SetHeader("From", sender)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	return message
}
