package smtp

import (
	"fmt"
	"mime"
	"strings"
)

// Compose собирает текстовое письмо в UTF-8. Тема кодируется по RFC 2047.
func Compose(from string, to []string, subject, body string) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n"))
}

// Send передаёт письмо через открытую транспортом сессию.
func Send(t TransportInterface, to []string, subject, body string) error {
	const op = "smtp.Send"
	from := t.GetSMTPUser()

	client, err := t.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("%s: mail from: %w", op, err)
	}
	for _, addr := range to {
		if err = client.Rcpt(addr); err != nil {
			return fmt.Errorf("%s: rcpt %s: %w", op, addr, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err = wc.Write(Compose(from, to, subject, body)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		return fmt.Errorf("%s: quit: %w", op, err)
	}
	return nil
}
