package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// Mailer sends notification emails over plain SMTP. Credentials come from
// config; an empty host disables sending, which keeps local development
// quiet.
type Mailer struct {
	host     string
	port     int
	from     string
	password string
	log      *zerolog.Logger
}

func New(host string, port int, from, password string, log *zerolog.Logger) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		from:     from,
		password: password,
		log:      log,
	}
}

// SendRSVPReminder goes out the morning of the occurrence the recipient
// RSVPed to.
func (m *Mailer) SendRSVPReminder(recipient, eventName, dateKey, startTime string) error {
	subject := fmt.Sprintf("Reminder: %s is today", eventName)
	body := fmt.Sprintf("Hi!\n\nThis is your reminder that %s happens today (%s)", eventName, dateKey)
	if startTime != "" {
		body += fmt.Sprintf(" at %s", startTime)
	}
	body += ".\n\nSee you there!"
	return m.send(recipient, subject, body)
}

// SendClaimExpired tells a waitlisted performer their hold lapsed.
func (m *Mailer) SendClaimExpired(recipient, eventName string) error {
	subject := fmt.Sprintf("Your waitlist spot for %s expired", eventName)
	body := fmt.Sprintf("Hi!\n\nYour waitlisted timeslot claim for %s was not confirmed in time and has been released.\nYou are welcome to claim another slot.", eventName)
	return m.send(recipient, subject, body)
}

// SendClaimConfirmed tells a performer they moved off the waitlist.
func (m *Mailer) SendClaimConfirmed(recipient, eventName string) error {
	subject := fmt.Sprintf("You're on the lineup for %s", eventName)
	body := fmt.Sprintf("Hi!\n\nA slot opened up and your claim for %s is now confirmed.\nSee you on stage!", eventName)
	return m.send(recipient, subject, body)
}

func (m *Mailer) send(recipient, subject, body string) error {
	if recipient == "" {
		return nil
	}
	if m.host == "" {
		m.log.Debug().Str("to", recipient).Str("subject", subject).Msg("smtp disabled, skipping email")
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, recipient, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.from, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("to", recipient).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("to", recipient).Str("subject", subject).Msg("email sent")
	return nil
}
