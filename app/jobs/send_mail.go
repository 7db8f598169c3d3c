// Package jobs holds the background jobs run by the queue workers.
package jobs

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/farmlink/pkg/mail"
	"github.com/shashiranjanraj/farmlink/pkg/queue"
)

// SendMailType is the queue name of SendMail.
const SendMailType = "send_mail"

// SendMail delivers one plain-text message.
type SendMail struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`

	mailer mail.Mailer
}

func NewSendMail(to []string, subject, body string) *SendMail {
	return &SendMail{To: to, Subject: subject, Body: body}
}

func (j *SendMail) Type() string { return SendMailType }

func (j *SendMail) Handle(ctx context.Context) error {
	if j.mailer == nil {
		return errors.New("jobs: send_mail has no mailer")
	}
	return j.mailer.Send(ctx, mail.To(j.To...).WithSubject(j.Subject).WithText(j.Body))
}

// Register makes the queue able to decode and run every job, delivering
// mail through mailer.
func Register(q *queue.Manager, mailer mail.Mailer) {
	q.Register(SendMailType, func() queue.Job { return &SendMail{mailer: mailer} })
}
