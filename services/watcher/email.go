package watcher

import (
	"context"
	"fmt"
	"net/smtp"

	"stdmark-backend/lib/marks"

	"github.com/jordan-wright/email"
)

type EmailOptions struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	// recipients of every new-marks digest
	To []string `json:"to"`
}

// EmailNotifier delivers new-marks digests over smtp. It is the
// notifier wired in production, tests substitute their own.
type EmailNotifier struct {
	opts EmailOptions
}

func NewEmailNotifier(opts EmailOptions) *EmailNotifier {
	return &EmailNotifier{opts: opts}
}

func (n *EmailNotifier) NotifyNewMarks(ctx context.Context, userID int64, info marks.StudentInfo, fresh []marks.MarkRecord) error {
	e := email.NewEmail()
	e.From = n.opts.From
	e.To = n.opts.To
	e.Subject = fmt.Sprintf("علامات جديدة للمستخدم %d", userID)
	e.Text = []byte(FormatNewMarks(info, fresh))

	addr := fmt.Sprintf("%s:%d", n.opts.Host, n.opts.Port)
	return e.Send(addr, smtp.PlainAuth("", n.opts.Username, n.opts.Password, n.opts.Host))
}
