// Package notify mails a change summary to the configured addresses
// after a schedule edit. Delivery is best-effort: a failure here is
// logged and dropped, never propagated back to the edit that triggered
// it — the update has already committed.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathancadepowers/wusa-reports/internal/schedule"
	"github.com/jonathancadepowers/wusa-reports/internal/settings"
)

type Notifier struct {
	settings *settings.Store
	smtpAddr string // host:port; empty disables delivery
	from     string
	log      *logrus.Logger

	// send is swappable in tests
	send func(addr, from string, to []string, msg []byte) error
}

func New(st *settings.Store, smtpAddr, from string, log *logrus.Logger) *Notifier {
	return &Notifier{
		settings: st,
		smtpAddr: smtpAddr,
		from:     from,
		log:      log,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// GameEdited implements schedule.Notifier.
func (n *Notifier) GameEdited(game schedule.Game, changes []schedule.FieldChange) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	raw, err := n.settings.Get(ctx, settings.KeyNotificationEmails)
	if err != nil {
		n.log.WithError(err).Warn("notify: could not load address list")
		return
	}
	to := splitAddresses(raw)
	if len(to) == 0 {
		n.log.WithField("game", game.GameNumber).Debug("notify: no addresses configured")
		return
	}

	subject, body := composeMessage(game, changes)
	if n.smtpAddr == "" {
		n.log.WithFields(logrus.Fields{
			"game":    game.GameNumber,
			"subject": subject,
		}).Info("notify: SMTP not configured, logging only")
		return
	}

	msg := buildMIME(n.from, to, subject, body)
	if err := n.send(n.smtpAddr, n.from, to, msg); err != nil {
		n.log.WithError(err).WithField("game", game.GameNumber).Error("notify: send failed")
		return
	}
	n.log.WithFields(logrus.Fields{
		"game":       game.GameNumber,
		"recipients": len(to),
	}).Info("notify: edit notification sent")
}

func splitAddresses(raw string) []string {
	var out []string
	for _, a := range strings.Split(raw, ",") {
		a = strings.TrimSpace(a)
		if a != "" && strings.Contains(a, "@") {
			out = append(out, a)
		}
	}
	return out
}

func composeMessage(game schedule.Game, changes []schedule.FieldChange) (subject, body string) {
	subject = fmt.Sprintf("Schedule change: game #%d (%s, %s vs %s)",
		game.GameNumber, game.Division, game.Home, game.Away)

	var b strings.Builder
	fmt.Fprintf(&b, "Game #%d in %s was edited.\r\n\r\n", game.GameNumber, game.Division)
	for _, c := range changes {
		fmt.Fprintf(&b, "  %s: %q -> %q\r\n", c.Field, c.Old, c.New)
	}
	fmt.Fprintf(&b, "\r\nNow scheduled: %s %s at %s, %s vs %s\r\n",
		game.GameDate, game.Time, game.Field, game.Home, game.Away)
	return subject, b.String()
}

func buildMIME(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
