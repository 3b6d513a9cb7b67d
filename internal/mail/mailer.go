// Package mail sends the transactional notifications. Sends are best-effort
// everywhere in this service: a failed email never fails the request that
// triggered it.
package mail

import (
	"sync"

	"github.com/pkg/errors"
	gomail "gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer lazily negotiates an SMTP connection and memoizes it for the life
// of the process; later sends reuse it without re-negotiating. There is no
// reset path.
type SMTPMailer struct {
	cfg Config

	mu sync.Mutex
	sc gomail.SendCloser

	// dial is swappable in tests.
	dial func(host string, port int, ssl bool) (gomail.SendCloser, error)
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{
		cfg: cfg,
		dial: func(host string, port int, ssl bool) (gomail.SendCloser, error) {
			d := gomail.NewDialer(host, port, cfg.Username, cfg.Password)
			d.SSL = ssl
			return d.Dial()
		},
	}
}

// transport returns the cached connection, negotiating one on first use.
// Negotiation tries the configured host:port (implicit TLS iff 465), then the
// gmail STARTTLS port when the host is gmail and 587 was not already tried.
func (m *SMTPMailer) transport() (gomail.SendCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sc != nil {
		return m.sc, nil
	}
	if m.cfg.Host == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return nil, errors.New("missing SMTP configuration")
	}

	sc, err := m.dial(m.cfg.Host, m.cfg.Port, m.cfg.Port == 465)
	if err == nil {
		m.sc = sc
		return sc, nil
	}

	if m.cfg.Host == "smtp.gmail.com" && m.cfg.Port != 587 {
		sc, err2 := m.dial(m.cfg.Host, 587, false)
		if err2 == nil {
			m.sc = sc
			return sc, nil
		}
	}

	return nil, errors.Wrap(err, "smtp dial")
}

func (m *SMTPMailer) Send(msg Message) error {
	sc, err := m.transport()
	if err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.cfg.From)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := gomail.Send(sc, gm); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}
