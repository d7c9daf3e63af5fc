// Package emailer composes and sends plain text notification emails over SMTP.
package emailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/ratelimit"
)

var (
	ErrInvalidSender    = errors.New("invalid sender address")
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrCompose          = errors.New("failed to compose message")
	ErrSend             = errors.New("failed to send message")
)

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	PerMinute int
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

type SMTPSender struct {
	addr    string
	auth    smtp.Auth
	from    *mail.Address
	limiter ratelimit.Limiter
	send    SendFunc
	now     func() time.Time
}

func New(conf Config) (*SMTPSender, error) {
	return NewWithSendFunc(conf, smtp.SendMail)
}

func NewWithSendFunc(conf Config, send SendFunc) (*SMTPSender, error) {
	from, errFrom := mail.ParseAddress(conf.From)
	if errFrom != nil {
		return nil, errors.Join(errFrom, ErrInvalidSender)
	}

	var auth smtp.Auth
	if conf.Username != "" {
		auth = smtp.PlainAuth("", conf.Username, conf.Password, conf.Host)
	}

	perMinute := conf.PerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &SMTPSender{
		addr:    net.JoinHostPort(conf.Host, fmt.Sprintf("%d", conf.Port)),
		auth:    auth,
		from:    from,
		limiter: ratelimit.New(perMinute, ratelimit.Per(time.Minute)),
		send:    send,
		now:     time.Now,
	}, nil
}

// Send blocks until the rate limiter allows another message.
func (s *SMTPSender) Send(ctx context.Context, recipient string, subject string, body string) error {
	to, errTo := mail.ParseAddress(recipient)
	if errTo != nil {
		return errors.Join(errTo, ErrInvalidRecipient)
	}

	msg, errCompose := s.compose(to, subject, body)
	if errCompose != nil {
		return errCompose
	}

	s.limiter.Take()

	if err := ctx.Err(); err != nil {
		return errors.Join(err, ErrSend)
	}

	if errSend := s.send(s.addr, s.auth, s.from.Address, []string{to.Address}, msg); errSend != nil {
		return errors.Join(errSend, ErrSend)
	}

	return nil
}

func (s *SMTPSender) compose(recipient *mail.Address, subject string, body string) ([]byte, error) {
	var header mail.Header

	header.SetDate(s.now())
	header.SetAddressList("From", []*mail.Address{s.from})
	header.SetAddressList("To", []*mail.Address{recipient})
	header.SetSubject(subject)
	header.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	if errID := header.GenerateMessageID(); errID != nil {
		return nil, errors.Join(errID, ErrCompose)
	}

	var buf bytes.Buffer

	writer, errWriter := mail.CreateSingleInlineWriter(&buf, header)
	if errWriter != nil {
		return nil, errors.Join(errWriter, ErrCompose)
	}

	if _, errWrite := io.WriteString(writer, strings.ReplaceAll(body, "\r\n", "\n")); errWrite != nil {
		return nil, errors.Join(errWrite, ErrCompose)
	}

	if errClose := writer.Close(); errClose != nil {
		return nil, errors.Join(errClose, ErrCompose)
	}

	return buf.Bytes(), nil
}
