package mail

import (
	"fmt"
	"strconv"

	gomail "github.com/wneessen/go-mail"

	"lucaslea/internal/config"
)

const confirmSubject = "Confirmation de votre inscription"

// SMTPMailer sends the registration confirmation email. One attempt, no
// retries; the caller decides what to do with a failure.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	baseURL  string
}

func NewSMTPMailer(cfg config.Config) (*SMTPMailer, error) {
	port, err := strconv.Atoi(cfg.MailPort)
	if err != nil {
		return nil, fmt.Errorf("mail: bad MAIL_PORT %q: %w", cfg.MailPort, err)
	}
	return &SMTPMailer{
		host:     cfg.MailHost,
		port:     port,
		username: cfg.MailUsername,
		password: cfg.MailPassword,
		from:     cfg.MailFrom,
		baseURL:  cfg.BaseURL,
	}, nil
}

func (m *SMTPMailer) SendConfirmation(email, token string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat("Lucas et Léa", m.from); err != nil {
		return err
	}
	if err := msg.To(email); err != nil {
		return err
	}
	msg.Subject(confirmSubject)
	msg.SetBodyString(gomail.TypeTextHTML, ConfirmationBody(m.baseURL, token))

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.username),
		gomail.WithPassword(m.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

// ConfirmationBody builds the HTML body around the confirmation link.
func ConfirmationBody(baseURL, token string) string {
	link := fmt.Sprintf("%s/confirm/%s", baseURL, token)
	return fmt.Sprintf(`Bonjour,<br><br>Merci pour votre inscription.
Veuillez cliquer sur le lien ci-dessous pour confirmer votre adresse email :<br>
<a href="%s">Confirmer mon email</a>`, link)
}
