package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
)

// Links are the frontend URLs a token gets appended to.
type Links struct {
	ActivationURL string
	RecoveryURL   string
}

type Email struct {
	from  string
	auth  smtp.Auth
	addr  string
	links Links
}

func New(address string, password string, host string, port string, links Links) *Email {
	var auth smtp.Auth
	if password != "" {
		auth = smtp.PlainAuth("", address, password, host)
	}

	return &Email{
		from:  address,
		auth:  auth,
		addr:  host + ":" + port,
		links: links,
	}
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<p>Hi {{.Name}},</p>
<p>Welcome! Your account is ready: browse the catalog and start learning.</p>
`))

var activationTmpl = template.Must(template.New("activation").Parse(`
<p>Please activate your account by following this link:</p>
<p><a href="{{.URL}}?token={{.Token}}">Activate account</a></p>
<p>The link expires shortly, so don't wait too long.</p>
`))

var recoveryTmpl = template.Must(template.New("recovery").Parse(`
<p>A password reset was requested for your account. Follow this link to pick a new one:</p>
<p><a href="{{.URL}}?token={{.Token}}">Reset password</a></p>
<p>If you didn't ask for this, you can safely ignore this email.</p>
`))

func (e *Email) SendWelcome(to string, name string) error {
	data := struct{ Name string }{Name: name}
	return e.send(to, "Welcome aboard", welcomeTmpl, data)
}

func (e *Email) SendActivation(to string, token string) error {
	data := struct{ URL, Token string }{URL: e.links.ActivationURL, Token: token}
	return e.send(to, "Activate your account", activationTmpl, data)
}

func (e *Email) SendRecovery(to string, token string) error {
	data := struct{ URL, Token string }{URL: e.links.RecoveryURL, Token: token}
	return e.send(to, "Reset your password", recoveryTmpl, data)
}

func (e *Email) send(to string, subject string, tmpl *template.Template, data interface{}) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("rendering email body: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", e.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	if err := smtp.SendMail(e.addr, e.auth, e.from, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}

	return nil
}
