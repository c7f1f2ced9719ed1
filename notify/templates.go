package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #f4f4f4; padding: 20px; border-radius: 10px;">
        <h1 style="color: {{.Accent}};">{{.Heading}}</h1>
        <p>{{.Intro}}</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.Link}}" style="display: inline-block; padding: 12px 30px; background-color: {{.Accent}}; color: white; text-decoration: none; border-radius: 5px; font-weight: bold;">{{.Button}}</a>
        </div>
        <p>Or copy and paste this link into your browser:</p>
        <p style="background-color: #fff; padding: 10px; border-radius: 5px; word-break: break-all;">{{.Link}}</p>
        <p style="color: #d9534f; font-weight: bold;">This link expires in {{.Expiry}}.</p>
        <p style="color: #666; font-size: 14px;">{{.Footer}}</p>
    </div>
</body>
</html>
`

var mailTemplate = template.Must(template.New("mail").Parse(layout))

type templateData struct {
	Title   string
	Heading string
	Intro   string
	Button  string
	Accent  template.CSS
	Link    string
	Expiry  string
	Footer  string
}

// RendererConfig holds what the templates need besides the message.
type RendererConfig struct {
	FrontendURL     string
	From            string
	ConfirmationTTL time.Duration
	ResetTTL        time.Duration
}

// Renderer turns queued messages into mail.
type Renderer struct {
	cfg  RendererConfig
	base string
}

// NewRenderer validates cfg.FrontendURL and returns a Renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	u, err := url.Parse(cfg.FrontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("notify: invalid frontend url %q", cfg.FrontendURL)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("notify: sender address required")
	}
	return &Renderer{cfg: cfg, base: strings.TrimRight(cfg.FrontendURL, "/")}, nil
}

// ConfirmationLink is the page that sets the first password.
func (r *Renderer) ConfirmationLink(token string) string {
	return r.base + "/auth/setPassword?hash=" + url.QueryEscape(token)
}

// ResetLink is the page that sets a new password.
func (r *Renderer) ResetLink(token string) string {
	return r.base + "/auth/password-change?hash=" + url.QueryEscape(token)
}

// Render builds the mail for m.
func (r *Renderer) Render(m Message) (Mail, error) {
	var (
		subject string
		data    templateData
	)
	switch m.Kind {
	case KindConfirmation:
		subject = "Confirm your email address"
		data = templateData{
			Title:   "Confirm Your Email",
			Heading: "Welcome!",
			Intro:   "Thank you for registering. Please confirm your email address by clicking the button below:",
			Button:  "Confirm Email & Set Password",
			Accent:  "#007bff",
			Link:    r.ConfirmationLink(m.Token),
			Expiry:  humanDuration(r.cfg.ConfirmationTTL),
			Footer:  "If you didn't request this, please ignore this email.",
		}
	case KindPasswordReset:
		subject = "Password Reset Request"
		data = templateData{
			Title:   "Password Reset",
			Heading: "Password Reset Request",
			Intro:   "You requested to reset your password. Click the button below to set a new password:",
			Button:  "Reset Password",
			Accent:  "#dc3545",
			Link:    r.ResetLink(m.Token),
			Expiry:  humanDuration(r.cfg.ResetTTL),
			Footer:  "If you didn't request this, please ignore this email. Your password will remain unchanged.",
		}
	default:
		return Mail{}, fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}

	var buf bytes.Buffer
	if err := mailTemplate.Execute(&buf, data); err != nil {
		return Mail{}, fmt.Errorf("render %s: %w", m.Kind, err)
	}
	return Mail{From: r.cfg.From, To: m.To, Subject: subject, HTML: buf.String()}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short time"
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
