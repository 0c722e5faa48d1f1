// Package mailer envia os emails transacionais do BeautyPro.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"beautypro/internal/pkg/logger"
)

// Sender é o contrato usado pelo serviço de autenticação.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// Config reúne os parâmetros do servidor SMTP.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer envia emails via go-mail.
type SMTPMailer struct {
	cfg    Config
	client *mail.Client
	logger logger.Logger
}

// NewSMTPMailer cria o cliente SMTP. A conexão só é aberta no envio.
func NewSMTPMailer(cfg Config, log logger.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("falha ao criar cliente SMTP: %w", err)
	}
	return &SMTPMailer{cfg: cfg, client: client, logger: log}, nil
}

// SendPasswordReset envia o link de redefinição de senha.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	msg, err := BuildPasswordReset(m.cfg.From, to, link)
	if err != nil {
		return err
	}

	m.logger.Info("Enviando email de redefinição de senha", map[string]interface{}{"to": logger.MaskEmail(to)})
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("falha ao enviar email: %w", err)
	}
	return nil
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<body style="font-family: Arial, sans-serif;">
	<h2>Redefinição de senha</h2>
	<p>Recebemos um pedido para redefinir a senha da sua conta no BeautyPro.</p>
	<p><a href="{{.Link}}">Clique aqui para criar uma nova senha</a></p>
	<p>Se você não fez este pedido, ignore este email.</p>
</body>
</html>`))

// BuildPasswordReset monta a mensagem de redefinição sem enviá-la.
func BuildPasswordReset(from, to, link string) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("remetente inválido: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("destinatário inválido: %w", err)
	}
	msg.Subject("BeautyPro - Redefinição de senha")

	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct{ Link string }{link}); err != nil {
		return nil, fmt.Errorf("falha ao montar email: %w", err)
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	return msg, nil
}

// LogMailer só registra o envio. Usado em desenvolvimento, sem SMTP configurado.
type LogMailer struct {
	Logger logger.Logger
}

func (m LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.Logger.Info("Email de redefinição (não enviado)", map[string]interface{}{
		"to":   logger.MaskEmail(to),
		"link": link,
	})
	return nil
}
