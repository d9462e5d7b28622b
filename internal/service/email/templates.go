package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/solutiontech/gic/internal/domain"
)

type templates struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *template.Template
}

type welcomeData struct {
	Name    string
	Variant string
	Company string
	Perk    string
}

// perks is the one line each variant gets about what its account includes.
var perks = map[domain.Variant]string{
	domain.VariantRegular:   "Acumulas puntos de fidelidad con cada compra y obtienes hasta un 5% de descuento.",
	domain.VariantPremium:   "Tu ejecutivo dedicado te contactará pronto. Tu descuento crece con tu nivel.",
	domain.VariantCorporate: "Tu empresa accede a descuentos por volumen según su número de empleados.",
}

func parseTemplates() *templates {
	return &templates{
		subject: texttemplate.Must(texttemplate.New("subject").Parse(welcomeSubject)),
		text:    texttemplate.Must(texttemplate.New("text").Parse(welcomeText)),
		html:    template.Must(template.New("html").Parse(welcomeHTML)),
	}
}

func (t *templates) welcome(to, name string, variant domain.Variant, company string) (Message, error) {
	data := welcomeData{Name: name, Variant: string(variant), Company: company, Perk: perks[variant]}

	var subject, text, html bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("render welcome subject: %w", err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render welcome text: %w", err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render welcome html: %w", err)
	}
	return Message{
		To:      to,
		ToName:  name,
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

const welcomeSubject = "Bienvenido/a a {{.Company}}, {{.Name}}!"

const welcomeText = `Hola {{.Name}},

Tu cuenta como cliente {{.Variant}} en {{.Company}} ha sido creada.
{{with .Perk}}
{{.}}
{{end}}
Este es un mensaje automático, por favor no respondas a este correo.
`

const welcomeHTML = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
    <div style="background: #1d4ed8; color: #fff; padding: 24px; text-align: center;">
        <h1 style="margin: 0;">{{.Company}}</h1>
    </div>
    <div style="padding: 24px; border: 1px solid #e5e7eb;">
        <h2>Bienvenido/a, {{.Name}}!</h2>
        <p>Tu cuenta como cliente <strong>{{.Variant}}</strong> ha sido creada.</p>
        {{with .Perk}}<p>{{.}}</p>{{end}}
    </div>
    <p style="font-size: 12px; color: #6b7280; text-align: center;">
        Este es un mensaje automático, por favor no respondas a este correo.
    </p>
</body>
</html>
`
