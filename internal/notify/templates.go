package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"designcraft/internal/models"
)

var (
	orderConfirmationTmpl = template.Must(template.New("order").Parse(
		`<p>Hi {{.Name}},</p>
<p>Thank you for your order of <strong>{{.Service}}</strong> at {{.Brand}}.</p>
<p>Price: {{.Price}}{{if .Coupon}} (coupon {{.Coupon}}, {{.Discount}}% off){{end}}<br>Total: <strong>{{.Final}}</strong></p>
<p>You can follow your order status at <a href="{{.Link}}">{{.Link}}</a>.</p>`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(
		`<p>Thanks for subscribing to the {{.Brand}} newsletter!</p>
<p>You will hear from us about new services and offers.</p>
<p><a href="{{.Unsubscribe}}">Unsubscribe</a></p>`))

	campaignTmpl = template.Must(template.New("campaign").Parse(
		`<div>{{.Content}}</div>
<hr>
<p><small>You receive this email because you subscribed to {{.Brand}}. <a href="{{.Unsubscribe}}">Unsubscribe</a></small></p>`))
)

// Templates собирает письма с брендингом и ссылками фронтенда.
type Templates struct {
	brand       string
	frontendURL string
	apiURL      string
}

// NewTemplates создаёт набор шаблонов. apiURL используется для ссылок отписки.
func NewTemplates(brand, frontendURL, apiURL string) *Templates {
	if brand == "" {
		brand = "DesignCraft"
	}
	return &Templates{
		brand:       brand,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		apiURL:      strings.TrimRight(apiURL, "/"),
	}
}

// UnsubscribeURL возвращает ссылку отписки для токена.
func (t *Templates) UnsubscribeURL(token string) string {
	return t.apiURL + "/api/newsletter/unsubscribe/" + token
}

// OrderConfirmation собирает письмо-подтверждение заказа.
func (t *Templates) OrderConfirmation(data *models.OrderCreatedData) (Message, error) {
	coupon := ""
	if data.CouponCode != nil {
		coupon = *data.CouponCode
	}
	html, err := render(orderConfirmationTmpl, map[string]interface{}{
		"Name":     data.ClientName,
		"Service":  data.ServiceName,
		"Brand":    t.brand,
		"Price":    data.ServicePrice.StringFixed(2),
		"Coupon":   coupon,
		"Discount": data.DiscountPercent,
		"Final":    data.FinalPrice.StringFixed(2),
		"Link":     t.frontendURL + "/orders",
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      data.ClientEmail,
		Subject: fmt.Sprintf("%s: order confirmation", t.brand),
		HTML:    html,
		Text: fmt.Sprintf("Hi %s, thank you for your order of %s. Total: %s.",
			data.ClientName, data.ServiceName, data.FinalPrice.StringFixed(2)),
	}, nil
}

// Welcome собирает приветственное письмо подписчику.
func (t *Templates) Welcome(email, unsubscribeToken string) (Message, error) {
	link := t.UnsubscribeURL(unsubscribeToken)
	html, err := render(welcomeTmpl, map[string]interface{}{
		"Brand":       t.brand,
		"Unsubscribe": link,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      email,
		Subject: fmt.Sprintf("Welcome to the %s newsletter", t.brand),
		HTML:    html,
		Text:    fmt.Sprintf("Thanks for subscribing to %s. Unsubscribe: %s", t.brand, link),
	}, nil
}

// Campaign собирает письмо рассылки. Содержимое экранируется.
func (t *Templates) Campaign(email, subject, content, unsubscribeToken string) (Message, error) {
	link := t.UnsubscribeURL(unsubscribeToken)
	html, err := render(campaignTmpl, map[string]interface{}{
		"Content":     content,
		"Brand":       t.brand,
		"Unsubscribe": link,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      email,
		Subject: subject,
		HTML:    html,
		Text:    content + "\n\nUnsubscribe: " + link,
	}, nil
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
