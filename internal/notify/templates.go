package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var adminTmpl = template.Must(template.New("admin").Parse(`<h2>New booking request for {{.AgentName}}</h2>
<table>
<tr><td>Name</td><td>{{or .Name "not captured"}}</td></tr>
<tr><td>Email</td><td>{{or .Email "not captured"}}</td></tr>
<tr><td>Phone</td><td>{{or .Phone "not captured"}}</td></tr>
<tr><td>Requested time</td><td>{{.When}}</td></tr>
<tr><td>Service</td><td>{{or .Service "not specified"}}</td></tr>
<tr><td>Caller number</td><td>{{or .CallerNumber "unknown"}}</td></tr>
</table>
<p>This request is pending. Please contact the customer to confirm.</p>
`))

var customerTmpl = template.Must(template.New("customer").Parse(`<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>Thanks for calling {{.AgentName}}. We received your appointment request for <strong>{{.When}}</strong>{{if .Service}} ({{.Service}}){{end}}.</p>
<p>The team will get back to you to confirm.</p>
`))

type view struct {
	AgentName    string
	Name         string
	Email        string
	Phone        string
	When         string
	Service      string
	CallerNumber string
}

func newView(n Notice) view {
	return view{
		AgentName:    n.AgentName,
		Name:         n.Booking.CustomerName,
		Email:        n.Booking.CustomerEmail,
		Phone:        n.Booking.CustomerPhone,
		When:         requestedTime(n),
		Service:      n.Booking.Service,
		CallerNumber: n.CallerNumber,
	}
}

func requestedTime(n Notice) string {
	if n.Booking.RequestedAt != nil {
		loc := n.Location
		if loc == nil {
			loc = time.UTC
		}
		return n.Booking.RequestedAt.In(loc).Format("Monday, January 2, 2006 at 3:04 PM MST")
	}
	if s := strings.TrimSpace(n.Booking.RequestedText); s != "" {
		return s
	}
	return "time not specified"
}

func render(t *template.Template, v view) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func adminMessage(n Notice) (Message, error) {
	v := newView(n)
	html, err := render(adminTmpl, v)
	if err != nil {
		return Message{}, err
	}
	subject := fmt.Sprintf("New booking request: %s", v.When)
	if v.Name != "" {
		subject = fmt.Sprintf("New booking request from %s: %s", v.Name, v.When)
	}
	return Message{
		To:      n.AdminEmail,
		Subject: subject,
		HTML:    html,
		Text:    fmt.Sprintf("New booking request for %s. Name: %s. Email: %s. Phone: %s. Time: %s. Service: %s.", v.AgentName, v.Name, v.Email, v.Phone, v.When, v.Service),
	}, nil
}

func customerMessage(n Notice) (Message, error) {
	v := newView(n)
	html, err := render(customerTmpl, v)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      n.Booking.CustomerEmail,
		Subject: fmt.Sprintf("Your appointment request with %s", v.AgentName),
		HTML:    html,
		Text:    fmt.Sprintf("Thanks for calling %s. We received your appointment request for %s. The team will get back to you to confirm.", v.AgentName, v.When),
	}, nil
}
