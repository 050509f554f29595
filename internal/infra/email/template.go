package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"cleaner_reminder_service/internal/domain/notification"
)

const occurrenceLayout = "Monday, January 2 at 3:04 PM"

// Rendered is a reminder email ready to be put on the wire.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type reminderView struct {
	Name        string
	ServiceType string
	Address     string
	When        string
	BookingID   string
}

var reminderHTML = htmltemplate.Must(htmltemplate.New("reminder.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>Hi {{.Name}},</p>
  <p>This is a reminder that you have a {{.ServiceType}} scheduled for <strong>{{.When}}</strong>.</p>
  {{if .Address}}<p>Address: {{.Address}}</p>{{end}}
  <p style="color: #777; font-size: 12px;">Booking reference: {{.BookingID}}</p>
</body>
</html>
`))

var reminderText = texttemplate.Must(texttemplate.New("reminder.txt").Parse(`Hi {{.Name}},

This is a reminder that you have a {{.ServiceType}} scheduled for {{.When}}.
{{if .Address}}
Address: {{.Address}}
{{end}}
Booking reference: {{.BookingID}}
`))

// RenderReminder builds the subject and both bodies of a cleaner reminder.
func RenderReminder(msg notification.Message) (Rendered, error) {
	view := reminderView{
		Name:        fallback(msg.CleanerName, "there"),
		ServiceType: fallback(strings.ToLower(msg.ServiceType), "cleaning"),
		Address:     strings.TrimSpace(msg.Address),
		When:        msg.OccurrenceAt.Format(occurrenceLayout),
		BookingID:   msg.BookingID,
	}

	var html, text bytes.Buffer
	if err := reminderHTML.Execute(&html, view); err != nil {
		return Rendered{}, fmt.Errorf("render html reminder: %w", err)
	}
	if err := reminderText.Execute(&text, view); err != nil {
		return Rendered{}, fmt.Errorf("render text reminder: %w", err)
	}

	return Rendered{
		Subject: fmt.Sprintf("Reminder: %s on %s", view.ServiceType, msg.OccurrenceAt.Format("Jan 2 at 3:04 PM")),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func fallback(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
