package notifications

import (
	"fmt"
	"html"
)

func PaymentConfirmedEmail(studentName, receiptNumber, coverage string, amount float64) (string, string) {
	subject := "Transport fee payment confirmed"
	body := fmt.Sprintf(
		"<h1>Payment Confirmed</h1><p>Hi %s,</p><p>Your payment of <b>&#8377;%.2f</b> for <b>%s</b> has been confirmed.</p><p>Receipt number: %s</p>",
		html.EscapeString(studentName), amount, html.EscapeString(coverage), html.EscapeString(receiptNumber),
	)
	return subject, body
}

func GrievanceUpdatedEmail(studentName, subject, status, resolution string) (string, string) {
	body := fmt.Sprintf(
		"<h1>Grievance Update</h1><p>Hi %s,</p><p>Your grievance <b>%s</b> is now <b>%s</b>.</p>",
		html.EscapeString(studentName), html.EscapeString(subject), html.EscapeString(status),
	)
	if resolution != "" {
		body += fmt.Sprintf("<p>Resolution: %s</p>", html.EscapeString(resolution))
	}
	return "Update on your transport grievance", body
}

func FeeReminderEmail(studentName, termLabel string, outstanding float64) (string, string) {
	subject := "Transport fee reminder"
	body := fmt.Sprintf(
		"<h1>Fee Reminder</h1><p>Hi %s,</p><p>%s has started and your outstanding transport fee is <b>&#8377;%.2f</b>.</p><p>Please pay from the passenger portal to keep your bus pass active.</p>",
		html.EscapeString(studentName), html.EscapeString(termLabel), outstanding,
	)
	return subject, body
}
