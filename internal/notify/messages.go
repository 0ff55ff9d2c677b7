package notify

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// ServiceRequestStatusMessage renders the status-change notification for a
// service request ticket.
func ServiceRequestStatusMessage(ticketNumber, status string) string {
	return fmt.Sprintf("Your service request %s has been updated. Status: %s", ticketNumber, status)
}

// InstallationScheduledMessage renders the installation schedule notification.
func InstallationScheduledMessage(workOrderNumber string, scheduled time.Time) string {
	return fmt.Sprintf("Your installation %s has been scheduled for %s", workOrderNumber, scheduled.Format("2 Jan 2006"))
}

// ContractReminderMessage renders the contract expiry reminder.
func ContractReminderMessage(contractNumber string, daysRemaining int) string {
	return fmt.Sprintf("Reminder: Your contract %s will expire in %d days", contractNumber, daysRemaining)
}

// QuoteIssuedMessage renders the quote notification with a grouped amount.
func QuoteIssuedMessage(quoteNumber string, amount float64) string {
	return amountPrinter.Sprintf("Your quote %s for ₹%.2f has been generated. Please review and approve.", quoteNumber, amount)
}
