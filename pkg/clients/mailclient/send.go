package mailclient

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/siamclean/dispatch/pkg/core/model"
)

const emailInterval = 3 * time.Second

// SendCancellationAudit emails the operations inbox a record of a staff
// cancellation. Throttles requests to respect Gmail API rate limits.
func (c *Client) SendCancellationAudit(ev model.CancellationEvent, offer model.JobOffer) error {
	subject := fmt.Sprintf("Staff cancellation: job %s (%s)", ev.JobOfferID, ev.ReasonCode)
	body := auditBody(ev, offer)
	return c.send(c.opsInbox, subject, body)
}

func auditBody(ev model.CancellationEvent, offer model.JobOffer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Staff member %s cancelled job offer %s.\n\n", ev.StaffID, ev.JobOfferID)
	fmt.Fprintf(&b, "Reason: %s\n", ev.ReasonCode)
	if ev.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", ev.Notes)
	}
	fmt.Fprintf(&b, "Cancelled at: %s\n\n", ev.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Booking: %s\n", offer.ParentBookingID)
	fmt.Fprintf(&b, "Scheduled: %s\n", offer.ScheduledAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %d minutes\n", offer.DurationMinutes)
	fmt.Fprintf(&b, "Earnings: %.2f THB\n", offer.Earnings)
	if offer.LocationInfo != "" {
		fmt.Fprintf(&b, "Location: %s\n", offer.LocationInfo)
	}
	if offer.IsGroupBooking {
		fmt.Fprintf(&b, "Group booking of %d positions\n", offer.TotalGroupSize)
	}
	return b.String()
}

// send delivers an email with the specified subject and body.
func (c *Client) send(to, subject, body string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if !c.lastSendTime.IsZero() {
		elapsed := time.Since(c.lastSendTime)
		if elapsed < emailInterval {
			time.Sleep(emailInterval - elapsed)
		}
	}

	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", c.sender, to, subject, body)
	encodedMessage := base64.URLEncoding.EncodeToString([]byte(message))

	gmailMessage := &gmail.Message{
		Raw: encodedMessage,
	}

	_, err := c.service.Users.Messages.Send("me", gmailMessage).Do()
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.lastSendTime = time.Now()

	return nil
}
