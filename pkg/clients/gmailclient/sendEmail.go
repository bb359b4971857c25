package gmailclient

import (
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/api/gmail/v1"
)

// emailInterval throttles sends to respect Gmail API rate limits
const emailInterval = 3 * time.Second

// SendEmail sends an email with the specified subject and body as the
// authenticated account
func (c *Client) SendEmail(to, subject, body string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if !c.lastSendTime.IsZero() {
		if elapsed := time.Since(c.lastSendTime); elapsed < emailInterval {
			time.Sleep(emailInterval - elapsed)
		}
	}

	message := fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s", to, subject, body)
	encodedMessage := base64.URLEncoding.EncodeToString([]byte(message))

	gmailMessage := &gmail.Message{
		Raw: encodedMessage,
	}

	if _, err := c.service.Users.Messages.Send("me", gmailMessage).Do(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.lastSendTime = time.Now()

	return nil
}
