package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"GroupChatAI/logger"
)

// Sender delivers invitation mail over SMTP. With no host configured it
// becomes a no-op and only logs, so development setups work without a
// mail server.
type Sender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{Host: host, Port: port, Username: username, Password: password, From: from}
}

func (s *Sender) Enabled() bool { return s.Host != "" }

// SendGroupInvitation mails the invite code. userExists switches the copy:
// existing accounts are pointed at their notifications, new ones at signup.
func (s *Sender) SendGroupInvitation(to, groupName, invitedByName, code string, userExists bool) error {
	if !s.Enabled() {
		logger.Infof("[mail] smtp disabled, skipping invitation to %s (code=%s)", to, code)
		return nil
	}

	subject := fmt.Sprintf("Invitation to join %q on GroupChatAI", groupName)
	var body strings.Builder
	fmt.Fprintf(&body, "%s has invited you to join the group %q on GroupChatAI.\r\n\r\n", invitedByName, groupName)
	if userExists {
		body.WriteString("Log in and check your notifications, or use the invitation code below.\r\n")
	} else {
		body.WriteString("Create an account and use the invitation code below to join.\r\n")
	}
	fmt.Fprintf(&body, "\r\nInvitation code: %s\r\n", code)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		s.From, to, subject, body.String())

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	return smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg))
}
