package powerschool

import (
	"context"
	"fmt"

	"powerapi-backend/lib/xmltree"
)

// Session is what a successful login returns, every other call needs it.
type Session struct {
	ServiceTicket string `json:"service_ticket"`
	UserID        string `json:"user_id"`
}

// Login exchanges a student's credentials for a Session.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	c.tel.ReportDebug(report_client_login, username)

	body, err := c.call(ctx, "login", loginEnvelope(username, password))
	if err != nil {
		c.tel.ReportBroken(report_client_login, err, username)
		return Session{}, fmt.Errorf("login: %w", err)
	}

	doc, err := xmltree.ParseDocument(body)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("parse: %w", err), username)
		return Session{}, fmt.Errorf("login: %w", err)
	}

	result := doc.Root().Path("soapenv:Body", "ns:loginResponse", "return")
	userSession := result.Child("userSessionVO")
	session := Session{
		ServiceTicket: userSession.Child("serviceTicket").StringValue(),
		UserID:        userSession.Child("userId").StringValue(),
	}
	if session.ServiceTicket == "" {
		messages := result.Child("messageVOs")
		message := messages.Child("description").StringValue()
		if message == "" {
			message = messages.Child("title").StringValue()
		}
		if message == "" {
			return Session{}, ErrLoginFailed
		}
		return Session{}, fmt.Errorf("%w: %s", ErrLoginFailed, message)
	}

	return session, nil
}

// GetStudentData fetches the full student data response of a session. The
// body is returned as is for packager.Packager.Transcript.
func (c *Client) GetStudentData(ctx context.Context, session Session) ([]byte, error) {
	c.tel.ReportDebug(report_client_get_student_data, session.UserID)

	serverTime := c.time.Now().UTC().Format(ServerTimeLayout)
	body, err := c.call(ctx, "getStudentData", studentDataEnvelope(session, serverTime))
	if err != nil {
		c.tel.ReportBroken(report_client_get_student_data, err, session.UserID)
		return nil, fmt.Errorf("get student data: %w", err)
	}
	return body, nil
}
