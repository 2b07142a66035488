package powerschool

import (
	"powerapi-backend/lib/xmltree"
)

const (
	soapEnvelopeNamespace = "http://www.w3.org/2003/05/soap-envelope"

	// APIVersion is the portal api version the requests are written against.
	APIVersion = "2.2.2"
	// ServerTimeLayout is the layout of serverCurrentTime, ex. 2012-12-26T21:47:23.792Z
	ServerTimeLayout = "2006-01-02T15:04:05.000Z"

	// userType 2 is a student (1 would be a parent).
	userTypeStudent = "2"
)

// newEnvelope creates an envelope document and returns it along with the
// element of the called operation inside its body.
func newEnvelope(operation string) (*xmltree.Document, *xmltree.Node) {
	doc := xmltree.NewDocument(xmltree.WithEncoding("UTF-8"))
	envelope := doc.AddChild("env:Envelope", xmltree.WithAttributes(map[string]string{
		"xmlns:env": soapEnvelopeNamespace,
		"xmlns:ns1": ActionNamespace,
	}))
	op := envelope.AddChild("env:Body").AddChild("ns1:" + operation)
	return doc, op
}

func loginEnvelope(username, password string) *xmltree.Document {
	doc, op := newEnvelope("login")
	op.AddChild("param0", xmltree.WithValue(username))
	op.AddChild("param1", xmltree.WithValue(password))
	op.AddChild("param2", xmltree.WithValue(userTypeStudent))
	return doc
}

func studentDataEnvelope(session Session, serverTime string) *xmltree.Document {
	doc, op := newEnvelope("getStudentData")

	userSession := op.AddChild("param0")
	userSession.AddChild("userId", xmltree.WithValue(session.UserID))
	userSession.AddChild("serviceTicket", xmltree.WithValue(session.ServiceTicket))
	userSession.AddChild("serverInfo").AddChild("apiVersion", xmltree.WithValue(APIVersion))
	userSession.AddChild("serverCurrentTime", xmltree.WithValue(serverTime))
	userSession.AddChild("userType", xmltree.WithValue(userTypeStudent))

	op.AddChild("param1", xmltree.WithValue(session.UserID))
	op.AddChild("param2").AddChild("includes", xmltree.WithValue("1"))
	return doc
}
