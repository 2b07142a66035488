package powerschool

import (
	"errors"
	"fmt"
	"strings"

	"powerapi-backend/lib/xmltree"
)

// ErrLoginFailed is returned when the portal answers a login without a
// service ticket, usually because of wrong credentials.
var ErrLoginFailed = errors.New("login failed")

// StatusError is returned for non-2xx responses that are not SOAP faults.
type StatusError struct {
	Action     string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s", e.Action, e.Status)
}

// FaultError is a SOAP fault returned by the portal.
type FaultError struct {
	Code   string
	Reason string
}

func (e *FaultError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("soap fault: %s", e.Reason)
	}
	return fmt.Sprintf("soap fault (%s): %s", e.Code, e.Reason)
}

// firstLocal returns the first direct child whose name without prefix is one
// of names. SOAP 1.1 and 1.2 name the same fault parts differently.
func firstLocal(n *xmltree.Node, names ...string) *xmltree.Node {
	for _, child := range n.Children() {
		local := child.Name
		if idx := strings.IndexByte(local, ':'); idx >= 0 {
			local = local[idx+1:]
		}
		for _, name := range names {
			if local == name {
				return child
			}
		}
	}
	return nil
}

// parseFault reports whether body is a SOAP fault envelope.
func parseFault(body []byte) (*FaultError, bool) {
	doc, err := xmltree.ParseDocument(body)
	if err != nil {
		return nil, false
	}
	root := doc.Root()
	soapBody := firstLocal(root, "Body")
	if soapBody == nil {
		return nil, false
	}
	fault := firstLocal(soapBody, "Fault")
	if fault == nil {
		return nil, false
	}

	out := &FaultError{}
	code := firstLocal(fault, "Code", "faultcode")
	if code != nil {
		out.Code = code.StringValue()
		if value := firstLocal(code, "Value"); value != nil {
			out.Code = value.StringValue()
		}
	}
	reason := firstLocal(fault, "Reason", "faultstring")
	if reason != nil {
		out.Reason = reason.StringValue()
		if text := firstLocal(reason, "Text"); text != nil {
			out.Reason = text.StringValue()
		}
	}
	return out, true
}
