package powerschool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/lib/xmltree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://www.w3.org/2003/05/soap-envelope">
  <soapenv:Body>
    <ns:loginResponse xmlns:ns="http://publicportal.rest.powerschool.pearson.com/xsd">
      <return>
        <userSessionVO>
          <serviceTicket>%s</serviceTicket>
          <userId>%s</userId>
        </userSessionVO>
        %s
      </return>
    </ns:loginResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://www.w3.org/2003/05/soap-envelope">
  <soapenv:Body>
    <soapenv:Fault>
      <soapenv:Code><soapenv:Value>soapenv:Receiver</soapenv:Value></soapenv:Code>
      <soapenv:Reason><soapenv:Text xml:lang="en-US">Invalid service ticket</soapenv:Text></soapenv:Reason>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

type recordedCall struct {
	action    string
	operation *xmltree.Node
}

type fakePortal struct {
	t        *testing.T
	calls    []recordedCall
	respond  func(action string, op *xmltree.Node) (int, string)
	username string
	password string
}

func (f *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "/"+ServicePath, r.URL.Path)
	assert.Equal(f.t, http.MethodPost, r.Method)

	username, password, ok := r.BasicAuth()
	assert.True(f.t, ok)
	f.username, f.password = username, password

	contentType := r.Header.Get("Content-Type")
	assert.True(f.t, strings.HasPrefix(contentType, "application/soap+xml; charset=utf-8;action='"+ActionNamespace+"#"))
	action := strings.TrimSuffix(contentType[strings.Index(contentType, "#")+1:], "'")

	body, err := io.ReadAll(r.Body)
	assert.NoError(f.t, err)
	doc, err := xmltree.ParseDocument(body)
	if !assert.NoError(f.t, err) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	assert.Equal(f.t, "env:Envelope", doc.Root().Name)

	ops := doc.Root().Child("env:Body").Children()
	if !assert.Len(f.t, ops, 1) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.calls = append(f.calls, recordedCall{action: action, operation: ops[0]})

	status, response := f.respond(action, ops[0])
	w.WriteHeader(status)
	fmt.Fprint(w, response)
}

var testNow = time.Date(2024, time.March, 4, 17, 30, 15, 123_000_000, time.UTC)

func newTestClient(t *testing.T, portal *fakePortal) (*Client, *telemetry.RecordingAPI) {
	server := httptest.NewServer(portal)
	t.Cleanup(server.Close)

	rec := telemetry.NewRecordingAPI()
	client, err := NewClient(server.URL, Options{RequestsPerSecond: 100}, rec, chrono.FixedTime{Time: testNow})
	require.NoError(t, err)
	return client, rec
}

func TestLoginAndStudentData(t *testing.T) {
	portal := &fakePortal{t: t}
	portal.respond = func(action string, op *xmltree.Node) (int, string) {
		switch action {
		case "login":
			return http.StatusOK, fmt.Sprintf(loginResponse, "TICKET&amp;1", "6356", "")
		case "getStudentData":
			return http.StatusOK, `<soapenv:Envelope><soapenv:Body><ns:getStudentDataResponse /></soapenv:Body></soapenv:Envelope>`
		}
		t.Errorf("unexpected action %s", action)
		return http.StatusBadRequest, ""
	}
	client, _ := newTestClient(t, portal)
	ctx := context.Background()

	session, err := client.Login(ctx, "jamie<3", "p&ss")
	require.NoError(t, err)
	require.Equal(t, Session{ServiceTicket: "TICKET&1", UserID: "6356"}, session)
	require.Equal(t, DefaultServiceUsername, portal.username)
	require.Equal(t, DefaultServicePassword, portal.password)

	login := portal.calls[0].operation
	require.Equal(t, "ns1:login", login.Name)
	require.Equal(t, "jamie<3", login.Child("param0").StringValue())
	require.Equal(t, "p&ss", login.Child("param1").StringValue())
	require.Equal(t, "2", login.Child("param2").StringValue())

	body, err := client.GetStudentData(ctx, session)
	require.NoError(t, err)
	require.Contains(t, string(body), "getStudentDataResponse")

	data := portal.calls[1].operation
	require.Equal(t, "ns1:getStudentData", data.Name)
	param0 := data.Child("param0")
	require.Equal(t, "6356", param0.Child("userId").StringValue())
	require.Equal(t, "TICKET&1", param0.Child("serviceTicket").StringValue())
	require.Equal(t, APIVersion, param0.Path("serverInfo", "apiVersion").StringValue())
	require.Equal(t, "2024-03-04T17:30:15.123Z", param0.Child("serverCurrentTime").StringValue())
	require.Equal(t, "2", param0.Child("userType").StringValue())
	require.Equal(t, "6356", data.Child("param1").StringValue())
	require.Equal(t, 1, data.Path("param2", "includes").IntValue())
}

func TestLoginFailures(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		response string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "no ticket",
			status:   http.StatusOK,
			response: fmt.Sprintf(loginResponse, "", "", "<messageVOs><description>Invalid Username or Password</description></messageVOs>"),
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrLoginFailed)
				require.Contains(t, err.Error(), "Invalid Username or Password")
			},
		},
		{
			name:     "fault",
			status:   http.StatusInternalServerError,
			response: faultResponse,
			check: func(t *testing.T, err error) {
				var fault *FaultError
				require.True(t, errors.As(err, &fault))
				require.Equal(t, "soapenv:Receiver", fault.Code)
				require.Equal(t, "Invalid service ticket", fault.Reason)
			},
		},
		{
			name:     "bad status",
			status:   http.StatusServiceUnavailable,
			response: "<html>down for maintenance</html>",
			check: func(t *testing.T, err error) {
				var status *StatusError
				require.True(t, errors.As(err, &status))
				require.Equal(t, http.StatusServiceUnavailable, status.StatusCode)
			},
		},
		{
			name:     "malformed",
			status:   http.StatusOK,
			response: "<soapenv:Envelope>",
			check: func(t *testing.T, err error) {
				var parseErr *xmltree.ParseError
				require.True(t, errors.As(err, &parseErr))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			portal := &fakePortal{t: t}
			portal.respond = func(string, *xmltree.Node) (int, string) {
				return tc.status, tc.response
			}
			client, rec := newTestClient(t, portal)

			_, err := client.Login(context.Background(), "user", "pass")
			require.Error(t, err)
			tc.check(t, err)

			if tc.name != "no ticket" {
				require.True(t, rec.Has(telemetry.LevelBroken, report_client_login))
			}
		})
	}
}

func TestNormalizeServerUrl(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "https://powerschool.example.com", expected: "https://powerschool.example.com/"},
		{input: "https://powerschool.example.com/", expected: "https://powerschool.example.com/"},
		{input: "HTTPS://PowerSchool.Example.com/district", expected: "https://powerschool.example.com/district/"},
		{input: "https://powerschool.example.com/a/../b#top", expected: "https://powerschool.example.com/b/"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			normalized, err := NormalizeServerUrl(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, normalized)
		})
	}

	_, err := NormalizeServerUrl("powerschool.example.com")
	require.Error(t, err)
}
