// Package powerschool talks to the PowerSchool public portal SOAP service.
package powerschool

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"powerapi-backend/internal/components/assert"
	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/lib/restyutil"
	"powerapi-backend/lib/xmltree"

	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_login            = "client.login"
	report_client_get_student_data = "client.get-student-data"
	report_client_call             = "client.call"
)

const (
	// ServicePath is the portal service endpoint relative to the server url.
	ServicePath = "pearson-rest/services/PublicPortalServiceJSON"
	// ActionNamespace prefixes the SOAP action of every call.
	ActionNamespace = "http://publicportal.rest.powerschool.pearson.com/xsd"

	// the portal's mobile service account, it is the same for every server.
	DefaultServiceUsername = "pearson"
	DefaultServicePassword = "m0bApP5"
)

// Options configures a Client, zero values fall back to defaults.
type Options struct {
	// ServiceUsername and ServicePassword are the HTTP basic credentials of
	// the portal service itself, not of a student.
	ServiceUsername string
	ServicePassword string
	// RequestsPerSecond limits how fast requests are sent.
	RequestsPerSecond float64
	// Timeout is the timeout of a single request.
	Timeout time.Duration
	// Instrument, if set, receives a dump of every exchange.
	Instrument restyutil.InstrumentOutput
}

// Client calls the portal for one server. Sessions are not stored on the
// client, so a single Client can be shared between students.
type Client struct {
	http    *resty.Client
	tel     telemetry.API
	time    chrono.TimeAPI
	baseUrl string
}

// NormalizeServerUrl cleans up a user entered server url and makes sure it
// ends in a slash so the service path resolves below it.
func NormalizeServerUrl(serverUrl string) (string, error) {
	parsed, err := url.Parse(serverUrl)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("server url %q must be absolute", serverUrl)
	}
	return purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagRemoveDotSegments|
			purell.FlagRemoveDuplicateSlashes|
			purell.FlagRemoveFragment|
			purell.FlagAddTrailingSlash,
	), nil
}

func NewClient(serverUrl string, options Options, tel telemetry.API, clock chrono.TimeAPI) (*Client, error) {
	assert.NotNil(tel)
	assert.NotNil(clock)
	tel = telemetry.NewScopedAPI("powerschool", tel)

	baseUrl, err := NormalizeServerUrl(serverUrl)
	if err != nil {
		return nil, err
	}

	if options.ServiceUsername == "" {
		options.ServiceUsername = DefaultServiceUsername
		options.ServicePassword = DefaultServicePassword
	}
	if options.RequestsPerSecond <= 0 {
		options.RequestsPerSecond = 2
	}
	if options.Timeout <= 0 {
		options.Timeout = time.Minute
	}

	httpClient := resty.New()
	httpClient.SetTimeout(options.Timeout)
	httpClient.SetBaseURL(baseUrl)
	httpClient.SetBasicAuth(options.ServiceUsername, options.ServicePassword)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)

	// max burst >= requests per second just means that no requests will be dropped
	burst := max(int(options.RequestsPerSecond), 1)
	rateLimiter := rate.NewLimiter(rate.Limit(options.RequestsPerSecond), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, nil, options.Instrument)

	return &Client{
		http:    httpClient,
		tel:     tel,
		time:    clock,
		baseUrl: baseUrl,
	}, nil
}

// BaseUrl is the normalized server url.
func (c *Client) BaseUrl() string {
	return c.baseUrl
}

// call posts a request envelope and returns the raw response body.
func (c *Client) call(ctx context.Context, action string, envelope *xmltree.Document) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", fmt.Sprintf(
			"application/soap+xml; charset=utf-8;action='%s#%s'",
			ActionNamespace,
			action,
		)).
		SetBody(envelope.Bytes()).
		Post(ServicePath)
	if err != nil {
		c.tel.ReportBroken(report_client_call, fmt.Errorf("post: %w", err), action)
		return nil, err
	}

	body := res.Body()
	fault, isFault := parseFault(body)
	if isFault {
		return nil, fault
	}
	if res.IsError() {
		return nil, &StatusError{Action: action, StatusCode: res.StatusCode(), Status: res.Status()}
	}
	return body, nil
}
