// Package powerapi ties the portal client and the packager together into the
// login -> fetch -> parse -> map pipeline.
package powerapi

import (
	"context"
	"fmt"

	"powerapi-backend/internal/components/assert"
	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/internal/packager"
	"powerapi-backend/internal/scrapers/powerschool"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("powerapi-backend/internal/powerapi")

const (
	report_authenticate     = "authenticate"
	report_fetch_transcript = "fetch-transcript"
)

// Portal is the part of the portal client the pipeline needs.
type Portal interface {
	Login(ctx context.Context, username, password string) (powerschool.Session, error)
	GetStudentData(ctx context.Context, session powerschool.Session) ([]byte, error)
}

type API struct {
	portal   Portal
	packager packager.Packager
	tel      telemetry.API
	time     chrono.TimeAPI
}

func NewAPI(portal Portal, tel telemetry.API, clock chrono.TimeAPI) API {
	assert.NotNil(portal)
	assert.NotNil(tel)
	assert.NotNil(clock)
	return API{
		portal:   portal,
		packager: packager.NewPackager(tel, clock),
		tel:      telemetry.NewScopedAPI("powerapi", tel),
		time:     clock,
	}
}

// Authenticate logs a student in and returns a fresh session for them.
func (a API) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()
	span.SetAttributes(attribute.String("username", creds.Username))

	portalSession, err := a.portal.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login")
		a.tel.ReportWarning(report_authenticate, err, creds.Username)
		return nil, err
	}
	return newSession(creds.Username, portalSession), nil
}

// FetchTranscript downloads the student data of a session and maps it. On
// success the transcript is also stored on the session.
func (a API) FetchTranscript(ctx context.Context, session *Session) (packager.Transcript, error) {
	ctx, span := tracer.Start(ctx, "FetchTranscript")
	defer span.End()
	span.SetAttributes(attribute.String("username", session.Username()))

	body, err := a.portal.GetStudentData(ctx, session.Portal())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get student data")
		return packager.Transcript{}, err
	}

	transcript, err := a.packager.Transcript(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to map student data")
		a.tel.ReportBroken(report_fetch_transcript, err, session.Username())
		return packager.Transcript{}, err
	}
	span.SetAttributes(attribute.Int("sections", len(transcript.Sections)))

	session.setTranscript(transcript, a.time.Now())
	return transcript, nil
}

// Sync authenticates and fetches the transcript in one go.
func (a API) Sync(ctx context.Context, creds Credentials) (*Session, error) {
	session, err := a.Authenticate(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	_, err = a.FetchTranscript(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	return session, nil
}

// Result is the outcome of a sync started with Start. Exactly one of Session
// and Err is set.
type Result struct {
	Session *Session
	Err     error
}

// Transcript is a shorthand for the transcript of a successful result.
func (r Result) Transcript() packager.Transcript {
	if r.Session == nil {
		return packager.Transcript{}
	}
	transcript, _, _ := r.Session.Transcript()
	return transcript
}

// Start runs Sync in the background. The returned channel receives exactly
// one Result and is then closed.
func (a API) Start(ctx context.Context, creds Credentials) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		session, err := a.Sync(ctx, creds)
		if err != nil {
			out <- Result{Err: err}
			return
		}
		out <- Result{Session: session}
	}()
	return out
}
