// Package store keeps the last fetched transcript of every student and a
// daily history of their final grades.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"powerapi-backend/internal/components/assert"
	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/internal/db"
	"powerapi-backend/internal/packager"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("powerapi-backend/internal/store")

var ErrNotFound = errors.New("transcript not found")

const report_push_final_grade = "push.final-grade"

type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	tel    telemetry.API
}

func NewStore(database *sql.DB, tel telemetry.API) Store {
	assert.NotNil(tel)
	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		tel:    telemetry.NewScopedAPI("store", tel),
	}
}

type PushRequest struct {
	Username   string
	Time       time.Time
	Transcript packager.Transcript
}

// Push saves a transcript as the latest one of a student and records the
// final grades in it. Grades pushed earlier on the same day are replaced.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()
	span.SetAttributes(attribute.String("username", req.Username))

	data, err := json.Marshal(req.Transcript)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize transcript")
		return err
	}

	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to begin transaction")
		return err
	}
	defer discard()

	err = txqry.UpsertTranscript(ctx, db.UpsertTranscriptParams{
		Username:  req.Username,
		FetchedAt: req.Time.Unix(),
		Data:      string(data),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save transcript")
		return err
	}

	startOfToday, startOfTomorrow := chrono.DayBounds(req.Time)
	err = txqry.DeleteGradeSnapshotsIn(ctx, db.DeleteGradeSnapshotsInParams{
		After:    startOfToday.Unix(),
		Before:   startOfTomorrow.Unix(),
		Username: req.Username,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete today's snapshots")
		return err
	}

	for _, section := range req.Transcript.Sections {
		err := txqry.CreateUserSection(ctx, db.CreateUserSectionParams{
			Username:    req.Username,
			SectionID:   section.ID(),
			SectionName: section.Name(),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create user section")
			return err
		}

		userSectionId, err := txqry.GetUserSectionId(ctx, db.GetUserSectionIdParams{
			Username:  req.Username,
			SectionID: section.ID(),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to get user section id")
			return err
		}

		for term, percent := range section.FinalGrades() {
			value, err := strconv.ParseFloat(percent, 64)
			if err != nil {
				s.tel.ReportWarning(report_push_final_grade, section.ID(), term, percent)
				continue
			}
			err = txqry.CreateGradeSnapshot(ctx, db.CreateGradeSnapshotParams{
				UserSectionID: userSectionId,
				Term:          term,
				Time:          req.Time.Unix(),
				Value:         value,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to create grade snapshot")
				return err
			}
		}
	}

	return commit()
}

// Latest returns the last transcript pushed for a student and when it was
// fetched. ErrNotFound is returned if nothing was ever pushed.
func (s Store) Latest(ctx context.Context, username string) (packager.Transcript, time.Time, error) {
	ctx, span := tracer.Start(ctx, "Latest")
	defer span.End()

	row, err := s.qry.GetTranscript(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return packager.Transcript{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read transcript")
		return packager.Transcript{}, time.Time{}, err
	}

	var transcript packager.Transcript
	err = json.Unmarshal([]byte(row.Data), &transcript)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize transcript")
		return packager.Transcript{}, time.Time{}, err
	}
	return transcript, time.Unix(row.FetchedAt, 0).In(chrono.LA()), nil
}

type GradeSnapshot struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// SectionSeries is the grade history of a section in one reporting term.
type SectionSeries struct {
	SectionID   string          `json:"section_id"`
	SectionName string          `json:"section_name"`
	Term        string          `json:"term"`
	Snapshots   []GradeSnapshot `json:"snapshots"`
}

// Pull returns the grade history of a student, ordered by section id, term
// and time.
func (s Store) Pull(ctx context.Context, username string) ([]SectionSeries, error) {
	ctx, span := tracer.Start(ctx, "Pull")
	defer span.End()

	rows, err := s.qry.GetGradeSnapshots(ctx, username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read grade snapshots")
		return nil, err
	}

	var series []SectionSeries
	for _, r := range rows {
		last := len(series) - 1
		if last < 0 || series[last].SectionID != r.SectionID || series[last].Term != r.Term {
			series = append(series, SectionSeries{
				SectionID:   r.SectionID,
				SectionName: r.SectionName,
				Term:        r.Term,
			})
			last++
		}
		series[last].Snapshots = append(series[last].Snapshots, GradeSnapshot{
			Time:  time.Unix(r.Time, 0).In(chrono.LA()),
			Value: r.Value,
		})
	}
	return series, nil
}
