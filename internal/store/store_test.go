package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/internal/packager"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	st, _ := newRecordedStore(t)
	return st
}

func newRecordedStore(t *testing.T) (Store, *telemetry.RecordingAPI) {
	database, err := OpenDB(DatabaseConfig{File: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	rec := telemetry.NewRecordingAPI()
	return NewStore(database, rec), rec
}

func mustTranscript(t *testing.T, physics, calculus string) packager.Transcript {
	data := `{
		"information": {"firstName": "Jamie", "id": "6356"},
		"sections": [
			{
				"id": "100", "name": "Physics", "room_name": "B204", "expression": "2(A)",
				"assignments": [{"category": "Formative", "name": "Lab 1", "score": "24", "percent": "96"}],
				"final_grades": {"S1": "` + physics + `"},
				"teacher": {"first_name": "Ada", "last_name": "Lovelace"}
			},
			{
				"id": "200", "name": "Calculus", "expression": "10(A)",
				"assignments": [],
				"final_grades": {"S1": "` + calculus + `", "S2": "--"},
				"teacher": {"first_name": "Alan", "last_name": "Turing"}
			}
		]
	}`
	var transcript packager.Transcript
	err := json.Unmarshal([]byte(data), &transcript)
	require.NoError(t, err)
	return transcript
}

func TestLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.Latest(ctx, "jamie")
	require.ErrorIs(t, err, ErrNotFound)

	now := time.Date(2024, time.March, 4, 9, 30, 0, 0, chrono.LA())
	transcript := mustTranscript(t, "95", "80")
	err = store.Push(ctx, PushRequest{Username: "jamie", Time: now, Transcript: transcript})
	require.NoError(t, err)

	latest, fetchedAt, err := store.Latest(ctx, "jamie")
	require.NoError(t, err)
	require.True(t, fetchedAt.Equal(now))
	require.Equal(t, "Jamie", latest.Information["firstName"])
	require.Len(t, latest.Sections, 2)

	physics, ok := latest.FindSection("100")
	require.True(t, ok)
	require.Equal(t, "B204", physics.RoomName())
	require.Equal(t, "Ada", physics.Teacher().FirstName)
	score, ok := physics.Assignments()[0].Score()
	require.True(t, ok)
	require.Equal(t, "24", score)
}

func TestPushAndPull(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	series, err := store.Pull(ctx, "jamie")
	require.NoError(t, err)
	require.Empty(t, series)

	morning := time.Date(2024, time.March, 4, 8, 0, 0, 0, chrono.LA())
	evening := time.Date(2024, time.March, 4, 20, 0, 0, 0, chrono.LA())
	nextDay := time.Date(2024, time.March, 5, 8, 0, 0, 0, chrono.LA())

	pushes := []struct {
		time     time.Time
		physics  string
		calculus string
	}{
		{time: morning, physics: "90", calculus: "70"},
		// replaces the morning snapshot
		{time: evening, physics: "91", calculus: "71"},
		{time: nextDay, physics: "93", calculus: "75"},
	}
	for _, p := range pushes {
		err := store.Push(ctx, PushRequest{
			Username:   "jamie",
			Time:       p.time,
			Transcript: mustTranscript(t, p.physics, p.calculus),
		})
		require.NoError(t, err)
	}
	err = store.Push(ctx, PushRequest{
		Username:   "alex",
		Time:       evening,
		Transcript: mustTranscript(t, "50", "50"),
	})
	require.NoError(t, err)

	series, err = store.Pull(ctx, "jamie")
	require.NoError(t, err)

	expected := []SectionSeries{
		{
			SectionID:   "100",
			SectionName: "Physics",
			Term:        "S1",
			Snapshots: []GradeSnapshot{
				{Time: evening, Value: 91},
				{Time: nextDay, Value: 93},
			},
		},
		{
			SectionID:   "200",
			SectionName: "Calculus",
			Term:        "S1",
			Snapshots: []GradeSnapshot{
				{Time: evening, Value: 71},
				{Time: nextDay, Value: 75},
			},
		},
	}
	diff := cmp.Diff(expected, series)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestPushSkipsNonNumericGrades(t *testing.T) {
	st, rec := newRecordedStore(t)
	ctx := context.Background()

	err := st.Push(ctx, PushRequest{
		Username:   "jamie",
		Time:       time.Now(),
		Transcript: mustTranscript(t, "95", "80"),
	})
	require.NoError(t, err)
	require.True(t, rec.Has(telemetry.LevelWarning, report_push_final_grade))
	require.Len(t, rec.Reports(telemetry.LevelWarning), 1)
}

func TestOpenDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	database, err := OpenDB(DatabaseConfig{File: path})
	require.NoError(t, err)
	defer database.Close()

	store := NewStore(database, telemetry.NewRecordingAPI())
	err = store.Push(context.Background(), PushRequest{
		Username:   "jamie",
		Time:       time.Now(),
		Transcript: mustTranscript(t, "90", "90"),
	})
	require.NoError(t, err)

	_, err = OpenDB(DatabaseConfig{})
	require.Error(t, err)
	_, err = OpenDB(DatabaseConfig{Url: "postgres://localhost"})
	require.Error(t, err)
}
