package packager

import (
	_ "embed"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/lib/xmltree"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/student_data.xml
var studentDataXml []byte

var testNow = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func newTestPackager() (Packager, *telemetry.RecordingAPI) {
	rec := telemetry.NewRecordingAPI()
	return NewPackager(rec, chrono.FixedTime{Time: testNow}), rec
}

func mustParseTime(t *testing.T, value string) time.Time {
	parsed, err := time.Parse(StartDateLayout, value)
	require.NoError(t, err)
	return parsed
}

func TestTranscript(t *testing.T) {
	p, rec := newTestPackager()

	transcript, err := p.Transcript(studentDataXml)
	require.NoError(t, err)

	require.Equal(t, "Jamie", transcript.Information["firstName"])
	require.Equal(t, "6356", transcript.Information["id"])
	require.Contains(t, transcript.Information, "middleName")
	require.Equal(t, "", transcript.Information["middleName"])

	expected := []Section{
		{
			id:          "400",
			name:        "Physical Education",
			roomName:    "Gym",
			expression:  "1(A)",
			assignments: []Assignment{},
			finalGrades: map[string]string{},
			teacher: Teacher{
				FirstName: "Alan",
				LastName:  "Turing",
				Email:     "alan@school.example",
			},
		},
		{
			id:         "200",
			name:       "Calculus",
			roomName:   "A101",
			expression: "10(A)",
			assignments: []Assignment{
				{
					category:    "Summative",
					description: "Unit test",
					name:        "Unit 1 Test",
					dueDate:     "2016-09-15T00:00:00.000-0700",
					scored:      true,
					score:       "42/50",
					percent:     "84",
				},
			},
			finalGrades: map[string]string{},
			teacher: Teacher{
				FirstName: "Alan",
				LastName:  "Turing",
				Email:     "alan@school.example",
			},
			startDate:    mustParseTime(t, "2016-01-01T00:00:00.000+0000"),
			hasStartDate: true,
		},
		{
			id:         "100",
			name:       "Physics",
			roomName:   "B204",
			expression: "2(A)",
			assignments: []Assignment{
				{
					category:    "Formative",
					description: "Chapter 1 exercises",
					name:        "Homework 1",
					dueDate:     "2016-09-01T00:00:00.000-0700",
					scored:      true,
					score:       "24/25",
					percent:     "96",
				},
				{
					category:    "Formative",
					description: "Chapter 2 exercises",
					name:        "Homework 2",
					dueDate:     "2016-09-08T00:00:00.000-0700",
				},
			},
			finalGrades: map[string]string{"S1": "95", "S2": "88"},
			teacher: Teacher{
				FirstName:   "Ada",
				LastName:    "Lovelace",
				Email:       "ada@school.example",
				SchoolPhone: "555-0100",
			},
			startDate:    mustParseTime(t, "2016-08-15T08:00:00.000-0500"),
			hasStartDate: true,
		},
	}

	diff := cmp.Diff(
		expected, transcript.Sections,
		cmp.AllowUnexported(Section{}, Assignment{}),
	)
	if diff != "" {
		t.Fatal(diff)
	}

	require.True(t, rec.Has(telemetry.LevelWarning, report_sections_start_date))
	require.True(t, rec.Has(telemetry.LevelWarning, report_sections_reporting_term))
	require.False(t, rec.Has(telemetry.LevelWarning, report_transcript_student_data))
}

func TestTranscriptErrors(t *testing.T) {
	p, _ := newTestPackager()

	_, err := p.Transcript([]byte(`<soapenv:Envelope><soapenv:Body></soapenv:Envelope>`))
	var parseErr *xmltree.ParseError
	require.True(t, errors.As(err, &parseErr))

	doc := xmltree.NewDocument()
	data := doc.AddChild("studentDataVOs")
	data.AddChild("assignments").AddChild("categoryId", xmltree.WithValue("404"))
	_, err = p.TranscriptFromStudentData(data)
	require.ErrorIs(t, err, ErrMissingJoin)

	var joinErr *JoinError
	require.True(t, errors.As(err, &joinErr))
	require.Equal(t, "category", joinErr.Kind)
	require.Equal(t, "404", joinErr.ID)
}

func TestTranscriptMissingStudentData(t *testing.T) {
	p, rec := newTestPackager()

	transcript, err := p.Transcript([]byte(`<soapenv:Envelope><soapenv:Body /></soapenv:Envelope>`))
	require.NoError(t, err)
	require.Empty(t, transcript.Sections)
	require.Equal(t, "", transcript.Information["firstName"])
	require.True(t, rec.Has(telemetry.LevelWarning, report_transcript_student_data))
}

type sectionFixture struct {
	id         string
	expression string
	startDate  string
	teacherId  string
}

func buildSections(fixtures []sectionFixture) *xmltree.Node {
	data := xmltree.NewNode("studentDataVOs")
	for _, f := range fixtures {
		section := data.AddChild("sections")
		section.AddChild("enrollments").AddChild("startDate", xmltree.WithValue(f.startDate))
		section.AddChild("expression", xmltree.WithValue(f.expression))
		section.AddChild("id", xmltree.WithValue(f.id))
		section.AddChild("teacherID", xmltree.WithValue(f.teacherId))
	}
	return data.Child("sections")
}

var testTeachers = Teachers{"t": Record{"id": "t", "firstName": "T"}}

func TestSectionOrdering(t *testing.T) {
	p, _ := newTestPackager()

	sections, err := p.Sections(
		buildSections([]sectionFixture{
			{id: "a", expression: "2", startDate: "2016-01-01T00:00:00.000+0000", teacherId: "t"},
			{id: "b", expression: "10", startDate: "2016-01-01T00:00:00.000+0000", teacherId: "t"},
			{id: "c", expression: "1", startDate: "2016-01-01T00:00:00.000+0000", teacherId: "t"},
			{id: "d", expression: "1", startDate: "2016-01-01T00:00:00.000+0000", teacherId: "t"},
		}),
		AssignmentsBySection{}, FinalGrades{}, ReportingTerms{}, testTeachers,
	)
	require.NoError(t, err)

	var expressions, ids []string
	for _, s := range sections {
		expressions = append(expressions, s.Expression())
		ids = append(ids, s.ID())
	}
	require.Equal(t, []string{"1", "1", "10", "2"}, expressions)
	// equal expressions keep their document order
	require.Equal(t, []string{"c", "d", "b", "a"}, ids)
}

func TestSectionStartDates(t *testing.T) {
	testCases := []struct {
		name      string
		startDate string
		kept      bool
		parsed    bool
	}{
		{name: "past", startDate: "2016-01-01T00:00:00.000+0000", kept: true, parsed: true},
		{name: "future", startDate: "2099-01-01T00:00:00.000+0000", kept: false},
		{name: "exactly now", startDate: "2024-01-01T12:00:00.000+0000", kept: true, parsed: true},
		{name: "unparsable", startDate: "2016-01-01", kept: true, parsed: false},
		{name: "missing", startDate: "", kept: true, parsed: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := newTestPackager()
			sections, err := p.Sections(
				buildSections([]sectionFixture{
					{id: "s", expression: "1", startDate: tc.startDate, teacherId: "t"},
				}),
				AssignmentsBySection{}, FinalGrades{}, ReportingTerms{}, testTeachers,
			)
			require.NoError(t, err)
			if !tc.kept {
				require.Empty(t, sections)
				return
			}
			require.Len(t, sections, 1)
			_, parsed := sections[0].StartDate()
			require.Equal(t, tc.parsed, parsed)
		})
	}
}

func TestSectionJoins(t *testing.T) {
	p, _ := newTestPackager()

	sections, err := p.Sections(
		buildSections([]sectionFixture{
			{id: "s", expression: "1", startDate: "2016-01-01T00:00:00.000+0000", teacherId: "t"},
		}),
		AssignmentsBySection{},
		FinalGrades{"s": []Record{{"reportingTermId": "10", "percent": "95"}}},
		ReportingTerms{"10": "S1"},
		testTeachers,
	)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Equal(t, map[string]string{"S1": "95"}, sections[0].FinalGrades())
	require.Empty(t, sections[0].Assignments())
	require.NotNil(t, sections[0].Assignments())
	require.Equal(t, "T", sections[0].Teacher().FirstName)

	_, err = p.Sections(
		buildSections([]sectionFixture{
			{id: "s", expression: "1", startDate: "2016-01-01T00:00:00.000+0000", teacherId: "nobody"},
		}),
		AssignmentsBySection{}, FinalGrades{}, ReportingTerms{}, testTeachers,
	)
	var joinErr *JoinError
	require.True(t, errors.As(err, &joinErr))
	require.Equal(t, "teacher", joinErr.Kind)
	require.Equal(t, "nobody", joinErr.ID)
}

func TestAssignmentScores(t *testing.T) {
	p, _ := newTestPackager()

	data := xmltree.NewNode("studentDataVOs")
	for _, id := range []string{"1", "2"} {
		a := data.AddChild("assignments")
		a.AddChild("id", xmltree.WithValue(id))
		a.AddChild("categoryId", xmltree.WithValue("c"))
		a.AddChild("name", xmltree.WithValue("assignment "+id))
		a.AddChild("sectionid", xmltree.WithValue("s"))
	}

	grouped, err := p.Assignments(
		data.Child("assignments"),
		Categories{"c": Record{"name": "Homework"}},
		Scores{"1": Record{"score": "9/10", "percent": "90"}},
	)
	require.NoError(t, err)
	require.Len(t, grouped["s"], 2)

	scored := grouped["s"][0]
	score, ok := scored.Score()
	require.True(t, ok)
	require.Equal(t, "9/10", score)
	percent, ok := scored.Percent()
	require.True(t, ok)
	require.Equal(t, "90", percent)
	require.Equal(t, "Homework", scored.Category())

	unscored := grouped["s"][1]
	_, ok = unscored.Score()
	require.False(t, ok)
	_, ok = unscored.Percent()
	require.False(t, ok)
}

func TestRecordsHaveEveryField(t *testing.T) {
	p, _ := newTestPackager()

	data := xmltree.NewNode("studentDataVOs")
	data.AddChild("teachers").AddChild("id", xmltree.WithValue("t"))

	teachers := p.Teachers(data.Child("teachers"))
	require.Len(t, teachers["t"], len(teacherFields))
	for _, field := range teacherFields {
		require.Contains(t, teachers["t"], field)
	}

	require.Empty(t, p.Teachers(data.Child("missing")))
	require.Empty(t, p.ReportingTerms(data.Child("missing")))
}

func TestTranscriptJSON(t *testing.T) {
	p, _ := newTestPackager()
	transcript, err := p.Transcript(studentDataXml)
	require.NoError(t, err)

	encoded, err := json.Marshal(transcript)
	require.NoError(t, err)

	var decoded Transcript
	err = json.Unmarshal(encoded, &decoded)
	require.NoError(t, err)

	diff := cmp.Diff(
		transcript, decoded,
		cmp.AllowUnexported(Section{}, Assignment{}),
		cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
	)
	if diff != "" {
		t.Fatal(diff)
	}
}
