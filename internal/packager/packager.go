// Package packager maps the XML tree of a getStudentData response into
// transcript records.
package packager

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"powerapi-backend/internal/components/assert"
	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/lib/xmltree"

	"github.com/samber/lo"
)

const (
	report_sections_start_date     = "sections.start-date"
	report_sections_reporting_term = "sections.reporting-term"
	report_sections_count          = "sections.count"
	report_sections_filtered       = "sections.filtered"
	report_transcript_student_data = "transcript.student-data"
)

// StartDateLayout is the layout of enrollment start dates,
// ex. 2016-08-15T08:00:00.000-0500
const StartDateLayout = "2006-01-02T15:04:05.000-0700"

var (
	informationFields = []string{
		"currentGPA", "currentMealBalance", "currentTerm", "dcid", "dob",
		"ethnicity", "firstName", "gender", "gradeLevel", "id", "lastName",
		"middleName", "photoDate", "startingMealBalance",
	}
	categoryFields = []string{"abbreviation", "description", "id", "name"}
	scoreFields    = []string{
		"assignmentId", "collected", "comment", "exempt", "id", "late",
		"letterGrade", "percent", "score", "scoretype",
	}
	finalGradeFields = []string{
		"commentValue", "dateStored", "grade", "id", "percent",
		"reportingTermId", "sectionid", "storeType",
	}
	teacherFields    = []string{"email", "firstName", "id", "lastName", "schoolPhone"}
	assignmentFields = []string{
		"abbreviation", "assignmentid", "categoryId", "description", "dueDate",
		"id", "includeinfinalgrades", "name", "publishDaysBeforeDue",
		"publishonspecificdate", "publishscores", "sectionid", "type", "weight",
	}
)

// Packager turns student data subtrees into records. It is stateless apart
// from its clock, which decides which sections have started.
type Packager struct {
	tel  telemetry.API
	time chrono.TimeAPI
}

func NewPackager(tel telemetry.API, clock chrono.TimeAPI) Packager {
	assert.NotNil(tel)
	assert.NotNil(clock)
	return Packager{
		tel:  telemetry.NewScopedAPI("packager", tel),
		time: clock,
	}
}

func extract(element *xmltree.Node, fields []string) Record {
	record := make(Record, len(fields))
	for _, field := range fields {
		record[field] = element.Child(field).StringValue()
	}
	return record
}

func extractAll(element *xmltree.Node, fields []string) []Record {
	return lo.Map(element.All(), func(e *xmltree.Node, _ int) Record {
		return extract(e, fields)
	})
}

// Information extracts the student's personal information from <student>.
func (p Packager) Information(student *xmltree.Node) Record {
	return extract(student, informationFields)
}

// AssignmentCategories extracts every <assignmentCategories> sibling of the
// given element keyed by id.
func (p Packager) AssignmentCategories(categories *xmltree.Node) Categories {
	return lo.KeyBy(extractAll(categories, categoryFields), func(r Record) string {
		return r["id"]
	})
}

// AssignmentScores extracts every <assignmentScores> sibling keyed by the id
// of the assignment they score.
func (p Packager) AssignmentScores(scores *xmltree.Node) Scores {
	return lo.KeyBy(extractAll(scores, scoreFields), func(r Record) string {
		return r["assignmentId"]
	})
}

// FinalGrades groups every <finalGrades> sibling by section id.
func (p Packager) FinalGrades(finalGrades *xmltree.Node) FinalGrades {
	return lo.GroupBy(extractAll(finalGrades, finalGradeFields), func(r Record) string {
		return r["sectionid"]
	})
}

// ReportingTerms maps every <reportingTerms> sibling's id to its abbreviation.
func (p Packager) ReportingTerms(terms *xmltree.Node) ReportingTerms {
	out := ReportingTerms{}
	for _, term := range terms.All() {
		out[term.Child("id").StringValue()] = term.Child("abbreviation").StringValue()
	}
	return out
}

// Teachers extracts every <teachers> sibling keyed by id.
func (p Packager) Teachers(teachers *xmltree.Node) Teachers {
	return lo.KeyBy(extractAll(teachers, teacherFields), func(r Record) string {
		return r["id"]
	})
}

// Assignments joins every <assignments> sibling with its category and, if it
// was scored, its score. The result is grouped by section id and keeps the
// document order within a section.
func (p Packager) Assignments(assignments *xmltree.Node, categories Categories, scores Scores) (AssignmentsBySection, error) {
	out := AssignmentsBySection{}
	for _, raw := range extractAll(assignments, assignmentFields) {
		category, ok := categories[raw["categoryId"]]
		if !ok {
			return nil, &JoinError{
				Kind: "category",
				ID:   raw["categoryId"],
				From: fmt.Sprintf("assignment %q", raw["id"]),
			}
		}

		assignment := Assignment{
			category:    category["name"],
			description: raw["description"],
			name:        raw["name"],
			dueDate:     raw["dueDate"],
		}
		score, scored := scores[raw["id"]]
		if scored {
			assignment.scored = true
			assignment.score = score["score"]
			assignment.percent = score["percent"]
		}

		sectionId := raw["sectionid"]
		out[sectionId] = append(out[sectionId], assignment)
	}
	return out, nil
}

// Sections builds every <sections> sibling that has already started, sorted
// by expression. Expressions are compared as plain strings so "10" sorts
// before "2".
func (p Packager) Sections(
	sections *xmltree.Node,
	assignments AssignmentsBySection,
	finalGrades FinalGrades,
	terms ReportingTerms,
	teachers Teachers,
) ([]Section, error) {
	now := p.time.Now()

	out := []Section{}
	for _, raw := range sections.All() {
		id := raw.Child("id").StringValue()

		section := Section{
			id:          id,
			name:        raw.Child("schoolCourseTitle").StringValue(),
			roomName:    raw.Child("roomName").StringValue(),
			expression:  raw.Child("expression").StringValue(),
			finalGrades: map[string]string{},
		}

		startDate := raw.Path("enrollments", "startDate").StringValue()
		start, err := time.Parse(StartDateLayout, startDate)
		if err != nil {
			p.tel.ReportWarning(report_sections_start_date, id, startDate, err)
		} else {
			if start.After(now) {
				p.tel.ReportDebug(report_sections_filtered, id, startDate)
				continue
			}
			section.startDate = start
			section.hasStartDate = true
		}

		teacherId := raw.Child("teacherID").StringValue()
		teacher, ok := teachers[teacherId]
		if !ok {
			return nil, &JoinError{
				Kind: "teacher",
				ID:   teacherId,
				From: fmt.Sprintf("section %q", id),
			}
		}
		section.teacher = Teacher{
			FirstName:   teacher["firstName"],
			LastName:    teacher["lastName"],
			Email:       teacher["email"],
			SchoolPhone: teacher["schoolPhone"],
		}

		section.assignments = slices.Clone(assignments[id])
		if section.assignments == nil {
			section.assignments = []Assignment{}
		}

		for _, grade := range finalGrades[id] {
			abbreviation, ok := terms[grade["reportingTermId"]]
			if !ok {
				p.tel.ReportWarning(report_sections_reporting_term, id, grade["reportingTermId"])
				continue
			}
			section.finalGrades[abbreviation] = grade["percent"]
		}

		out = append(out, section)
	}

	slices.SortStableFunc(out, func(a, b Section) int {
		return strings.Compare(a.expression, b.expression)
	})
	p.tel.ReportCount(report_sections_count, int64(len(out)))

	return out, nil
}
