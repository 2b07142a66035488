package packager

import (
	"fmt"

	"powerapi-backend/lib/xmltree"
)

// StudentDataPath leads from the envelope root of a getStudentData response
// to the element holding every student data list.
var StudentDataPath = []string{
	"soapenv:Body",
	"ns:getStudentDataResponse",
	"return",
	"studentDataVOs",
}

// StudentData locates the student data element of a parsed response.
func StudentData(doc *xmltree.Document) *xmltree.Node {
	return doc.Root().Path(StudentDataPath...)
}

// Transcript parses a getStudentData response body and maps it. Either the
// whole transcript is returned or an error, never a partial result.
func (p Packager) Transcript(data []byte) (Transcript, error) {
	doc, err := xmltree.ParseDocument(data)
	if err != nil {
		return Transcript{}, fmt.Errorf("parse student data: %w", err)
	}
	return p.TranscriptFromStudentData(StudentData(doc))
}

// TranscriptFromStudentData maps an already located student data element.
func (p Packager) TranscriptFromStudentData(studentData *xmltree.Node) (Transcript, error) {
	if studentData.IsError() {
		p.tel.ReportWarning(report_transcript_student_data, studentData.Err())
	}

	categories := p.AssignmentCategories(studentData.Child("assignmentCategories"))
	scores := p.AssignmentScores(studentData.Child("assignmentScores"))
	finalGrades := p.FinalGrades(studentData.Child("finalGrades"))
	terms := p.ReportingTerms(studentData.Child("reportingTerms"))
	teachers := p.Teachers(studentData.Child("teachers"))

	assignments, err := p.Assignments(studentData.Child("assignments"), categories, scores)
	if err != nil {
		return Transcript{}, err
	}
	sections, err := p.Sections(studentData.Child("sections"), assignments, finalGrades, terms, teachers)
	if err != nil {
		return Transcript{}, err
	}

	return Transcript{
		Information: p.Information(studentData.Child("student")),
		Sections:    sections,
	}, nil
}
