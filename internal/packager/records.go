package packager

import (
	"encoding/json"
	"time"
)

// Record is the flat text content of one element. Every field the extractor
// asks for is present, missing children become "".
type Record map[string]string

type (
	// Categories is keyed by category id.
	Categories map[string]Record
	// Scores is keyed by the id of the assignment that was scored.
	Scores map[string]Record
	// Teachers is keyed by teacher id.
	Teachers map[string]Record
	// FinalGrades holds every final grade of a section, keyed by section id.
	FinalGrades map[string][]Record
	// ReportingTerms maps a reporting term id to its abbreviation (ex. "S1").
	ReportingTerms map[string]string
	// AssignmentsBySection is keyed by section id.
	AssignmentsBySection map[string][]Assignment
)

// Assignment is a single piece of graded work.
type Assignment struct {
	category    string
	description string
	name        string
	dueDate     string

	scored  bool
	score   string
	percent string
}

// Category is the name of the assignment's category (ex. "Formative").
func (a Assignment) Category() string { return a.category }

func (a Assignment) Description() string { return a.description }

func (a Assignment) Name() string { return a.name }

// DueDate is the raw due date string as reported by the portal.
func (a Assignment) DueDate() string { return a.dueDate }

// Score is the mark the student received, false if the assignment is not scored.
func (a Assignment) Score() (string, bool) { return a.score, a.scored }

// Percent is the percentage the student received, false if the assignment is
// not scored.
func (a Assignment) Percent() (string, bool) { return a.percent, a.scored }

type assignmentJSON struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Name        string  `json:"name"`
	DueDate     string  `json:"due_date,omitempty"`
	Score       *string `json:"score,omitempty"`
	Percent     *string `json:"percent,omitempty"`
}

func (a Assignment) MarshalJSON() ([]byte, error) {
	out := assignmentJSON{
		Category:    a.category,
		Description: a.description,
		Name:        a.name,
		DueDate:     a.dueDate,
	}
	if a.scored {
		score, percent := a.score, a.percent
		out.Score = &score
		out.Percent = &percent
	}
	return json.Marshal(out)
}

func (a *Assignment) UnmarshalJSON(data []byte) error {
	var in assignmentJSON
	err := json.Unmarshal(data, &in)
	if err != nil {
		return err
	}
	*a = Assignment{
		category:    in.Category,
		description: in.Description,
		name:        in.Name,
		dueDate:     in.DueDate,
	}
	if in.Score != nil || in.Percent != nil {
		a.scored = true
		if in.Score != nil {
			a.score = *in.Score
		}
		if in.Percent != nil {
			a.percent = *in.Percent
		}
	}
	return nil
}

// Teacher is the contact information of a section's teacher.
type Teacher struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	SchoolPhone string `json:"school_phone"`
}

// Section is a course the student is enrolled in.
type Section struct {
	id          string
	name        string
	roomName    string
	expression  string
	assignments []Assignment
	finalGrades map[string]string
	teacher     Teacher

	startDate    time.Time
	hasStartDate bool
}

func (s Section) ID() string { return s.id }

// Name is the course title.
func (s Section) Name() string { return s.name }

func (s Section) RoomName() string { return s.roomName }

// Expression encodes the period the section meets in, sections are ordered by it.
func (s Section) Expression() string { return s.expression }

func (s Section) Assignments() []Assignment {
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// FinalGrades maps a reporting term abbreviation (ex. "S1") to a percent.
func (s Section) FinalGrades() map[string]string {
	out := make(map[string]string, len(s.finalGrades))
	for k, v := range s.finalGrades {
		out[k] = v
	}
	return out
}

func (s Section) Teacher() Teacher { return s.teacher }

// StartDate is the enrollment start date, false if it could not be parsed.
func (s Section) StartDate() (time.Time, bool) { return s.startDate, s.hasStartDate }

type sectionJSON struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	RoomName    string            `json:"room_name"`
	Expression  string            `json:"expression"`
	Assignments []Assignment      `json:"assignments"`
	FinalGrades map[string]string `json:"final_grades"`
	Teacher     Teacher           `json:"teacher"`
	StartDate   *time.Time        `json:"start_date,omitempty"`
}

func (s Section) MarshalJSON() ([]byte, error) {
	out := sectionJSON{
		ID:          s.id,
		Name:        s.name,
		RoomName:    s.roomName,
		Expression:  s.expression,
		Assignments: s.assignments,
		FinalGrades: s.finalGrades,
		Teacher:     s.teacher,
	}
	if out.Assignments == nil {
		out.Assignments = []Assignment{}
	}
	if out.FinalGrades == nil {
		out.FinalGrades = map[string]string{}
	}
	if s.hasStartDate {
		start := s.startDate
		out.StartDate = &start
	}
	return json.Marshal(out)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var in sectionJSON
	err := json.Unmarshal(data, &in)
	if err != nil {
		return err
	}
	*s = Section{
		id:          in.ID,
		name:        in.Name,
		roomName:    in.RoomName,
		expression:  in.Expression,
		assignments: in.Assignments,
		finalGrades: in.FinalGrades,
		teacher:     in.Teacher,
	}
	if in.StartDate != nil {
		s.startDate = *in.StartDate
		s.hasStartDate = true
	}
	return nil
}

// Transcript is everything mapped out of one student data response.
type Transcript struct {
	Information Record    `json:"information"`
	Sections    []Section `json:"sections"`
}

// FindSection returns the section with the given id.
func (t Transcript) FindSection(id string) (Section, bool) {
	for _, s := range t.Sections {
		if s.id == id {
			return s, true
		}
	}
	return Section{}, false
}
