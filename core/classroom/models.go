package classroom

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Class struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TeacherID  string    `json:"teacher_id"`
	StudentIDs []string  `json:"student_ids"`
	Quizzes    []Quiz    `json:"quizzes,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (c *Class) HasStudent(id string) bool {
	for _, sid := range c.StudentIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// Quiz returns the embedded quiz with the given ID.
func (c *Class) Quiz(id string) (Quiz, bool) {
	for _, qz := range c.Quizzes {
		if qz.ID == id {
			return qz, true
		}
	}
	return Quiz{}, false
}

type Quiz struct {
	ID        string     `json:"id"`
	ClassID   string     `json:"class_id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"` // UTC
	Duration  int        `json:"duration"`   // minutes
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

func (q *Quiz) EndDate() time.Time {
	return q.StartDate.Add(time.Duration(q.Duration) * time.Minute)
}

// StateAt reports where the quiz window stands relative to t.
// The window is half-open: the start instant is in, the end instant is out.
func (q *Quiz) StateAt(t time.Time) State {
	if t.Before(q.StartDate) {
		return StateScheduled
	}
	if t.Before(q.EndDate()) {
		return StateOpen
	}
	return StateClosed
}

// ForStudent strips the quiz down to what a student may see while taking it.
func (q *Quiz) ForStudent() StudentQuiz {
	questions := make([]StudentQuestion, 0, len(q.Questions))
	for _, qn := range q.Questions {
		opts := make([]StudentOption, 0, len(qn.Options))
		for _, opt := range qn.Options {
			opts = append(opts, StudentOption{ID: opt.ID, Text: opt.Text})
		}
		questions = append(questions, StudentQuestion{
			ID:               qn.ID,
			Text:             qn.Text,
			Options:          opts,
			IsMultipleChoice: qn.IsMultipleChoice,
		})
	}
	return StudentQuiz{
		ID:        q.ID,
		ClassID:   q.ClassID,
		Name:      q.Name,
		StartDate: q.StartDate,
		Duration:  q.Duration,
		Questions: questions,
	}
}

func (q *Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Name:          q.Name,
		StartDate:     q.StartDate,
		Duration:      q.Duration,
		QuestionCount: len(q.Questions),
	}
}

type Question struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Options          []Option `json:"options"`
	IsMultipleChoice bool     `json:"is_multiple_choice"`
}

type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// StudentQuiz is the student-facing projection of a Quiz; answer keys are
// never part of it.
type StudentQuiz struct {
	ID        string            `json:"id"`
	ClassID   string            `json:"class_id"`
	Name      string            `json:"name"`
	StartDate time.Time         `json:"start_date"`
	Duration  int               `json:"duration"`
	Questions []StudentQuestion `json:"questions"`
}

type StudentQuestion struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Options          []StudentOption `json:"options"`
	IsMultipleChoice bool            `json:"is_multiple_choice"`
}

type StudentOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuizSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StartDate     time.Time `json:"start_date"`
	Duration      int       `json:"duration"`
	QuestionCount int       `json:"question_count"`
}

// Response records a student's answers to a quiz. Responses are write-once
// and never surface through the API.
type Response struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quiz_id"`
	ClassID     string    `json:"class_id"`
	StudentID   string    `json:"student_id"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

type Answer struct {
	QuestionID string   `json:"question_id"`
	OptionIDs  []string `json:"option_ids"`
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name string `json:"class_name" validate:"required"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// NewQuiz contains information needed to create a new Quiz.
type NewQuiz struct {
	Name      string        `json:"quiz_name" validate:"required"`
	StartDate time.Time     `json:"start_date" validate:"required"`
	Duration  int           `json:"duration" validate:"required,min=1"`
	Questions []NewQuestion `json:"questions" validate:"omitempty,dive"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Name = core.CleanString(nq.Name)
	return validate.Struct(nq)
}

type NewQuestion struct {
	Text             string      `json:"text" validate:"required"`
	Options          []NewOption `json:"options" validate:"required,min=2,dive"`
	IsMultipleChoice bool        `json:"is_multiple_choice"`
}

type NewOption struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// UpdateQuiz defines what information may be provided to modify an existing
// Quiz. Zero fields are left untouched.
type UpdateQuiz struct {
	Name      string        `json:"quiz_name"`
	StartDate *time.Time    `json:"start_date"`
	Duration  *int          `json:"duration" validate:"omitempty,min=1"`
	Questions []NewQuestion `json:"questions" validate:"omitempty,dive"`
}

func (uq *UpdateQuiz) Validate(validate *validator.Validate) error {
	uq.Name = core.CleanString(uq.Name)
	return validate.Struct(uq)
}

// NewResponse contains a student's answers to a quiz.
type NewResponse struct {
	Answers []NewAnswer `json:"answers" validate:"required,min=1,dive"`
}

func (nr *NewResponse) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

type NewAnswer struct {
	QuestionID string   `json:"question_id" validate:"required"`
	OptionIDs  []string `json:"option_ids" validate:"required,min=1"`
}

// GetFilter applies an AND operation on its non-zero fields.
type GetFilter struct {
	ID string
}

// QueryFilter applies an AND operation on its non-zero fields.
type QueryFilter struct {
	TeacherID string
	StudentID string
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.TeacherID == "" && qf.StudentID == ""
}

// ResponseFilter applies an AND operation on its non-zero fields.
type ResponseFilter struct {
	QuizID    string
	StudentID string
}
