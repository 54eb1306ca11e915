package classroom

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("class not found")
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizNotStarted   = errors.New("quiz has not started yet")
	ErrQuizEnded        = errors.New("quiz has ended")
	ErrResponseExists   = errors.New("a response has already been submitted for this quiz")
	ErrResponseNotFound = errors.New("response not found")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, filter GetFilter) (Class, error)
		// QueryClasses applies an AND operation on available QueryFilter fields.
		// Embedded quizzes are omitted from the results.
		QueryClasses(ctx context.Context, filter *QueryFilter) ([]Class, error)
		// AddClassStudent records the student on the class roster. It is a
		// no-op if the student is already on it.
		AddClassStudent(ctx context.Context, classID, studentID string) (Class, error)
		AppendClassQuiz(ctx context.Context, classID string, qz Quiz) (Class, error)
		UpdateClassQuiz(ctx context.Context, classID string, qz Quiz) (Class, error)
		CreateResponse(ctx context.Context, res Response) (Response, error)
		GetResponse(ctx context.Context, filter ResponseFilter) (Response, error)
	}

	Service interface {
		CreateClass(ctx context.Context, p Principal, nc NewClass) (Class, error)
		ListClasses(ctx context.Context, p Principal) ([]Class, error)
		AddStudent(ctx context.Context, p Principal, classID, studentID string) (Class, bool, error)
		JoinClass(ctx context.Context, p Principal, classID string) (Class, bool, error)
		ListStudents(ctx context.Context, p Principal, classID string) ([]user.User, error)
		CreateQuiz(ctx context.Context, p Principal, classID string, nq NewQuiz) (Quiz, error)
		UpdateQuiz(ctx context.Context, p Principal, classID, quizID string, uq UpdateQuiz) (Quiz, error)
		GetQuiz(ctx context.Context, p Principal, classID, quizID string) (Quiz, Visibility, error)
		ListQuizzes(ctx context.Context, p Principal, classID string) ([]QuizSummary, error)
		SubmitResponse(ctx context.Context, p Principal, classID, quizID string, nr NewResponse) (Response, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		nowFunc func() time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository) *service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		nowFunc: time.Now,
	}
}

func (svc *service) now() time.Time { return svc.nowFunc().UTC() }

func (svc *service) CreateClass(ctx context.Context, p Principal, nc NewClass) (Class, error) {
	if !p.IsTeacher() {
		return Class{}, ErrNotTeacher
	}

	now := svc.now()
	cls := Class{
		Name:       nc.Name,
		TeacherID:  p.ID,
		StudentIDs: make([]string, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	cls, err := svc.repo.CreateClass(ctx, cls)
	if err != nil {
		return Class{}, errors.Wrap(err, "creating class")
	}
	return cls, nil
}

func (svc *service) ListClasses(ctx context.Context, p Principal) ([]Class, error) {
	filter := new(QueryFilter)
	if p.IsTeacher() {
		filter.TeacherID = p.ID
	} else {
		filter.StudentID = p.ID
	}

	classes, err := svc.repo.QueryClasses(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []Class{}
	}
	return classes, nil
}

func (svc *service) AddStudent(ctx context.Context, p Principal, classID, studentID string) (Class, bool, error) {
	cls, err := svc.repo.GetClass(ctx, GetFilter{ID: classID})
	if err != nil {
		return Class{}, false, err
	}
	if err = AuthorizeOwner(p, cls); err != nil {
		return Class{}, false, err
	}

	// the target must exist and hold the student role
	if _, err = svc.usrRepo.GetUser(ctx, user.GetFilter{ID: studentID, Role: user.RoleStudent}); err != nil {
		return Class{}, false, err
	}
	return svc.enroll(ctx, cls, studentID)
}

func (svc *service) JoinClass(ctx context.Context, p Principal, classID string) (Class, bool, error) {
	if !p.IsStudent() {
		return Class{}, false, ErrNotStudent
	}

	cls, err := svc.repo.GetClass(ctx, GetFilter{ID: classID})
	if err != nil {
		return Class{}, false, err
	}
	return svc.enroll(ctx, cls, p.ID)
}

// enroll adds the student on both sides of the membership relation; the class
// roster is authoritative and is written first.
func (svc *service) enroll(ctx context.Context, cls Class, studentID string) (Class, bool, error) {
	if cls.HasStudent(studentID) {
		cls.Quizzes = nil
		return cls, false, nil
	}

	cls, err := svc.repo.AddClassStudent(ctx, cls.ID, studentID)
	if err != nil {
		return Class{}, false, errors.Wrap(err, "adding student to class")
	}
	if _, err = svc.usrRepo.AddUserClass(ctx, studentID, cls.ID); err != nil {
		return Class{}, false, errors.Wrap(err, "adding class to student")
	}
	return cls, true, nil
}

func (svc *service) ListStudents(ctx context.Context, p Principal, classID string) ([]user.User, error) {
	cls, err := svc.repo.GetClass(ctx, GetFilter{ID: classID})
	if err != nil {
		return nil, err
	}
	if err = AuthorizeMember(p, cls); err != nil {
		return nil, err
	}

	if len(cls.StudentIDs) == 0 {
		return []user.User{}, nil
	}
	students, err := svc.usrRepo.QueryUsers(ctx, &user.QueryFilter{IDs: cls.StudentIDs})
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (svc *service) CreateQuiz(ctx context.Context, p Principal, classID string, nq NewQuiz) (Quiz, error) {
	cls, err := svc.repo.GetClass(ctx, GetFilter{ID: classID})
	if err != nil {
		return Quiz{}, err
	}
	if err = AuthorizeOwner(p, cls); err != nil {
		return Quiz{}, err
	}

	now := svc.now()
	if err = ValidateStartDate(nq.StartDate, now); err != nil {
		return Quiz{}, err
	}

	qz := Quiz{
		ID:        uuid.New().String(),
		ClassID:   cls.ID,
		Name:      nq.Name,
		StartDate: nq.StartDate.UTC(),
		Duration:  nq.Duration,
		Questions: buildQuestions(nq.Questions),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err = svc.repo.AppendClassQuiz(ctx, cls.ID, qz); err != nil {
		return Quiz{}, errors.Wrap(err, "saving quiz")
	}
	return qz, nil
}

func (svc *service) UpdateQuiz(ctx context.Context, p Principal, classID, quizID string, uq UpdateQuiz) (Quiz, error) {
	cls, err := svc.repo.GetClass(ctx, GetFilter{ID: classID})
	if err != nil {
		return Quiz{}, err
	}
	if err = AuthorizeOwner(p, cls); err != nil {
		return Quiz{}, err
	}
	qz, ok := cls.Quiz(quizID)
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}

	if uq.Name != "" {
		qz.Name = uq.Name
	}
	if uq.StartDate != nil {
		qz.StartDate = uq.StartDate.UTC()
	}
	if uq.Duration != nil {
		qz.Duration = *uq.Duration
	}
	if uq.Questions != nil {
		qz.Questions = buildQuestions(uq.Questions)
	}

	// any update must leave the quiz scheduled in the future
	now := svc.now()
	if err = ValidateStartDate(qz.StartDate, now); err != nil {
		return Quiz{}, err
	}
	qz.UpdatedAt = now

	if _, err = svc.repo.UpdateClassQuiz(ctx, cls.ID, qz); err != nil {
		return Quiz{}, errors.Wrap(err, "saving quiz")
	}
	return qz, nil
}

func (svc *service) GetQuiz(ctx context.Context, p Principal, classID, quizID string) (Quiz, Visibility, error) {
	cls, err := svc.repo.GetClass(ctx, GetFilter{ID: classID})
	if err != nil {
		return Quiz{}, VisibilityFull, err
	}
	if err = AuthorizeMember(p, cls); err != nil {
		return Quiz{}, VisibilityFull, err
	}
	qz, ok := cls.Quiz(quizID)
	if !ok {
		return Quiz{}, VisibilityFull, ErrQuizNotFound
	}
	return qz, ResolveVisibility(p, qz, svc.now()), nil
}

func (svc *service) ListQuizzes(ctx context.Context, p Principal, classID string) ([]QuizSummary, error) {
	cls, err := svc.repo.GetClass(ctx, GetFilter{ID: classID})
	if err != nil {
		return nil, err
	}
	if err = AuthorizeMember(p, cls); err != nil {
		return nil, err
	}

	summaries := make([]QuizSummary, 0, len(cls.Quizzes))
	for i := range cls.Quizzes {
		summaries = append(summaries, cls.Quizzes[i].Summary())
	}
	return summaries, nil
}

func (svc *service) SubmitResponse(ctx context.Context, p Principal, classID, quizID string, nr NewResponse) (Response, error) {
	if !p.IsStudent() {
		return Response{}, ErrNotStudent
	}

	cls, err := svc.repo.GetClass(ctx, GetFilter{ID: classID})
	if err != nil {
		return Response{}, err
	}
	if err = AuthorizeMember(p, cls); err != nil {
		return Response{}, err
	}
	qz, ok := cls.Quiz(quizID)
	if !ok {
		return Response{}, ErrQuizNotFound
	}

	now := svc.now()
	switch qz.StateAt(now) {
	case StateScheduled:
		return Response{}, core.NewValidationError(ErrQuizNotStarted)
	case StateClosed:
		return Response{}, core.NewValidationError(ErrQuizEnded)
	}

	// one response per student per quiz
	if _, err = svc.repo.GetResponse(ctx, ResponseFilter{QuizID: qz.ID, StudentID: p.ID}); err == nil {
		return Response{}, core.NewValidationError(ErrResponseExists)
	} else if errors.Cause(err) != ErrResponseNotFound {
		return Response{}, errors.Wrap(err, "checking for existing response")
	}

	answers := make([]Answer, 0, len(nr.Answers))
	for _, na := range nr.Answers {
		answers = append(answers, Answer{QuestionID: na.QuestionID, OptionIDs: na.OptionIDs})
	}
	res := Response{
		QuizID:      qz.ID,
		ClassID:     cls.ID,
		StudentID:   p.ID,
		Answers:     answers,
		SubmittedAt: now,
	}
	res, err = svc.repo.CreateResponse(ctx, res)
	if err != nil {
		if errors.Cause(err) == ErrResponseExists {
			return Response{}, core.NewValidationError(ErrResponseExists)
		}
		return Response{}, errors.Wrap(err, "saving response")
	}
	return res, nil
}

func buildQuestions(nqs []NewQuestion) []Question {
	questions := make([]Question, 0, len(nqs))
	for _, nq := range nqs {
		opts := make([]Option, 0, len(nq.Options))
		for _, no := range nq.Options {
			opts = append(opts, Option{
				ID:        uuid.New().String(),
				Text:      no.Text,
				IsCorrect: no.IsCorrect,
			})
		}
		questions = append(questions, Question{
			ID:               uuid.New().String(),
			Text:             nq.Text,
			Options:          opts,
			IsMultipleChoice: nq.IsMultipleChoice,
		})
	}
	return questions
}
