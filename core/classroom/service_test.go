package classroom_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/dummy"
	"github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (classroom.Service, classroom.Repository, user.Repository, *time.Time) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	repo := dummydb.NewClassroomRepository(db)
	usrRepo := dummydb.NewUserRepository(db)

	now := time.Date(2021, time.March, 15, 10, 0, 0, 0, time.UTC)
	svc := classroom.NewServiceMock(repo, usrRepo, func() time.Time { return now })
	return svc, repo, usrRepo, &now
}

func principal(usr user.User) classroom.Principal {
	return classroom.Principal{ID: usr.ID, Role: usr.Role}
}

func TestServiceCreateClass(t *testing.T) {
	svc, _, usrRepo, _ := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, usrRepo, "Jane Awiti", "jawiti", "jane@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hama Diallo", "hdiallo", "hama@test.cd", "", user.RoleStudent, true)

	t.Run("teacher creates class", func(t *testing.T) {
		cls, err := svc.CreateClass(ctx, principal(teacher), classroom.NewClass{Name: "Biology"})
		if err != nil {
			t.Fatalf("CreateClass(): %v", err)
		}
		if cls.ID == "" {
			t.Error("CreateClass() did not set an ID")
		}
		if cls.TeacherID != teacher.ID {
			t.Errorf("CreateClass() teacherID = %v, want %v", cls.TeacherID, teacher.ID)
		}
	})

	t.Run("student cannot create class", func(t *testing.T) {
		_, err := svc.CreateClass(ctx, principal(student), classroom.NewClass{Name: "Nope"})
		if errors.Cause(err) != classroom.ErrNotTeacher {
			t.Errorf("CreateClass() error = %v, want %v", err, classroom.ErrNotTeacher)
		}
	})
}

func TestServiceMembership(t *testing.T) {
	svc, repo, usrRepo, _ := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, usrRepo, "Jane Awiti", "jawiti", "jane@test.cd", "", user.RoleTeacher, true)
	otherTeacher := testutil.CreateUser(t, usrRepo, "Paul Osei", "posei", "paul@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hama Diallo", "hdiallo", "hama@test.cd", "", user.RoleStudent, true)
	joiner := testutil.CreateUser(t, usrRepo, "Awa Keita", "akeita", "awa@test.cd", "", user.RoleStudent, true)
	cls := testutil.CreateClass(t, repo, "Biology", teacher.ID)

	t.Run("owner adds student", func(t *testing.T) {
		got, added, err := svc.AddStudent(ctx, principal(teacher), cls.ID, student.ID)
		if err != nil {
			t.Fatalf("AddStudent(): %v", err)
		}
		if !added {
			t.Error("AddStudent() added = false, want true")
		}
		if !got.HasStudent(student.ID) {
			t.Error("AddStudent() did not add the student to the roster")
		}
		usr, err := usrRepo.GetUser(ctx, user.GetFilter{ID: student.ID})
		if err != nil {
			t.Fatalf("GetUser(): %v", err)
		}
		if !usr.HasClass(cls.ID) {
			t.Error("AddStudent() did not add the class to the student")
		}
	})

	t.Run("adding twice is a no-op", func(t *testing.T) {
		got, added, err := svc.AddStudent(ctx, principal(teacher), cls.ID, student.ID)
		if err != nil {
			t.Fatalf("AddStudent(): %v", err)
		}
		if added {
			t.Error("AddStudent() added = true, want false")
		}
		if n := len(got.StudentIDs); n != 1 {
			t.Errorf("AddStudent() roster size = %d, want 1", n)
		}
	})

	t.Run("non-owner cannot add student", func(t *testing.T) {
		_, _, err := svc.AddStudent(ctx, principal(otherTeacher), cls.ID, joiner.ID)
		if errors.Cause(err) != classroom.ErrNotOwner {
			t.Errorf("AddStudent() error = %v, want %v", err, classroom.ErrNotOwner)
		}
	})

	t.Run("teacher cannot be added as student", func(t *testing.T) {
		_, _, err := svc.AddStudent(ctx, principal(teacher), cls.ID, otherTeacher.ID)
		if errors.Cause(err) != user.ErrNotFound {
			t.Errorf("AddStudent() error = %v, want %v", err, user.ErrNotFound)
		}
	})

	t.Run("unknown student", func(t *testing.T) {
		_, _, err := svc.AddStudent(ctx, principal(teacher), cls.ID, "2a963bd8-0587-4a72-bfa4-77a1ea270a0f")
		if errors.Cause(err) != user.ErrNotFound {
			t.Errorf("AddStudent() error = %v, want %v", err, user.ErrNotFound)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		_, _, err := svc.AddStudent(ctx, principal(teacher), "2a963bd8-0587-4a72-bfa4-77a1ea270a0f", student.ID)
		if errors.Cause(err) != classroom.ErrNotFound {
			t.Errorf("AddStudent() error = %v, want %v", err, classroom.ErrNotFound)
		}
	})

	t.Run("student joins", func(t *testing.T) {
		got, added, err := svc.JoinClass(ctx, principal(joiner), cls.ID)
		if err != nil {
			t.Fatalf("JoinClass(): %v", err)
		}
		if !added {
			t.Error("JoinClass() added = false, want true")
		}
		if !got.HasStudent(joiner.ID) {
			t.Error("JoinClass() did not add the student to the roster")
		}
	})

	t.Run("joining twice is a no-op", func(t *testing.T) {
		_, added, err := svc.JoinClass(ctx, principal(joiner), cls.ID)
		if err != nil {
			t.Fatalf("JoinClass(): %v", err)
		}
		if added {
			t.Error("JoinClass() added = true, want false")
		}
	})

	t.Run("teacher cannot join", func(t *testing.T) {
		_, _, err := svc.JoinClass(ctx, principal(otherTeacher), cls.ID)
		if errors.Cause(err) != classroom.ErrNotStudent {
			t.Errorf("JoinClass() error = %v, want %v", err, classroom.ErrNotStudent)
		}
	})

	t.Run("members list students", func(t *testing.T) {
		students, err := svc.ListStudents(ctx, principal(student), cls.ID)
		if err != nil {
			t.Fatalf("ListStudents(): %v", err)
		}
		if n := len(students); n != 2 {
			t.Errorf("ListStudents() size = %d, want 2", n)
		}
	})

	t.Run("non-member cannot list students", func(t *testing.T) {
		_, err := svc.ListStudents(ctx, principal(otherTeacher), cls.ID)
		if errors.Cause(err) != classroom.ErrNotMember {
			t.Errorf("ListStudents() error = %v, want %v", err, classroom.ErrNotMember)
		}
	})
}

func TestServiceQuizLifecycle(t *testing.T) {
	svc, repo, usrRepo, now := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, usrRepo, "Jane Awiti", "jawiti", "jane@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hama Diallo", "hdiallo", "hama@test.cd", "", user.RoleStudent, true)
	cls := testutil.CreateClass(t, repo, "Biology", teacher.ID, student.ID)

	newQuiz := func(start time.Time) classroom.NewQuiz {
		return classroom.NewQuiz{
			Name:      "Cells",
			StartDate: start,
			Duration:  30,
			Questions: []classroom.NewQuestion{
				{
					Text: "Powerhouse of the cell?",
					Options: []classroom.NewOption{
						{Text: "Nucleus"},
						{Text: "Mitochondria", IsCorrect: true},
					},
				},
			},
		}
	}

	t.Run("create rejects past start date", func(t *testing.T) {
		_, err := svc.CreateQuiz(ctx, principal(teacher), cls.ID, newQuiz(now.Add(-time.Hour)))
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CreateQuiz() error = %v, want *core.ValidationError", err)
		}
	})

	t.Run("create rejects start date equal to now", func(t *testing.T) {
		_, err := svc.CreateQuiz(ctx, principal(teacher), cls.ID, newQuiz(*now))
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CreateQuiz() error = %v, want *core.ValidationError", err)
		}
	})

	t.Run("student cannot create quiz", func(t *testing.T) {
		_, err := svc.CreateQuiz(ctx, principal(student), cls.ID, newQuiz(now.Add(time.Hour)))
		if errors.Cause(err) != classroom.ErrNotTeacher {
			t.Errorf("CreateQuiz() error = %v, want %v", err, classroom.ErrNotTeacher)
		}
	})

	var qz classroom.Quiz

	t.Run("owner creates quiz", func(t *testing.T) {
		var err error
		qz, err = svc.CreateQuiz(ctx, principal(teacher), cls.ID, newQuiz(now.Add(time.Hour)))
		if err != nil {
			t.Fatalf("CreateQuiz(): %v", err)
		}
		if qz.ID == "" {
			t.Error("CreateQuiz() did not set an ID")
		}
		if len(qz.Questions) != 1 || len(qz.Questions[0].Options) != 2 {
			t.Errorf("CreateQuiz() questions not embedded: %+v", qz.Questions)
		}
	})

	t.Run("teacher sees full quiz before start", func(t *testing.T) {
		got, vis, err := svc.GetQuiz(ctx, principal(teacher), cls.ID, qz.ID)
		if err != nil {
			t.Fatalf("GetQuiz(): %v", err)
		}
		if vis != classroom.VisibilityFull {
			t.Errorf("GetQuiz() visibility = %v, want %v", vis, classroom.VisibilityFull)
		}
		if got.ID != qz.ID {
			t.Errorf("GetQuiz() ID = %v, want %v", got.ID, qz.ID)
		}
	})

	t.Run("student sees schedule only before start", func(t *testing.T) {
		_, vis, err := svc.GetQuiz(ctx, principal(student), cls.ID, qz.ID)
		if err != nil {
			t.Fatalf("GetQuiz(): %v", err)
		}
		if vis != classroom.VisibilityNotStarted {
			t.Errorf("GetQuiz() visibility = %v, want %v", vis, classroom.VisibilityNotStarted)
		}
	})

	t.Run("student sees full quiz at start instant", func(t *testing.T) {
		*now = qz.StartDate
		defer func() { *now = qz.StartDate.Add(-time.Hour) }()

		_, vis, err := svc.GetQuiz(ctx, principal(student), cls.ID, qz.ID)
		if err != nil {
			t.Fatalf("GetQuiz(): %v", err)
		}
		if vis != classroom.VisibilityFull {
			t.Errorf("GetQuiz() visibility = %v, want %v", vis, classroom.VisibilityFull)
		}
	})

	t.Run("student sees nothing at end instant", func(t *testing.T) {
		*now = qz.EndDate()
		defer func() { *now = qz.StartDate.Add(-time.Hour) }()

		_, vis, err := svc.GetQuiz(ctx, principal(student), cls.ID, qz.ID)
		if err != nil {
			t.Fatalf("GetQuiz(): %v", err)
		}
		if vis != classroom.VisibilityEnded {
			t.Errorf("GetQuiz() visibility = %v, want %v", vis, classroom.VisibilityEnded)
		}
	})

	t.Run("owner updates quiz", func(t *testing.T) {
		name := "Cells II"
		start := now.Add(2 * time.Hour)
		got, err := svc.UpdateQuiz(ctx, principal(teacher), cls.ID, qz.ID, classroom.UpdateQuiz{Name: name, StartDate: &start})
		if err != nil {
			t.Fatalf("UpdateQuiz(): %v", err)
		}
		if got.Name != name {
			t.Errorf("UpdateQuiz() name = %v, want %v", got.Name, name)
		}
		if !got.StartDate.Equal(start) {
			t.Errorf("UpdateQuiz() startDate = %v, want %v", got.StartDate, start)
		}
		qz = got
	})

	t.Run("update rejects past start date", func(t *testing.T) {
		start := now.Add(-time.Minute)
		_, err := svc.UpdateQuiz(ctx, principal(teacher), cls.ID, qz.ID, classroom.UpdateQuiz{StartDate: &start})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("UpdateQuiz() error = %v, want *core.ValidationError", err)
		}
	})

	t.Run("closed quiz can be rescheduled to the future", func(t *testing.T) {
		*now = qz.EndDate().Add(time.Hour)
		defer func() { *now = qz.StartDate.Add(-2 * time.Hour) }()

		start := now.Add(24 * time.Hour)
		got, err := svc.UpdateQuiz(ctx, principal(teacher), cls.ID, qz.ID, classroom.UpdateQuiz{StartDate: &start})
		if err != nil {
			t.Fatalf("UpdateQuiz(): %v", err)
		}
		if got.StateAt(*now) != classroom.StateScheduled {
			t.Errorf("UpdateQuiz() state = %v, want %v", got.StateAt(*now), classroom.StateScheduled)
		}
		qz = got
	})

	t.Run("rename alone fails once the quiz started", func(t *testing.T) {
		*now = qz.StartDate.Add(time.Minute)
		defer func() { *now = qz.StartDate.Add(-time.Hour) }()

		_, err := svc.UpdateQuiz(ctx, principal(teacher), cls.ID, qz.ID, classroom.UpdateQuiz{Name: "Too late"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("UpdateQuiz() error = %v, want *core.ValidationError", err)
		}
	})

	t.Run("unknown quiz", func(t *testing.T) {
		_, _, err := svc.GetQuiz(ctx, principal(teacher), cls.ID, "2a963bd8-0587-4a72-bfa4-77a1ea270a0f")
		if errors.Cause(err) != classroom.ErrQuizNotFound {
			t.Errorf("GetQuiz() error = %v, want %v", err, classroom.ErrQuizNotFound)
		}
	})

	t.Run("member lists quiz summaries", func(t *testing.T) {
		summaries, err := svc.ListQuizzes(ctx, principal(student), cls.ID)
		if err != nil {
			t.Fatalf("ListQuizzes(): %v", err)
		}
		if n := len(summaries); n != 1 {
			t.Fatalf("ListQuizzes() size = %d, want 1", n)
		}
		if summaries[0].QuestionCount != 1 {
			t.Errorf("ListQuizzes() questionCount = %d, want 1", summaries[0].QuestionCount)
		}
	})
}

func TestServiceSubmitResponse(t *testing.T) {
	svc, repo, usrRepo, now := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, usrRepo, "Jane Awiti", "jawiti", "jane@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hama Diallo", "hdiallo", "hama@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, usrRepo, "Awa Keita", "akeita", "awa@test.cd", "", user.RoleStudent, true)
	cls := testutil.CreateClass(t, repo, "Biology", teacher.ID, student.ID)

	question := testutil.NewQuestion("Powerhouse of the cell?", "Nucleus", "Mitochondria")
	start := now.Add(time.Hour)
	qz := testutil.CreateQuiz(t, repo, cls.ID, "Cells", start, 30, question)

	answers := classroom.NewResponse{
		Answers: []classroom.NewAnswer{
			{QuestionID: question.ID, OptionIDs: []string{question.Options[1].ID}},
		},
	}

	t.Run("rejected before start", func(t *testing.T) {
		_, err := svc.SubmitResponse(ctx, principal(student), cls.ID, qz.ID, answers)
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("SubmitResponse() error = %v, want *core.ValidationError", err)
		}
		if vErr.Error() != classroom.ErrQuizNotStarted.Error() {
			t.Errorf("SubmitResponse() error = %v, want %v", vErr.Error(), classroom.ErrQuizNotStarted)
		}
	})

	t.Run("rejected after end", func(t *testing.T) {
		*now = qz.EndDate()
		defer func() { *now = start.Add(-time.Hour) }()

		_, err := svc.SubmitResponse(ctx, principal(student), cls.ID, qz.ID, answers)
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("SubmitResponse() error = %v, want *core.ValidationError", err)
		}
		if vErr.Error() != classroom.ErrQuizEnded.Error() {
			t.Errorf("SubmitResponse() error = %v, want %v", vErr.Error(), classroom.ErrQuizEnded)
		}
	})

	t.Run("accepted while open", func(t *testing.T) {
		*now = qz.StartDate.Add(time.Minute)
		defer func() { *now = start.Add(-time.Hour) }()

		res, err := svc.SubmitResponse(ctx, principal(student), cls.ID, qz.ID, answers)
		if err != nil {
			t.Fatalf("SubmitResponse(): %v", err)
		}
		if res.ID == "" {
			t.Error("SubmitResponse() did not set an ID")
		}
		if res.StudentID != student.ID || res.QuizID != qz.ID {
			t.Errorf("SubmitResponse() keys = (%v, %v), want (%v, %v)", res.StudentID, res.QuizID, student.ID, qz.ID)
		}
	})

	t.Run("second submission rejected", func(t *testing.T) {
		*now = qz.StartDate.Add(2 * time.Minute)
		defer func() { *now = start.Add(-time.Hour) }()

		_, err := svc.SubmitResponse(ctx, principal(student), cls.ID, qz.ID, answers)
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("SubmitResponse() error = %v, want *core.ValidationError", err)
		}
		if vErr.Error() != classroom.ErrResponseExists.Error() {
			t.Errorf("SubmitResponse() error = %v, want %v", vErr.Error(), classroom.ErrResponseExists)
		}
	})

	t.Run("non-member rejected", func(t *testing.T) {
		*now = qz.StartDate.Add(time.Minute)
		defer func() { *now = start.Add(-time.Hour) }()

		_, err := svc.SubmitResponse(ctx, principal(outsider), cls.ID, qz.ID, answers)
		if errors.Cause(err) != classroom.ErrNotMember {
			t.Errorf("SubmitResponse() error = %v, want %v", err, classroom.ErrNotMember)
		}
	})

	t.Run("teacher rejected", func(t *testing.T) {
		*now = qz.StartDate.Add(time.Minute)
		defer func() { *now = start.Add(-time.Hour) }()

		_, err := svc.SubmitResponse(ctx, principal(teacher), cls.ID, qz.ID, answers)
		if errors.Cause(err) != classroom.ErrNotStudent {
			t.Errorf("SubmitResponse() error = %v, want %v", err, classroom.ErrNotStudent)
		}
	})
}
