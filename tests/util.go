package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	role user.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(
	t *testing.T,
	repo classroom.Repository,
	name, teacherID string,
	studentIDs ...string,
) classroom.Class {
	tstamp := time.Now().UTC()
	cls := classroom.Class{
		Name:       name,
		TeacherID:  teacherID,
		StudentIDs: make([]string, 0),
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	cls, err := repo.CreateClass(context.Background(), cls)
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	for _, sid := range studentIDs {
		if cls, err = repo.AddClassStudent(context.Background(), cls.ID, sid); err != nil {
			t.Fatalf("CreateClass() failed: %v", err)
		}
	}
	return cls
}

func CreateQuiz(
	t *testing.T,
	repo classroom.Repository,
	classID, name string,
	startDate time.Time,
	duration int,
	questions ...classroom.Question,
) classroom.Quiz {
	tstamp := time.Now().UTC()
	qz := classroom.Quiz{
		ID:        uuid.New().String(),
		ClassID:   classID,
		Name:      name,
		StartDate: startDate.UTC(),
		Duration:  duration,
		Questions: questions,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if _, err := repo.AppendClassQuiz(context.Background(), classID, qz); err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	return qz
}

// NewQuestion builds an embedded question with generated IDs; the last option
// is marked correct.
func NewQuestion(text string, optionTexts ...string) classroom.Question {
	opts := make([]classroom.Option, 0, len(optionTexts))
	for i, ot := range optionTexts {
		opts = append(opts, classroom.Option{
			ID:        uuid.New().String(),
			Text:      ot,
			IsCorrect: i == len(optionTexts)-1,
		})
	}
	return classroom.Question{
		ID:      uuid.New().String(),
		Text:    text,
		Options: opts,
	}
}
