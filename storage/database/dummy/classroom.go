package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/classroom"
)

type classroomRepository struct {
	db    *classTable
	resDB *responseTable
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *DB) classroom.Repository {
	return &classroomRepository{db: db.class, resDB: db.response}
}

func (repo *classroomRepository) CreateClass(_ context.Context, cls classroom.Class) (classroom.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.New().String()
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classroomRepository) GetClass(_ context.Context, filter classroom.GetFilter) (classroom.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.table[filter.ID]; ok {
		return *cls, nil
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classroomRepository) QueryClasses(_ context.Context, filter *classroom.QueryFilter) ([]classroom.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]classroom.Class, 0, len(repo.db.table))
	for _, cls := range repo.db.table {
		if filter != nil && !filter.IsEmpty() {
			if filter.TeacherID != "" && cls.TeacherID != filter.TeacherID {
				continue
			}
			if filter.StudentID != "" && !cls.HasStudent(filter.StudentID) {
				continue
			}
		}
		c := *cls
		c.Quizzes = nil // omitted from query results
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *classroomRepository) AddClassStudent(_ context.Context, classID, studentID string) (classroom.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classID]
	if !ok {
		return classroom.Class{}, classroom.ErrNotFound
	}
	if !cls.HasStudent(studentID) {
		cls.StudentIDs = append(cls.StudentIDs, studentID)
	}
	c := *cls
	c.Quizzes = nil
	return c, nil
}

func (repo *classroomRepository) AppendClassQuiz(_ context.Context, classID string, qz classroom.Quiz) (classroom.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classID]
	if !ok {
		return classroom.Class{}, classroom.ErrNotFound
	}
	cls.Quizzes = append(cls.Quizzes, qz)
	cls.UpdatedAt = qz.UpdatedAt
	c := *cls
	c.Quizzes = nil
	return c, nil
}

func (repo *classroomRepository) UpdateClassQuiz(_ context.Context, classID string, qz classroom.Quiz) (classroom.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classID]
	if !ok {
		return classroom.Class{}, classroom.ErrNotFound
	}
	for i := range cls.Quizzes {
		if cls.Quizzes[i].ID == qz.ID {
			cls.Quizzes[i] = qz
			cls.UpdatedAt = qz.UpdatedAt
			c := *cls
			c.Quizzes = nil
			return c, nil
		}
	}
	return classroom.Class{}, classroom.ErrQuizNotFound
}

func (repo *classroomRepository) CreateResponse(_ context.Context, res classroom.Response) (classroom.Response, error) {
	repo.resDB.Lock()
	defer repo.resDB.Unlock()

	for _, r := range repo.resDB.table {
		if r.QuizID == res.QuizID && r.StudentID == res.StudentID {
			return classroom.Response{}, classroom.ErrResponseExists
		}
	}
	res.ID = uuid.New().String()
	repo.resDB.table[res.ID] = &res
	return res, nil
}

func (repo *classroomRepository) GetResponse(_ context.Context, filter classroom.ResponseFilter) (classroom.Response, error) {
	repo.resDB.RLock()
	defer repo.resDB.RUnlock()

	for _, res := range repo.resDB.table {
		if filter.QuizID != "" && res.QuizID != filter.QuizID {
			continue
		}
		if filter.StudentID != "" && res.StudentID != filter.StudentID {
			continue
		}
		return *res, nil
	}
	return classroom.Response{}, classroom.ErrResponseNotFound
}
