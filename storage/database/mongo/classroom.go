package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/storage/database"
)

type classDoc struct {
	ID         string    `bson:"_id,omitempty"`
	Name       string    `bson:"name"`
	TeacherID  string    `bson:"teacher_id"`
	StudentIDs []string  `bson:"student_ids"`
	Quizzes    []quizDoc `bson:"quizzes"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// quizDoc lives embedded in its class document; class_id is implied by the
// parent and restored on the way out.
type quizDoc struct {
	ID        string        `bson:"id"`
	Name      string        `bson:"name"`
	StartDate time.Time     `bson:"start_date"`
	Duration  int           `bson:"duration"`
	Questions []questionDoc `bson:"questions"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type questionDoc struct {
	ID               string      `bson:"id"`
	Text             string      `bson:"text"`
	Options          []optionDoc `bson:"options"`
	IsMultipleChoice bool        `bson:"is_multiple_choice"`
}

type optionDoc struct {
	ID        string `bson:"id"`
	Text      string `bson:"text"`
	IsCorrect bool   `bson:"is_correct"`
}

type responseDoc struct {
	ID          string      `bson:"_id,omitempty"`
	QuizID      string      `bson:"quiz_id"`
	ClassID     string      `bson:"class_id"`
	StudentID   string      `bson:"student_id"`
	Answers     []answerDoc `bson:"answers"`
	SubmittedAt time.Time   `bson:"submitted_at"`
}

type answerDoc struct {
	QuestionID string   `bson:"question_id"`
	OptionIDs  []string `bson:"option_ids"`
}

type classRepository struct {
	col     *mongo.Collection
	resCol  *mongo.Collection
	timeout time.Duration
}

var _ classroom.Repository = (*classRepository)(nil) // interface compliance check

func NewClassroomRepository(db *mongo.Database, conf *core.Config) *classRepository {
	return &classRepository{
		col:     db.Collection(database.ClassCollection),
		resCol:  db.Collection(database.ResponseCollection),
		timeout: conf.Database.Timeout,
	}
}

func (repo classRepository) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, repo.timeout)
}

func (repo classRepository) doc(cls classroom.Class) classDoc {
	quizzes := make([]quizDoc, 0, len(cls.Quizzes))
	for _, qz := range cls.Quizzes {
		quizzes = append(quizzes, repo.docQuiz(qz))
	}
	return classDoc{
		ID:         cls.ID,
		Name:       cls.Name,
		TeacherID:  cls.TeacherID,
		StudentIDs: cls.StudentIDs,
		Quizzes:    quizzes,
		CreatedAt:  cls.CreatedAt.UTC(),
		UpdatedAt:  cls.UpdatedAt.UTC(),
	}
}

func (repo classRepository) undoc(doc classDoc) classroom.Class {
	var quizzes []classroom.Quiz
	if doc.Quizzes != nil {
		quizzes = make([]classroom.Quiz, 0, len(doc.Quizzes))
		for _, qd := range doc.Quizzes {
			quizzes = append(quizzes, repo.undocQuiz(qd, doc.ID))
		}
	}
	return classroom.Class{
		ID:         doc.ID,
		Name:       doc.Name,
		TeacherID:  doc.TeacherID,
		StudentIDs: doc.StudentIDs,
		Quizzes:    quizzes,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func (repo classRepository) docQuiz(qz classroom.Quiz) quizDoc {
	questions := make([]questionDoc, 0, len(qz.Questions))
	for _, qn := range qz.Questions {
		opts := make([]optionDoc, 0, len(qn.Options))
		for _, opt := range qn.Options {
			opts = append(opts, optionDoc(opt))
		}
		questions = append(questions, questionDoc{
			ID:               qn.ID,
			Text:             qn.Text,
			Options:          opts,
			IsMultipleChoice: qn.IsMultipleChoice,
		})
	}
	return quizDoc{
		ID:        qz.ID,
		Name:      qz.Name,
		StartDate: qz.StartDate.UTC(),
		Duration:  qz.Duration,
		Questions: questions,
		CreatedAt: qz.CreatedAt.UTC(),
		UpdatedAt: qz.UpdatedAt.UTC(),
	}
}

func (repo classRepository) undocQuiz(doc quizDoc, classID string) classroom.Quiz {
	questions := make([]classroom.Question, 0, len(doc.Questions))
	for _, qd := range doc.Questions {
		opts := make([]classroom.Option, 0, len(qd.Options))
		for _, od := range qd.Options {
			opts = append(opts, classroom.Option(od))
		}
		questions = append(questions, classroom.Question{
			ID:               qd.ID,
			Text:             qd.Text,
			Options:          opts,
			IsMultipleChoice: qd.IsMultipleChoice,
		})
	}
	return classroom.Quiz{
		ID:        doc.ID,
		ClassID:   classID,
		Name:      doc.Name,
		StartDate: doc.StartDate,
		Duration:  doc.Duration,
		Questions: questions,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (repo classRepository) docResponse(res classroom.Response) responseDoc {
	answers := make([]answerDoc, 0, len(res.Answers))
	for _, ans := range res.Answers {
		answers = append(answers, answerDoc(ans))
	}
	return responseDoc{
		ID:          res.ID,
		QuizID:      res.QuizID,
		ClassID:     res.ClassID,
		StudentID:   res.StudentID,
		Answers:     answers,
		SubmittedAt: res.SubmittedAt.UTC(),
	}
}

func (repo classRepository) undocResponse(doc responseDoc) classroom.Response {
	answers := make([]classroom.Answer, 0, len(doc.Answers))
	for _, ad := range doc.Answers {
		answers = append(answers, classroom.Answer(ad))
	}
	return classroom.Response{
		ID:          doc.ID,
		QuizID:      doc.QuizID,
		ClassID:     doc.ClassID,
		StudentID:   doc.StudentID,
		Answers:     answers,
		SubmittedAt: doc.SubmittedAt,
	}
}

// trapNoDocsErr maps mongo's "no documents" err to classroom.ErrNotFound
func (repo classRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return classroom.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// noQuizzes keeps embedded quizzes out of the returned class.
func noQuizzes() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"quizzes": 0})
}

func (repo *classRepository) CreateClass(ctx context.Context, cls classroom.Class) (classroom.Class, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	cls.ID = uuid.New().String()
	if _, err := repo.col.InsertOne(ctx, repo.doc(cls)); err != nil {
		return classroom.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *classRepository) GetClass(ctx context.Context, filter classroom.GetFilter) (classroom.Class, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	if _, err := uuid.Parse(filter.ID); err != nil {
		return classroom.Class{}, classroom.ErrNotFound
	}

	var doc classDoc
	if err := repo.col.FindOne(ctx, bson.M{"_id": filter.ID}).Decode(&doc); err != nil {
		return classroom.Class{}, repo.trapNoDocsErr(err, "finding class")
	}
	return repo.undoc(doc), nil
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter *classroom.QueryFilter) ([]classroom.Class, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	q := bson.M{}
	if filter != nil && !filter.IsEmpty() {
		if filter.TeacherID != "" {
			q["teacher_id"] = filter.TeacherID
		}
		if filter.StudentID != "" {
			q["student_ids"] = filter.StudentID
		}
	}

	opts := options.Find().
		SetProjection(bson.M{"quizzes": 0}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := repo.col.Find(ctx, q, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	var docs []classDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding classes")
	}

	classes := make([]classroom.Class, 0, len(docs))
	for _, doc := range docs {
		classes = append(classes, repo.undoc(doc))
	}
	return classes, nil
}

func (repo *classRepository) AddClassStudent(ctx context.Context, classID, studentID string) (classroom.Class, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	res := repo.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": classID},
		bson.M{"$addToSet": bson.M{"student_ids": studentID}},
		noQuizzes(),
	)
	var doc classDoc
	if err := res.Decode(&doc); err != nil {
		return classroom.Class{}, repo.trapNoDocsErr(err, "adding student to class")
	}
	return repo.undoc(doc), nil
}

func (repo *classRepository) AppendClassQuiz(ctx context.Context, classID string, qz classroom.Quiz) (classroom.Class, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	res := repo.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": classID},
		bson.M{
			"$push": bson.M{"quizzes": repo.docQuiz(qz)},
			"$set":  bson.M{"updated_at": qz.UpdatedAt.UTC()},
		},
		noQuizzes(),
	)
	var doc classDoc
	if err := res.Decode(&doc); err != nil {
		return classroom.Class{}, repo.trapNoDocsErr(err, "appending quiz to class")
	}
	return repo.undoc(doc), nil
}

func (repo *classRepository) UpdateClassQuiz(ctx context.Context, classID string, qz classroom.Quiz) (classroom.Class, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	res := repo.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": classID, "quizzes.id": qz.ID},
		bson.M{
			"$set": bson.M{
				"quizzes.$":  repo.docQuiz(qz),
				"updated_at": qz.UpdatedAt.UTC(),
			},
		},
		noQuizzes(),
	)
	var doc classDoc
	if err := res.Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return classroom.Class{}, repo.quizOrClassNotFound(ctx, classID)
		}
		return classroom.Class{}, errors.Wrap(err, "updating class quiz")
	}
	return repo.undoc(doc), nil
}

// quizOrClassNotFound disambiguates a missed positional update.
func (repo *classRepository) quizOrClassNotFound(ctx context.Context, classID string) error {
	cnt, err := repo.col.CountDocuments(ctx, bson.M{"_id": classID})
	if err != nil {
		return errors.Wrap(err, "finding class")
	}
	if cnt == 0 {
		return classroom.ErrNotFound
	}
	return classroom.ErrQuizNotFound
}

func (repo *classRepository) CreateResponse(ctx context.Context, res classroom.Response) (classroom.Response, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	res.ID = uuid.New().String()
	if _, err := repo.resCol.InsertOne(ctx, repo.docResponse(res)); err != nil {
		if isDupKeyErr(err) {
			// unique (quiz_id, student_id) index
			return classroom.Response{}, classroom.ErrResponseExists
		}
		return classroom.Response{}, errors.Wrap(err, "inserting response")
	}
	return res, nil
}

func (repo *classRepository) GetResponse(ctx context.Context, filter classroom.ResponseFilter) (classroom.Response, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	q := bson.M{}
	if filter.QuizID != "" {
		q["quiz_id"] = filter.QuizID
	}
	if filter.StudentID != "" {
		q["student_id"] = filter.StudentID
	}

	var doc responseDoc
	if err := repo.resCol.FindOne(ctx, q).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return classroom.Response{}, classroom.ErrResponseNotFound
		}
		return classroom.Response{}, errors.Wrap(err, "finding response")
	}
	return repo.undocResponse(doc), nil
}
