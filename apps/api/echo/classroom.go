package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

var (
	msgStudentAdded      = "student added"
	msgClassJoined       = "class joined"
	msgAlreadyInClass    = "student already in class"
	msgResponseSubmitted = "response submitted"
)

type classroomApi struct {
	svc      classroom.Service
	validate *validator.Validate
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classroomApi{
		svc:      deps.ClassroomSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/classes", jwt, principalMiddleware())

	cg.GET("", api.list)
	cg.POST("/create", api.create)
	cg.POST("/join", api.join)

	// detail endpoints
	dg := cg.Group("/:classId")
	dg.POST("/add-student", api.addStudent)
	dg.GET("/students", api.listStudents)
	dg.POST("/quizzes", api.createQuiz)
	dg.GET("/quizzes", api.listQuizzes)
	dg.GET("/quizzes/:quizId", api.retrieveQuiz)
	dg.PATCH("/quizzes/:quizId", api.updateQuiz)
	dg.POST("/quizzes/:quizId/responses", api.submitResponse)
}

// trapErr maps domain errors to their HTTP counterparts; anything else is
// wrapped and left to the error handler.
func trapErr(err error, msg string) error {
	switch cause := errors.Cause(err); cause {
	case classroom.ErrNotFound, classroom.ErrQuizNotFound, user.ErrNotFound:
		return errHttpNotFound
	case classroom.ErrNotTeacher, classroom.ErrNotStudent, classroom.ErrNotOwner, classroom.ErrNotMember:
		return echo.NewHTTPError(http.StatusForbidden, cause.Error())
	}
	return errors.Wrap(err, msg)
}

// Handlers

func (api *classroomApi) list(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	classes, err := api.svc.ListClasses(ctx.Request().Context(), p)
	if err != nil {
		return trapErr(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, ClassListResponse{Classes: classes})
}

func (api *classroomApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	var data classroom.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(ctx.Request().Context(), p, data)
	if err != nil {
		return trapErr(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, ClassResponse{Class: cls})
}

func (api *classroomApi) join(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	var data JoinClassRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinClassRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cls, added, err := api.svc.JoinClass(ctx.Request().Context(), p, data.ClassID)
	if err != nil {
		return trapErr(err, "joining class")
	}

	msg := msgClassJoined
	if !added {
		msg = msgAlreadyInClass
	}
	return ctx.JSON(http.StatusOK, MembershipResponse{Message: msg, Class: cls})
}

func (api *classroomApi) addStudent(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	var data AddStudentRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudentRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cls, added, err := api.svc.AddStudent(ctx.Request().Context(), p, ctx.Param("classId"), data.StudentID)
	if err != nil {
		return trapErr(err, "adding student")
	}

	msg := msgStudentAdded
	if !added {
		msg = msgAlreadyInClass
	}
	return ctx.JSON(http.StatusOK, MembershipResponse{Message: msg, Class: cls})
}

func (api *classroomApi) listStudents(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	students, err := api.svc.ListStudents(ctx.Request().Context(), p, ctx.Param("classId"))
	if err != nil {
		return trapErr(err, "listing students")
	}

	infos := make([]StudentInfo, 0, len(students))
	for _, s := range students {
		infos = append(infos, StudentInfo{ID: s.ID, Name: s.Name, Username: s.Username})
	}
	return ctx.JSON(http.StatusOK, StudentListResponse{Students: infos})
}

func (api *classroomApi) createQuiz(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	var data classroom.NewQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	qz, err := api.svc.CreateQuiz(ctx.Request().Context(), p, ctx.Param("classId"), data)
	if err != nil {
		return trapErr(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, QuizResponse{Quiz: qz})
}

func (api *classroomApi) updateQuiz(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	var data classroom.UpdateQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	qz, err := api.svc.UpdateQuiz(ctx.Request().Context(), p, ctx.Param("classId"), ctx.Param("quizId"), data)
	if err != nil {
		return trapErr(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, QuizResponse{Quiz: qz})
}

func (api *classroomApi) retrieveQuiz(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	qz, vis, err := api.svc.GetQuiz(ctx.Request().Context(), p, ctx.Param("classId"), ctx.Param("quizId"))
	if err != nil {
		return trapErr(err, "retrieving quiz")
	}

	switch vis {
	case classroom.VisibilityNotStarted:
		return ctx.JSON(http.StatusOK, QuizStatusResponse{
			Message:   classroom.ErrQuizNotStarted.Error(),
			StartDate: &qz.StartDate,
		})
	case classroom.VisibilityEnded:
		return ctx.JSON(http.StatusOK, QuizStatusResponse{Message: classroom.ErrQuizEnded.Error()})
	}

	if p.IsStudent() {
		return ctx.JSON(http.StatusOK, StudentQuizResponse{Quiz: qz.ForStudent()})
	}
	return ctx.JSON(http.StatusOK, QuizResponse{Quiz: qz})
}

func (api *classroomApi) listQuizzes(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	summaries, err := api.svc.ListQuizzes(ctx.Request().Context(), p, ctx.Param("classId"))
	if err != nil {
		return trapErr(err, "listing quizzes")
	}
	return ctx.JSON(http.StatusOK, QuizListResponse{Quizzes: summaries})
}

func (api *classroomApi) submitResponse(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	var data classroom.NewResponse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResponse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	// responses are write-only: acknowledge, never echo the answers back
	if _, err = api.svc.SubmitResponse(ctx.Request().Context(), p, ctx.Param("classId"), ctx.Param("quizId"), data); err != nil {
		return trapErr(err, "submitting response")
	}
	return ctx.JSON(http.StatusCreated, MessageResponse{Message: msgResponseSubmitted})
}

type (
	JoinClassRequest struct {
		ClassID string `json:"class_id" validate:"required"`
	}

	AddStudentRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}

	ClassResponse struct {
		Class classroom.Class `json:"class"`
	}

	ClassListResponse struct {
		Classes []classroom.Class `json:"classes"`
	}

	MembershipResponse struct {
		Message string          `json:"message"`
		Class   classroom.Class `json:"class"`
	}

	StudentInfo struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	}

	StudentListResponse struct {
		Students []StudentInfo `json:"students"`
	}

	QuizResponse struct {
		Quiz classroom.Quiz `json:"quiz"`
	}

	StudentQuizResponse struct {
		Quiz classroom.StudentQuiz `json:"quiz"`
	}

	QuizListResponse struct {
		Quizzes []classroom.QuizSummary `json:"quizzes"`
	}

	QuizStatusResponse struct {
		Message   string     `json:"message"`
		StartDate *time.Time `json:"start_date,omitempty"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)

func (jr *JoinClassRequest) Validate(validate *validator.Validate) error {
	jr.ClassID = core.CleanString(jr.ClassID)
	return validate.Struct(jr)
}

func (ar *AddStudentRequest) Validate(validate *validator.Validate) error {
	ar.StudentID = core.CleanString(ar.StudentID)
	return validate.Struct(ar)
}
