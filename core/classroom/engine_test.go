package classroom

import (
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	teacher      = Principal{ID: "t1", Role: user.RoleTeacher}
	otherTeacher = Principal{ID: "t2", Role: user.RoleTeacher}
	student      = Principal{ID: "s1", Role: user.RoleStudent}
	otherStudent = Principal{ID: "s2", Role: user.RoleStudent}

	class = Class{ID: "c1", Name: "Biology", TeacherID: teacher.ID, StudentIDs: []string{student.ID}}
)

func TestAuthorizeOwner(t *testing.T) {
	tests := []struct {
		name    string
		p       Principal
		wantErr error
	}{
		{name: "owner", p: teacher},
		{name: "other teacher", p: otherTeacher, wantErr: ErrNotOwner},
		{name: "member student", p: student, wantErr: ErrNotTeacher},
		{name: "other student", p: otherStudent, wantErr: ErrNotTeacher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := AuthorizeOwner(tt.p, class); err != tt.wantErr {
				t.Errorf("AuthorizeOwner() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthorizeMember(t *testing.T) {
	tests := []struct {
		name    string
		p       Principal
		wantErr error
	}{
		{name: "owner", p: teacher},
		{name: "member student", p: student},
		{name: "other teacher", p: otherTeacher, wantErr: ErrNotMember},
		{name: "other student", p: otherStudent, wantErr: ErrNotMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := AuthorizeMember(tt.p, class); err != tt.wantErr {
				t.Errorf("AuthorizeMember() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuizStateAt(t *testing.T) {
	start := time.Date(2021, time.March, 15, 10, 0, 0, 0, time.UTC)
	qz := Quiz{ID: "q1", StartDate: start, Duration: 30}

	tests := []struct {
		name string
		at   time.Time
		want State
	}{
		{name: "before start", at: start.Add(-time.Minute), want: StateScheduled},
		{name: "1ns before start", at: start.Add(-time.Nanosecond), want: StateScheduled},
		{name: "at start", at: start, want: StateOpen},
		{name: "mid window", at: start.Add(15 * time.Minute), want: StateOpen},
		{name: "1ns before end", at: start.Add(30*time.Minute - time.Nanosecond), want: StateOpen},
		{name: "at end", at: start.Add(30 * time.Minute), want: StateClosed},
		{name: "after end", at: start.Add(time.Hour), want: StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := qz.StateAt(tt.at); got != tt.want {
				t.Errorf("StateAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveVisibility(t *testing.T) {
	start := time.Date(2021, time.March, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	qz := Quiz{ID: "q1", StartDate: start, Duration: 30}

	tests := []struct {
		name string
		p    Principal
		at   time.Time
		want Visibility
	}{
		{name: "teacher before start", p: teacher, at: start.Add(-time.Minute), want: VisibilityFull},
		{name: "teacher mid window", p: teacher, at: start.Add(time.Minute), want: VisibilityFull},
		{name: "teacher after end", p: teacher, at: end.Add(time.Minute), want: VisibilityFull},
		{name: "student before start", p: student, at: start.Add(-time.Minute), want: VisibilityNotStarted},
		{name: "student at start", p: student, at: start, want: VisibilityFull},
		{name: "student mid window", p: student, at: start.Add(15 * time.Minute), want: VisibilityFull},
		{name: "student at end", p: student, at: end, want: VisibilityEnded},
		{name: "student after end", p: student, at: end.Add(time.Minute), want: VisibilityEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveVisibility(tt.p, qz, tt.at); got != tt.want {
				t.Errorf("ResolveVisibility() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateStartDate(t *testing.T) {
	now := time.Date(2021, time.March, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		wantErr bool
	}{
		{name: "past", start: now.Add(-time.Hour), wantErr: true},
		{name: "now", start: now, wantErr: true},
		{name: "1ns ahead", start: now.Add(time.Nanosecond)},
		{name: "future", start: now.Add(time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStartDate(tt.start, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStartDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				vErr, ok := err.(*core.ValidationError)
				if !ok {
					t.Fatalf("ValidateStartDate() error type = %T, want *core.ValidationError", err)
				}
				if len(vErr.Fields) == 0 || vErr.Fields[0].Field != "start_date" {
					t.Errorf("ValidateStartDate() fields = %v, want start_date", vErr.Fields)
				}
			}
		})
	}
}
