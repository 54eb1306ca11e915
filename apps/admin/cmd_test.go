package main

import (
	"bytes"
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/dummy"
	"github.com/trezcool/darasa/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	db.Reset()
	usrRepo = dummydb.NewUserRepository(db)

	// start CLI
	return &commandLine{
		usrRepo: usrRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_addTeacher(t *testing.T) {
	cli := setup(t)

	student := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", user.RoleStudent, true)

	type extra struct {
		pwd   string
		uname string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addteacher"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"addteacher", "-username", "newprof"}, wantErr: errHelp},
		{
			name:  "teacher created",
			args:  []string{"addteacher", "-name", "New Prof", "-username", "NewProf", "-email", "PROF@test.cd"},
			extra: extra{pwd: "lol", uname: "newprof"},
		},
		{
			name:  "existing user promoted",
			args:  []string{"addteacher", "-username", "awe"},
			extra: extra{pwd: "lmao", uname: "awe"},
		},
		{
			name:  "rerun updates in place",
			args:  []string{"addteacher", "-username", "newprof", "-email", "prof@test.cd"},
			extra: extra{pwd: "mdr", uname: "newprof"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				ex := tt.extra.(extra)
				usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: ex.uname})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if usr.Role != user.RoleTeacher {
					t.Errorf("role = %v; want %v", usr.Role, user.RoleTeacher)
				}
				if usr.IsActive == nil || !*usr.IsActive {
					t.Error("account not active")
				}
				if err := usr.CheckPassword(ex.pwd); err != nil {
					t.Error("failed to set new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// the promotion reused the existing account
	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "awe"})
	if err != nil {
		t.Fatalf("GetUser() failed, %v", err)
	}
	if usr.ID != student.ID {
		t.Errorf("promoted user ID = %v; want %v", usr.ID, student.ID)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", user.RoleStudent, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_ensureIndexes(t *testing.T) {
	cli := setup(t)

	var called bool
	ensureIndexesFunc = func(ctx context.Context, db *mongo.Database) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "ensureindexes"}); err != nil {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("ensureIndexesFunc not called")
	}
}
