package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user     *userTable
		class    *classTable
		response *responseTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		table map[string]*classroom.Class
	}

	responseTable struct {
		sync.RWMutex
		table map[string]*classroom.Response
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		class:    &classTable{table: make(map[string]*classroom.Class)},
		response: &responseTable{table: make(map[string]*classroom.Response)},
	}
	return db, nil
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.class.Lock()
	db.class.table = make(map[string]*classroom.Class)
	db.class.Unlock()

	db.response.Lock()
	db.response.table = make(map[string]*classroom.Response)
	db.response.Unlock()
}
