package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exclUsrsLen := len(excludedUsers)
	if exclUsrsLen > 1 {
		sort.Slice(excludedUsers, func(i, j int) bool { return excludedUsers[i].ID < excludedUsers[j].ID })
	}

	for _, usr := range repo.query() {
		if username != "" && usr.Username == username && !isExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email && !isExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User, exclUsrsLen int) bool {
	if exclUsrsLen == 0 {
		return false
	}
	if i := sort.Search(exclUsrsLen, func(i int) bool { return excludedUsers[i].ID >= usr.ID }); i < exclUsrsLen {
		return excludedUsers[i].ID == usr.ID
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if matchUser(usr, filter) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func matchUser(usr user.User, filter user.GetFilter) bool {
	if filter.ID != "" && usr.ID != filter.ID {
		return false
	}
	if filter.Username != "" && usr.Username != filter.Username {
		return false
	}
	if filter.Email != "" && usr.Email != filter.Email {
		return false
	}
	if filter.Role != "" && usr.Role != filter.Role {
		return false
	}
	if len(filter.UsernameOrEmail) > 0 {
		var match bool
		for _, uoe := range filter.UsernameOrEmail {
			if (usr.Username != "" && usr.Username == uoe) || (usr.Email != "" && usr.Email == uoe) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()
	if filter != nil && !filter.IsEmpty() {
		ids := append([]string(nil), filter.IDs...)
		sort.Strings(ids)
		filtered := make([]user.User, 0, len(ids))
		for _, u := range users {
			if i := sort.SearchStrings(ids, u.ID); i < len(ids) && ids[i] == u.ID {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}

func (repo *userRepository) AddUserClass(_ context.Context, userID, classID string) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.table[userID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if !usr.HasClass(classID) {
		usr.ClassIDs = append(usr.ClassIDs, classID)
	}
	return *usr, nil
}
