package mongorepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database"
)

// userDoc is the stored form of user.User. Username and Email are omitted
// when empty so the partial unique indexes do not see them.
type userDoc struct {
	ID           string    `bson:"_id,omitempty"`
	Name         string    `bson:"name,omitempty"`
	Username     string    `bson:"username,omitempty"`
	Email        string    `bson:"email,omitempty"`
	Role         user.Role `bson:"role"`
	IsActive     *bool     `bson:"is_active"`
	ClassIDs     []string  `bson:"class_ids"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
	LastLogin    time.Time `bson:"last_login"`
}

type userRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database, conf *core.Config) *userRepository {
	return &userRepository{
		col:     db.Collection(database.UserCollection),
		timeout: conf.Database.Timeout,
	}
}

func (repo userRepository) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, repo.timeout)
}

func (repo userRepository) doc(usr user.User) userDoc {
	return userDoc{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		ClassIDs:     usr.ClassIDs,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    usr.LastLogin.UTC(),
	}
}

func (repo userRepository) undoc(doc userDoc) user.User {
	return user.User{
		ID:           doc.ID,
		Name:         doc.Name,
		Username:     doc.Username,
		Email:        doc.Email,
		Role:         doc.Role,
		IsActive:     doc.IsActive,
		ClassIDs:     doc.ClassIDs,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		LastLogin:    doc.LastLogin,
	}
}

// trapNoDocsErr maps mongo's "no documents" err to user.ErrNotFound
func (repo userRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// isDupKeyErr reports whether err is a unique index violation.
func isDupKeyErr(err error) bool {
	var wErr mongo.WriteException
	if errors.As(err, &wErr) {
		for _, we := range wErr.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	return false
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		excludedIDs = append(excludedIDs, u.ID)
	}

	if username != "" {
		filter := bson.M{"username": username}
		if len(excludedIDs) > 0 {
			filter["_id"] = bson.M{"$nin": excludedIDs}
		}
		cnt, err := repo.col.CountDocuments(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
		if cnt > 0 {
			return user.ErrUsernameExists
		}
	}

	if email != "" {
		filter := bson.M{"email": email}
		if len(excludedIDs) > 0 {
			filter["_id"] = bson.M{"$nin": excludedIDs}
		}
		cnt, err := repo.col.CountDocuments(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		if cnt > 0 {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	usr.ID = uuid.New().String()
	if _, err := repo.col.InsertOne(ctx, repo.doc(usr)); err != nil {
		if isDupKeyErr(err) {
			// lost the race with a concurrent registration
			if strings.Contains(err.Error(), "email") {
				return user.User{}, user.ErrEmailExists
			}
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	q := bson.M{}
	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q["_id"] = filter.ID
	}
	if filter.Username != "" {
		q["username"] = filter.Username
	}
	if filter.Email != "" {
		q["email"] = filter.Email
	}
	if filter.Role != "" {
		q["role"] = filter.Role
	}
	if len(filter.UsernameOrEmail) > 0 {
		q["$or"] = bson.A{
			bson.M{"username": bson.M{"$in": filter.UsernameOrEmail}},
			bson.M{"email": bson.M{"$in": filter.UsernameOrEmail}},
		}
	}

	var doc userDoc
	if err := repo.col.FindOne(ctx, q).Decode(&doc); err != nil {
		return user.User{}, repo.trapNoDocsErr(err, "finding user")
	}
	return repo.undoc(doc), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	q := bson.M{}
	if filter != nil && !filter.IsEmpty() {
		q["_id"] = bson.M{"$in": filter.IDs}
	}

	cur, err := repo.col.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}

	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, repo.undoc(doc))
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	res, err := repo.col.ReplaceOne(ctx, bson.M{"_id": usr.ID}, repo.doc(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr)
}

func (repo *userRepository) AddUserClass(ctx context.Context, userID, classID string) (user.User, error) {
	ctx, cancel := repo.opCtx(ctx)
	defer cancel()

	res := repo.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"class_ids": classID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var doc userDoc
	if err := res.Decode(&doc); err != nil {
		return user.User{}, repo.trapNoDocsErr(err, "adding class to user")
	}
	return repo.undoc(doc), nil
}
