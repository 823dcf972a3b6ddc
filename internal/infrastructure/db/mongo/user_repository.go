package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
)

// UserRepository implements ports.UserRepository using MongoDB. Numeric ids are
// allocated from the counters collection.
type UserRepository struct {
	users    *mongo.Collection
	sessions *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:    db.Collection(collectionUsers),
		sessions: db.Collection(collectionSessions),
		counters: db.Collection(collectionCounters),
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)

type userDocument struct {
	ID             int64  `bson:"_id"`
	Email          string `bson:"email"`
	Username       string `bson:"username"`
	PasswordHash   string `bson:"hashed_password"`
	Role           string `bson:"user_role"`
	IsActive       bool   `bson:"is_active"`
	IsVerified     bool   `bson:"is_verified"`
	IsSuperuser    bool   `bson:"is_superuser"`
	CreatedAt      int64  `bson:"created_at"`
	Fullname       string `bson:"fullname"`
	Phone          string `bson:"notelp,omitempty"`
	NRP            string `bson:"nrp,omitempty"`
	Institution    string `bson:"institution,omitempty"`
	Biography      string `bson:"biografi,omitempty"`
	ProfilePicture string `bson:"profile_picture,omitempty"`
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		PasswordHash:   u.PasswordHash,
		Role:           string(u.Role),
		IsActive:       u.IsActive,
		IsVerified:     u.IsVerified,
		IsSuperuser:    u.IsSuperuser,
		CreatedAt:      u.CreatedAt.Unix(),
		Fullname:       u.Fullname,
		Phone:          u.Phone,
		NRP:            u.NRP,
		Institution:    u.Institution,
		Biography:      u.Biography,
		ProfilePicture: u.ProfilePicture,
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID,
		Email:          d.Email,
		Username:       d.Username,
		PasswordHash:   d.PasswordHash,
		Role:           domain.Role(d.Role),
		IsActive:       d.IsActive,
		IsVerified:     d.IsVerified,
		IsSuperuser:    d.IsSuperuser,
		CreatedAt:      unixToTime(d.CreatedAt),
		Fullname:       d.Fullname,
		Phone:          d.Phone,
		NRP:            d.NRP,
		Institution:    d.Institution,
		Biography:      d.Biography,
		ProfilePicture: d.ProfilePicture,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := newUserDocument(user)
	doc.ID = id
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return nil, translateWriteError(err, "insert user")
	}
	return doc.toDomain(), nil
}

// nextID bumps the users sequence. A burned id on a failed insert is harmless.
func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": collectionUsers},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate user id: %w", err)
	}
	return counter.Seq, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Update replaces the stored document; fields cleared on user disappear.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := newUserDocument(user)
	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, doc)
	if err != nil {
		return nil, translateWriteError(err, "update user")
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_active": active}})
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the user and their login history.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	if _, err := r.sessions.DeleteMany(ctx, bson.M{"user_id": id}); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, f ports.UserListFilter) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Role != nil {
		filter["user_role"] = string(*f.Role)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(f.Skip))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// translateWriteError maps a unique index violation to the field it guards.
func translateWriteError(err error, op string) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexUsersEmail):
		return &domain.AlreadyExistsError{Field: "email"}
	case strings.Contains(msg, indexUsersUsername):
		return &domain.AlreadyExistsError{Field: "username"}
	case strings.Contains(msg, indexUsersNRP):
		return &domain.AlreadyExistsError{Field: "nrp"}
	}
	return domain.ErrStorageConflict
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
