package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chapterzero/bookstore/internal/core/domain"
	"github.com/chapterzero/bookstore/internal/core/ports"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"
	userSequence       = "user_id"
	emailIndexName     = "users_email_unique"
)

// UserRepository stores users in MongoDB. Integer ids come from a counters
// document incremented atomically, so an id is never handed out twice.
type UserRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoUser struct {
	ID           int64     `bson:"_id"`
	Email        string    `bson:"email"`
	FullName     string    `bson:"full_name"`
	TaxID        string    `bson:"tax_id,omitempty"`
	PhoneNumber  string    `bson:"phone_number,omitempty"`
	PasswordHash string    `bson:"password_hash"`
	RoleID       *int      `bson:"role_id,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type counter struct {
	Seq int64 `bson:"seq"`
}

// EnsureIndexes creates the unique email index that backs the uniqueness invariant.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName(emailIndexName).SetUnique(true),
	})
	return domain.NewStoreError("mongo.EnsureIndexes", err)
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := toMongoUser(user)
	doc.ID = id
	doc.Email = domain.NormalizeEmail(doc.Email)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return nil, mapWriteError("mongo.Insert", err)
	}
	return fromMongoUser(doc), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "mongo.FindByEmail", bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "mongo.FindByID", bson.M{"_id": id})
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	set := bson.M{
		"full_name":     user.FullName,
		"tax_id":        user.TaxID,
		"phone_number":  user.PhoneNumber,
		"password_hash": user.PasswordHash,
		"role_id":       user.RoleID(),
		"updated_at":    updatedAt.UTC(),
	}

	var mu mongoUser
	err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.NewStoreError("mongo.Update", err)
	}
	return fromMongoUser(mu), nil
}

func (r *UserRepository) findOne(ctx context.Context, op string, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.NewStoreError(op, err)
	}
	return fromMongoUser(mu), nil
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var c counter
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, domain.NewStoreError("mongo.nextID", err)
	}
	return c.Seq, nil
}

// mapWriteError turns duplicate-key rejections into ErrDuplicateIdentity.
func mapWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateIdentity
	}
	return domain.NewStoreError(op, err)
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		TaxID:        u.TaxID,
		PhoneNumber:  u.PhoneNumber,
		PasswordHash: u.PasswordHash,
		RoleID:       u.RoleID(),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func fromMongoUser(mu mongoUser) *domain.User {
	u := &domain.User{
		ID:           mu.ID,
		Email:        mu.Email,
		FullName:     mu.FullName,
		TaxID:        mu.TaxID,
		PhoneNumber:  mu.PhoneNumber,
		PasswordHash: mu.PasswordHash,
		CreatedAt:    mu.CreatedAt.UTC(),
		UpdatedAt:    mu.UpdatedAt.UTC(),
	}
	if mu.RoleID != nil {
		if role, err := domain.RoleByID(*mu.RoleID); err == nil {
			u.Role = role
		}
	}
	return u
}

var _ ports.CredentialStore = (*UserRepository)(nil)
