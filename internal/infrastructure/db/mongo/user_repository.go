package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

const collectionUsers = "users"

// creationOrder sorts listings by creation time, ties broken by id.
var creationOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// UserRepository implements ports.UserRepository on a MongoDB collection.
// Every mutation is a single-document write, which MongoDB applies atomically.
type UserRepository struct {
	coll *mongo.Collection
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Active       bool               `bson:"active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// toDomain validates the stored role; a record with an unknown role is
// reported as a persistence failure rather than trusted.
func (mu *mongoUser) toDomain() (*domain.User, error) {
	role, err := domain.ParseRole(mu.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s has role %q", domain.ErrPersistence, mu.ID.Hex(), mu.Role)
	}
	return &domain.User{
		ID:           mu.ID.Hex(),
		Name:         mu.Name,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Role:         role,
		Active:       mu.Active,
		CreatedAt:    mu.CreatedAt.UTC(),
		UpdatedAt:    mu.UpdatedAt.UTC(),
	}, nil
}

// EnsureIndexes creates the unique email index and the role listing index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("role_created_at"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseUserID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		return nil, userErr("find user", err)
	}
	return mu.toDomain()
}

// ListByRole returns users of role in creation order.
func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role, onlyActive bool) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"role": string(role)}
	if onlyActive {
		filter["active"] = true
	}
	opts := options.Find().SetSort(creationOrder)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", domain.ErrPersistence, err)
	}
	defer cur.Close(ctx)

	users := make([]*domain.User, 0)
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("%w: decode user: %w", domain.ErrPersistence, err)
		}
		u, err := mu.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: list users: %w", domain.ErrPersistence, err)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		ID:           primitive.NewObjectID(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, userErr("insert user", err)
	}
	return doc.toDomain()
}

func (r *UserRepository) Update(ctx context.Context, id string, changes ports.UserChanges) (*domain.User, error) {
	set := bson.M{"updated_at": changes.UpdatedAt}
	if changes.Name != nil {
		set["name"] = *changes.Name
	}
	if changes.Email != nil {
		set["email"] = *changes.Email
	}
	if changes.PasswordHash != nil {
		set["password_hash"] = *changes.PasswordHash
	}
	if changes.Role != nil {
		set["role"] = string(*changes.Role)
	}
	return r.findOneAndSet(ctx, id, set)
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) (*domain.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{"active": active, "updated_at": at})
}

func (r *UserRepository) findOneAndSet(ctx context.Context, id string, set bson.M) (*domain.User, error) {
	oid, err := parseUserID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mu)
	if err != nil {
		return nil, userErr("update user", err)
	}
	return mu.toDomain()
}

// Delete removes the user document. Orders referencing the user are not
// touched.
func (r *UserRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseUserID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		return nil, userErr("delete user", err)
	}
	removed, err := mu.toDomain()
	if err != nil {
		// The document is already gone; report it as stored.
		return &domain.User{ID: mu.ID.Hex(), Name: mu.Name, Email: mu.Email, Role: domain.Role(mu.Role)}, nil
	}
	return removed, nil
}

// parseUserID accepts only the canonical lowercase hex form an id is issued
// in. ObjectIDFromHex also takes uppercase, which would let two different
// strings name the same document.
func parseUserID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil || oid.Hex() != id {
		return primitive.NilObjectID, domain.ErrUserNotFound
	}
	return oid, nil
}

// userErr maps driver errors onto domain errors. A unique-index violation on
// insert or update is the final word on email ownership.
func userErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrDuplicateEmail
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
