package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stefanh/training-provider-api/internal/database"
	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/utils"
)

// userDoc is the stored shape of a user; _id is a Mongo ObjectID and is
// converted to its hex form on the way out.
type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Roles        []string           `bson:"roles"`
	Permissions  []string           `bson:"permissions"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d userDoc) toModel() model.User {
	return model.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Roles:        d.Roles,
		Permissions:  d.Permissions,
		CreatedAt:    d.CreatedAt,
	}
}

type UserRepo struct{ col *mongo.Collection }

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection(database.UsersCollection)}
}

// Create inserts a user with a bcrypt-hashed password and returns its id.
// Uniqueness is a find-then-insert check; a racing duplicate registration
// slips through unless a unique index backs the email field.
func (r *UserRepo) Create(ctx context.Context, email, password string, roles, perms []string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Err(); err == nil {
		return "", ErrEmailExists
	} else if err != mongo.ErrNoDocuments {
		return "", err
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	if roles == nil {
		roles = []string{"user"}
	}
	if perms == nil {
		perms = []string{}
	}
	res, err := r.col.InsertOne(ctx, userDoc{
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		Permissions:  perms,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var d userDoc
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return d.toModel(), nil
}

// GetByID fetches a user by hex id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.User{}, err
	}
	var d userDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return d.toModel(), nil
}

// List returns up to limit users.
func (r *UserRepo) List(ctx context.Context, limit int64) ([]model.User, error) {
	cur, err := r.col.Find(ctx, bson.M{}, findLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	users := []model.User{}
	for cur.Next(ctx) {
		var d userDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		users = append(users, d.toModel())
	}
	return users, cur.Err()
}

// UpdatePassword replaces the stored hash for the given user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password": hash}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
