package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stefanh/training-provider-api/internal/database"
	"github.com/stefanh/training-provider-api/internal/model"
)

// RoleRepo reads the 'roles' collection.  Roles are written once at
// seed time and never mutated afterwards.
type RoleRepo struct{ col *mongo.Collection }

func NewRoleRepo(db *mongo.Database) *RoleRepo {
	return &RoleRepo{col: db.Collection(database.RolesCollection)}
}

// GetByName fetches a role by its unique name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return model.Role{}, ErrNotFound
	}
	if err != nil {
		return model.Role{}, err
	}
	return role, nil
}

// All returns every stored role.
func (r *RoleRepo) All(ctx context.Context) ([]model.Role, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var roles []model.Role
	if err := cur.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// Seed installs the fixed role set when the collection is empty.  It
// reports whether seeding happened.
func (r *RoleRepo) Seed(ctx context.Context, roles []model.Role) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	docs := make([]interface{}, 0, len(roles))
	for _, role := range roles {
		docs = append(docs, bson.M{"name": role.Name, "permissions": role.Permissions})
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		return false, err
	}
	return true, nil
}
