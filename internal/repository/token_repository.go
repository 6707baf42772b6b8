package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stefanh/training-provider-api/internal/database"
)

// TokenRepo maintains the refresh-token revocation set.  Revocation is
// append-only: a row holds the SHA-256 hash of the revoked token and
// the revocation timestamp.  Membership checks are read-only.
type TokenRepo struct{ col *mongo.Collection }

func NewTokenRepo(db *mongo.Database) *TokenRepo {
	return &TokenRepo{col: db.Collection(database.RevokedTokensCollection)}
}

// Revoke records a token hash in the revocation set.  Revoking the
// same token twice is harmless.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.col.InsertOne(ctx, bson.M{
		"token":      tokenHash,
		"revoked_at": time.Now().UTC(),
	})
	return err
}

// IsRevoked reports whether the token hash appears in the set.
func (r *TokenRepo) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	err := r.col.FindOne(ctx, bson.M{"token": tokenHash}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
