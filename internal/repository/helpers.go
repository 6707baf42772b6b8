package repository

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// objectID parses a hex document id.  Malformed ids behave like a miss
// so that lookups on garbage input surface as 404 rather than 400.
func objectID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// findLimit caps a listing query.  Handlers always pass the configured
// page limit; a non-positive value leaves the query uncapped rather
// than substituting a second default here.
func findLimit(n int64) *options.FindOptions {
	opts := options.Find()
	if n > 0 {
		opts.SetLimit(n)
	}
	return opts
}
