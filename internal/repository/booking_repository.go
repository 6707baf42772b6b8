package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stefanh/training-provider-api/internal/database"
	"github.com/stefanh/training-provider-api/internal/model"
)

type bookingDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	TrainingDateID string             `bson:"training_date_id"`
	CustomerName   string             `bson:"customer_name"`
	CustomerEmail  string             `bson:"customer_email"`
	CustomerPhone  string             `bson:"customer_phone,omitempty"`
	Notes          string             `bson:"notes,omitempty"`
	Status         string             `bson:"status"`
	CreatedBy      string             `bson:"created_by"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (d bookingDoc) toModel() model.Booking {
	return model.Booking{
		ID:             d.ID.Hex(),
		TrainingDateID: d.TrainingDateID,
		CustomerName:   d.CustomerName,
		CustomerEmail:  d.CustomerEmail,
		CustomerPhone:  d.CustomerPhone,
		Notes:          d.Notes,
		Status:         d.Status,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      d.CreatedAt,
	}
}

type BookingRepo struct{ col *mongo.Collection }

func NewBookingRepo(db *mongo.Database) *BookingRepo {
	return &BookingRepo{col: db.Collection(database.BookingsCollection)}
}

// Insert persists a booking and returns its id.
func (r *BookingRepo) Insert(ctx context.Context, b model.Booking) (string, error) {
	res, err := r.col.InsertOne(ctx, bookingDoc{
		TrainingDateID: b.TrainingDateID,
		CustomerName:   b.CustomerName,
		CustomerEmail:  b.CustomerEmail,
		CustomerPhone:  b.CustomerPhone,
		Notes:          b.Notes,
		Status:         b.Status,
		CreatedBy:      b.CreatedBy,
		CreatedAt:      b.CreatedAt,
	})
	if err != nil {
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetByID fetches a booking by hex id.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.Booking{}, err
	}
	var d bookingDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	return d.toModel(), nil
}

// BookingFilter narrows Find results.  Empty fields are ignored.
type BookingFilter struct {
	ID             string
	TrainingDateID string
	CustomerEmail  string
}

// Find lists bookings matching the filter.
func (r *BookingRepo) Find(ctx context.Context, f BookingFilter, limit int64) ([]model.Booking, error) {
	filter := bson.M{}
	if f.ID != "" {
		oid, err := objectID(f.ID)
		if err != nil {
			return nil, err
		}
		filter["_id"] = oid
	}
	if f.TrainingDateID != "" {
		filter["training_date_id"] = f.TrainingDateID
	}
	if f.CustomerEmail != "" {
		filter["customer_email"] = f.CustomerEmail
	}
	cur, err := r.col.Find(ctx, filter, findLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []model.Booking{}
	for cur.Next(ctx) {
		var d bookingDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.toModel())
	}
	return out, cur.Err()
}

// ExistsForDate reports whether the customer already holds a booking
// on the given training date.  excludeID, when non-empty, leaves a
// specific booking out of the check so an update does not collide
// with itself.
func (r *BookingRepo) ExistsForDate(ctx context.Context, trainingDateID, customerEmail, excludeID string) (bool, error) {
	filter := bson.M{
		"training_date_id": trainingDateID,
		"customer_email":   customerEmail,
	}
	if excludeID != "" {
		oid, err := objectID(excludeID)
		if err != nil {
			return false, err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}
	err := r.col.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountByDate returns the number of bookings referencing a date.
func (r *BookingRepo) CountByDate(ctx context.Context, trainingDateID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"training_date_id": trainingDateID})
}

// Update applies a partial field set; ErrNotFound when nothing changed.
func (r *BookingRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a booking; ErrNotFound when zero documents matched.
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
