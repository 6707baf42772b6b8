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

type trainingDateDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	TrainingID     string             `bson:"training_id"`
	StartDate      time.Time          `bson:"start_date"`
	EndDate        time.Time          `bson:"end_date"`
	Location       string             `bson:"location"`
	AvailableSlots int                `bson:"available_slots"`
	CreatedBy      string             `bson:"created_by"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (d trainingDateDoc) toModel() model.TrainingDate {
	return model.TrainingDate{
		ID:             d.ID.Hex(),
		TrainingID:     d.TrainingID,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		Location:       d.Location,
		AvailableSlots: d.AvailableSlots,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      d.CreatedAt,
	}
}

// TrainingDateRepo owns the capacity counter.  ReserveSlot and
// ReleaseSlot are the only writers of available_slots outside of the
// lifecycle update path.
type TrainingDateRepo struct{ col *mongo.Collection }

func NewTrainingDateRepo(db *mongo.Database) *TrainingDateRepo {
	return &TrainingDateRepo{col: db.Collection(database.TrainingDatesCollection)}
}

// Insert creates a training date.
func (r *TrainingDateRepo) Insert(ctx context.Context, d model.TrainingDate) (string, error) {
	res, err := r.col.InsertOne(ctx, trainingDateDoc{
		TrainingID:     d.TrainingID,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		Location:       d.Location,
		AvailableSlots: d.AvailableSlots,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      d.CreatedAt,
	})
	if err != nil {
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetByID fetches a training date by hex id.
func (r *TrainingDateRepo) GetByID(ctx context.Context, id string) (model.TrainingDate, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.TrainingDate{}, err
	}
	var d trainingDateDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return model.TrainingDate{}, ErrNotFound
	}
	if err != nil {
		return model.TrainingDate{}, err
	}
	return d.toModel(), nil
}

// Find lists training dates, optionally filtered by id and training id.
func (r *TrainingDateRepo) Find(ctx context.Context, id, trainingID string, limit int64) ([]model.TrainingDate, error) {
	filter := bson.M{}
	if id != "" {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		filter["_id"] = oid
	}
	if trainingID != "" {
		filter["training_id"] = trainingID
	}
	cur, err := r.col.Find(ctx, filter, findLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []model.TrainingDate{}
	for cur.Next(ctx) {
		var d trainingDateDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.toModel())
	}
	return out, cur.Err()
}

// Update applies a partial field set; ErrNotFound when nothing changed.
func (r *TrainingDateRepo) Update(ctx context.Context, id string, fields map[string]any) error {
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

// Delete removes a training date by id.
func (r *TrainingDateRepo) Delete(ctx context.Context, id string) error {
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

// CountByTraining returns the number of dates referencing a training.
func (r *TrainingDateRepo) CountByTraining(ctx context.Context, trainingID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"training_id": trainingID})
}

// ReserveSlot consumes one available slot.  The availability check and
// the decrement are a single conditional write, so two concurrent
// reservations of the last slot cannot both succeed.  Returns
// ErrNoCapacity when the counter is already zero and ErrNotFound when
// the date does not exist.
func (r *TrainingDateRepo) ReserveSlot(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "available_slots": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"available_slots": -1}})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		if exErr := r.col.FindOne(ctx, bson.M{"_id": oid}).Err(); exErr == mongo.ErrNoDocuments {
			return ErrNotFound
		} else if exErr != nil {
			return exErr
		}
		return ErrNoCapacity
	}
	return nil
}

// ReleaseSlot returns one slot to the counter after a booking is
// deleted or moved to another date.
func (r *TrainingDateRepo) ReleaseSlot(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"available_slots": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
