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

type trainingDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Description     string             `bson:"description"`
	Price           float64            `bson:"price"`
	Instructor      string             `bson:"instructor"`
	DurationHours   float64            `bson:"duration_hours"`
	MaxParticipants int                `bson:"max_participants"`
	CreatedBy       string             `bson:"created_by"`
	CreatedAt       time.Time          `bson:"created_at"`
}

func (d trainingDoc) toModel() model.Training {
	return model.Training{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Description:     d.Description,
		Price:           d.Price,
		Instructor:      d.Instructor,
		DurationHours:   d.DurationHours,
		MaxParticipants: d.MaxParticipants,
		CreatedBy:       d.CreatedBy,
		CreatedAt:       d.CreatedAt,
	}
}

type TrainingRepo struct{ col *mongo.Collection }

func NewTrainingRepo(db *mongo.Database) *TrainingRepo {
	return &TrainingRepo{col: db.Collection(database.TrainingsCollection)}
}

// Insert creates a training after checking name uniqueness.
func (r *TrainingRepo) Insert(ctx context.Context, t model.Training) (string, error) {
	if err := r.col.FindOne(ctx, bson.M{"name": t.Name}).Err(); err == nil {
		return "", ErrNameExists
	} else if err != mongo.ErrNoDocuments {
		return "", err
	}
	res, err := r.col.InsertOne(ctx, trainingDoc{
		Name:            t.Name,
		Description:     t.Description,
		Price:           t.Price,
		Instructor:      t.Instructor,
		DurationHours:   t.DurationHours,
		MaxParticipants: t.MaxParticipants,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	})
	if err != nil {
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetByID fetches a training by hex id.
func (r *TrainingRepo) GetByID(ctx context.Context, id string) (model.Training, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.Training{}, err
	}
	var d trainingDoc
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return model.Training{}, ErrNotFound
	}
	if err != nil {
		return model.Training{}, err
	}
	return d.toModel(), nil
}

// Find lists trainings, optionally filtered by id.
func (r *TrainingRepo) Find(ctx context.Context, id string, limit int64) ([]model.Training, error) {
	filter := bson.M{}
	if id != "" {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		filter["_id"] = oid
	}
	cur, err := r.col.Find(ctx, filter, findLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []model.Training{}
	for cur.Next(ctx) {
		var d trainingDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.toModel())
	}
	return out, cur.Err()
}

// Update applies a partial field set.  A write that modifies nothing,
// either because the document is gone or because nothing changed,
// reports ErrNotFound to match the API's observable behavior.
func (r *TrainingRepo) Update(ctx context.Context, id string, fields map[string]any) error {
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

// Delete removes a training by id.
func (r *TrainingRepo) Delete(ctx context.Context, id string) error {
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
