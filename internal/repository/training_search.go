package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stefanh/training-provider-api/internal/database"
	"github.com/stefanh/training-provider-api/internal/model"
)

// TrainingSearch answers the time-period read model: which trainings
// have at least one scheduled date inside a window.  It aggregates
// over training_dates and joins the parent trainings.
type TrainingSearch struct{ dates *mongo.Collection }

func NewTrainingSearch(db *mongo.Database) *TrainingSearch {
	return &TrainingSearch{dates: db.Collection(database.TrainingDatesCollection)}
}

// ByTimePeriod returns trainings that have a date fully inside
// [start, end], deduplicated by training id.  Dates store training_id
// as the hex string of the training's _id, so the pipeline converts
// before the $lookup.
func (s *TrainingSearch) ByTimePeriod(ctx context.Context, start, end time.Time, limit int64) ([]model.Training, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"start_date": bson.M{"$gte": start},
			"end_date":   bson.M{"$lte": end},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"training_oid": bson.M{"$toObjectId": "$training_id"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.TrainingsCollection,
			"localField":   "training_oid",
			"foreignField": "_id",
			"as":           "training",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$training",
			"preserveNullAndEmptyArrays": false,
		}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$training"}}},
		// Dedup by training id; the same training may have several
		// qualifying dates. $first keeps stable field values.
		{{Key: "$group", Value: bson.M{
			"_id":              "$_id",
			"name":             bson.M{"$first": "$name"},
			"description":      bson.M{"$first": "$description"},
			"price":            bson.M{"$first": "$price"},
			"instructor":       bson.M{"$first": "$instructor"},
			"duration_hours":   bson.M{"$first": "$duration_hours"},
			"max_participants": bson.M{"$first": "$max_participants"},
			"created_by":       bson.M{"$first": "$created_by"},
			"created_at":       bson.M{"$first": "$created_at"},
		}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cur, err := s.dates.Aggregate(ctx, pipeline)
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
