package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"askhuman/internal/model"
)

type ResponseRepo interface {
	Insert(ctx context.Context, resp *model.Response) error
	Remove(ctx context.Context, id string) error
	ListByQuestion(ctx context.Context, questionID string) ([]*model.Response, error)
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates the response repository and ensures the unique
// (questionId, fingerprintHash) index that backs duplicate suppression.
func NewResponseRepo(ctx context.Context, db *mongo.Database) (ResponseRepo, error) {
	collection := db.Collection("responses")

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "questionId", Value: 1},
			{Key: "fingerprintHash", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}

	return &responseRepo{collection: collection}, nil
}

// Insert stores a response. A second response from the same fingerprint for
// the same question trips the unique index regardless of arrival order.
func (r *responseRepo) Insert(ctx context.Context, resp *model.Response) error {
	_, err := r.collection.InsertOne(ctx, resp)
	if mongo.IsDuplicateKeyError(err) {
		return &model.DuplicateResponseError{QuestionID: resp.QuestionID}
	}
	return err
}

// Remove deletes a response document. Only used to back out an insert whose
// admission lost the quorum/expiry race; admitted responses are never removed.
func (r *responseRepo) Remove(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *responseRepo) ListByQuestion(ctx context.Context, questionID string) ([]*model.Response, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})

	cursor, err := r.collection.Find(ctx, bson.M{"questionId": questionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err = cursor.All(ctx, &responses); err != nil {
		return nil, err
	}

	return responses, nil
}
