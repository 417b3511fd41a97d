package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"askhuman/internal/model"
)

type QuestionRepo interface {
	Create(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id string) (*model.Question, error)
	ListAnswerable(ctx context.Context, now time.Time, limit int) ([]*model.Question, error)
	AdmitResponse(ctx context.Context, id string, now time.Time) (*model.Question, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("questions"),
	}
}

func (r *questionRepo) Create(ctx context.Context, q *model.Question) error {
	_, err := r.collection.InsertOne(ctx, q)
	return err
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListAnswerable returns questions whose derived status is OPEN or PARTIAL
// (not expired, below quorum), newest first.
func (r *questionRepo) ListAnswerable(ctx context.Context, now time.Time, limit int) ([]*model.Question, error) {
	filter := bson.M{
		"expiresAt": bson.M{"$gt": now},
		"$expr":     bson.M{"$lt": bson.A{"$currentResponses", "$requiredResponses"}},
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []*model.Question
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, err
	}

	return questions, nil
}

// AdmitResponse atomically increments the response count iff the question is
// still below quorum and not expired at the write instant. Returns the updated
// question, or nil when the condition failed (quorum reached or expired).
// This conditional write is the only quorum/expiry gate; two concurrent
// submissions cannot both take the last slot.
func (r *questionRepo) AdmitResponse(ctx context.Context, id string, now time.Time) (*model.Question, error) {
	filter := bson.M{
		"_id":       id,
		"expiresAt": bson.M{"$gt": now},
		"$expr":     bson.M{"$lt": bson.A{"$currentResponses", "$requiredResponses"}},
	}
	update := bson.M{"$inc": bson.M{"currentResponses": 1}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var q model.Question
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &q, nil
}
