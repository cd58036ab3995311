package token

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/docstore"
)

const (
	tokensCollection   = "tokens"
	countersCollection = "token_counters"

	activePerPatientIndex = "tokens_one_active_per_patient"
)

// MongoIndexes lists the indexes the Mongo repository relies on. The partial
// index on patientId is what keeps one Active token per patient.
func MongoIndexes() []docstore.Index {
	return []docstore.Index{
		{Collection: tokensCollection, Models: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "tokenNumber", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("tokens_number_per_day_key"),
			},
			{
				Keys: bson.D{
					{Key: "hospitalName", Value: 1}, {Key: "department", Value: 1},
					{Key: "date", Value: 1}, {Key: "sequence", Value: 1},
				},
				Options: options.Index().SetUnique(true).SetName("tokens_scope_sequence_key"),
			},
			{
				Keys: bson.D{{Key: "patientId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(activePerPatientIndex).
					SetPartialFilterExpression(bson.M{"status": string(StatusActive)}),
			},
			{
				Keys:    bson.D{{Key: "tokenNumber", Value: 1}, {Key: "generatedAt", Value: -1}},
				Options: options.Index().SetName("tokens_number_recent"),
			},
		}},
	}
}

type repoMongo struct {
	tokens   *mongo.Collection
	counters *mongo.Collection
}

func NewRepoMongo(database *mongo.Database) Repository {
	return &repoMongo{
		tokens:   database.Collection(tokensCollection),
		counters: database.Collection(countersCollection),
	}
}

type counter struct {
	ID        string `bson:"_id"`
	LastValue int    `bson:"lastValue"`
}

func (r *repoMongo) NextSequence(ctx context.Context, scope, issueDate string) (int, error) {
	filter := bson.M{"_id": scope + "|" + issueDate}
	update := bson.M{
		"$inc":         bson.M{"lastValue": 1},
		"$setOnInsert": bson.M{"scope": scope, "date": issueDate},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var c counter
	err := r.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c)
	if docstore.IsDuplicateKey(err) {
		// Two upserts raced on a new counter; the loser now finds the document.
		err = r.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c)
	}
	if err != nil {
		return 0, fmt.Errorf("next token sequence: %w", err)
	}
	return c.LastValue, nil
}

func (r *repoMongo) Create(ctx context.Context, t *Token) error {
	if _, err := r.tokens.InsertOne(ctx, t); err != nil {
		switch {
		case docstore.DuplicateKeyOn(err, activePerPatientIndex):
			return ErrAlreadyHasToken
		case docstore.IsDuplicateKey(err):
			return errSequenceTaken
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *repoMongo) findOne(ctx context.Context, filter bson.M, missing error) (*Token, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "generatedAt", Value: -1}})
	var t Token
	if err := r.tokens.FindOne(ctx, filter, opts).Decode(&t); err != nil {
		if docstore.IsNotFound(err) {
			return nil, missing
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &t, nil
}

func (r *repoMongo) GetByNumber(ctx context.Context, number string) (*Token, error) {
	return r.findOne(ctx, bson.M{"tokenNumber": number}, ErrTokenNotFound)
}

func (r *repoMongo) GetActiveByPatient(ctx context.Context, patientID string) (*Token, error) {
	return r.findOne(ctx, bson.M{"patientId": patientID, "status": StatusActive}, ErrTokenNotFound)
}

func (r *repoMongo) transition(ctx context.Context, filter, set bson.M) (*Token, error) {
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "generatedAt", Value: -1}}).
		SetReturnDocument(options.After)
	var t Token
	if err := r.tokens.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&t); err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrTokenNotActive
		}
		return nil, fmt.Errorf("update token status: %w", err)
	}
	return &t, nil
}

func (r *repoMongo) Complete(ctx context.Context, number, doctorID string, prescriptionID *string, at time.Time) (*Token, error) {
	return r.transition(ctx,
		bson.M{"tokenNumber": number, "status": StatusActive},
		bson.M{
			"status":         StatusCompleted,
			"doctorId":       doctorID,
			"prescriptionId": prescriptionID,
			"completedAt":    at,
		})
}

func (r *repoMongo) Cancel(ctx context.Context, patientID, number string, at time.Time) (*Token, error) {
	return r.transition(ctx,
		bson.M{"tokenNumber": number, "patientId": patientID, "status": StatusActive},
		bson.M{"status": StatusCancelled, "cancelledAt": at})
}

func (r *repoMongo) List(ctx context.Context, f Filter) ([]*Token, int, error) {
	filter := bson.M{}
	if f.HospitalName != "" {
		filter["hospitalName"] = f.HospitalName
	}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.tokens.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count tokens: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{
			{Key: "date", Value: -1}, {Key: "hospitalName", Value: 1},
			{Key: "department", Value: 1}, {Key: "sequence", Value: 1},
		}).
		SetLimit(int64(f.Limit)).
		SetSkip(int64(f.Offset))
	cur, err := r.tokens.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list tokens: %w", err)
	}
	var items []*Token
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode tokens: %w", err)
	}
	return items, int(total), nil
}
