package patient

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
	patientsCollection = "patients_profile"
	bindingsCollection = "hospital_locations"

	mobileIndex     = "patients_mobile_number_key"
	nationalIDIndex = "patients_national_id_key"
)

// MongoIndexes lists the indexes the Mongo repository relies on.
func MongoIndexes() []docstore.Index {
	return []docstore.Index{
		{Collection: patientsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "patientId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("patients_patient_id_key")},
			{Keys: bson.D{{Key: "mobileNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetName(mobileIndex)},
			{Keys: bson.D{{Key: "aadhaarNumber", Value: 1}}, Options: options.Index().SetUnique(true).SetName(nationalIDIndex)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("patients_created_at")},
		}},
		{Collection: bindingsCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "patientId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("bindings_patient_id_key")},
		}},
	}
}

type repoMongo struct {
	patients *mongo.Collection
	bindings *mongo.Collection
}

func NewRepoMongo(database *mongo.Database) Repository {
	return &repoMongo{
		patients: database.Collection(patientsCollection),
		bindings: database.Collection(bindingsCollection),
	}
}

func (r *repoMongo) Create(ctx context.Context, p *Patient, b *Binding) error {
	if _, err := r.patients.InsertOne(ctx, p); err != nil {
		switch {
		case docstore.DuplicateKeyOn(err, mobileIndex):
			return ErrMobileExists
		case docstore.DuplicateKeyOn(err, nationalIDIndex):
			return ErrNationalIDExists
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	if _, err := r.bindings.InsertOne(ctx, b); err != nil {
		// No multi-document transaction: undo the patient so registration can be retried.
		_, _ = r.patients.DeleteOne(context.WithoutCancel(ctx), bson.M{"patientId": p.PatientID})
		return fmt.Errorf("insert hospital binding: %w", err)
	}
	return nil
}

func (r *repoMongo) findOne(ctx context.Context, filter bson.M) (*Patient, error) {
	var p Patient
	if err := r.patients.FindOne(ctx, filter).Decode(&p); err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (r *repoMongo) GetByID(ctx context.Context, patientID string) (*Patient, error) {
	return r.findOne(ctx, bson.M{"patientId": patientID})
}

func (r *repoMongo) GetByMobile(ctx context.Context, mobile string) (*Patient, error) {
	return r.findOne(ctx, bson.M{"mobileNumber": mobile})
}

func (r *repoMongo) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.patients.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check patient: %w", err)
	}
	return n > 0, nil
}

func (r *repoMongo) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	return r.exists(ctx, bson.M{"mobileNumber": mobile})
}

func (r *repoMongo) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(ctx, bson.M{"aadhaarNumber": nationalID})
}

func (r *repoMongo) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	total, err := r.patients.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "patientId", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cur, err := r.patients.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	var items []*Patient
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode patients: %w", err)
	}
	return items, int(total), nil
}

func (r *repoMongo) GetBinding(ctx context.Context, patientID string) (*Binding, error) {
	var b Binding
	if err := r.bindings.FindOne(ctx, bson.M{"patientId": patientID}).Decode(&b); err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrBindingNotFound
		}
		return nil, fmt.Errorf("get hospital binding: %w", err)
	}
	return &b, nil
}

func (r *repoMongo) updateBoth(ctx context.Context, patientID string, patientUpdate, bindingUpdate bson.M) error {
	filter := bson.M{"patientId": patientID}
	res, err := r.patients.UpdateOne(ctx, filter, patientUpdate)
	if err != nil {
		return fmt.Errorf("update patient token state: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrPatientNotFound
	}
	if _, err := r.bindings.UpdateOne(ctx, filter, bindingUpdate); err != nil {
		return fmt.Errorf("update binding token state: %w", err)
	}
	return nil
}

func (r *repoMongo) MarkTokenGenerated(ctx context.Context, patientID, tokenNumber string, at time.Time) error {
	set := bson.M{
		"tokenStatus":      TokenGenerated,
		"tokenNumber":      tokenNumber,
		"tokenGeneratedAt": at,
		"updatedAt":        at,
	}
	unset := bson.M{"consultationCompletedAt": ""}
	update := bson.M{"$set": set, "$unset": unset}
	return r.updateBoth(ctx, patientID, update, update)
}

func (r *repoMongo) ClearToken(ctx context.Context, patientID string, at time.Time) error {
	unset := bson.M{"tokenNumber": "", "tokenGeneratedAt": ""}
	patientUpdate := bson.M{
		"$set":   bson.M{"tokenStatus": TokenRegistered, "updatedAt": at},
		"$unset": unset,
	}
	bindingUpdate := bson.M{
		"$set":   bson.M{"updatedAt": at},
		"$unset": bson.M{"tokenNumber": "", "tokenGeneratedAt": "", "tokenStatus": ""},
	}
	return r.updateBoth(ctx, patientID, patientUpdate, bindingUpdate)
}

func (r *repoMongo) MarkConsultationCompleted(ctx context.Context, patientID string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"tokenStatus":             TokenCompleted,
		"consultationCompletedAt": at,
		"updatedAt":               at,
	}}
	return r.updateBoth(ctx, patientID, update, update)
}
