package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/docstore"
)

const schedulesCollection = "schedules"

func MongoIndexes() []docstore.Index {
	return []docstore.Index{
		{Collection: schedulesCollection, Models: []mongo.IndexModel{
			{Keys: bson.D{{Key: "scheduleId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("schedules_schedule_id_key")},
			{
				Keys:    bson.D{{Key: "roomId", Value: 1}, {Key: "date", Value: 1}, {Key: "startTime", Value: 1}},
				Options: options.Index().SetName("schedules_room_date"),
			},
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetName("schedules_doctor")},
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}}, Options: options.Index().SetName("schedules_date")},
		}},
	}
}

type repoMongo struct {
	schedules *mongo.Collection
}

func NewRepoMongo(database *mongo.Database) Repository {
	return &repoMongo{schedules: database.Collection(schedulesCollection)}
}

// LockRoom is a no-op; the service's keyed lock serializes room writes.
func (r *repoMongo) LockRoom(context.Context, string) error {
	return nil
}

func (r *repoMongo) CreateMany(ctx context.Context, items []*Schedule) error {
	docs := make([]interface{}, len(items))
	for i, s := range items {
		docs[i] = s
	}
	if _, err := r.schedules.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert schedules: %w", err)
	}
	return nil
}

func (r *repoMongo) Get(ctx context.Context, scheduleID string) (*Schedule, error) {
	var s Schedule
	if err := r.schedules.FindOne(ctx, bson.M{"scheduleId": scheduleID}).Decode(&s); err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &s, nil
}

func (r *repoMongo) FindConflict(ctx context.Context, roomID, date, start, end, excludeID string) (*Schedule, error) {
	filter := bson.M{
		"roomId":    roomID,
		"date":      date,
		"status":    StatusActive,
		"startTime": bson.M{"$lt": end},
		"endTime":   bson.M{"$gt": start},
	}
	if excludeID != "" {
		filter["scheduleId"] = bson.M{"$ne": excludeID}
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "startTime", Value: 1}})
	var s Schedule
	if err := r.schedules.FindOne(ctx, filter, opts).Decode(&s); err != nil {
		if docstore.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find schedule conflict: %w", err)
	}
	return &s, nil
}

func (r *repoMongo) Update(ctx context.Context, s *Schedule) error {
	set := bson.M{
		"doctorId":   s.DoctorID,
		"doctorName": s.DoctorName,
		"startTime":  s.StartTime,
		"endTime":    s.EndTime,
		"status":     s.Status,
		"notes":      s.Notes,
		"updatedAt":  s.UpdatedAt,
	}
	if s.CancelledAt != nil {
		set["cancelledAt"] = *s.CancelledAt
	}
	res, err := r.schedules.UpdateOne(ctx, bson.M{"scheduleId": s.ScheduleID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *repoMongo) Cancel(ctx context.Context, scheduleID string, at time.Time) (*Schedule, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var s Schedule
	err := r.schedules.FindOneAndUpdate(ctx,
		bson.M{"scheduleId": scheduleID, "status": StatusActive},
		bson.M{"$set": bson.M{"status": StatusCancelled, "cancelledAt": at, "updatedAt": at}},
		opts).Decode(&s)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("cancel schedule: %w", err)
	}
	return &s, nil
}

func (r *repoMongo) List(ctx context.Context, f Filter) ([]*Schedule, error) {
	filter := bson.M{}
	if f.ScheduleID != "" {
		filter["scheduleId"] = f.ScheduleID
	}
	if f.RoomID != "" {
		filter["roomId"] = f.RoomID
	}
	if f.DoctorID != "" {
		filter["doctorId"] = f.DoctorID
	}
	if f.DateFrom != "" {
		filter["date"] = bson.M{"$gte": f.DateFrom, "$lte": f.DateTo}
	} else if f.Date != "" {
		filter["date"] = f.Date
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1}, {Key: "startTime", Value: 1}, {Key: "scheduleId", Value: 1},
	})
	cur, err := r.schedules.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	var items []*Schedule
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}
	return items, nil
}
