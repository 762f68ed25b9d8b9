package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelmate/internal/domain/groups"
)

type groupDoc struct {
	ID           string    `bson:"_id"`
	FromLocation string    `bson:"from_location"`
	ToLocation   string    `bson:"to_location"`
	TravelDate   time.Time `bson:"travel_date"`
	BudgetMin    int       `bson:"budget_min"`
	BudgetMax    int       `bson:"budget_max"`
	TripType     string    `bson:"trip_type"`
	Description  string    `bson:"description"`
	MaxMembers   int       `bson:"max_members"`
	AdminID      string    `bson:"admin_id"`
	Members      []string  `bson:"members"`
	ImageURL     *string   `bson:"image_url,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d *groupDoc) toGroup() *groups.TravelGroup {
	members := d.Members
	if members == nil {
		members = []string{}
	}
	return &groups.TravelGroup{
		ID:           d.ID,
		FromLocation: d.FromLocation,
		ToLocation:   d.ToLocation,
		TravelDate:   d.TravelDate.UTC(),
		BudgetMin:    d.BudgetMin,
		BudgetMax:    d.BudgetMax,
		TripType:     d.TripType,
		Description:  d.Description,
		MaxMembers:   d.MaxMembers,
		AdminID:      d.AdminID,
		Members:      members,
		ImageURL:     d.ImageURL,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

type groupStore struct {
	coll *mongo.Collection
}

func (s *groupStore) Create(ctx context.Context, group *groups.TravelGroup) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	doc := groupDoc{
		ID:           group.ID,
		FromLocation: group.FromLocation,
		ToLocation:   group.ToLocation,
		TravelDate:   group.TravelDate,
		BudgetMin:    group.BudgetMin,
		BudgetMax:    group.BudgetMax,
		TripType:     group.TripType,
		Description:  group.Description,
		MaxMembers:   group.MaxMembers,
		AdminID:      group.AdminID,
		Members:      group.Members,
		ImageURL:     group.ImageURL,
		CreatedAt:    group.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (s *groupStore) GetByID(ctx context.Context, groupID string) (*groups.TravelGroup, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var doc groupDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": groupID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, groups.ErrNotFound
		}
		return nil, err
	}
	return doc.toGroup(), nil
}

func (s *groupStore) Search(ctx context.Context, filter groups.SearchFilter, limit int) ([]*groups.TravelGroup, error) {
	query := bson.M{}
	if filter.FromLocation != "" {
		query["from_location"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.FromLocation), Options: "i"}
	}
	if filter.ToLocation != "" {
		query["to_location"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.ToLocation), Options: "i"}
	}
	if filter.TravelDate != "" {
		query["$expr"] = bson.M{"$regexMatch": bson.M{
			"input": bson.M{"$dateToString": bson.M{"format": "%Y-%m-%dT%H:%M:%S", "date": "$travel_date"}},
			"regex": regexp.QuoteMeta(filter.TravelDate),
		}}
	}
	return s.find(ctx, query, limit)
}

func (s *groupStore) ListByMember(ctx context.Context, userID string, limit int) ([]*groups.TravelGroup, error) {
	return s.find(ctx, bson.M{"members": userID}, limit)
}

func (s *groupStore) find(ctx context.Context, query bson.M, limit int) ([]*groups.TravelGroup, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "travel_date", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}

	var docs []groupDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*groups.TravelGroup, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toGroup())
	}
	return out, nil
}

func (s *groupStore) AddMember(ctx context.Context, groupID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	// the capacity check rides in the update filter so it is atomic per document
	filter := bson.M{
		"_id":     groupID,
		"members": bson.M{"$ne": userID},
		"$expr":   bson.M{"$lt": bson.A{bson.M{"$size": "$members"}, "$max_members"}},
	}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{"members": userID}})
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if res.ModifiedCount == 1 {
		return nil
	}

	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HasMember(userID) {
		return nil
	}
	return groups.ErrGroupFull
}

func (s *groupStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": groupID, "admin_id": bson.M{"$ne": userID}},
		bson.M{"$pull": bson.M{"members": userID}},
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, groupID); err != nil {
			return err
		}
	}
	return nil
}

func (s *groupStore) SetImageURL(ctx context.Context, groupID, imageURL string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": groupID}, bson.M{"$set": bson.M{"image_url": imageURL}})
	if err != nil {
		return fmt.Errorf("set group image: %w", err)
	}
	if res.MatchedCount == 0 {
		return groups.ErrNotFound
	}
	return nil
}
