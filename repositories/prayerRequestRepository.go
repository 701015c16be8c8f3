package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Churchly/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	PrayerRequestCollection = "prayer_requests"
	ttlIndexName            = "createdAt_ttl"

	DefaultListLimit = 50
	MaxListLimit     = 100
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
)

type ListOptions struct {
	UserID int
	Limit  int
	Before *time.Time
}

// PrayerRequestStore is the prayer wall persistence contract. Controllers
// depend on this so tests can substitute a mock.
type PrayerRequestStore interface {
	Create(ctx context.Context, request *models.PrayerRequest) error
	List(ctx context.Context, opts ListOptions) ([]models.PrayerRequest, error)
	Get(ctx context.Context, id string) (*models.PrayerRequest, error)
	AddResponse(ctx context.Context, id string, response models.PrayerResponse) (*models.PrayerRequest, error)
	// Delete removes a request. ownerID 0 skips the ownership check.
	Delete(ctx context.Context, id string, ownerID int) error
	CountActive(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// PrayerRequests is set in main once mongo is connected.
var PrayerRequests PrayerRequestStore

type PrayerRequestRepo struct {
	collection *mongo.Collection
	ttl        time.Duration
	now        func() time.Time
}

func NewPrayerRequestRepo(db *mongo.Database, ttl time.Duration) *PrayerRequestRepo {
	return &PrayerRequestRepo{
		collection: db.Collection(PrayerRequestCollection),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *PrayerRequestRepo) withExpiry(request *models.PrayerRequest) {
	request.Expiry = request.ExpiresAt(r.ttl)
}

// cutoff is the oldest createdAt still visible. Mongo's TTL monitor only
// sweeps about once a minute, so reads filter on it as well.
func (r *PrayerRequestRepo) cutoff() time.Time {
	return r.now().Add(-r.ttl)
}

func activeFilter(cutoff time.Time, extra bson.D) bson.D {
	filter := bson.D{{Key: "createdAt", Value: bson.D{{Key: "$gt", Value: cutoff}}}}
	return append(filter, extra...)
}

func listFilter(cutoff time.Time, opts ListOptions) bson.D {
	createdAt := bson.D{{Key: "$gt", Value: cutoff}}
	if opts.Before != nil {
		createdAt = append(createdAt, bson.E{Key: "$lt", Value: *opts.Before})
	}

	filter := bson.D{{Key: "createdAt", Value: createdAt}}
	if opts.UserID != 0 {
		filter = append(filter, bson.E{Key: "userId", Value: opts.UserID})
	}
	return filter
}

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func (r *PrayerRequestRepo) Create(ctx context.Context, request *models.PrayerRequest) error {
	now := r.now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now
	if request.Responses == nil {
		request.Responses = []models.PrayerResponse{}
	}

	result, err := r.collection.InsertOne(ctx, request)
	if err != nil {
		return fmt.Errorf("insert prayer request: %w", err)
	}
	request.ID = result.InsertedID.(bson.ObjectID)
	r.withExpiry(request)
	return nil
}

func (r *PrayerRequestRepo) List(ctx context.Context, opts ListOptions) ([]models.PrayerRequest, error) {
	filter := listFilter(r.cutoff(), opts)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(normalizeLimit(opts.Limit)))

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find prayer requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []models.PrayerRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("decode prayer requests: %w", err)
	}
	for i := range requests {
		r.withExpiry(&requests[i])
	}
	return requests, nil
}

func (r *PrayerRequestRepo) Get(ctx context.Context, id string) (*models.PrayerRequest, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var request models.PrayerRequest
	err = r.collection.FindOne(ctx, activeFilter(r.cutoff(), bson.D{{Key: "_id", Value: oid}})).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find prayer request: %w", err)
	}
	r.withExpiry(&request)
	return &request, nil
}

func (r *PrayerRequestRepo) AddResponse(ctx context.Context, id string, response models.PrayerResponse) (*models.PrayerRequest, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	if response.CreatedAt.IsZero() {
		response.CreatedAt = now
	}

	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "responses", Value: response}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.PrayerRequest
	err = r.collection.FindOneAndUpdate(ctx, activeFilter(r.cutoff(), bson.D{{Key: "_id", Value: oid}}), update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("add prayer response: %w", err)
	}
	r.withExpiry(&updated)
	return &updated, nil
}

func (r *PrayerRequestRepo) Delete(ctx context.Context, id string, ownerID int) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	filter := bson.D{{Key: "_id", Value: oid}}
	if ownerID != 0 {
		filter = append(filter, bson.E{Key: "userId", Value: ownerID})
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete prayer request: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PrayerRequestRepo) CountActive(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, activeFilter(r.cutoff(), nil))
	if err != nil {
		return 0, fmt.Errorf("count prayer requests: %w", err)
	}
	return count, nil
}

// EnsureIndexes creates the TTL index on createdAt and a userId index. A TTL
// index left behind with a different lifetime is dropped and rebuilt, since
// mongo refuses to create a same-keyed index with new options.
func (r *PrayerRequestRepo) EnsureIndexes(ctx context.Context) error {
	wantTTL := ttlSeconds(r.ttl)

	specs, err := r.collection.Indexes().ListSpecifications(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}
	for _, spec := range specs {
		if spec.Name != ttlIndexName {
			continue
		}
		if spec.ExpireAfterSeconds != nil && *spec.ExpireAfterSeconds == wantTTL {
			break
		}
		if err := r.collection.Indexes().DropOne(ctx, ttlIndexName); err != nil {
			return fmt.Errorf("drop stale ttl index: %w", err)
		}
	}

	_, err = r.collection.Indexes().CreateMany(ctx, prayerRequestIndexes(r.ttl))
	return err
}

func ttlSeconds(ttl time.Duration) int32 {
	return int32(ttl / time.Second)
}

func prayerRequestIndexes(ttl time.Duration) []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetName(ttlIndexName).SetExpireAfterSeconds(ttlSeconds(ttl)),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
}
