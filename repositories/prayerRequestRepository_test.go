package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Churchly/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func TestListFilter(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	before := cutoff.Add(6 * time.Hour)

	tests := []struct {
		name     string
		opts     ListOptions
		expected bson.D
	}{
		{
			name: "all active requests",
			opts: ListOptions{},
			expected: bson.D{
				{Key: "createdAt", Value: bson.D{{Key: "$gt", Value: cutoff}}},
			},
		},
		{
			name: "scoped to one user",
			opts: ListOptions{UserID: 7},
			expected: bson.D{
				{Key: "createdAt", Value: bson.D{{Key: "$gt", Value: cutoff}}},
				{Key: "userId", Value: 7},
			},
		},
		{
			name: "cursor merges into the createdAt condition",
			opts: ListOptions{UserID: 7, Before: &before},
			expected: bson.D{
				{Key: "createdAt", Value: bson.D{{Key: "$gt", Value: cutoff}, {Key: "$lt", Value: before}}},
				{Key: "userId", Value: 7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, listFilter(cutoff, tt.opts))
		})
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, normalizeLimit(0))
	assert.Equal(t, DefaultListLimit, normalizeLimit(-3))
	assert.Equal(t, 10, normalizeLimit(10))
	assert.Equal(t, MaxListLimit, normalizeLimit(5000))
}

func TestParseID(t *testing.T) {
	oid := bson.NewObjectID()

	parsed, err := parseID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, parsed)

	_, err = parseID("not-an-object-id")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestPrayerRequestExpiry(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	request := models.PrayerRequest{CreatedAt: created}

	assert.Equal(t, created.Add(24*time.Hour), request.ExpiresAt(24*time.Hour))

	repo := &PrayerRequestRepo{ttl: 6 * time.Hour}
	repo.withExpiry(&request)
	assert.Equal(t, created.Add(6*time.Hour), request.Expiry)
}

func TestPrayerRequestIndexes(t *testing.T) {
	indexes := prayerRequestIndexes(24 * time.Hour)
	require.Len(t, indexes, 2)

	ttl := indexes[0]
	assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}}, ttl.Keys)
	require.NotNil(t, ttl.Options)

	var opts options.IndexOptions
	for _, set := range ttl.Options.List() {
		require.NoError(t, set(&opts))
	}
	require.NotNil(t, opts.Name)
	assert.Equal(t, "createdAt_ttl", *opts.Name)
	require.NotNil(t, opts.ExpireAfterSeconds)
	assert.Equal(t, int32(86400), *opts.ExpireAfterSeconds)

	assert.Equal(t, bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}, indexes[1].Keys)
	assert.Nil(t, indexes[1].Options)
}

func TestPrayerRequestIndexesFollowTTL(t *testing.T) {
	var opts options.IndexOptions
	for _, set := range prayerRequestIndexes(90 * time.Minute)[0].Options.List() {
		require.NoError(t, set(&opts))
	}
	require.NotNil(t, opts.ExpireAfterSeconds)
	assert.Equal(t, int32(5400), *opts.ExpireAfterSeconds)
}

// The tests below need a live mongo. Point MONGODB_TEST_URI at a
// disposable instance to run them.
func setupMongo(t *testing.T) *mongo.Database {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("churchly_test_" + bson.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestEnsureIndexesCreatesTTLIndex(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()

	repo := NewPrayerRequestRepo(db, 24*time.Hour)
	require.NoError(t, repo.EnsureIndexes(ctx))

	specs, err := db.Collection(PrayerRequestCollection).Indexes().ListSpecifications(ctx)
	require.NoError(t, err)

	var ttl *int32
	for _, spec := range specs {
		if spec.Name == ttlIndexName {
			ttl = spec.ExpireAfterSeconds
		}
	}
	require.NotNil(t, ttl, "expected a TTL index on createdAt")
	assert.Equal(t, int32(86400), *ttl)

	// a changed lifetime rebuilds the index instead of failing
	shorter := NewPrayerRequestRepo(db, time.Hour)
	require.NoError(t, shorter.EnsureIndexes(ctx))

	specs, err = db.Collection(PrayerRequestCollection).Indexes().ListSpecifications(ctx)
	require.NoError(t, err)
	for _, spec := range specs {
		if spec.Name == ttlIndexName {
			require.NotNil(t, spec.ExpireAfterSeconds)
			assert.Equal(t, int32(3600), *spec.ExpireAfterSeconds)
		}
	}
}

func TestPrayerRequestRepoLifecycle(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	repo := NewPrayerRequestRepo(db, 24*time.Hour)
	repo.now = func() time.Time { return now }

	request := &models.PrayerRequest{UserID: 1, UserName: "Test U.", RequestText: "Pray for my family"}
	require.NoError(t, repo.Create(ctx, request))
	assert.False(t, request.ID.IsZero())
	assert.Equal(t, now.Add(24*time.Hour), request.Expiry)

	updated, err := repo.AddResponse(ctx, request.ID.Hex(), models.PrayerResponse{Type: "praying", UserID: 2, UserName: "Admin U."})
	require.NoError(t, err)
	require.Len(t, updated.Responses, 1)
	assert.Equal(t, "praying", updated.Responses[0].Type)

	list, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// a day later the request is hidden even before the TTL monitor runs
	repo.now = func() time.Time { return now.Add(25 * time.Hour) }
	_, err = repo.Get(ctx, request.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, request.ID.Hex(), 99), ErrNotFound)
	assert.NoError(t, repo.Delete(ctx, request.ID.Hex(), 1))
}
