package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kata/useradmin/internal/core/domain"
)

// offlineRepo returns a repository whose client never dials; only code paths
// that fail before any round trip may be exercised with it.
func offlineRepo(t *testing.T) *DirectoryRepository {
	t.Helper()
	client, err := mongo.Connect(context.Background(), Config{URI: "mongodb://127.0.0.1:1", Database: "test"}.clientOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return NewDirectoryRepository(client.Database("test"))
}

func TestDirectoryRepository_MalformedIDIsNotFound(t *testing.T) {
	repo := offlineRepo(t)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = repo.Update(ctx, &domain.DirectoryUser{ID: "zzz", Name: "Dave", Email: "dave@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = repo.Delete(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDirectoryDoc_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()

	u := directoryDoc{ID: oid, Name: "Carol", Email: "carol@example.com"}.toDomain()

	assert.Equal(t, &domain.DirectoryUser{ID: oid.Hex(), Name: "Carol", Email: "carol@example.com"}, u)
}

func TestConfig_ClientOptions(t *testing.T) {
	opts := Config{URI: "mongodb://db:27017", Database: "d", MaxPoolSize: 7}.clientOptions()

	require.NotNil(t, opts.AppName)
	assert.Equal(t, defaultAppName, *opts.AppName)
	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(7), *opts.MaxPoolSize)
	require.NotNil(t, opts.ServerSelectionTimeout)
	assert.Equal(t, defaultTimeout, *opts.ServerSelectionTimeout)

	custom := Config{URI: "mongodb://db:27017", AppName: "x", Timeout: time.Second}.clientOptions()
	assert.Equal(t, "x", *custom.AppName)
	assert.Equal(t, time.Second, *custom.ServerSelectionTimeout)
	assert.Nil(t, custom.MaxPoolSize)
}

func TestConnect_RequiresDatabase(t *testing.T) {
	_, _, err := Connect(context.Background(), Config{URI: "mongodb://127.0.0.1:1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database name is required")
}
