// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps carries the backend handles ConnectDB opens and the rest of
// the lifecycle consumes.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when no redis_addr is configured or Redis was
	// unreachable at startup; the ArcGIS token cache then runs
	// in-process.
	Redis *redis.Client
}
