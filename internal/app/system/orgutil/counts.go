// internal/app/system/orgutil/counts.go
package orgutil

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AggregateCountByField groups documents matching the filter and counts
// them per distinct ObjectID value of groupKey. Keys with no matching
// documents are absent from the result, so callers reading the map get
// zero for them.
//
// The org list uses it to put seat counts next to each organization
// without issuing one CountDocuments per row.
func AggregateCountByField(ctx context.Context, db *mongo.Database, coll string, match bson.M, groupKey string) (map[primitive.ObjectID]int64, error) {
	cur, err := db.Collection(coll).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$" + groupKey, "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[primitive.ObjectID]int64)
	var row struct {
		ID primitive.ObjectID `bson:"_id"`
		N  int64              `bson:"n"`
	}
	for cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.ID] = row.N
	}
	return counts, cur.Err()
}
