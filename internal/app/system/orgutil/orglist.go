// internal/app/system/orgutil/orglist.go
package orgutil

import (
	"context"
	"maps"

	"github.com/civicatlas/notifyhub/internal/app/policy/licensepolicy"
	"github.com/civicatlas/notifyhub/internal/app/system/paging"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// OrgRow is one organization in the console list: identity and settings
// fields plus the derived license tiers and seat usage.
type OrgRow struct {
	ID            primitive.ObjectID `json:"id"`
	Name          string             `json:"name"`
	City          string             `json:"city,omitempty"`
	State         string             `json:"state,omitempty"`
	Status        string             `json:"status"`
	TimeZone      string             `json:"time_zone,omitempty"`
	NotifyLicense string             `json:"notify_license"`
	AtlasLicense  string             `json:"atlas_license"`
	UserCount     int64              `json:"user_count"`
}

// OrgListData holds a page of organizations with pagination cursors.
type OrgListData struct {
	Rows       []OrgRow `json:"organizations"`
	Total      int64    `json:"total"`
	HasPrev    bool     `json:"has_prev"`
	HasNext    bool     `json:"has_next"`
	PrevCursor string   `json:"prev_cursor,omitempty"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// FetchOrgList returns a page of organizations with per-org user counts.
// search narrows by case-folded name prefix; after/before are keyset cursors
// from a previous page.
func FetchOrgList(
	ctx context.Context,
	db *mongo.Database,
	log *zap.Logger,
	search, after, before string,
) (OrgListData, error) {
	var result OrgListData

	// Build base filter for search
	base := bson.M{}
	if search != "" {
		q := text.Fold(search)
		hi := q + "￿"
		base["name_ci"] = bson.M{"$gte": q, "$lt": hi}
	}

	// Count total orgs matching search
	total, err := db.Collection("organizations").CountDocuments(ctx, base)
	if err != nil {
		log.Error("database error counting organizations", zap.Error(err))
		return result, err
	}
	result.Total = total

	// Build pagination filter (clone base filter, then add cursor conditions)
	filter := maps.Clone(base)
	cfg := paging.ConfigureKeyset(before, after)
	if window := cfg.KeysetWindow("name_ci"); window != nil {
		for k, v := range window {
			filter[k] = v
		}
	}

	findOpts := options.Find()
	cfg.ApplyToFind(findOpts, "name_ci")
	// The embedded notifications array can dwarf the rest of the document;
	// the list never shows it.
	findOpts.SetProjection(bson.M{"notifications": 0})

	cur, err := db.Collection("organizations").Find(ctx, filter, findOpts)
	if err != nil {
		log.Error("database error finding organizations", zap.Error(err))
		return result, err
	}
	defer cur.Close(ctx)

	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		log.Error("database error decoding organizations", zap.Error(err))
		return result, err
	}

	// Restore display order when paging backwards
	if before != "" {
		paging.Reverse(orgs)
	}

	page := paging.TrimPage(&orgs, before, after)
	result.HasPrev = page.HasPrev
	result.HasNext = page.HasNext

	// Collect org IDs for the seat count lookup
	orgIDs := make([]primitive.ObjectID, 0, len(orgs))
	for _, o := range orgs {
		orgIDs = append(orgIDs, o.ID)
	}

	counts, err := fetchOrgUserCounts(ctx, db, log, orgIDs)
	if err != nil {
		return result, err
	}

	result.Rows = make([]OrgRow, 0, len(orgs))
	for i := range orgs {
		o := &orgs[i]
		result.Rows = append(result.Rows, OrgRow{
			ID:            o.ID,
			Name:          o.Name,
			City:          o.City,
			State:         o.State,
			Status:        o.Status,
			TimeZone:      o.TimeZone,
			NotifyLicense: licensepolicy.ProductLicenseType(o, models.ProductNotify),
			AtlasLicense:  licensepolicy.ProductLicenseType(o, models.ProductAtlas),
			UserCount:     counts[o.ID],
		})
	}

	result.PrevCursor, result.NextCursor = paging.BuildCursors(result.Rows,
		func(r OrgRow) string { return text.Fold(r.Name) },
		func(r OrgRow) primitive.ObjectID { return r.ID },
	)

	return result, nil
}

// fetchOrgUserCounts fetches user counts per organization.
func fetchOrgUserCounts(
	ctx context.Context,
	db *mongo.Database,
	log *zap.Logger,
	orgIDs []primitive.ObjectID,
) (map[primitive.ObjectID]int64, error) {
	if len(orgIDs) == 0 {
		return make(map[primitive.ObjectID]int64), nil
	}

	counts, err := AggregateCountByField(ctx, db, "users", bson.M{
		"organization_id": bson.M{"$in": orgIDs},
	}, "organization_id")
	if err != nil {
		log.Error("database error aggregating user counts by org", zap.Error(err))
		return nil, err
	}
	return counts, nil
}
