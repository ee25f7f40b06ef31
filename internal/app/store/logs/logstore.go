package logstore

import (
	"context"
	"time"

	"github.com/civicatlas/notifyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Auth actions
const (
	ActionLoginSuccess       = "login_success"
	ActionLoginFailed        = "login_failed"
	ActionLoginFailedNoAdmin = "login_failed_admin_not_found"
	ActionLoginFailedLocked  = "login_failed_admin_disabled"
	ActionLoginRateLimited   = "login_rate_limited"
	ActionLogout             = "logout"
)

// Admin actions
const (
	ActionOrgCreated           = "org_created"
	ActionOrgUpdated           = "org_updated"
	ActionOrgDeleted           = "org_deleted"
	ActionLicenseChanged       = "license_changed"
	ActionNotificationsSaved   = "notifications_saved"
	ActionNotificationTestSent = "notification_test_sent"
	ActionTemplateCreated      = "template_created"
	ActionTemplateUpdated      = "template_updated"
	ActionTemplateDeleted      = "template_deleted"
	ActionExportTemplatesSaved = "export_templates_saved"
	ActionInvitationSent       = "invitation_sent"
	ActionInvitationAccepted   = "invitation_accepted"
	ActionMemberUpdated        = "member_updated"
	ActionMemberRemoved        = "member_removed"
)

// QueryFilter defines filters for querying audit entries.
type QueryFilter struct {
	OrganizationID *primitive.ObjectID
	Category       string
	Action         string
	StartTime      *time.Time
	EndTime        *time.Time
	Limit          int64
	Offset         int64
}

// Store manages audit log records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit log Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("logs")}
}

// Append records an audit entry. ID and Timestamp are filled when unset.
func (s *Store) Append(ctx context.Context, e models.LogEntry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

func filterQuery(filter QueryFilter) bson.M {
	query := bson.M{}

	if filter.OrganizationID != nil {
		query["organization_id"] = filter.OrganizationID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit entries matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]models.LogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filterQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.LogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByFilter returns the count of entries matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filterQuery(filter))
}
