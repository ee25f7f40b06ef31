// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civicatlas/notifyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateOrganization = errors.New("an organization with this name already exists")

	// ErrStaleRevision means the notifications array changed between the
	// caller's read and this write. The caller must reload and retry.
	ErrStaleRevision = errors.New("notifications were modified by someone else")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	if org.Status == "" {
		org.Status = models.StatusActive
	}
	if org.Notifications == nil {
		org.Notifications = []models.Notification{}
	}
	org.NotificationsRev = 0
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// Update modifies an organization's mutable fields and refreshes UpdatedAt.
// Notifications and licensing have their own write paths and are never
// touched here.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, org models.Organization) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if org.Name != "" {
		set["name"] = org.Name
		set["name_ci"] = text.Fold(org.Name)
	}
	if org.City != "" {
		set["city"] = org.City
	}
	if org.State != "" {
		set["state"] = org.State
	}
	if org.Status != "" {
		set["status"] = org.Status
	}
	if org.TimeZone != "" {
		set["time_zone"] = org.TimeZone
	}
	if org.ContactInfo != "" {
		set["contact_info"] = org.ContactInfo
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateOrganization
		}
		return err
	}
	return nil
}

// Delete removes an organization by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ReplaceNotifications swaps the whole notifications array, but only when
// the stored revision still matches expectedRev. On success it returns the
// new revision. A concurrent save surfaces as ErrStaleRevision; a missing
// organization as mongo.ErrNoDocuments.
func (s *Store) ReplaceNotifications(ctx context.Context, id primitive.ObjectID, expectedRev int64, notifications []models.Notification) (int64, error) {
	if notifications == nil {
		notifications = []models.Notification{}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "notifications_rev": expectedRev},
		bson.M{
			"$set": bson.M{
				"notifications": notifications,
				"updated_at":    time.Now().UTC(),
			},
			"$inc": bson.M{"notifications_rev": 1},
		})
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing org from a concurrent save.
		err := s.c.FindOne(ctx, bson.M{"_id": id}).Err()
		if err == mongo.ErrNoDocuments {
			return 0, mongo.ErrNoDocuments
		}
		if err != nil {
			return 0, err
		}
		return 0, ErrStaleRevision
	}
	return expectedRev + 1, nil
}

// SetProductLicense writes one product's license record. The product key
// picks the field path, so only known products are accepted.
func (s *Store) SetProductLicense(ctx context.Context, id primitive.ObjectID, product string, lic models.ProductLicense) error {
	var field string
	switch product {
	case models.ProductNotify:
		field = "license.notify"
	case models.ProductAtlas:
		field = "license.atlas"
	default:
		return fmt.Errorf("unknown product %q", product)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		field:        lic,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateAtlasTemplates replaces the mapping product's export templates.
func (s *Store) UpdateAtlasTemplates(ctx context.Context, id primitive.ObjectID, templates []models.ExportTemplate) error {
	if templates == nil {
		templates = []models.ExportTemplate{}
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"atlasConfig.exportTemplates": templates,
		"updated_at":                  time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
