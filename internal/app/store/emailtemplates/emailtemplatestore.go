package emailtemplatestore

import (
	"context"
	"errors"
	"time"

	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("email_templates")}
}

var (
	// ErrDuplicateName is returned when a template with the same name already exists.
	ErrDuplicateName = errors.New("a template with this name already exists")
	errNameEmpty     = errors.New("template name is required")
)

// Create inserts a new shared template. The caller validates the template
// body (emailtmpl.ValidateTemplate) before persisting.
func (s *Store) Create(ctx context.Context, t models.EmailTemplate) (models.EmailTemplate, error) {
	t.ID = primitive.NewObjectID()
	t.Name = normalize.Name(t.Name)
	if t.Name == "" {
		return models.EmailTemplate{}, errNameEmpty
	}
	t.NameCI = text.Fold(t.Name)

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.EmailTemplate{}, ErrDuplicateName
		}
		return models.EmailTemplate{}, err
	}
	return t, nil
}

// GetByID loads a template by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmailTemplate, error) {
	var t models.EmailTemplate
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all shared templates sorted by name.
func (s *Store) List(ctx context.Context) ([]models.EmailTemplate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var templates []models.EmailTemplate
	if err := cur.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Update replaces a template's editable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, t models.EmailTemplate) error {
	name := normalize.Name(t.Name)
	if name == "" {
		return errNameEmpty
	}
	set := bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": t.Description,
		"html":        t.HTML,
		"includeCSV":  t.IncludeCSV,
		"theme":       t.Theme,
		"statistics":  t.Statistics,
		"updated_at":  time.Now(),
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a template by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
