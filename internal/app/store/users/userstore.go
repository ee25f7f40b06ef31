package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/app/system/search"
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
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "owner"|"editor"|"viewer"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errBadProduct     = errors.New(`products may only contain "notify"|"atlas"`)
	errOrgNeeded      = errors.New("user must have organization_id")
)

func validProducts(products []string) bool {
	for _, p := range products {
		switch p {
		case models.ProductNotify, models.ProductAtlas:
		default:
			return false
		}
	}
	return true
}

// Create inserts a new user after normalizing & validating fields.
// Every user belongs to exactly one organization; product seats are
// recorded on the user and counted against the org's license.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	// Normalize core fields
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	if u.Status == "" {
		u.Status = models.StatusActive
	}

	// Validate role
	switch u.Role {
	case "owner", "editor", "viewer":
		// ok
	default:
		return models.User{}, errBadRole
	}

	// Validate status
	switch u.Status {
	case models.StatusActive, models.StatusDisabled:
		// ok
	default:
		return models.User{}, errBadStatus
	}

	// Every user is scoped to an org
	if u.OrganizationID.IsZero() {
		return models.User{}, errOrgNeeded
	}

	// Validate product seats
	if !validProducts(u.Products) {
		return models.User{}, errBadProduct
	}

	// Timestamps
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	// Insert
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ListByOrganization returns all users of an organization sorted by name.
func (s *Store) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchByOrganization returns the organization's members narrowed by an
// optional prefix query and status filter. The query matches the folded
// name by default; when it is clearly an email lookup the filter and sort
// pivot to the email index instead (see search.EmailPivotOK).
func (s *Store) SearchByOrganization(ctx context.Context, orgID primitive.ObjectID, query, status string) ([]models.User, error) {
	filter := bson.M{"organization_id": orgID}
	if status != "" {
		filter["status"] = status
	}

	sortField := "full_name_ci"
	if query != "" {
		q := text.Fold(query)
		if search.EmailPivotOK(query, status, true) {
			sortField = "email"
			q = normalize.Email(query)
		}
		filter[sortField] = bson.M{"$gte": q, "$lt": q + "￿"}
	}

	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountSeats counts the users of an organization holding a seat for the
// given product. License checks add pending invitations on top of this.
func (s *Store) CountSeats(ctx context.Context, orgID primitive.ObjectID, product string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"organization_id": orgID, "products": product})
}

// MemberUpdate holds the fields that can be updated for an organization member.
type MemberUpdate struct {
	FullName string
	Email    string
	Role     string
	Status   string
	Products []string
}

// UpdateMember updates a member's fields within the given organization.
// Returns ErrDuplicateEmail if the email already exists for another user.
func (s *Store) UpdateMember(ctx context.Context, orgID, id primitive.ObjectID, upd MemberUpdate) error {
	switch upd.Role {
	case "owner", "editor", "viewer":
		// ok
	default:
		return errBadRole
	}
	switch normalize.Status(upd.Status) {
	case models.StatusActive, models.StatusDisabled:
		// ok
	default:
		return errBadStatus
	}
	if !validProducts(upd.Products) {
		return errBadProduct
	}

	set := bson.M{
		"full_name":    normalize.Name(upd.FullName),
		"full_name_ci": text.Fold(normalize.Name(upd.FullName)),
		"email":        normalize.Email(upd.Email),
		"role":         upd.Role,
		"status":       normalize.Status(upd.Status),
		"products":     upd.Products,
		"updated_at":   time.Now(),
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "organization_id": orgID}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// DeleteMember deletes a user by ID, but only within the given organization.
// Returns the number of documents deleted (0 or 1).
func (s *Store) DeleteMember(ctx context.Context, orgID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "organization_id": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByOrganization removes every user belonging to an organization.
// Used when the organization itself is deleted.
func (s *Store) DeleteByOrganization(ctx context.Context, orgID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"organization_id": orgID})
	return err
}

// EmailExists checks whether any user already holds the given address.
// Invitations have no unique index against users, so the invite and
// import flows pre-check with this before creating offers.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
