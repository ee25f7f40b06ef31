package invitationstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/civicatlas/notifyhub/internal/app/system/normalize"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// TokenLength is the length of the invitation token in bytes (32 bytes = 64 hex chars).
	TokenLength = 32
	// DefaultExpiry is how long an invitation stays acceptable.
	DefaultExpiry = 7 * 24 * time.Hour
)

var (
	// ErrNotFound is returned when no invitation carries the given token.
	ErrNotFound = errors.New("invitation not found")
	// ErrAlreadyAccepted is returned when the invitation was already used.
	ErrAlreadyAccepted = errors.New("invitation was already accepted")
	// ErrExpired is returned when the invitation's expiry has passed.
	ErrExpired = errors.New("invitation has expired")

	errBadRole    = errors.New(`role must be "owner"|"editor"|"viewer"`)
	errBadProduct = errors.New(`products may only contain "notify"|"atlas"`)
	errOrgNeeded  = errors.New("invitation must have organization_id")
	errEmailEmpty = errors.New("invitation email is required")
)

// Store manages pending organization invitations.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a new Store with the specified expiry duration.
// If expiry is 0 or negative, DefaultExpiry (7 days) is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("invitations"),
		expiry: expiry,
	}
}

// Expiry returns the configured invitation lifetime.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Create inserts a new invitation with a fresh token and expiry. The caller
// is responsible for seat-limit checks before calling.
func (s *Store) Create(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	inv.ID = primitive.NewObjectID()
	inv.Email = normalize.Email(inv.Email)
	inv.FullName = normalize.Name(inv.FullName)
	if inv.Email == "" {
		return models.Invitation{}, errEmailEmpty
	}
	if inv.OrganizationID.IsZero() {
		return models.Invitation{}, errOrgNeeded
	}
	switch inv.Role {
	case "owner", "editor", "viewer":
		// ok
	default:
		return models.Invitation{}, errBadRole
	}
	for _, p := range inv.Products {
		switch p {
		case models.ProductNotify, models.ProductAtlas:
		default:
			return models.Invitation{}, errBadProduct
		}
	}

	now := time.Now()
	inv.Token = generateToken()
	inv.ExpiresAt = now.Add(s.expiry)
	inv.AcceptedAt = nil
	inv.CreatedAt = now

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// GetByToken loads an invitation by token regardless of state, so the accept
// page can show the organization before the user commits.
func (s *Store) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// Accept marks an invitation accepted, exactly once. A second accept returns
// ErrAlreadyAccepted; a lapsed invitation ErrExpired.
func (s *Store) Accept(ctx context.Context, token string) (*models.Invitation, error) {
	now := time.Now()
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"token":       token,
			"accepted_at": nil,
			"expires_at":  bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"accepted_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var inv models.Invitation
	err := res.Decode(&inv)
	if err == nil {
		return &inv, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// Distinguish why the conditional update missed.
	existing, lookupErr := s.GetByToken(ctx, token)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing.AcceptedAt != nil {
		return nil, ErrAlreadyAccepted
	}
	return nil, ErrExpired
}

// ListByOrganization returns an organization's invitations, newest expiry first.
func (s *Store) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Invitation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "expires_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invs []models.Invitation
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

// CountPending counts unaccepted, unexpired invitations holding a seat for
// the product. Seat-limit checks add this to the seated-user count.
func (s *Store) CountPending(ctx context.Context, orgID primitive.ObjectID, product string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"organization_id": orgID,
		"products":        product,
		"accepted_at":     nil,
		"expires_at":      bson.M{"$gt": time.Now()},
	})
}

// DeleteByOrganization removes every invitation belonging to an organization,
// accepted or not. Used when the organization itself is deleted.
func (s *Store) DeleteByOrganization(ctx context.Context, orgID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"organization_id": orgID})
	return err
}

// DeleteExpired removes unaccepted invitations whose expiry has passed.
// Accepted invitations stay as an audit trail. Returns the number removed.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"accepted_at": nil,
		"expires_at":  bson.M{"$lt": now},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// generateToken generates a random invitation token.
// Panics if the system's cryptographic random number generator fails.
func generateToken() string {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
