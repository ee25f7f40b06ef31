// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/civicatlas/notifyhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates any missing collections and attaches their JSON-Schema
// validators. Deployments without collMod support (some DocumentDB versions)
// keep the collections and simply run without validators.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// ensure makes the collection exist, then attaches the validator when
	// one is given.
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Core collections this app uses
	ensure("organizations", orgsSchema())
	ensure("users", usersSchema())
	ensure("admins", adminsSchema())
	ensure("invitations", invitationsSchema())
	ensure("email_templates", emailTemplatesSchema())

	// The audit log takes whatever shape each category writes; we only
	// ensure the collection exists.
	ensure("logs", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists checks by listing names so the "created collection" log
// line only appears when a collection was in fact created.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes <name> exist, reporting whether this
// call created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// Listing failed or came up empty; create and treat the namespace
	// already existing (a racing boot or a prior run) as success.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// cmdErr reports whether err is a CommandError with the given code, or
// carries one of the phrases in its text. Phrase matching keeps this working
// across vendors that reword or renumber the errors.
func cmdErr(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return cmdErr(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return cmdErr(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return cmdErr(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// productEnum builds the enum for product seat fields from the canonical
// constants in the domain models.
func productEnum() bson.A {
	return bson.A{models.ProductNotify, models.ProductAtlas}
}

func orgsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "status"},
			"properties": bson.M{
				"name":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":   bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"status":    bson.M{"enum": bson.A{models.StatusActive, models.StatusDisabled}},
				"city":      bson.M{"bsonType": "string"},
				"state":     bson.M{"bsonType": "string"},
				"time_zone": bson.M{"bsonType": "string"},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "organization_id", "role"},
			"properties": bson.M{
				"full_name":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":           bson.M{"bsonType": "string", "minLength": 3},
				"organization_id": bson.M{"bsonType": "objectId"},
				"role":            bson.M{"enum": bson.A{"owner", "editor", "viewer"}},
				"status":          bson.M{"enum": bson.A{models.StatusActive, models.StatusDisabled}},
				"products": bson.M{
					"bsonType": "array",
					"items":    bson.M{"enum": productEnum()},
				},
			},
		},
	}
}

func adminsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "status"},
			"properties": bson.M{
				"full_name":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":         bson.M{"bsonType": "string", "minLength": 3},
				"password_hash": bson.M{"bsonType": "string"},
				"role":          bson.M{"enum": bson.A{models.RoleAdmin, models.RoleSuperAdmin}},
				"status":        bson.M{"enum": bson.A{models.StatusActive, models.StatusDisabled}},
			},
		},
	}
}

func invitationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "email", "token", "expires_at"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"email":           bson.M{"bsonType": "string", "minLength": 3},
				"role":            bson.M{"enum": bson.A{"owner", "editor", "viewer"}},
				"token":           bson.M{"bsonType": "string", "minLength": 16},
				"expires_at":      bson.M{"bsonType": "date"},
				"accepted_at":     bson.M{"bsonType": bson.A{"date", "null"}},
				"products": bson.M{
					"bsonType": "array",
					"items":    bson.M{"enum": productEnum()},
				},
			},
		},
	}
}

func emailTemplatesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "html"},
			"properties": bson.M{
				"name":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"html":       bson.M{"bsonType": "string"},
				"includeCSV": bson.M{"bsonType": "bool"},
			},
		},
	}
}
