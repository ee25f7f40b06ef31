// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll reconciles every collection's indexes at startup. Each ensure
// function is idempotent, and errors are aggregated so startup reports every
// problem in one pass before failing.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureOrganizations(ctx, db); err != nil {
		problems = append(problems, "organizations: "+err.Error())
	}
	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureAdmins(ctx, db); err != nil {
		problems = append(problems, "admins: "+err.Error())
	}
	if err := ensureInvitations(ctx, db); err != nil {
		problems = append(problems, "invitations: "+err.Error())
	}
	if err := ensureEmailTemplates(ctx, db); err != nil {
		problems = append(problems, "email_templates: "+err.Error())
	}
	if err := ensureLogs(ctx, db); err != nil {
		problems = append(problems, "logs: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconciler: bring one collection's indexes to the desired set              */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

// keySig renders an index key pattern as a comparable signature,
// e.g. "organization_id:1, full_name_ci:1".
func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo and DocumentDB report IndexOptionsConflict when the same key pattern
// already exists under another name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

// listBySig loads a collection's current indexes keyed by signature. A
// listing failure yields an empty map; the caller then treats every desired
// index as missing and lets CreateOne surface the real problem.
func listBySig(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("could not decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// createIndex runs CreateOne, turning a duplicate-key failure on a unique
// index into a message that names the offending field set.
func createIndex(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, sig string, unique bool) error {
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if unique && isDuplicateKeyErr(err) {
			return fmt.Errorf("unique index blocked by duplicate values on {%s}", sig)
		}
		return err
	}
	return nil
}

// ensureIndexSet reconciles one collection toward the desired index models.
// Existing indexes are matched by key signature: a match with the same
// uniqueness is reused (recreated only to align a drifted name), a match
// with different uniqueness is dropped and rebuilt, and everything else is
// created fresh. Problems are collected so one bad index does not hide the
// rest.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	fail := func(name, format string, args ...any) {
		errs = append(errs, fmt.Sprintf("%s(%s): %s", coll.Name(), name, fmt.Sprintf(format, args...)))
	}

	for _, m := range models {
		var name string
		unique := false
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			if m.Options.Unique != nil {
				unique = *m.Options.Unique
			}
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, found := listBySig(ctx, coll)[sig]; found {
			exUnique := ex.Unique != nil && *ex.Unique

			if exUnique != unique {
				// Uniqueness changed: rebuild under the desired options.
				if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
					fail(name, "drop before rebuild failed: %v", err)
					continue
				}
				if err := createIndex(ctx, coll, m, sig, unique); err != nil {
					fail(name, "%v", err)
					continue
				}
				zap.L().Info("index rebuilt with new options",
					zap.String("collection", coll.Name()),
					zap.String("name", name),
					zap.String("keys", sig),
					zap.Bool("unique", unique),
					zap.Duration("took", time.Since(start)))
				continue
			}

			if name != "" && ex.Name != name {
				// Same keys under a drifted name: recreate to align.
				if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
					fail(name, "drop of %s for rename failed: %v", ex.Name, err)
					continue
				}
				if err := createIndex(ctx, coll, m, sig, unique); err != nil {
					fail(name, "recreate after rename failed: %v", err)
					continue
				}
				zap.L().Info("index renamed",
					zap.String("collection", coll.Name()),
					zap.String("from", ex.Name),
					zap.String("to", name),
					zap.String("keys", sig),
					zap.Duration("took", time.Since(start)))
				continue
			}

			zap.L().Info("reusing existing index",
				zap.String("collection", coll.Name()),
				zap.String("name", ex.Name),
				zap.String("keys", sig),
				zap.Bool("unique", exUnique))
			continue
		}

		err := createIndex(ctx, coll, m, sig, unique)
		if err != nil && isOptionsConflictErr(err) {
			// A twin with the same keys surfaced between the listing and
			// the create. Reconcile against a fresh listing and retry once.
			if ex, ok := listBySig(ctx, coll)[sig]; ok {
				if (ex.Unique != nil && *ex.Unique) == unique {
					zap.L().Info("reusing existing index",
						zap.String("collection", coll.Name()),
						zap.String("name", ex.Name),
						zap.String("keys", sig),
						zap.Bool("unique", unique))
					continue
				}
				if _, dropErr := coll.Indexes().DropOne(ctx, ex.Name); dropErr != nil {
					zap.L().Warn("could not drop conflicting index",
						zap.String("collection", coll.Name()),
						zap.String("name", ex.Name),
						zap.Error(dropErr))
				}
				err = createIndex(ctx, coll, m, sig, unique)
			}
		}
		if err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Bool("unique", unique),
				zap.Error(err))
			fail(name, "%v", err)
			continue
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("organizations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Enforce global uniqueness of organization names (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_nameci"),
		},

		// Name prefix search + stable sort
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_orgs_nameci__id"),
		},
		// Filter by status, then name_ci sort
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_orgs_status_nameci__id"),
		},
	})
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// 1) Email must be unique across all users (global, cross-org), so an
		//    invitation can always tell whether an address is already seated.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},

		// 2) Member lists: org-scoped, filtered by status, sorted by name with
		//    a stable tiebreak.
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_org_status_fullnameci_id"),
		},

		// 3) Seat counts per product ($elemMatch on products under an org)
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "products", Value: 1}},
			Options: options.Index().SetName("idx_users_org_products"),
		},

		// 4) Handy single-field lookup
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_users_org"),
		},
	})
}

func ensureAdmins(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("admins")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Login lookup is by normalized email; must be unique.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_admins_email"),
		},
		// Admin lists sorted by name
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_admins_fullnameci__id"),
		},
	})
}

func ensureInvitations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("invitations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Accept-by-token lookup; tokens must never collide.
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_invitations_token"),
		},
		// Pending-seat counts and per-org invitation lists
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "expires_at", Value: 1},
			},
			Options: options.Index().SetName("idx_invitations_org_expires"),
		},
		// Re-invite checks by address within an org (non-unique: a new invite
		// may follow an expired one)
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_invitations_org_email"),
		},
		// Cleanup worker scans by expiry
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_invitations_expires"),
		},
	})
}

func ensureEmailTemplates(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("email_templates")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Enforce unique template names (case-insensitive via name_ci)
		{
			Keys: bson.D{
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_templates_nameci"),
		},
		// Listing index
		{
			Keys: bson.D{
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().
				SetName("idx_templates_nameci__id"),
		},
	})
}

// Audit log reads are always latest-first, scoped to an org or a category.
func ensureLogs(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("logs")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Site-wide recent entries (latest-first)
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_logs_timestamp"),
		},
		// Per-org recent entries (latest-first)
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_logs_org_timestamp"),
		},
		// Category drill-down
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_logs_category_timestamp"),
		},
	})
}
