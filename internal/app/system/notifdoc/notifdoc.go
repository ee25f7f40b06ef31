// Package notifdoc normalizes notification documents.
//
// Stored notifications arrive in every vintage the editor ever produced:
// partial documents, legacy isPublic flags, bare-string display fields,
// schedule fields left over from a different schedule type. Normalize
// folds all of that into the one canonical shape, merging defaults and
// applying license policy as it goes.
//
// Normalization never rejects a document. Fixable structure is fixed
// (invalid id characters are stripped, stale schedule fields reset) and
// everything else becomes a field-level problem hint for the editor.
// Saving proceeds either way; the hints are advisory.
package notifdoc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/civicatlas/notifyhub/internal/app/policy/licensepolicy"
	"github.com/civicatlas/notifyhub/internal/app/system/emailtmpl"
	"github.com/civicatlas/notifyhub/internal/app/system/geofence"
	"github.com/civicatlas/notifyhub/internal/domain/models"
)

const (
	defaultRunTime         = "00:00"
	defaultLookbackMinutes = 60
	maxLagDays             = 365
	maxMonthlyRunDay       = 28
	maxWeeklyRunDay        = 6
)

var (
	invalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	runTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

var validOperators = map[string]bool{
	"=": true, "<>": true, ">": true, "<": true, ">=": true, "<=": true, "LIKE": true,
}

// Problems maps field names to editor hints. They accumulate and never
// block a save.
type Problems map[string]string

func (p Problems) add(field, msg string) {
	if prev, ok := p[field]; ok {
		p[field] = prev + " " + msg
		return
	}
	p[field] = msg
}

// Result is a normalized notification plus what normalization did to it.
type Result struct {
	Notification models.Notification

	// AccessDowngraded reports that the document asked for public access
	// but the organization's notify tier does not allow it, so access was
	// forced to private. The downgrade is silent in the document itself.
	AccessDowngraded bool

	Problems Problems
}

// New returns a notification with the editor's creation defaults.
func New(name string) models.Notification {
	return models.Notification{
		ID:      uuid.NewString(),
		Name:    name,
		Type:    models.ScheduleMonthly,
		RunDay:  1,
		RunTime: defaultRunTime,
		Access:  models.AccessPrivate,
		Source: models.Source{
			DisplayFields: []models.DisplayField{},
			QueryConfig: models.QueryConfig{
				Mode:  models.QueryModeNone,
				Rules: []models.QueryRule{},
				Logic: "AND",
			},
		},
	}
}

// Normalize folds a stored or submitted notification into canonical form
// against the owning organization's license. org may be nil (load raced a
// delete, or the caller has no org context); the fail-safe posture is then
// "private".
func Normalize(n models.Notification, org *models.Organization) Result {
	res := Result{Problems: Problems{}}

	normalizeID(&n)
	normalizeSchedule(&n, res.Problems)
	res.AccessDowngraded = normalizeAccess(&n, org)
	normalizeSource(&n, res.Problems)
	normalizeTemplate(&n, res.Problems)

	if strings.TrimSpace(n.Name) == "" {
		res.Problems.add("name", "Name is required.")
	}
	if strings.TrimSpace(n.Source.Endpoint) == "" {
		res.Problems.add("endpoint", "Data source endpoint is required.")
	}

	res.Notification = n
	return res
}

// normalizeID strips characters outside [a-zA-Z0-9_-] rather than
// rejecting them; an id emptied by stripping gets a generated one.
func normalizeID(n *models.Notification) {
	n.ID = invalidIDChars.ReplaceAllString(n.ID, "")
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
}

func normalizeSchedule(n *models.Notification, problems Problems) {
	switch n.Type {
	case models.ScheduleMonthly, models.ScheduleWeekly, models.ScheduleDaily,
		models.ScheduleHours, models.ScheduleMinutes:
	case "":
		n.Type = models.ScheduleMonthly
	default:
		problems.add("type", fmt.Sprintf("Unknown schedule type %q was reset to monthly.", n.Type))
		n.Type = models.ScheduleMonthly
	}

	if n.IsIntervalType() {
		// Interval schedules send whenever the lookback window has
		// records; empty sends and calendar fields do not apply.
		n.SendEmpty = false
		n.RunTime = ""
		n.LagDays = 0
		if n.LookbackMinutes <= 0 {
			n.LookbackMinutes = defaultLookbackMinutes
		}
		if n.RunDay < 1 {
			n.RunDay = 1
		}
		return
	}

	n.LookbackMinutes = 0
	switch {
	case n.RunTime == "":
		n.RunTime = defaultRunTime
	case !runTimePattern.MatchString(n.RunTime):
		problems.add("runTime", fmt.Sprintf("Run time %q is not HH:MM; reset to %s.", n.RunTime, defaultRunTime))
		n.RunTime = defaultRunTime
	}
	if n.LagDays < 0 {
		n.LagDays = 0
	}
	if n.LagDays > maxLagDays {
		n.LagDays = maxLagDays
	}

	switch n.Type {
	case models.ScheduleMonthly:
		if n.RunDay < 1 {
			n.RunDay = 1
		}
		if n.RunDay > maxMonthlyRunDay {
			n.RunDay = maxMonthlyRunDay
		}
	case models.ScheduleWeekly:
		if n.RunDay < 0 {
			n.RunDay = 0
		}
		if n.RunDay > maxWeeklyRunDay {
			n.RunDay = maxWeeklyRunDay
		}
	case models.ScheduleDaily:
		n.RunDay = 0
	}
}

// normalizeAccess resolves the access value, honoring the legacy isPublic
// flag once and stripping it. Public access survives only when the org's
// notify tier allows it; a missing org always means private.
func normalizeAccess(n *models.Notification, org *models.Organization) (downgraded bool) {
	wantPublic := n.Access == models.AccessPublic
	if n.Access == "" && n.IsPublic != nil && *n.IsPublic {
		wantPublic = true
	}
	n.IsPublic = nil

	if wantPublic && licensepolicy.CanHavePublic(org, models.ProductNotify) {
		n.Access = models.AccessPublic
		return false
	}
	n.Access = models.AccessPrivate
	return wantPublic
}

func normalizeSource(n *models.Notification, problems Problems) {
	src := &n.Source

	if src.DisplayFields == nil {
		src.DisplayFields = []models.DisplayField{}
	}

	qc := &src.QueryConfig
	switch qc.Mode {
	case models.QueryModeNone, models.QueryModeSimple, models.QueryModeAdvanced:
	case "":
		qc.Mode = models.QueryModeNone
	default:
		problems.add("queryConfig", fmt.Sprintf("Unknown filter mode %q was reset.", qc.Mode))
		qc.Mode = models.QueryModeNone
	}
	switch strings.ToUpper(qc.Logic) {
	case "OR":
		qc.Logic = "OR"
	default:
		qc.Logic = "AND"
	}
	if qc.Rules == nil {
		qc.Rules = []models.QueryRule{}
	}
	for i, r := range qc.Rules {
		if r.Operator != "" && !validOperators[r.Operator] {
			problems.add("queryConfig", fmt.Sprintf("Rule %d has unknown operator %q.", i+1, r.Operator))
		}
	}

	if src.SpatialFilter != "" {
		parsed, err := geofence.Deserialize(src.SpatialFilter)
		switch {
		case err != nil:
			problems.add("spatialFilter", "Spatial filter could not be read.")
		case len(parsed.Dropped) > 0:
			problems.add("spatialFilter", "Spatial filter contains an unrecognized shape.")
		}
	}
}

func normalizeTemplate(n *models.Notification, problems Problems) {
	if n.CustomTemplate == nil {
		return
	}
	if n.EmailTemplateID != "" {
		problems.add("emailTemplateId", "Both a library template and a custom template are set; the custom template is used.")
	}

	emailtmpl.FillTheme(&n.CustomTemplate.Theme)
}
