// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Notification schedule types.
const (
	ScheduleMonthly = "monthly"
	ScheduleWeekly  = "weekly"
	ScheduleDaily   = "daily"
	ScheduleHours   = "hours"
	ScheduleMinutes = "minutes"
)

// Access values for a notification. Public is only reachable when the
// org's notify license allows it (see notifdoc.Normalize).
const (
	AccessPublic  = "public"
	AccessPrivate = "private"
)

// Query filter modes.
const (
	QueryModeNone     = "none"
	QueryModeSimple   = "simple"
	QueryModeAdvanced = "advanced"
)

// Notification is one scheduled data pull + delivery rule, embedded in
// Organization.Notifications. Field names are the document contract.
type Notification struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`

	// Type selects the schedule family; RunDay's meaning depends on it:
	// day-of-month 1-28 (monthly), day-of-week 0-6 (weekly), or an
	// interval count (hours/minutes).
	Type            string `bson:"type" json:"type"`
	RunDay          int    `bson:"runDay,omitempty" json:"runDay,omitempty"`
	RunTime         string `bson:"runTime,omitempty" json:"runTime,omitempty"` // "HH:MM", calendar types only
	LookbackMinutes int    `bson:"lookbackMinutes,omitempty" json:"lookbackMinutes,omitempty"`
	LagDays         int    `bson:"lagDays,omitempty" json:"lagDays,omitempty"`

	Paused    bool   `bson:"paused" json:"paused"`
	SendEmpty bool   `bson:"sendEmpty" json:"sendEmpty"`
	Access    string `bson:"access,omitempty" json:"access,omitempty"`

	// IsPublic is the legacy access flag. Read once during normalization,
	// stripped on save; Access is canonical.
	IsPublic *bool `bson:"isPublic,omitempty" json:"isPublic,omitempty"`

	Source  Source  `bson:"source" json:"source"`
	Message Message `bson:"message" json:"message"`

	EmailZeroStateMessage string          `bson:"emailZeroStateMessage,omitempty" json:"emailZeroStateMessage,omitempty"`
	EmailTemplateID       string          `bson:"emailTemplateId,omitempty" json:"emailTemplateId,omitempty"`
	CustomTemplate        *CustomTemplate `bson:"customTemplate,omitempty" json:"customTemplate,omitempty"`
}

// IsIntervalType reports whether the notification runs on an interval
// (hours/minutes) rather than a calendar schedule.
func (n *Notification) IsIntervalType() bool {
	return n.Type == ScheduleHours || n.Type == ScheduleMinutes
}

// Source describes where a notification pulls records from and which
// filters apply.
type Source struct {
	Endpoint string `bson:"endpoint" json:"endpoint"`
	Username string `bson:"username,omitempty" json:"username,omitempty"`
	Password string `bson:"password,omitempty" json:"password,omitempty"`

	DisplayFields []DisplayField `bson:"displayFields" json:"displayFields"`
	QueryConfig   QueryConfig    `bson:"queryConfig" json:"queryConfig"`

	// SpatialFilter is a stringified geofence FeatureCollection (see the
	// geofence package), empty when no geofence is set. Stored as a string
	// because the document store rejects nested arrays-of-arrays.
	SpatialFilter string `bson:"spatialFilter,omitempty" json:"spatialFilter,omitempty"`
}

// Message is the email subject/intro pair.
type Message struct {
	Subject string `bson:"subject" json:"subject"`
	Intro   string `bson:"intro,omitempty" json:"intro,omitempty"`
}

// QueryConfig is the attribute filter for a notification's data pull.
// queryfilter.Compile turns it into a WHERE clause.
type QueryConfig struct {
	Mode          string      `bson:"mode" json:"mode"`
	Rules         []QueryRule `bson:"rules" json:"rules"`
	Logic         string      `bson:"logic" json:"logic"` // AND | OR
	AdvancedWhere string      `bson:"advancedWhere,omitempty" json:"advancedWhere,omitempty"`
}

// QueryRule is one simple-mode comparison.
type QueryRule struct {
	Field    string `bson:"field" json:"field"`
	Operator string `bson:"operator" json:"operator"`
	Value    string `bson:"value" json:"value"`
}

// DisplayField selects and labels one attribute in the email digest.
//
// Older documents stored display fields as bare strings; both decoders
// upgrade those to the struct form once, at the model boundary, so the
// rest of the code only ever sees the single shape.
type DisplayField struct {
	Field    string `bson:"field" json:"field"`
	Label    string `bson:"label,omitempty" json:"label,omitempty"`
	Format   string `bson:"format,omitempty" json:"format,omitempty"` // currency | percent | number | date
	Decimals *int   `bson:"decimals,omitempty" json:"decimals,omitempty"`
	Currency string `bson:"currency,omitempty" json:"currency,omitempty"`
}

type displayFieldPlain DisplayField

// UnmarshalJSON accepts either "FIELD_NAME" or the object form.
func (f *DisplayField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := jsonCodec.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = DisplayField{Field: s, Label: s}
		return nil
	}
	var p displayFieldPlain
	if err := jsonCodec.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = DisplayField(p)
	return nil
}

// UnmarshalBSONValue accepts either a BSON string or an embedded document.
func (f *DisplayField) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	if t == bsontype.String {
		var s string
		if err := rv.Unmarshal(&s); err != nil {
			return err
		}
		*f = DisplayField{Field: s, Label: s}
		return nil
	}
	var p displayFieldPlain
	if err := rv.Unmarshal(&p); err != nil {
		return err
	}
	*f = DisplayField(p)
	return nil
}

// DisplayLabel returns the label, falling back to the field name.
func (f DisplayField) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Field
}

// CustomTemplate is a per-notification HTML email template with computed
// statistics. Validated by the emailtmpl package.
type CustomTemplate struct {
	HTML       string              `bson:"html" json:"html"`
	IncludeCSV bool                `bson:"includeCSV" json:"includeCSV"`
	Theme      TemplateTheme       `bson:"theme" json:"theme"`
	Statistics []TemplateStatistic `bson:"statistics,omitempty" json:"statistics,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt  time.Time           `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// TemplateTheme carries the seven template colors, all "#RRGGBB".
type TemplateTheme struct {
	PrimaryColor    string `bson:"primaryColor" json:"primaryColor"`
	SecondaryColor  string `bson:"secondaryColor" json:"secondaryColor"`
	BackgroundColor string `bson:"backgroundColor" json:"backgroundColor"`
	TextColor       string `bson:"textColor" json:"textColor"`
	AccentColor     string `bson:"accentColor" json:"accentColor"`
	LinkColor       string `bson:"linkColor" json:"linkColor"`
	BorderColor     string `bson:"borderColor" json:"borderColor"`
}

// Colors returns the theme's color fields in a fixed order, keyed by the
// document field name, for validation and substitution.
func (t TemplateTheme) Colors() []ThemeColor {
	return []ThemeColor{
		{"primaryColor", t.PrimaryColor},
		{"secondaryColor", t.SecondaryColor},
		{"backgroundColor", t.BackgroundColor},
		{"textColor", t.TextColor},
		{"accentColor", t.AccentColor},
		{"linkColor", t.LinkColor},
		{"borderColor", t.BorderColor},
	}
}

// ThemeColor is one named theme color.
type ThemeColor struct {
	Name  string
	Value string
}

// Statistic operations and formats.
const (
	StatCount    = "count"
	StatSum      = "sum"
	StatMean     = "mean"
	StatMin      = "min"
	StatMax      = "max"
	StatMedian   = "median"
	StatDistinct = "distinct"

	FormatCurrency = "currency"
	FormatPercent  = "percent"
	FormatNumber   = "number"
	FormatAuto     = "auto"
)

// TemplateStatistic is one computed aggregate rendered into a template
// through its {{id}} placeholder.
type TemplateStatistic struct {
	ID        string `bson:"id" json:"id"`
	Field     string `bson:"field,omitempty" json:"field,omitempty"`
	Operation string `bson:"operation" json:"operation"`
	Label     string `bson:"label,omitempty" json:"label,omitempty"`
	Format    string `bson:"format,omitempty" json:"format,omitempty"`
	Decimals  *int   `bson:"decimals,omitempty" json:"decimals,omitempty"`
	Prefix    string `bson:"prefix,omitempty" json:"prefix,omitempty"`
	Suffix    string `bson:"suffix,omitempty" json:"suffix,omitempty"`
}
