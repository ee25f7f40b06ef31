// internal/domain/models/emailtemplate.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailTemplate is a shared template in the email_templates collection.
// Notifications reference one by hex ID (Notification.EmailTemplateID)
// unless they carry their own CustomTemplate.
type EmailTemplate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	HTML       string              `bson:"html" json:"html"`
	IncludeCSV bool                `bson:"includeCSV" json:"includeCSV"`
	Theme      TemplateTheme       `bson:"theme" json:"theme"`
	Statistics []TemplateStatistic `bson:"statistics,omitempty" json:"statistics,omitempty"`

	CreatedBy string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AsCustomTemplate converts a shared template into the embedded form used
// for validation and preview.
func (t *EmailTemplate) AsCustomTemplate() CustomTemplate {
	return CustomTemplate{
		HTML:       t.HTML,
		IncludeCSV: t.IncludeCSV,
		Theme:      t.Theme,
		Statistics: t.Statistics,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}
