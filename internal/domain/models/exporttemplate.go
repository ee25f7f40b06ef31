// internal/domain/models/exporttemplate.go
package models

// Export template kinds. Map templates drive the map/PDF export layout;
// feature templates drive per-record exports and may point at a map
// template for their map inset.
const (
	ExportKindMap     = "map"
	ExportKindFeature = "feature"
)

// Element types that may appear on an export template page.
const (
	ElementMap        = "map"
	ElementTitle      = "title"
	ElementText       = "text"
	ElementImage      = "image"
	ElementLegend     = "legend"
	ElementScaleBar   = "scalebar"
	ElementNorthArrow = "northarrow"
	ElementDateStamp  = "datestamp"
)

// ExportTemplate is a print/export page layout stored under
// Organization.AtlasConfig. Element geometry is in percent of the page,
// clamped by exporttmpl.ClampElement so x+width and y+height never
// exceed 100.
type ExportTemplate struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	Kind string `bson:"kind" json:"kind"`

	PageSize     string  `bson:"pageSize" json:"pageSize"` // letter | tabloid | a4 | custom
	CustomWidth  float64 `bson:"customWidth,omitempty" json:"customWidth,omitempty"`
	CustomHeight float64 `bson:"customHeight,omitempty" json:"customHeight,omitempty"`

	Margins         Margins `bson:"margins" json:"margins"`
	BackgroundColor string  `bson:"backgroundColor,omitempty" json:"backgroundColor,omitempty"`

	Elements []ExportElement `bson:"elements" json:"elements"`

	// MapExportTemplateID links a feature template to the map template used
	// for its map inset. Unused on map templates.
	MapExportTemplateID string `bson:"mapExportTemplateId,omitempty" json:"mapExportTemplateId,omitempty"`
}

// ExportElement is one positioned box on an export page. Coordinates and
// sizes are percentages of the printable page, 0-100.
type ExportElement struct {
	ID      string  `bson:"id" json:"id"`
	Type    string  `bson:"type" json:"type"`
	X       float64 `bson:"x" json:"x"`
	Y       float64 `bson:"y" json:"y"`
	Width   float64 `bson:"width" json:"width"`
	Height  float64 `bson:"height" json:"height"`
	Locked  bool    `bson:"locked" json:"locked"`
	Visible bool    `bson:"visible" json:"visible"`
	Content string  `bson:"content,omitempty" json:"content,omitempty"`
}

// Margins are page margins in inches.
type Margins struct {
	Top    float64 `bson:"top" json:"top"`
	Right  float64 `bson:"right" json:"right"`
	Bottom float64 `bson:"bottom" json:"bottom"`
	Left   float64 `bson:"left" json:"left"`
}
