// Package exporttmpl validates map and feature export templates and keeps
// their element geometry inside the page.
//
// Element positions are percentages of the printable page, so every layout
// rule reduces to keeping x+width and y+height at or under 100. Problems
// are field-level hints for the editor, not errors that block saving.
package exporttmpl

import (
	"strings"

	"github.com/google/uuid"

	"github.com/civicatlas/notifyhub/internal/app/system/emailtmpl"
	"github.com/civicatlas/notifyhub/internal/domain/models"
)

// Page size names. Custom sizes carry their own dimensions.
const (
	PageLetter  = "letter"
	PageLegal   = "legal"
	PageTabloid = "tabloid"
	PageA4      = "a4"
	PageA3      = "a3"
	PageCustom  = "custom"
)

// pageDims maps a page size to width and height in inches, portrait.
var pageDims = map[string][2]float64{
	PageLetter:  {8.5, 11},
	PageLegal:   {8.5, 14},
	PageTabloid: {11, 17},
	PageA4:      {8.27, 11.69},
	PageA3:      {11.69, 16.54},
}

// Problems maps field names to editor hints. An empty map means valid.
type Problems map[string]string

func (p Problems) add(field, msg string) {
	if prev, ok := p[field]; ok {
		p[field] = prev + " " + msg
		return
	}
	p[field] = msg
}

var validElementTypes = map[string]bool{
	models.ElementMap:        true,
	models.ElementTitle:      true,
	models.ElementText:       true,
	models.ElementImage:      true,
	models.ElementLegend:     true,
	models.ElementScaleBar:   true,
	models.ElementNorthArrow: true,
	models.ElementDateStamp:  true,
}

// PageDims returns the page dimensions in inches. ok is false when the
// size name is unknown or a custom size is missing its dimensions.
func PageDims(t models.ExportTemplate) (w, h float64, ok bool) {
	if t.PageSize == PageCustom {
		if t.CustomWidth > 0 && t.CustomHeight > 0 {
			return t.CustomWidth, t.CustomHeight, true
		}
		return 0, 0, false
	}
	d, found := pageDims[t.PageSize]
	if !found {
		return 0, 0, false
	}
	return d[0], d[1], true
}

// ClampElement forces an element's geometry onto the page: x and y into
// [0,100], width and height non-negative, then shrunk so x+width and
// y+height stay at or under 100. An element at x 95 with width 20 comes
// back with width 5.
func ClampElement(e models.ExportElement) models.ExportElement {
	e.X = clampPct(e.X)
	e.Y = clampPct(e.Y)
	if e.Width < 0 {
		e.Width = 0
	}
	if e.Height < 0 {
		e.Height = 0
	}
	if e.X+e.Width > 100 {
		e.Width = 100 - e.X
	}
	if e.Y+e.Height > 100 {
		e.Height = 100 - e.Y
	}
	return e
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Validate checks a template and returns field-level problems. A map
// template must keep at least one visible map element; feature templates
// have no such rule.
func Validate(t models.ExportTemplate) Problems {
	p := Problems{}

	if strings.TrimSpace(t.Name) == "" {
		p.add("name", "Template name is required.")
	}
	switch t.Kind {
	case models.ExportKindMap, models.ExportKindFeature:
	default:
		p.add("kind", "Template kind must be map or feature.")
	}

	w, h, ok := PageDims(t)
	if !ok {
		p.add("pageSize", "Unknown page size.")
	}

	if t.BackgroundColor != "" {
		if msg := emailtmpl.ValidateHexColor(t.BackgroundColor); msg != "" {
			p.add("backgroundColor", msg)
		}
	}

	m := t.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		p.add("margins", "Margins cannot be negative.")
	} else if ok {
		if m.Left > w/2 || m.Right > w/2 || m.Top > h/2 || m.Bottom > h/2 {
			p.add("margins", "Margins cannot exceed half the page.")
		}
	}

	seen := make(map[string]bool, len(t.Elements))
	visibleMaps := 0
	for _, e := range t.Elements {
		if e.ID != "" {
			if seen[e.ID] {
				p.add("elements", "Element ids must be unique.")
			}
			seen[e.ID] = true
		}
		if !validElementTypes[e.Type] {
			p.add("elements", "Unknown element type "+e.Type+".")
		}
		if e.X < 0 || e.Y < 0 || e.X+e.Width > 100 || e.Y+e.Height > 100 {
			p.add("elements", "Element "+e.ID+" extends past the page.")
		}
		if e.Type == models.ElementMap && e.Visible {
			visibleMaps++
		}
	}
	if t.Kind == models.ExportKindMap && visibleMaps == 0 {
		p.add("elements", "A map export template needs at least one visible map element.")
	}

	return p
}

// NewTemplate builds a starter template of the given kind with the
// standard element layout.
func NewTemplate(kind, name string) models.ExportTemplate {
	t := models.ExportTemplate{
		ID:              uuid.NewString(),
		Name:            name,
		Kind:            kind,
		PageSize:        PageLetter,
		BackgroundColor: "#FFFFFF",
		Margins:         models.Margins{Top: 0.5, Right: 0.5, Bottom: 0.5, Left: 0.5},
	}
	if kind == models.ExportKindMap {
		t.Elements = []models.ExportElement{
			{ID: uuid.NewString(), Type: models.ElementTitle, X: 0, Y: 0, Width: 100, Height: 8, Visible: true},
			{ID: uuid.NewString(), Type: models.ElementMap, X: 0, Y: 8, Width: 100, Height: 84, Visible: true},
			{ID: uuid.NewString(), Type: models.ElementScaleBar, X: 2, Y: 94, Width: 20, Height: 4, Visible: true},
			{ID: uuid.NewString(), Type: models.ElementNorthArrow, X: 92, Y: 94, Width: 6, Height: 4, Visible: true},
		}
	} else {
		t.Elements = []models.ExportElement{
			{ID: uuid.NewString(), Type: models.ElementTitle, X: 0, Y: 0, Width: 100, Height: 8, Visible: true},
			{ID: uuid.NewString(), Type: models.ElementText, X: 0, Y: 10, Width: 100, Height: 80, Visible: true},
			{ID: uuid.NewString(), Type: models.ElementDateStamp, X: 70, Y: 94, Width: 28, Height: 4, Visible: true},
		}
	}
	return t
}
