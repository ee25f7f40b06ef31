// Package emailtmpl validates custom email templates and renders their
// previews.
//
// Validation is accumulating and field-level: every check runs, messages
// collect into Errors and Warnings, and nothing panics or aborts. Errors
// make a template invalid; warnings never do. Templates render through an
// email-safe HTML subset, so structural oddities (style blocks, CSS
// classes, unknown placeholders) are worth flagging but safe to save.
package emailtmpl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/civicatlas/notifyhub/internal/domain/models"
)

const maxStatisticIDLen = 30

var (
	statisticIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	hexColorPattern    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)
)

// builtinPlaceholders are always available to a template. Statistic ids may
// not shadow them.
var builtinPlaceholders = []string{
	"organizationName",
	"notificationName",
	"recordCount",
	"startDate",
	"endDate",
	"dateRange",
	"recordsTable",
	"subject",
	"intro",
}

// reservedStatisticIDs is the lowercase set of names a statistic id may not
// take: built-in placeholders plus aggregate keywords.
var reservedStatisticIDs = buildReservedSet()

func buildReservedSet() map[string]bool {
	set := map[string]bool{
		models.StatCount:    true,
		models.StatSum:      true,
		models.StatMean:     true,
		models.StatMin:      true,
		models.StatMax:      true,
		models.StatMedian:   true,
		models.StatDistinct: true,
		"avg":               true,
		"average":           true,
		"total":             true,
	}
	for _, p := range builtinPlaceholders {
		set[strings.ToLower(p)] = true
	}
	return set
}

var validOperations = map[string]bool{
	models.StatCount:    true,
	models.StatSum:      true,
	models.StatMean:     true,
	models.StatMin:      true,
	models.StatMax:      true,
	models.StatMedian:   true,
	models.StatDistinct: true,
}

// BuiltinPlaceholders returns the placeholder names every template may use.
func BuiltinPlaceholders() []string {
	out := make([]string, len(builtinPlaceholders))
	copy(out, builtinPlaceholders)
	return out
}

// Validation is the accumulated result of template validation. IsValid is
// true exactly when Errors is empty; warnings never affect it.
type Validation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateStatisticID checks one statistic id against the id rules.
// Messages accumulate: a 40-character id that starts with a digit reports
// both problems. existing holds the other statistic ids in the template.
func ValidateStatisticID(id string, existing []string) []string {
	if id == "" {
		return []string{"Statistic ID is required."}
	}
	var errs []string
	if !statisticIDPattern.MatchString(id) {
		errs = append(errs, "Statistic ID must start with a letter and contain only letters, numbers, and underscores.")
	}
	if len(id) > maxStatisticIDLen {
		errs = append(errs, fmt.Sprintf("Statistic ID must be %d characters or fewer.", maxStatisticIDLen))
	}
	for _, e := range existing {
		if e == id {
			errs = append(errs, "Statistic ID is already used in this template.")
			break
		}
	}
	if reservedStatisticIDs[strings.ToLower(id)] {
		errs = append(errs, fmt.Sprintf("Statistic ID %q is a reserved name.", id))
	}
	return errs
}

// ValidateHexColor returns "" for a six-digit hex color like #1A2B3C, or
// the problem with it. Shorthand forms such as #ABC are rejected.
func ValidateHexColor(c string) string {
	if hexColorPattern.MatchString(c) {
		return ""
	}
	if c == "" {
		return "Color is required."
	}
	return "Color must be a 6-digit hex value like #1A2B3C."
}

// ValidateHTML checks template HTML. An empty template is an error;
// everything else found here is a warning because the email-safe renderer
// copes with it.
func ValidateHTML(html string, placeholders []string) (errs, warnings []string) {
	if strings.TrimSpace(html) == "" {
		return []string{"Template HTML is empty."}, nil
	}

	valid := make(map[string]bool, len(placeholders))
	for _, p := range placeholders {
		valid[p] = true
	}
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(html, -1) {
		name := m[1]
		if valid[name] || seen[name] {
			continue
		}
		seen[name] = true
		warnings = append(warnings, fmt.Sprintf("Unknown placeholder {{%s}}; it will render as literal text.", name))
	}

	lower := strings.ToLower(html)
	if !strings.Contains(lower, "<body") {
		warnings = append(warnings, "Template has no <body> tag; some email clients render partial documents inconsistently.")
	}
	if strings.Contains(lower, "<style") {
		warnings = append(warnings, "<style> blocks are stripped by many email clients; use inline styles instead.")
	}
	if strings.Contains(lower, "class=") {
		warnings = append(warnings, "CSS classes are unreliable in email; use inline styles instead.")
	}
	return errs, warnings
}

// ValidateTemplate runs every template check: the HTML, each statistic, and
// all seven theme colors. The notification supplies display-field context
// for advisory checks only.
func ValidateTemplate(tpl models.CustomTemplate, n models.Notification) Validation {
	v := Validation{Errors: []string{}, Warnings: []string{}}

	ids := make([]string, 0, len(tpl.Statistics))
	for _, s := range tpl.Statistics {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	placeholders := append(BuiltinPlaceholders(), ids...)

	htmlErrs, htmlWarns := ValidateHTML(tpl.HTML, placeholders)
	v.Errors = append(v.Errors, htmlErrs...)
	v.Warnings = append(v.Warnings, htmlWarns...)

	known := make(map[string]bool, len(n.Source.DisplayFields))
	for _, f := range n.Source.DisplayFields {
		known[f.Field] = true
	}

	for i, s := range tpl.Statistics {
		var others []string
		for j, o := range tpl.Statistics {
			if j != i && o.ID != "" {
				others = append(others, o.ID)
			}
		}
		for _, msg := range ValidateStatisticID(s.ID, others) {
			v.Errors = append(v.Errors, fmt.Sprintf("Statistic %d: %s", i+1, msg))
		}
		if !validOperations[s.Operation] {
			v.Errors = append(v.Errors, fmt.Sprintf("Statistic %d: unknown operation %q.", i+1, s.Operation))
		} else if s.Operation != models.StatCount && s.Field == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Statistic %d: a field is required for %s.", i+1, s.Operation))
		}
		if s.Field != "" && len(known) > 0 && !known[s.Field] {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Statistic %d: field %q is not one of the notification's display fields.", i+1, s.Field))
		}
	}

	for _, c := range tpl.Theme.Colors() {
		if msg := ValidateHexColor(c.Value); msg != "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Theme color %s: %s", c.Name, msg))
		}
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// DefaultTheme is the starting palette for a new custom template.
func DefaultTheme() models.TemplateTheme {
	return models.TemplateTheme{
		PrimaryColor:    "#1F5C99",
		SecondaryColor:  "#6C757D",
		BackgroundColor: "#FFFFFF",
		TextColor:       "#212529",
		AccentColor:     "#0D8A72",
		LinkColor:       "#1F5C99",
		BorderColor:     "#DEE2E6",
	}
}

// FillTheme replaces empty colors with the default palette, so color
// validation always has seven real values to check.
func FillTheme(th *models.TemplateTheme) {
	def := DefaultTheme()
	fill := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	fill(&th.PrimaryColor, def.PrimaryColor)
	fill(&th.SecondaryColor, def.SecondaryColor)
	fill(&th.BackgroundColor, def.BackgroundColor)
	fill(&th.TextColor, def.TextColor)
	fill(&th.AccentColor, def.AccentColor)
	fill(&th.LinkColor, def.LinkColor)
	fill(&th.BorderColor, def.BorderColor)
}
