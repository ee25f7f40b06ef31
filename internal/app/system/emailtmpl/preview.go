// internal/app/system/emailtmpl/preview.go
//
// Preview rendering: a deterministic sample context stands in for live
// query results so template editing never needs a data-source round trip.
package emailtmpl

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/civicatlas/notifyhub/internal/app/system/htmlsafe"
	"github.com/civicatlas/notifyhub/internal/domain/models"
)

// Fixed sample data. Values are part of the preview contract: the editor
// shows these exact numbers, so changing them changes what admins see.
const (
	sampleRecordCount = 42
	sampleSum         = 1234567
	sampleMean        = 45678.90
	sampleMin         = 12000
	sampleMax         = 890000
	sampleMedian      = 156000
	sampleDistinct    = 8
)

var (
	sampleStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sampleEnd   = time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	printer = message.NewPrinter(language.AmericanEnglish)
)

const sampleDateLayout = "Jan 2, 2006"

// SampleStatisticValue returns the fixed mock value for an aggregate
// operation. ok is false for unknown operations, which preview as the
// literal "Sample Value".
func SampleStatisticValue(op string) (v float64, ok bool) {
	switch op {
	case models.StatCount:
		return sampleRecordCount, true
	case models.StatSum:
		return sampleSum, true
	case models.StatMean:
		return sampleMean, true
	case models.StatMin:
		return sampleMin, true
	case models.StatMax:
		return sampleMax, true
	case models.StatMedian:
		return sampleMedian, true
	case models.StatDistinct:
		return sampleDistinct, true
	default:
		return 0, false
	}
}

// FormatStatisticValue renders a statistic value per its format settings:
// thousands separators, the format's decimal default unless the statistic
// overrides it, and any prefix/suffix.
func FormatStatisticValue(v float64, s models.TemplateStatistic) string {
	d := defaultDecimals(s.Format, v)
	if s.Decimals != nil {
		d = clampDecimals(*s.Decimals)
	}

	var out string
	switch s.Format {
	case models.FormatCurrency:
		out = "$" + grouped(v, d)
	case models.FormatPercent:
		out = grouped(v, d) + "%"
	default: // number, auto, unset
		out = grouped(v, d)
	}
	return s.Prefix + out + s.Suffix
}

// SampleContext builds the placeholder→value map for preview rendering.
// Deterministic by construction: fixed record count and date range, fixed
// per-operation statistic values.
func SampleContext(n models.Notification, tpl models.CustomTemplate) map[string]string {
	name := n.Name
	if name == "" {
		name = "Sample Notification"
	}
	subject := n.Message.Subject
	if subject == "" {
		subject = "Sample Notification Update"
	}
	intro := n.Message.Intro
	if intro == "" {
		intro = "Here are the latest records matching your notification."
	}

	ctx := map[string]string{
		"organizationName": "Sample Organization",
		"notificationName": name,
		"recordCount":      fmt.Sprintf("%d", sampleRecordCount),
		"startDate":        sampleStart.Format(sampleDateLayout),
		"endDate":          sampleEnd.Format(sampleDateLayout),
		"dateRange":        sampleStart.Format(sampleDateLayout) + " - " + sampleEnd.Format(sampleDateLayout),
		"recordsTable":     sampleRecordsTable(n.Source.DisplayFields),
		"subject":          subject,
		"intro":            intro,
	}

	for _, s := range tpl.Statistics {
		if s.ID == "" {
			continue
		}
		v, ok := SampleStatisticValue(s.Operation)
		if !ok {
			ctx[s.ID] = s.Prefix + "Sample Value" + s.Suffix
			continue
		}
		ctx[s.ID] = FormatStatisticValue(v, s)
	}
	return ctx
}

// Render substitutes {{placeholder}} tokens from ctx and sanitizes the
// result with the email-safe policy. Tokens not in ctx are left as-is,
// matching the warning behavior in ValidateHTML.
func Render(html string, ctx map[string]string) string {
	out := placeholderPattern.ReplaceAllStringFunc(html, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		if v, ok := ctx[sub[1]]; ok {
			return v
		}
		return m
	})
	return htmlsafe.Sanitize(out)
}

func sampleRecordsTable(fields []models.DisplayField) string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, f.DisplayLabel())
	}
	if len(labels) == 0 {
		labels = []string{"Record"}
	}

	var b strings.Builder
	b.WriteString(`<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse; width: 100%"><tr>`)
	for _, l := range labels {
		fmt.Fprintf(&b, "<th>%s</th>", htmlsafe.StripTags(l))
	}
	b.WriteString("</tr>")
	for row := 1; row <= 3; row++ {
		b.WriteString("<tr>")
		for _, l := range labels {
			fmt.Fprintf(&b, "<td>Sample %s %d</td>", htmlsafe.StripTags(l), row)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// grouped formats with en-US thousands separators at a fixed scale.
func grouped(v float64, decimals int) string {
	return printer.Sprint(number.Decimal(v, number.Scale(decimals)))
}

func defaultDecimals(format string, v float64) int {
	switch format {
	case models.FormatCurrency:
		return 2
	case models.FormatPercent:
		return 1
	case models.FormatNumber:
		return 0
	default:
		if v == math.Trunc(v) {
			return 0
		}
		return 2
	}
}

func clampDecimals(d int) int {
	if d < 0 {
		return 0
	}
	if d > 8 {
		return 8
	}
	return d
}
