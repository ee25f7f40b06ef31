// Package queryfilter compiles a notification's attribute filter into the
// WHERE clause string sent with ArcGIS feature queries.
//
// Compilation is deterministic: the same config always yields the same
// clause, byte for byte, because downstream change detection compares the
// stored clause against a recompiled one.
package queryfilter

import (
	"strconv"
	"strings"

	"github.com/civicatlas/notifyhub/internal/domain/models"
)

// MatchAll is the WHERE clause that selects every record.
const MatchAll = "1=1"

// Compile renders a query config as a WHERE clause.
//
// Mode none compiles to MatchAll. Mode advanced returns the caller's
// clause verbatim, falling back to MatchAll when empty; the clause is
// opaque to this layer and is not escaped (it reaches the feature service
// under the data source's own credentials). Mode simple renders each rule
// as "<field> <operator> <literal>" joined by the config's logic.
func Compile(qc models.QueryConfig) string {
	switch qc.Mode {
	case models.QueryModeAdvanced:
		if qc.AdvancedWhere != "" {
			return qc.AdvancedWhere
		}
		return MatchAll
	case models.QueryModeSimple:
		return compileSimple(qc)
	default:
		return MatchAll
	}
}

func compileSimple(qc models.QueryConfig) string {
	parts := make([]string, 0, len(qc.Rules))
	for _, r := range qc.Rules {
		if r.Field == "" || r.Value == "" {
			continue
		}
		parts = append(parts, r.Field+" "+r.Operator+" "+literal(r.Value))
	}
	if len(parts) == 0 {
		return MatchAll
	}
	joiner := " AND "
	if strings.EqualFold(qc.Logic, "OR") {
		joiner = " OR "
	}
	return strings.Join(parts, joiner)
}

// literal renders a rule value: bare when the whole string parses as a
// number, otherwise single-quoted with embedded quotes doubled.
func literal(v string) string {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
