package genai

import (
	"sort"
	"strings"
)

var keywordBoosts = []struct {
	token  string
	weight int
}{
	{"status", 5},
	{"name", 4},
	{"title", 4},
	{"address", 4},
	{"location", 3},
	{"type", 3},
	{"category", 3},
	{"date", 3},
	{"description", 2},
	{"owner", 2},
}

var typeWeights = map[string]int{
	"esriFieldTypeString":   1,
	"esriFieldTypeDate":     1,
	"esriFieldTypeOID":      -10,
	"esriFieldTypeGeometry": -10,
	"esriFieldTypeGlobalID": -10,
	"esriFieldTypeGUID":     -8,
	"esriFieldTypeBlob":     -10,
}

// HeuristicSuggestions ranks fields by name and type alone. It backs
// SuggestFields when the model is unavailable or unusable.
func HeuristicSuggestions(fields []LayerField) []FieldSuggestion {
	type scored struct {
		field LayerField
		score int
	}

	ranked := make([]scored, 0, len(fields))
	for _, f := range fields {
		ranked = append(ranked, scored{field: f, score: fieldScore(f)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var out []FieldSuggestion
	for _, r := range ranked {
		if r.score < 0 {
			continue
		}
		out = append(out, FieldSuggestion{Name: r.field.Name})
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func fieldScore(f LayerField) int {
	name := strings.ToLower(f.Name)

	// Bookkeeping fields that never belong in a digest.
	switch name {
	case "objectid", "fid", "gid", "globalid", "shape", "shape_length", "shape_area", "shape__length", "shape__area":
		return -100
	}

	score := typeWeights[f.Type]
	if name == "id" || strings.HasSuffix(name, "_id") {
		score -= 6
	}
	if strings.Contains(name, "guid") {
		score -= 8
	}
	for _, kw := range keywordBoosts {
		if strings.Contains(name, kw.token) {
			score += kw.weight
		}
	}
	return score
}
