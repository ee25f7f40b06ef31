// Package timezones serves the curated IANA zone list offered when an
// organization picks its time zone. The list is embedded so the binary
// never depends on host tzdata being installed for display purposes;
// it covers US states and territories plus the regions where partner
// municipalities operate.
package timezones

import (
	"embed"
	"encoding/json"
	"sort"
	"sync"
)

//go:embed timezonedata/timezones.json
var FS embed.FS

type Zone struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Region string `json:"region,omitempty"`
}

type ZoneGroup struct {
	Region string `json:"region"`
	Zones  []Zone `json:"zones"`
}

// The embedded list is parsed on first use into every shape callers
// need: file order for All, a lookup map for Label and Valid, region
// groups for the picker endpoint.
var (
	once    sync.Once
	zones   []Zone
	byID    map[string]Zone
	groups  []ZoneGroup
	loadErr error
)

func load() {
	once.Do(func() {
		data, err := FS.ReadFile("timezonedata/timezones.json")
		if err != nil {
			loadErr = err
			return
		}
		if err := json.Unmarshal(data, &zones); err != nil {
			loadErr = err
			return
		}

		byID = make(map[string]Zone, len(zones))
		for _, z := range zones {
			byID[z.ID] = z
		}
		groups = groupByRegion(zones)
	})
}

func groupByRegion(zs []Zone) []ZoneGroup {
	byRegion := make(map[string][]Zone)
	for _, z := range zs {
		region := z.Region
		if region == "" {
			region = "Other"
		}
		byRegion[region] = append(byRegion[region], z)
	}

	out := make([]ZoneGroup, 0, len(byRegion))
	for region, members := range byRegion {
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Label < members[j].Label
		})
		out = append(out, ZoneGroup{Region: region, Zones: members})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Region < out[j].Region
	})
	return out
}

// Load is optional: call it at startup to fail fast if the embedded
// JSON is malformed. Every other function loads lazily.
func Load() error {
	load()
	return loadErr
}

// All returns the curated list of zones in file order.
func All() ([]Zone, error) {
	load()
	if loadErr != nil {
		return nil, loadErr
	}
	return zones, nil
}

// Label returns the display label for an ID, or the ID itself if the
// zone is not in the curated list.
func Label(id string) string {
	load()
	if loadErr != nil {
		return id
	}
	if z, ok := byID[id]; ok && z.Label != "" {
		return z.Label
	}
	return id
}

// Valid reports whether the given ID exists in the curated list.
// Organization updates reject time zones this does not accept.
func Valid(id string) bool {
	load()
	if loadErr != nil {
		return false
	}
	_, ok := byID[id]
	return ok
}

// Groups returns the curated zones grouped by region, each group
// sorted by label, the groups themselves in region order.
func Groups() ([]ZoneGroup, error) {
	load()
	if loadErr != nil {
		return nil, loadErr
	}
	return groups, nil
}
