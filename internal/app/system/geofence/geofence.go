// Package geofence serializes and buffers a notification's spatial filter.
//
// The persisted form is a stringified FeatureCollection with up to two
// features: the user-drawn filter shape (role "filter") and, when a buffer
// distance is set, a derived buffer polygon (role "buffer") carrying the
// distance/unit it was built from. Geometry payloads are stringified
// because the document store rejects nested arrays-of-arrays.
//
// Buffer geometry is always derived. It is recomputed from the current
// filter shape every time the shape or the buffer config changes; a stale
// buffer is a correctness bug, not an acceptable cache.
package geofence

import (
	"errors"
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Feature roles within the persisted collection.
const (
	RoleFilter = "filter"
	RoleBuffer = "buffer"
)

// Geometry kinds, matching the names the map client writes.
const (
	KindPoint    = "point"
	KindPolyline = "polyline"
	KindPolygon  = "polygon"
)

// Buffer distance units.
const (
	UnitMiles      = "miles"
	UnitFeet       = "feet"
	UnitKilometers = "kilometers"
	UnitMeters     = "meters"
)

var (
	ErrUnknownGeometryType = errors.New("unknown geometry type")
	ErrInvalidUnit         = errors.New("invalid buffer unit")
)

var metersPerUnit = map[string]float64{
	UnitMiles:      1609.344,
	UnitFeet:       0.3048,
	UnitKilometers: 1000,
	UnitMeters:     1,
}

// ValidUnit reports whether unit is a recognized buffer unit.
func ValidUnit(unit string) bool {
	_, ok := metersPerUnit[unit]
	return ok
}

// SpatialReference identifies the coordinate system of a geometry.
type SpatialReference struct {
	WKID       int `json:"wkid,omitempty"`
	LatestWKID int `json:"latestWkid,omitempty"`
}

// Geographic reports whether coordinates are lon/lat degrees.
func (sr *SpatialReference) Geographic() bool {
	return sr != nil && (sr.WKID == 4326 || sr.LatestWKID == 4326)
}

// Geometry is a map-client geometry: exactly one of the point fields,
// Paths, or Rings is populated. Ring and path vertices are [x, y] pairs;
// extra ordinates are ignored.
type Geometry struct {
	Type             string            `json:"type,omitempty"`
	X                *float64          `json:"x,omitempty"`
	Y                *float64          `json:"y,omitempty"`
	Paths            [][][]float64     `json:"paths,omitempty"`
	Rings            [][][]float64     `json:"rings,omitempty"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

// Kind returns the geometry kind, trusting an explicit type tag and
// otherwise inferring from structure: rings mean polygon, paths mean
// polyline, x and y mean point. Anything else is ErrUnknownGeometryType.
func (g *Geometry) Kind() (string, error) {
	if g == nil {
		return "", ErrUnknownGeometryType
	}
	switch g.Type {
	case KindPoint, KindPolyline, KindPolygon:
		return g.Type, nil
	}
	switch {
	case len(g.Rings) > 0:
		return KindPolygon, nil
	case len(g.Paths) > 0:
		return KindPolyline, nil
	case g.X != nil && g.Y != nil:
		return KindPoint, nil
	default:
		return "", ErrUnknownGeometryType
	}
}

// BufferConfig is the user's buffer setting, persisted on the buffer
// feature so the editor can restore the controls.
type BufferConfig struct {
	Distance float64 `json:"distance"`
	Unit     string  `json:"unit"`
}

// Feature is one entry in the persisted collection.
type Feature struct {
	Role         string        `json:"role"`
	Geometry     *Geometry     `json:"geometry"`
	BufferConfig *BufferConfig `json:"bufferConfig,omitempty"`
}

// FeatureCollection is the persisted spatial filter document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Parsed is the result of reading a persisted spatial filter.
type Parsed struct {
	Filter       *Geometry
	Buffer       *Geometry
	BufferConfig *BufferConfig

	// Dropped records features whose geometry could not be typed. A bad
	// feature never aborts its siblings.
	Dropped []error
}

// Empty reports whether nothing usable was parsed.
func (p Parsed) Empty() bool {
	return p.Filter == nil && p.Buffer == nil
}

// EffectiveGeometry is the shape queries should filter by: the buffer when
// present, otherwise the drawn filter.
func (p Parsed) EffectiveGeometry() *Geometry {
	if p.Buffer != nil {
		return p.Buffer
	}
	return p.Filter
}

// Serialize renders the spatial filter for storage. A buffer feature is
// included only when cfg.Distance > 0, and its geometry is computed fresh
// from filter here. A nil filter serializes to "".
func Serialize(filter *Geometry, cfg BufferConfig) (string, error) {
	if filter == nil {
		return "", nil
	}
	if _, err := filter.Kind(); err != nil {
		return "", err
	}

	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{{Role: RoleFilter, Geometry: filter}},
	}
	if cfg.Distance > 0 {
		buf, err := ComputeBuffer(filter, cfg.Distance, cfg.Unit)
		if err != nil {
			return "", err
		}
		c := cfg
		fc.Features = append(fc.Features, Feature{Role: RoleBuffer, Geometry: buf, BufferConfig: &c})
	}
	return jsonCodec.MarshalToString(fc)
}

// Deserialize reads a persisted spatial filter, accepting both the
// FeatureCollection form and the legacy bare-geometry form. Empty and null
// input parse to an empty result.
func Deserialize(s string) (Parsed, error) {
	var p Parsed
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "null" {
		return p, nil
	}

	var fc FeatureCollection
	if err := jsonCodec.UnmarshalFromString(trimmed, &fc); err != nil {
		return p, fmt.Errorf("parse spatial filter: %w", err)
	}

	if len(fc.Features) == 0 && !strings.EqualFold(fc.Type, "FeatureCollection") {
		// Legacy documents stored the drawn geometry bare.
		var g Geometry
		if err := jsonCodec.UnmarshalFromString(trimmed, &g); err != nil {
			return p, fmt.Errorf("parse spatial filter: %w", err)
		}
		if _, err := g.Kind(); err != nil {
			p.Dropped = append(p.Dropped, err)
			return p, nil
		}
		p.Filter = &g
		return p, nil
	}

	for i := range fc.Features {
		f := fc.Features[i]
		if _, err := f.Geometry.Kind(); err != nil {
			p.Dropped = append(p.Dropped, fmt.Errorf("feature %d: %w", i, err))
			continue
		}
		switch f.Role {
		case RoleFilter:
			if p.Filter == nil {
				p.Filter = f.Geometry
			}
		case RoleBuffer:
			if p.Buffer == nil {
				p.Buffer = f.Geometry
				p.BufferConfig = f.BufferConfig
			}
		}
	}
	return p, nil
}

// ComputeBuffer returns a polygon containing every location within the
// given distance of g, or nil when distance <= 0. Buffering is planar with
// round joins and end caps; geometries in lon/lat degrees are projected
// into a local meter frame first so the distance holds on the ground.
func ComputeBuffer(g *Geometry, distance float64, unit string) (*Geometry, error) {
	if distance <= 0 {
		return nil, nil
	}
	factor, ok := metersPerUnit[unit]
	if !ok {
		return nil, ErrInvalidUnit
	}
	kind, err := g.Kind()
	if err != nil {
		return nil, err
	}
	r := distance * factor
	fr := newFrame(g)

	var rings [][]pt
	switch kind {
	case KindPoint:
		if g.X == nil || g.Y == nil {
			return nil, ErrUnknownGeometryType
		}
		rings = append(rings, circleRing(fr.project(pt{*g.X, *g.Y}), r))
	case KindPolyline:
		for _, raw := range g.Paths {
			path := fr.projectAll(cleanPath(toPts(raw)))
			switch len(path) {
			case 0:
				continue
			case 1:
				rings = append(rings, circleRing(path[0], r))
			default:
				rings = append(rings, corridorRing(path, r))
			}
		}
	case KindPolygon:
		for _, raw := range exteriorRings(g.Rings) {
			ring := fr.projectAll(raw)
			switch len(ring) {
			case 1:
				rings = append(rings, circleRing(ring[0], r))
			case 2:
				rings = append(rings, corridorRing(ring, r))
			default:
				rings = append(rings, expandedRing(ring, r))
			}
		}
	}
	if len(rings) == 0 {
		return nil, ErrUnknownGeometryType
	}

	out := &Geometry{Type: KindPolygon, SpatialReference: g.SpatialReference}
	for _, ring := range rings {
		out.Rings = append(out.Rings, toCoords(fr.unprojectAll(ring)))
	}
	return out, nil
}

// --- local frame -----------------------------------------------------------

// Meters per degree of latitude on the reference sphere.
const metersPerDegree = 111319.49079327358

// frame maps geometry coordinates into a local planar frame in meters.
// Projected coordinate systems are already meters and pass through; lon/lat
// geometries are scaled around an anchor with a cos(latitude) correction on
// longitude, clamped near the poles.
type frame struct {
	geographic bool
	lon0, lat0 float64
	cosLat     float64
}

func newFrame(g *Geometry) frame {
	if !g.SpatialReference.Geographic() {
		return frame{}
	}
	lon0, lat0 := anchor(g)
	c := math.Cos(lat0 * math.Pi / 180)
	if c < 0.01 {
		c = 0.01
	}
	return frame{geographic: true, lon0: lon0, lat0: lat0, cosLat: c}
}

func (f frame) project(p pt) pt {
	if !f.geographic {
		return p
	}
	return pt{
		x: (p.x - f.lon0) * metersPerDegree * f.cosLat,
		y: (p.y - f.lat0) * metersPerDegree,
	}
}

func (f frame) unproject(p pt) pt {
	if !f.geographic {
		return p
	}
	return pt{
		x: p.x/(metersPerDegree*f.cosLat) + f.lon0,
		y: p.y/metersPerDegree + f.lat0,
	}
}

func (f frame) projectAll(ps []pt) []pt {
	out := make([]pt, len(ps))
	for i, p := range ps {
		out[i] = f.project(p)
	}
	return out
}

func (f frame) unprojectAll(ps []pt) []pt {
	out := make([]pt, len(ps))
	for i, p := range ps {
		out[i] = f.unproject(p)
	}
	return out
}

// anchor picks the frame origin: the mean of all vertices.
func anchor(g *Geometry) (lon, lat float64) {
	var sx, sy float64
	var n int
	accumulate := func(sets [][][]float64) {
		for _, set := range sets {
			for _, c := range set {
				if len(c) >= 2 {
					sx += c[0]
					sy += c[1]
					n++
				}
			}
		}
	}
	accumulate(g.Rings)
	accumulate(g.Paths)
	if g.X != nil && g.Y != nil {
		sx += *g.X
		sy += *g.Y
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sx / float64(n), sy / float64(n)
}

// --- planar buffering ------------------------------------------------------

type pt struct{ x, y float64 }

func sub(a, b pt) pt           { return pt{a.x - b.x, a.y - b.y} }
func add(a, b pt) pt           { return pt{a.x + b.x, a.y + b.y} }
func scale(p pt, s float64) pt { return pt{p.x * s, p.y * s} }
func cross(a, b pt) float64    { return a.x*b.y - a.y*b.x }

func normalize(p pt) pt {
	l := math.Hypot(p.x, p.y)
	if l == 0 {
		return pt{}
	}
	return pt{p.x / l, p.y / l}
}

// leftNormal rotates a unit direction 90 degrees counterclockwise.
func leftNormal(d pt) pt { return pt{-d.y, d.x} }

const circleSegments = 64

var arcStep = 2 * math.Pi / circleSegments

// circleRing builds a closed clockwise ring approximating a circle.
func circleRing(c pt, r float64) []pt {
	ring := make([]pt, 0, circleSegments+1)
	for i := 0; i < circleSegments; i++ {
		a := -2 * math.Pi * float64(i) / circleSegments
		ring = append(ring, pt{c.x + r*math.Cos(a), c.y + r*math.Sin(a)})
	}
	return append(ring, ring[0])
}

// appendArc emits the clockwise arc around c from angle a0 to a1,
// excluding both endpoints (the caller emits those as segment offsets).
func appendArc(dst []pt, c pt, r, a0, a1 float64) []pt {
	sweep := a0 - a1
	for sweep <= 0 {
		sweep += 2 * math.Pi
	}
	for sweep > 2*math.Pi {
		sweep -= 2 * math.Pi
	}
	steps := int(math.Ceil(sweep / arcStep))
	for i := 1; i < steps; i++ {
		a := a0 - sweep*float64(i)/float64(steps)
		dst = append(dst, pt{c.x + r*math.Cos(a), c.y + r*math.Sin(a)})
	}
	return dst
}

// offsetSide emits the left-hand offset of path, inserting a round join at
// every outside turn. path has at least two points, no consecutive
// duplicates.
func offsetSide(dst []pt, path []pt, r float64) []pt {
	var prevD pt
	for i := 0; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		d := normalize(sub(b, a))
		n := leftNormal(d)
		if i > 0 && cross(prevD, d) < 0 {
			pn := leftNormal(prevD)
			dst = appendArc(dst, a, r, math.Atan2(pn.y, pn.x), math.Atan2(n.y, n.x))
		}
		dst = append(dst, add(a, scale(n, r)), add(b, scale(n, r)))
		prevD = d
	}
	return dst
}

// corridorRing builds the closed outline at distance r around an open
// path: one offset side, a semicircular cap, the other side, and the
// closing cap. The result winds clockwise.
func corridorRing(path []pt, r float64) []pt {
	ring := offsetSide(nil, path, r)

	last := path[len(path)-1]
	endD := normalize(sub(last, path[len(path)-2]))
	endN := leftNormal(endD)
	a0 := math.Atan2(endN.y, endN.x)
	ring = appendArc(ring, last, r, a0, a0-math.Pi)

	rev := make([]pt, len(path))
	for i, p := range path {
		rev[len(path)-1-i] = p
	}
	ring = offsetSide(ring, rev, r)

	first := path[0]
	startD := normalize(sub(path[1], first))
	startN := leftNormal(pt{-startD.x, -startD.y})
	b0 := math.Atan2(startN.y, startN.x)
	ring = appendArc(ring, first, r, b0, b0-math.Pi)

	return append(ring, ring[0])
}

// expandedRing offsets a closed ring outward by r with round joins at
// convex corners. The ring is normalized to clockwise winding first so the
// left normals point outward; the result is closed and clockwise.
func expandedRing(ring []pt, r float64) []pt {
	ring = stripClose(ring)
	if signedArea(ring) > 0 {
		ring = reversed(ring)
	}
	m := len(ring)
	var out []pt
	for i := 0; i < m; i++ {
		a := ring[i]
		b := ring[(i+1)%m]
		d := normalize(sub(b, a))
		n := leftNormal(d)
		prev := ring[(i-1+m)%m]
		prevD := normalize(sub(a, prev))
		if cross(prevD, d) < 0 {
			pn := leftNormal(prevD)
			out = appendArc(out, a, r, math.Atan2(pn.y, pn.x), math.Atan2(n.y, n.x))
		}
		out = append(out, add(a, scale(n, r)), add(b, scale(n, r)))
	}
	return append(out, out[0])
}

// exteriorRings selects the rings to buffer: clockwise rings are
// exteriors, counterclockwise rings are holes and are dropped. If no ring
// is clockwise the first ring is used as the exterior.
func exteriorRings(raw [][][]float64) [][]pt {
	var out [][]pt
	for _, rr := range raw {
		ring := cleanPath(stripClose(toPts(rr)))
		if len(ring) == 0 {
			continue
		}
		if len(ring) < 3 || signedArea(ring) <= 0 {
			out = append(out, ring)
		}
	}
	if len(out) == 0 {
		for _, rr := range raw {
			ring := cleanPath(stripClose(toPts(rr)))
			if len(ring) > 0 {
				out = append(out, ring)
				break
			}
		}
	}
	return out
}

// signedArea is the shoelace area: positive for counterclockwise rings.
func signedArea(ring []pt) float64 {
	var s float64
	m := len(ring)
	for i := 0; i < m; i++ {
		j := (i + 1) % m
		s += ring[i].x*ring[j].y - ring[j].x*ring[i].y
	}
	return s / 2
}

func reversed(ps []pt) []pt {
	out := make([]pt, len(ps))
	for i, p := range ps {
		out[len(ps)-1-i] = p
	}
	return out
}

// stripClose drops a closing vertex that duplicates the first.
func stripClose(ring []pt) []pt {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		return ring[:len(ring)-1]
	}
	return ring
}

// cleanPath removes consecutive duplicate vertices.
func cleanPath(path []pt) []pt {
	out := path[:0:0]
	for _, p := range path {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

func toPts(coords [][]float64) []pt {
	out := make([]pt, 0, len(coords))
	for _, c := range coords {
		if len(c) >= 2 {
			out = append(out, pt{c[0], c[1]})
		}
	}
	return out
}

func toCoords(ps []pt) [][]float64 {
	out := make([][]float64, len(ps))
	for i, p := range ps {
		out[i] = []float64{p.x, p.y}
	}
	return out
}
