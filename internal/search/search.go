// Package search filters listings in memory and projects them onto map
// markers.
package search

import (
	"math/rand"
	"strings"

	"factorylink/internal/models"
)

// JitterBound is the maximum offset in degrees applied to a complex
// centroid when a listing is placed on the map.
const JitterBound = 0.02

type Filter struct {
	Keyword    string
	Regions    []string
	Complexes  []string
	Categories []models.Category
	Roles      []models.Role
	// AllColumns widens the keyword match from title, company and
	// description to every public column.
	AllColumns bool
}

// Apply returns the listings matching f in source order. The keyword match
// is a case-sensitive substring test. Empty sets do not restrict.
func Apply(listings []models.Listing, f Filter) []models.Listing {
	regions := toSet(f.Regions)
	complexes := toSet(f.Complexes)
	categories := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		categories[string(c)] = true
	}
	roles := make(map[string]bool, len(f.Roles))
	for _, r := range f.Roles {
		roles[string(r)] = true
	}

	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if len(regions) > 0 && !regions[l.Region] {
			continue
		}
		if len(complexes) > 0 && !complexes[l.Complex] {
			continue
		}
		if len(categories) > 0 && !categories[string(l.Category)] {
			continue
		}
		if len(roles) > 0 && !roles[string(l.Role)] {
			continue
		}
		if f.Keyword != "" && !matchesKeyword(l, f.Keyword, f.AllColumns) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// hiddenColumns never take part in a keyword match. Contact is disclosed
// only after an approved request, so matching on it would leak it.
var hiddenColumns = map[string]bool{"contact": true, "owner_id": true}

func matchesKeyword(l models.Listing, keyword string, allColumns bool) bool {
	if !allColumns {
		return strings.Contains(l.Title, keyword) ||
			strings.Contains(l.Company, keyword) ||
			strings.Contains(l.Description, keyword)
	}
	for column, value := range l.Row() {
		if hiddenColumns[column] {
			continue
		}
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Jitter offsets a centroid by a uniform amount in [-bound, bound) on each
// axis so listings at one complex do not share a marker position.
func Jitter(lat, lon, bound float64, rng *rand.Rand) (float64, float64) {
	return lat + (rng.Float64()*2-1)*bound, lon + (rng.Float64()*2-1)*bound
}

type Colour string

const (
	ColourBlack  Colour = "black"
	ColourPurple Colour = "purple"
	ColourRed    Colour = "red"
	ColourBlue   Colour = "blue"
)

type Marker struct {
	ListingID string          `json:"listing_id"`
	Title     string          `json:"title"`
	Company   string          `json:"company"`
	Category  models.Category `json:"category"`
	Role      models.Role     `json:"role"`
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
	Colour    Colour          `json:"colour"`
	Verified  bool            `json:"verified"`
}

// MarkerColour picks the pin colour. Transport listings win over category.
func MarkerColour(l models.Listing) Colour {
	switch {
	case l.Role == models.RoleTransport:
		return ColourBlack
	case l.Category == models.CategoryEquipment:
		return ColourPurple
	case l.Category == models.CategoryByproduct:
		return ColourRed
	default:
		return ColourBlue
	}
}

// Markers projects listings onto the map. Listings without numeric
// coordinates stay in list views but get no marker.
func Markers(listings []models.Listing) []Marker {
	out := make([]Marker, 0, len(listings))
	for _, l := range listings {
		if !l.HasCoords {
			continue
		}
		out = append(out, Marker{
			ListingID: l.ID,
			Title:     l.Title,
			Company:   l.Company,
			Category:  l.Category,
			Role:      l.Role,
			Lat:       l.Lat,
			Lon:       l.Lon,
			Colour:    MarkerColour(l),
			Verified:  l.Verified,
		})
	}
	return out
}
