package model

import (
	"fmt"
	"time"
)

// Timeline is the planning bucket a category belongs to.
type Timeline string

const (
	Timeline12Months Timeline = "12-months"
	Timeline6Months  Timeline = "6-months"
	Timeline3Months  Timeline = "3-months"
	Timeline1Month   Timeline = "1-month"
	Timeline1Week    Timeline = "1-week"
	TimelineDayOf    Timeline = "day-of"
)

// Timelines lists every bucket from furthest to closest.
var Timelines = []Timeline{
	Timeline12Months, Timeline6Months, Timeline3Months,
	Timeline1Month, Timeline1Week, TimelineDayOf,
}

// ParseTimeline validates s against the known buckets.
func ParseTimeline(s string) (Timeline, error) {
	for _, t := range Timelines {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown timeline %q", s)
}

// Category groups tasks.
type Category struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	Timeline    Timeline  `json:"timeline"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SeedCategory is one entry of the default set created for a new user.
type SeedCategory struct {
	Key         string
	Name        string
	Description string
	Color       string
	Icon        string
	Timeline    Timeline
}

var seedCategories = []SeedCategory{
	{"venue-catering", "Venue & Catering", "Tempat dan makanan untuk acara", "bg-rose-500", "🏛️", Timeline12Months},
	{"dokumentasi", "Dokumentasi", "Fotografer dan videographer", "bg-purple-500", "📸", Timeline12Months},
	{"fashion-beauty", "Fashion & Beauty", "Gaun, jas, dan makeup", "bg-pink-500", "👗", Timeline6Months},
	{"undangan", "Undangan", "Desain dan cetak undangan", "bg-amber-500", "💌", Timeline3Months},
	{"administrasi", "Administrasi", "Dokumen dan perizinan", "bg-blue-500", "📋", Timeline6Months},
	{"dekorasi-bunga", "Dekorasi & Bunga", "Dekorasi venue dan bunga", "bg-green-500", "💐", Timeline3Months},
	{"musik-hiburan", "Musik & Hiburan", "Band atau DJ untuk acara", "bg-indigo-500", "🎵", Timeline6Months},
	{"transportasi", "Transportasi", "Mobil pengantin dan tamu", "bg-cyan-500", "🚗", Timeline1Month},
	{"honeymoon", "Honeymoon", "Perencanaan bulan madu", "bg-orange-500", "✈️", Timeline3Months},
	{"hari-h", "Hari H", "Persiapan di hari pernikahan", "bg-red-500", "💒", TimelineDayOf},
}

// SeedCategories returns a copy of the default category set. The order index
// of each entry is its position.
func SeedCategories() []SeedCategory {
	out := make([]SeedCategory, len(seedCategories))
	copy(out, seedCategories)
	return out
}

// SeedRows builds the insert rows for the default set owned by userID.
func SeedRows(userID string) []map[string]any {
	rows := make([]map[string]any, 0, len(seedCategories))
	for i, s := range seedCategories {
		rows = append(rows, map[string]any{
			"user_id":     userID,
			"name":        s.Name,
			"description": s.Description,
			"color":       s.Color,
			"icon":        s.Icon,
			"timeline":    string(s.Timeline),
			"order_index": i,
			"seed_key":    s.Key,
		})
	}
	return rows
}

// CategoryIndex maps category ids to categories.
func CategoryIndex(cats []Category) map[string]Category {
	idx := make(map[string]Category, len(cats))
	for _, c := range cats {
		idx[c.ID] = c
	}
	return idx
}

// NextOrderIndex returns one past the largest order index in cats.
func NextOrderIndex(cats []Category) int {
	next := 0
	for _, c := range cats {
		if c.OrderIndex >= next {
			next = c.OrderIndex + 1
		}
	}
	return next
}
