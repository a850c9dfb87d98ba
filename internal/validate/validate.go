// Package validate checks entity form contents before anything is staged
// or sent upstream. Rules are configured per collection.
package validate

import (
	"fmt"
	"strconv"
	"strings"
)

// Rules describes what a valid entity of one collection looks like.
type Rules struct {
	Collection string
	// Required field names, checked after trimming whitespace.
	Required []string
	// Numeric field names, validated only when present and non-blank.
	Numeric []string
	// Bounds on the number of media previews attached to the entity.
	// Existing persisted previews and newly staged ones count the same.
	MinMedia int
	MaxMedia int
	// Labels maps field names to display names for messages. Missing
	// entries fall back to the field name.
	Labels map[string]string
}

// Error carries per-field validation messages, keyed by field name.
// Media-count failures use the "media" key.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, m := range e.Fields {
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, "; ")
}

func (r Rules) label(field string) string {
	if l, ok := r.Labels[field]; ok {
		return l
	}
	return field
}

// Check validates the fields and the attached media count. mediaCount is
// the total number of previews the entity would hold after submit.
func (r Rules) Check(fields map[string]string, mediaCount int) error {
	failures := make(map[string]string)

	for _, name := range r.Required {
		if strings.TrimSpace(fields[name]) == "" {
			failures[name] = fmt.Sprintf("%s is required", r.label(name))
		}
	}
	for _, name := range r.Numeric {
		v := strings.TrimSpace(fields[name])
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			failures[name] = fmt.Sprintf("%s must be a number", r.label(name))
		}
	}

	if mediaCount < r.MinMedia || mediaCount > r.MaxMedia {
		switch {
		case r.MinMedia == r.MaxMedia:
			failures["media"] = fmt.Sprintf("exactly %d image(s) required", r.MinMedia)
		case r.MinMedia == 0:
			failures["media"] = fmt.Sprintf("at most %d image(s) allowed", r.MaxMedia)
		default:
			failures["media"] = fmt.Sprintf("between %d and %d images required", r.MinMedia, r.MaxMedia)
		}
	}

	if len(failures) > 0 {
		return &Error{Fields: failures}
	}
	return nil
}

// CheckMediaLimit rejects an upload batch that would exceed MaxMedia on its
// own. Applied when media is attached, before any of it is staged.
func (r Rules) CheckMediaLimit(count int) error {
	if count > r.MaxMedia {
		return &Error{Fields: map[string]string{
			"media": fmt.Sprintf("at most %d image(s) allowed", r.MaxMedia),
		}}
	}
	return nil
}

// RoomRules matches the hotel room form: name and pricing required, one to
// three photos.
func RoomRules() Rules {
	return Rules{
		Collection: "rooms",
		Required:   []string{"room_type", "price_per_night", "capacity"},
		Numeric:    []string{"price_per_night", "capacity"},
		MinMedia:   1,
		MaxMedia:   3,
		Labels: map[string]string{
			"room_type":       "Room type",
			"price_per_night": "Price per night",
			"capacity":        "Capacity",
		},
	}
}

// PropertyRules matches the property form: name and address required, logo
// optional.
func PropertyRules() Rules {
	return Rules{
		Collection: "properties",
		Required:   []string{"name", "address"},
		MinMedia:   0,
		MaxMedia:   1,
		Labels: map[string]string{
			"name":    "Property name",
			"address": "Address",
		},
	}
}

// ForCollection returns the rules for a known collection name.
func ForCollection(name string) (Rules, bool) {
	switch name {
	case "rooms":
		return RoomRules(), true
	case "properties":
		return PropertyRules(), true
	}
	return Rules{}, false
}
