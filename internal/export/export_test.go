package export

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Seaside Hotel", "Seaside-Hotel"},
		{"Hotel v1.2", "Hotel-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "property-report"},
		{"Very Long Property Name That Exceeds Fifty Characters Limit", "Very-Long-Property-Name-That-Exceeds-Fifty-Charact"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderReportHTML(t *testing.T) {
	data := TemplateData{
		PropertyName: "Seaside Hotel",
		Address:      "1 Shore Road",
		HeroTitle:    "Welcome to the shore",
		About:        "Family-run since 1982.",
		Amenities:    "Pool, spa, parking",
		ContactEmail: "front@seaside.example.com",
		Rooms: []TemplateRoom{
			{RoomType: "Deluxe", PricePerNight: "120", Capacity: "2", State: "persisted"},
			{RoomType: "Suite", PricePerNight: "210", Capacity: "4", State: "draft"},
		},
		Events: []TemplateEvent{
			{Action: "create", Outcome: "ok", CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
			{Action: "update", Outcome: "failed", Message: "upstream error (500)", CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		},
		GeneratedAt: time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		t.Fatalf("RenderReportHTML() error = %v", err)
	}

	for _, want := range []string{
		"Seaside Hotel",
		"1 Shore Road",
		"Welcome to the shore",
		"Family-run since 1982.",
		"Deluxe",
		"Suite",
		"upstream error (500)",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if !strings.Contains(html, "draft") || !strings.Contains(html, "persisted") {
		t.Error("HTML missing room states")
	}
}

func TestRenderReportHTMLEscapesUserContent(t *testing.T) {
	data := TemplateData{
		PropertyName: "Hotel <script>alert(1)</script>",
		GeneratedAt:  time.Now(),
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		t.Fatalf("RenderReportHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("user content must be escaped")
	}
}
