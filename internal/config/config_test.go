package config

import "testing"

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"http://127.0.0.1:8000":    "http://127.0.0.1:8000",
		"http://127.0.0.1:8000/":   "http://127.0.0.1:8000",
		"http://127.0.0.1:8000///": "http://127.0.0.1:8000",
		"  https://api.example.com/ ": "https://api.example.com",
	}
	for in, want := range cases {
		if got := NormalizeBaseURL(in); got != want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{
		"/api":    "/api",
		"api":     "/api",
		"api/":    "/api",
		"//api//": "/api",
		"":        "",
		"  ":      "",
	}
	for in, want := range cases {
		if got := NormalizePrefix(in); got != want {
			t.Errorf("NormalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJoinURL(t *testing.T) {
	if got := JoinURL("http://h:8000", "/api/admin/property/rooms"); got != "http://h:8000/api/admin/property/rooms" {
		t.Fatalf("unexpected join: %q", got)
	}
	if got := JoinURL("http://h:8000/", "api/admin/property/rooms"); got != "http://h:8000/api/admin/property/rooms" {
		t.Fatalf("unexpected join: %q", got)
	}
}
