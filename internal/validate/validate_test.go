package validate

import (
	"errors"
	"testing"
)

func TestRoomRulesRejectMissingFields(t *testing.T) {
	rules := RoomRules()
	err := rules.Check(map[string]string{
		"room_type":       "  ",
		"price_per_night": "120",
		"capacity":        "2",
	}, 1)

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if _, ok := verr.Fields["room_type"]; !ok {
		t.Fatalf("room_type should fail, got %v", verr.Fields)
	}
	if len(verr.Fields) != 1 {
		t.Fatalf("only room_type should fail, got %v", verr.Fields)
	}
}

func TestRoomRulesRejectNonNumeric(t *testing.T) {
	rules := RoomRules()
	err := rules.Check(map[string]string{
		"room_type":       "Deluxe",
		"price_per_night": "cheap",
		"capacity":        "2",
	}, 2)

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if verr.Fields["price_per_night"] == "" {
		t.Fatalf("price_per_night should fail, got %v", verr.Fields)
	}
}

func TestRoomRulesMediaBounds(t *testing.T) {
	rules := RoomRules()
	fields := map[string]string{
		"room_type":       "Deluxe",
		"price_per_night": "120",
		"capacity":        "2",
	}

	for _, count := range []int{1, 2, 3} {
		if err := rules.Check(fields, count); err != nil {
			t.Errorf("count %d should pass: %v", count, err)
		}
	}
	for _, count := range []int{0, 4} {
		err := rules.Check(fields, count)
		var verr *Error
		if !errors.As(err, &verr) || verr.Fields["media"] == "" {
			t.Errorf("count %d should fail on media, got %v", count, err)
		}
	}
}

func TestPropertyLogoOptional(t *testing.T) {
	rules := PropertyRules()
	fields := map[string]string{"name": "Seaside", "address": "1 Shore Rd"}

	if err := rules.Check(fields, 0); err != nil {
		t.Fatalf("property without logo should pass: %v", err)
	}
	if err := rules.Check(fields, 1); err != nil {
		t.Fatalf("property with logo should pass: %v", err)
	}
	if err := rules.Check(fields, 2); err == nil {
		t.Fatal("two logos must fail")
	}
}

func TestCheckMediaLimitRejectsOversizeBatch(t *testing.T) {
	rules := RoomRules()
	if err := rules.CheckMediaLimit(3); err != nil {
		t.Fatalf("3 uploads allowed for rooms: %v", err)
	}
	if err := rules.CheckMediaLimit(4); err == nil {
		t.Fatal("4 uploads must be rejected before staging")
	}
}

func TestForCollection(t *testing.T) {
	if _, ok := ForCollection("rooms"); !ok {
		t.Fatal("rooms must be known")
	}
	if _, ok := ForCollection("properties"); !ok {
		t.Fatal("properties must be known")
	}
	if _, ok := ForCollection("bookings"); ok {
		t.Fatal("unknown collection must be rejected")
	}
}
