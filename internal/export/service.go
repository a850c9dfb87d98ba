package export

import (
	"context"
	"fmt"
	"time"
)

// DataStore supplies the report contents.
type DataStore interface {
	GetProperty(ctx context.Context, id string) (PropertyInfo, error)
	ListRooms(ctx context.Context, propertyID string) ([]RoomInfo, error)
	GetHomeSections(ctx context.Context, propertyID string) (SectionsInfo, error)
	ListRecentEvents(ctx context.Context, propertyID string) ([]EventInfo, error)
}

// PropertyInfo holds basic property metadata.
type PropertyInfo struct {
	ID      string
	Name    string
	Address string
}

// RoomInfo holds one room for the report.
type RoomInfo struct {
	RoomType      string
	PricePerNight string
	Capacity      string
	State         string
}

// SectionsInfo holds the published home-page copy.
type SectionsInfo struct {
	HeroTitle    string
	HeroSubtitle string
	About        string
	Amenities    string
	ContactEmail string
	ContactPhone string
}

// EventInfo holds one sync event for the report.
type EventInfo struct {
	Action    string
	Outcome   string
	Message   string
	CreatedAt time.Time
}

// Service generates property reports.
type Service struct {
	store DataStore
}

func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export renders the property report and prints it to PDF.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	prop, err := s.store.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}

	rooms, err := s.store.ListRooms(ctx, req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	data := TemplateData{
		PropertyName: prop.Name,
		Address:      prop.Address,
		GeneratedAt:  time.Now(),
	}
	for _, room := range rooms {
		data.Rooms = append(data.Rooms, TemplateRoom(room))
	}

	// Home sections are optional: a property without published content
	// still gets a report.
	if sections, err := s.store.GetHomeSections(ctx, req.PropertyID); err == nil {
		data.HeroTitle = sections.HeroTitle
		data.HeroSubtitle = sections.HeroSubtitle
		data.About = sections.About
		data.Amenities = sections.Amenities
		data.ContactEmail = sections.ContactEmail
		data.ContactPhone = sections.ContactPhone
	}

	if req.IncludeEvents {
		events, err := s.store.ListRecentEvents(ctx, req.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		for _, ev := range events {
			data.Events = append(data.Events, TemplateEvent(ev))
		}
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	return exportPDF(html, prop.Name)
}
