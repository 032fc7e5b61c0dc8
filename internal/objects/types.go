// Package objects is the store of user-added map objects: the domain types,
// their repositories and the service behind the objects API.
package objects

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeblew999/plat-metro/internal/geo"
)

// ErrNotFound is returned when an object id does not exist.
var ErrNotFound = errors.New("object not found")

// ErrInvalidInput wraps every client-side validation failure.
var ErrInvalidInput = errors.New("invalid input")

// UserObject is a point placed on the map by a user. The server assigns the
// id, the geometry and both timestamps.
type UserObject struct {
	ID          int64     `json:"id" doc:"Server-assigned identifier" example:"1"`
	Name        string    `json:"name" doc:"Display name" example:"Кафе"`
	Description *string   `json:"description" nullable:"true" doc:"Free-form description"`
	ObjectType  *string   `json:"object_type" nullable:"true" doc:"Kind of object" example:"Кафе"`
	Geom        geo.Point `json:"geom" doc:"Location as a GeoJSON Point"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

// CreatePayload is the body of a create request. Coordinates are plain
// decimal degrees; only the server turns them into a geometry.
type CreatePayload struct {
	Name        string  `json:"name" required:"true" minLength:"1" maxLength:"255" doc:"Display name" example:"Кафе"`
	Description *string `json:"description,omitempty" required:"false" doc:"Free-form description"`
	ObjectType  *string `json:"object_type,omitempty" required:"false" maxLength:"100" doc:"Kind of object" example:"Кафе"`
	Latitude    float64 `json:"latitude" minimum:"-90" maximum:"90" doc:"Latitude in decimal degrees" example:"55.75"`
	Longitude   float64 `json:"longitude" minimum:"-180" maximum:"180" doc:"Longitude in decimal degrees" example:"37.6"`
}

// Validate checks the payload before any network or database call.
func (p CreatePayload) Validate() error {
	var errs []string
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "name is required")
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		errs = append(errs, fmt.Sprintf("latitude must be within [-90, 90], got %g", p.Latitude))
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		errs = append(errs, fmt.Sprintf("longitude must be within [-180, 180], got %g", p.Longitude))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(errs, "; "))
	}
	return nil
}

// Normalized trims text fields and drops empty optional ones.
func (p CreatePayload) Normalized() CreatePayload {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = trimOptional(p.Description)
	p.ObjectType = trimOptional(p.ObjectType)
	return p
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// Text returns a pointer to s, or nil when s is empty.
func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
