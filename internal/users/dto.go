package users

import (
	"fmt"
	"strconv"

	"github.com/lastbite-ai/lastbite-backend/pkg/tabular"
)

// TableName identifies the users table in errors, logs and metrics.
const TableName = "users"

// User is one row of the read-only users table.
type User struct {
	UID           string   `json:"user_uid"`
	ID            string   `json:"user_id"`
	Name          string   `json:"user_name"`
	LocationLat   *float64 `json:"location_lat,omitempty"`
	LocationLng   *float64 `json:"location_lng,omitempty"`
	PointsAwarded int      `json:"points_awarded"`
}

var columns = []string{"user_uid", "user_id", "user_name", "location_lat", "location_lng", "points_awarded"}

// Codec maps User records to the users table.
type Codec struct{}

func (Codec) Columns() []string  { return columns }
func (Codec) Required() []string { return []string{"user_uid"} }

func (Codec) Decode(r tabular.Row) (User, error) {
	u := User{UID: r.Get("user_uid"), ID: r.Get("user_id"), Name: r.Get("user_name")}
	if u.UID == "" {
		return User{}, fmt.Errorf("user_uid is empty")
	}

	var err error
	if u.LocationLat, err = optionalFloat(r.Get("location_lat")); err != nil {
		return User{}, fmt.Errorf("location_lat: %w", err)
	}
	if u.LocationLng, err = optionalFloat(r.Get("location_lng")); err != nil {
		return User{}, fmt.Errorf("location_lng: %w", err)
	}
	if raw := r.Get("points_awarded"); raw != "" {
		points, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return User{}, fmt.Errorf("points_awarded: %w", err)
		}
		u.PointsAwarded = int(points)
	}
	return u, nil
}

func (Codec) Encode(u User) []string {
	return []string{u.UID, u.ID, u.Name, formatFloat(u.LocationLat), formatFloat(u.LocationLng), strconv.Itoa(u.PointsAwarded)}
}

// NewStore builds the cached users table over backend.
func NewStore(backend tabular.Backend, opts ...tabular.Option) *tabular.Store[User] {
	return tabular.NewStore[User](TableName, backend, Codec{}, opts...)
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
