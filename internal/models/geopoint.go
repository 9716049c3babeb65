package models

// GeoPoint represents a WGS 84 coordinate pair
type GeoPoint struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// InBounds reports whether the point lies inside valid lat/lon ranges
func (p GeoPoint) InBounds() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}
