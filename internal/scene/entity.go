package scene

import "fmt"

type EntityID int

// Location is a WGS84 longitude/latitude pair in degrees.
type Location struct {
	Lon float64
	Lat float64
}

func (l Location) String() string {
	return fmt.Sprintf("%.4f, %.4f", l.Lat, l.Lon)
}

// Entity is a selectable geographic record.
type Entity struct {
	ID          EntityID
	Name        string
	Country     string
	Description string
	Location    Location
}
