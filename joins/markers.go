package joins

import (
	"math"
	"strings"

	"iot-dashboard/entities"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var countries = map[string]Coordinates{
	"albania":        {41.1533, 20.1683},
	"china":          {35.8617, 104.1954},
	"czech republic": {49.8175, 15.473},
	"ecuador":        {-1.8312, -78.1834},
	"ethiopia":       {9.145, 40.4897},
	"greece":         {39.0742, 21.8243},
	"italy":          {41.8719, 12.5674},
	"japan":          {36.2048, 138.2529},
	"malaysia":       {4.2105, 101.9758},
	"mexico":         {23.6345, -102.5528},
	"morocco":        {31.7917, -7.0926},
	"peru":           {-9.19, -75.0152},
	"philippines":    {12.8797, 121.774},
	"poland":         {51.9194, 19.1451},
	"russia":         {61.524, 105.3188},
	"slovenia":       {46.1512, 14.9955},
	"thailand":       {15.87, 100.9925},
}

// CountryCoordinates looks a user location up in the country table,
// ignoring case and surrounding spaces.
func CountryCoordinates(location string) (Coordinates, bool) {
	c, ok := countries[strings.ToLower(strings.TrimSpace(location))]
	return c, ok
}

type Marker struct {
	Country  string      `json:"country"`
	Location Coordinates `json:"location"`
	Size     float64     `json:"size"`
}

// MarkerSize grows with the household, from 0.03 up to 0.1.
func MarkerSize(personsInHouse int) float64 {
	return math.Min(0.03+float64(personsInHouse)/10*0.07, 0.1)
}

// MapMarkers places one marker per known country, sized after the first
// user seen there. Unknown locations are skipped.
func MapMarkers(users []entities.User) []Marker {
	seen := make(map[string]bool)
	markers := make([]Marker, 0)
	for _, u := range users {
		country := strings.ToLower(strings.TrimSpace(u.Location))
		coords, ok := countries[country]
		if !ok || seen[country] {
			continue
		}
		seen[country] = true
		markers = append(markers, Marker{Country: country, Location: coords, Size: MarkerSize(u.PersonsInHouse)})
	}
	return markers
}
