package models

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a geocoder candidate produced by location search. It is built per
// request and never persisted.
type Place struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	FullName  string  `json:"full_name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Type      string  `json:"type"`
	Relevance float64 `json:"relevance"`
}

// Coordinates returns the place location.
func (p Place) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// NearbyPlace is a point of interest annotated with its distance in km from
// the lookup point.
type NearbyPlace struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Distance  float64 `json:"distance"`
}

// SearchQuery is the input of a location search. Bias is optional.
type SearchQuery struct {
	Text string
	Bias *Coordinates
}

type LocationSearchResponse struct {
	Success bool    `json:"success"`
	Places  []Place `json:"places"`
}

type NearbyPlacesResponse struct {
	Success bool          `json:"success"`
	Places  []NearbyPlace `json:"places"`
}

type APIFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
