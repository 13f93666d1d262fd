package models

import (
	"encoding/json"
	"time"
)

// ParsedItem is the item schema shared by the AI and spreadsheet collaborators.
type ParsedItem struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku,omitempty"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
	Stackable   bool    `json:"stackable"`
}

// CargoItem is one unit type of freight. Dimensions are inches, weight is
// pounds per unit.
type CargoItem struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku,omitempty"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
	Stackable   bool    `json:"stackable"`
	Fragile     bool    `json:"fragile"`
	Hazmat      bool    `json:"hazmat"`
}

// Valid reports whether the item can be planned.
func (c CargoItem) Valid() bool {
	return c.Length > 0 && c.Width > 0 && c.Height > 0 && c.Weight > 0
}

func (c CargoItem) Volume() float64 {
	return c.Length * c.Width * c.Height
}

type ParseMetadata struct {
	Method      string `json:"method"`
	ItemCount   int    `json:"itemCount"`
	ParseMethod string `json:"parseMethod,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// ParsedLoad aggregates a shipment before truck assignment. Length, Width and
// Height are the componentwise maximum across items, Weight is the sum of
// weight x quantity.
type ParsedLoad struct {
	Length     float64        `json:"length"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Weight     float64        `json:"weight"`
	Items      []CargoItem    `json:"items"`
	Confidence int            `json:"confidence"`
	Metadata   *ParseMetadata `json:"metadata,omitempty"`
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// Fits reports whether d stays within limit on every measure.
func (d Dimensions) Fits(limit Dimensions) bool {
	return d.Length <= limit.Length && d.Width <= limit.Width && d.Height <= limit.Height && d.Weight <= limit.Weight
}

// Exceeded names every measure of d that is above limit.
func (d Dimensions) Exceeded(limit Dimensions) []string {
	var out []string
	if d.Length > limit.Length {
		out = append(out, "length")
	}
	if d.Width > limit.Width {
		out = append(out, "width")
	}
	if d.Height > limit.Height {
		out = append(out, "height")
	}
	if d.Weight > limit.Weight {
		out = append(out, "weight")
	}
	return out
}

// TruckSpec is a trailer type's physical envelope. Legal is always within Max.
type TruckSpec struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Max   Dimensions `json:"max"`
	Legal Dimensions `json:"legal"`
}

type FitClass string

const (
	FitLegal          FitClass = "legal-fit"
	FitPermitRequired FitClass = "permit-required"
	FitDoesNotFit     FitClass = "does-not-fit"
)

type TruckRecommendation struct {
	Truck      TruckSpec `json:"truck"`
	Fit        FitClass  `json:"fit"`
	Violations []string  `json:"violations,omitempty"`
}

// LoadBin is one truck in a load plan.
type LoadBin struct {
	Index          int         `json:"index"`
	Truck          TruckSpec   `json:"truck"`
	Items          []CargoItem `json:"items"`
	UnitCount      int         `json:"unitCount"`
	TotalWeight    float64     `json:"totalWeight"`
	Length         float64     `json:"length"`
	Width          float64     `json:"width"`
	Height         float64     `json:"height"`
	Utilization    float64     `json:"utilization"`
	PermitRequired bool        `json:"permitRequired"`
}

// UnplacedUnit reports units of one item that were not placed. Item.Quantity
// is the number of such units.
type UnplacedUnit struct {
	Item   CargoItem `json:"item"`
	Reason string    `json:"reason"`
}

type LoadPlan struct {
	Bins       []LoadBin      `json:"bins"`
	TruckCount int            `json:"truckCount"`
	Unplaced   []UnplacedUnit `json:"unplaced"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AdminArea is a first-level administrative division (a U.S. state) as
// reported by a reverse geocoder.
type AdminArea struct {
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
}

type StateSegment struct {
	State    string  `json:"state"`
	Name     string  `json:"stateName"`
	Entry    LatLng  `json:"entryPoint"`
	Exit     LatLng  `json:"exitPoint"`
	Distance float64 `json:"distanceMiles"`
	Order    int     `json:"order"`
}

type RouteLeg struct {
	DistanceMeters  int `json:"distanceMeters"`
	DurationSeconds int `json:"durationSeconds"`
}

type RouteResult struct {
	Legs             []RouteLeg `json:"legs"`
	OverviewPolyline string     `json:"overviewPolyline"`
}

type RouteAnalysis struct {
	TotalDistanceMiles   float64            `json:"totalDistanceMiles"`
	TotalDurationMinutes int                `json:"totalDurationMinutes"`
	EstimatedDriveTime   string             `json:"estimatedDriveTime"`
	StatesTraversed      []string           `json:"statesTraversed"`
	StateSegments        []StateSegment     `json:"stateSegments"`
	StateDistances       map[string]float64 `json:"stateDistances"`
	RoutePolyline        string             `json:"routePolyline"`
	Waypoints            []string           `json:"waypoints"`
	Warnings             []string           `json:"warnings"`
}

// Run is an audit record of one analysis call.
type Run struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Status     string          `json:"status"`
	Summary    json.RawMessage `json:"summary"`
}
