package domain

import "encoding/json"

// Dealer is passed through from the backend untouched; only its id is ever read.
type Dealer = json.RawMessage

// CarModelView is one row of the car inventory listing.
type CarModelView struct {
	CarModel string `json:"CarModel"`
	CarMake  string `json:"CarMake"`
	Type     string `json:"Type,omitempty"`
	Year     int    `json:"Year,omitempty"`
}
