package model

import "time"

// Gender values accepted for a character.
const (
	GenderFemale     = "Female"
	GenderMale       = "Male"
	GenderGenderless = "Genderless"
	GenderUnknown    = "Unknown"
)

// Genders lists the accepted gender values in display order.
var Genders = []string{GenderFemale, GenderMale, GenderGenderless, GenderUnknown}

// PlaceRef is an embedded reference to a location by id and name.
type PlaceRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UnknownPlace is used when a character's location or origin cannot be resolved.
var UnknownPlace = PlaceRef{ID: 0, Name: "Unknown"}

// Character is a person or creature from the dataset.
type Character struct {
	CharacterID int       `json:"character_id"`
	Name        string    `json:"name"`
	IsAlive     bool      `json:"is_alive"`
	Species     string    `json:"species"`
	Type        string    `json:"type"`
	Gender      string    `json:"gender"`
	Image       string    `json:"image"`
	Location    PlaceRef  `json:"location"`
	Origin      PlaceRef  `json:"origin"`
	Episodes    []int     `json:"episode"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// Status returns "Alive" or "Dead".
func (c *Character) Status() string {
	if c.IsAlive {
		return "Alive"
	}
	return "Dead"
}

// CharacterFilter narrows a character listing. Empty fields are ignored.
type CharacterFilter struct {
	Name     string
	Species  string
	Gender   string
	Status   string // "alive" or "dead"
	Location string
	Origin   string
}
