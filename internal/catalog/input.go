package catalog

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/pkg/model"
)

var idListPattern = regexp.MustCompile(`^[\d,\s]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("idlist", func(fl validator.FieldLevel) bool {
		return idListPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("episodecode", func(fl validator.FieldLevel) bool {
		return model.EpisodeCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("posint", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		return err == nil && n > 0
	})
	return v
}

// messages maps field and failed tag to the message shown next to the field.
type messages map[string]map[string]string

func check(input any, msgs messages, what string) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(what, nil)
	}
	fields := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := msgs[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = "Invalid value"
		}
		fields = append(fields, model.FieldError{Field: fe.Field(), Message: msg})
	}
	return apperr.Validation(what, fields)
}

// ParseIDList parses a comma-separated list of integers, dropping blanks and
// entries that are not numbers.
func ParseIDList(s string) []int {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		ids = append(ids, n)
	}
	return ids
}

// FormatIDList is the inverse of ParseIDList.
func FormatIDList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

// CharacterFilterFrom reads listing filters from query parameters. ok is
// false for a status other than alive or dead, or an unknown gender.
func CharacterFilterFrom(q url.Values) (f model.CharacterFilter, ok bool) {
	f = model.CharacterFilter{
		Name:     strings.TrimSpace(q.Get("name")),
		Species:  strings.TrimSpace(q.Get("species")),
		Gender:   q.Get("gender"),
		Status:   strings.ToLower(q.Get("status")),
		Location: strings.TrimSpace(q.Get("location")),
		Origin:   strings.TrimSpace(q.Get("origin")),
	}
	if f.Status != "" && f.Status != "alive" && f.Status != "dead" {
		return f, false
	}
	if f.Gender != "" && !slices.Contains(model.Genders, f.Gender) {
		return f, false
	}
	return f, true
}

// CharacterInput is the submitted form of a character.
type CharacterInput struct {
	Name       string `form:"name" validate:"required,min=2"`
	IsAlive    string `form:"isAlive" validate:"required,oneof=true false"`
	Species    string `form:"species" validate:"required"`
	Type       string `form:"type"`
	Gender     string `form:"gender" validate:"omitempty,oneof=Female Male Genderless Unknown"`
	Image      string `form:"image" validate:"required,url"`
	Episode    string `form:"episode" validate:"idlist"`
	LocationID string `form:"locationId" validate:"required,number"`
	OriginID   string `form:"originId" validate:"omitempty,number"`
}

var characterMessages = messages{
	"name":       {"required": "Character name is required", "min": "Name must be at least 2 chars"},
	"isAlive":    {"required": "Status is required", "oneof": "Invalid status value"},
	"species":    {"required": "Species is required"},
	"gender":     {"oneof": "Invalid Gender"},
	"image":      {"required": "Image URL is required", "url": "Must be a valid URL"},
	"episode":    {"idlist": "Episodes must be numbers separated by commas (e.g. 1, 2)"},
	"locationId": {"required": "Last Known Location is required", "number": "Invalid Location ID"},
	"originId":   {"number": "Invalid Origin ID"},
}

func (in *CharacterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.TrimSpace(in.Species)
	in.Type = strings.TrimSpace(in.Type)
	in.Image = strings.TrimSpace(in.Image)
	in.Episode = strings.TrimSpace(in.Episode)
	in.LocationID = strings.TrimSpace(in.LocationID)
	in.OriginID = strings.TrimSpace(in.OriginID)
}

// Validate returns a VALIDATION_FAILED error naming every invalid field.
func (in *CharacterInput) Validate() error {
	in.normalize()
	return check(in, characterMessages, "character input invalid")
}

// CharacterInputFrom fills a form from an existing character, for edit pages.
func CharacterInputFrom(c *model.Character) CharacterInput {
	return CharacterInput{
		Name:       c.Name,
		IsAlive:    strconv.FormatBool(c.IsAlive),
		Species:    c.Species,
		Type:       c.Type,
		Gender:     c.Gender,
		Image:      c.Image,
		Episode:    FormatIDList(c.Episodes),
		LocationID: strconv.Itoa(c.Location.ID),
		OriginID:   strconv.Itoa(c.Origin.ID),
	}
}

// EpisodeInput is the submitted form of an episode. EpisodeID is only read on create.
type EpisodeInput struct {
	EpisodeID  string `form:"episodeId" validate:"omitempty,posint"`
	Name       string `form:"name" validate:"min=2"`
	AirDate    string `form:"air_date" validate:"required"`
	Code       string `form:"episode" validate:"required,episodecode"`
	Characters string `form:"characters" validate:"idlist"`
}

var episodeMessages = messages{
	"episodeId":  {"posint": "Episode ID must be a positive number", "required": "Episode ID must be a positive number"},
	"name":       {"min": "Name must be at least 2 characters"},
	"air_date":   {"required": "Air date is required"},
	"episode":    {"required": "Episode code is required (e.g., S01E01)", "episodecode": "Episode code must follow the pattern S##E## (e.g., S01E01, S02E10)"},
	"characters": {"idlist": "Characters must be numbers separated by commas"},
}

func (in *EpisodeInput) normalize() {
	in.EpisodeID = strings.TrimSpace(in.EpisodeID)
	in.Name = strings.TrimSpace(in.Name)
	in.AirDate = strings.TrimSpace(in.AirDate)
	in.Code = strings.TrimSpace(in.Code)
	in.Characters = strings.TrimSpace(in.Characters)
}

// Validate returns a VALIDATION_FAILED error naming every invalid field.
func (in *EpisodeInput) Validate() error {
	in.normalize()
	return check(in, episodeMessages, "episode input invalid")
}

// EpisodeInputFrom fills a form from an existing episode.
func EpisodeInputFrom(e *model.Episode) EpisodeInput {
	return EpisodeInput{
		EpisodeID:  strconv.Itoa(e.EpisodeID),
		Name:       e.Name,
		AirDate:    e.AirDate,
		Code:       e.Code,
		Characters: FormatIDList(e.Characters),
	}
}

// LocationInput is the submitted form of a location. LocationID is only read on create.
type LocationInput struct {
	LocationID string `form:"locationId" validate:"omitempty,posint"`
	Name       string `form:"name" validate:"required,min=2,max=100"`
	Type       string `form:"type"`
	Dimension  string `form:"dimension"`
}

var locationMessages = messages{
	"locationId": {"posint": "Location ID must be a positive number", "required": "Location ID is required"},
	"name":       {"required": "Name is required", "min": "Name must be at least 2 characters", "max": "Location name cannot exceed 100 characters"},
}

func (in *LocationInput) normalize() {
	in.LocationID = strings.TrimSpace(in.LocationID)
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Dimension = strings.TrimSpace(in.Dimension)
}

// Validate returns a VALIDATION_FAILED error naming every invalid field.
func (in *LocationInput) Validate() error {
	in.normalize()
	return check(in, locationMessages, "location input invalid")
}

// LocationInputFrom fills a form from an existing location.
func LocationInputFrom(l *model.Location) LocationInput {
	return LocationInput{
		LocationID: strconv.Itoa(l.LocationID),
		Name:       l.Name,
		Type:       l.Type,
		Dimension:  l.Dimension,
	}
}

// requireID adds a field error when a create form omits its numeric id.
func requireID(err error, field, msg, value string) error {
	if value != "" {
		return err
	}
	fields := append(apperr.FieldErrors(err), model.FieldError{Field: field, Message: msg})
	return apperr.Validation("input invalid", fields)
}
