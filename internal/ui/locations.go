package ui

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/internal/catalog"
	"github.com/me/showrunner/internal/session"
	"github.com/me/showrunner/pkg/model"
)

// HandleLocationList renders one page of locations filtered by type and dimension.
func (ui *UI) HandleLocationList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.LocationFilter{Type: q.Get("type"), Dimension: q.Get("dimension")}
	page, ok := parsePage(r)
	if !ok {
		ui.renderError(w, r, http.StatusBadRequest, msgInvalidSearch)
		return
	}

	listing, err := ui.catalog.ListLocations(r.Context(), f, page)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.render(w, r, http.StatusOK, "locations/list", map[string]any{
		"Title":      "Locations",
		"Locations":  listing.Items,
		"Total":      listing.Total,
		"Filter":     f,
		"Types":      listing.Types,
		"Dimensions": listing.Dimensions,
		"Pagination": buildPagination(r, listing.Page.Page, listing.TotalPages),
	})
}

// HandleLocationDetail renders a location and its residents.
func (ui *UI) HandleLocationDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Location not found")
		return
	}
	l, residents, err := ui.catalog.LocationResidents(r.Context(), id)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.render(w, r, http.StatusOK, "locations/detail", map[string]any{
		"Title":     l.Name,
		"Location":  l,
		"Residents": residents,
	})
}

func locationForm(r *http.Request) catalog.LocationInput {
	return catalog.LocationInput{
		LocationID: r.PostForm.Get("locationId"),
		Name:       r.PostForm.Get("name"),
		Type:       r.PostForm.Get("type"),
		Dimension:  r.PostForm.Get("dimension"),
	}
}

func (ui *UI) renderLocationForm(w http.ResponseWriter, r *http.Request, status, id int, in catalog.LocationInput, errs map[string]string) {
	title, action := "Create Location", "/locations/create"
	if id != 0 {
		title, action = "Edit Location", "/locations/edit/"+strconv.Itoa(id)
	}
	ui.render(w, r, status, "locations/form", map[string]any{
		"Title":  title,
		"Action": action,
		"IsEdit": id != 0,
		"Form":   in,
		"Errors": errs,
	})
}

// HandleLocationCreate renders an empty location form.
func (ui *UI) HandleLocationCreate(w http.ResponseWriter, r *http.Request) {
	ui.renderLocationForm(w, r, http.StatusOK, 0, catalog.LocationInput{}, nil)
}

// HandleLocationCreatePost stores a new location.
func (ui *UI) HandleLocationCreatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	in := locationForm(r)
	l, err := ui.catalog.CreateLocation(r.Context(), in)
	switch {
	case apperr.Is(err, apperr.CodeValidationFailed):
		ui.renderLocationForm(w, r, http.StatusBadRequest, 0, in, fieldMap(err))
		return
	case apperr.Is(err, apperr.CodeConflict):
		ui.renderLocationForm(w, r, http.StatusConflict, 0, in, map[string]string{"locationId": "Location ID already exists"})
		return
	case err != nil:
		ui.fail(w, r, err)
		return
	}
	ui.flash(w, r, session.FlashSuccess,
		fmt.Sprintf("Location %q has been created successfully.", l.Name), "/locations/"+strconv.Itoa(l.LocationID))
}

// HandleLocationEdit renders the form for an existing location.
func (ui *UI) HandleLocationEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Location not found")
		return
	}
	l, err := ui.catalog.GetLocation(r.Context(), id)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.renderLocationForm(w, r, http.StatusOK, id, catalog.LocationInputFrom(l), nil)
}

// HandleLocationEditPost rewrites a location's name, type and dimension.
func (ui *UI) HandleLocationEditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Location not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	in := locationForm(r)
	in.LocationID = strconv.Itoa(id)
	l, err := ui.catalog.UpdateLocation(r.Context(), id, in)
	if apperr.Is(err, apperr.CodeValidationFailed) {
		ui.renderLocationForm(w, r, http.StatusBadRequest, id, in, fieldMap(err))
		return
	}
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.flash(w, r, session.FlashSuccess,
		fmt.Sprintf("Location %q has been updated successfully.", l.Name), "/locations/"+strconv.Itoa(id))
}

// HandleLocationDelete removes a location.
func (ui *UI) HandleLocationDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Location not found")
		return
	}
	l, err := ui.catalog.DeleteLocation(r.Context(), id)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.flash(w, r, session.FlashSuccess, fmt.Sprintf("Location %q has been deleted successfully.", l.Name), "/locations")
}
