package ui

import (
	"net/http"
	"strconv"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/internal/catalog"
	"github.com/me/showrunner/internal/session"
	"github.com/me/showrunner/pkg/model"
)

const msgInvalidSearch = "Invalid search parameters"

// HandleCharacterList renders one page of characters.
func (ui *UI) HandleCharacterList(w http.ResponseWriter, r *http.Request) {
	f, ok := catalog.CharacterFilterFrom(r.URL.Query())
	page, pageOK := parsePage(r)
	if !ok || !pageOK {
		ui.renderError(w, r, http.StatusBadRequest, msgInvalidSearch)
		return
	}

	result, err := ui.catalog.ListCharacters(r.Context(), f, page)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.render(w, r, http.StatusOK, "characters/list", map[string]any{
		"Title":      "Characters",
		"Characters": result.Items,
		"Total":      result.Total,
		"Filter":     f,
		"Genders":    model.Genders,
		"Pagination": buildPagination(r, result.Page, result.TotalPages),
	})
}

// HandleCharacterDetail renders one character.
func (ui *UI) HandleCharacterDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Character not found")
		return
	}
	c, err := ui.catalog.GetCharacter(r.Context(), id)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.render(w, r, http.StatusOK, "characters/detail", map[string]any{
		"Title":     c.Name,
		"Character": c,
	})
}

func characterForm(r *http.Request) catalog.CharacterInput {
	return catalog.CharacterInput{
		Name:       r.PostForm.Get("name"),
		IsAlive:    r.PostForm.Get("isAlive"),
		Species:    r.PostForm.Get("species"),
		Type:       r.PostForm.Get("type"),
		Gender:     r.PostForm.Get("gender"),
		Image:      r.PostForm.Get("image"),
		Episode:    r.PostForm.Get("episode"),
		LocationID: r.PostForm.Get("locationId"),
		OriginID:   r.PostForm.Get("originId"),
	}
}

// renderCharacterForm shows the create or edit form. id is 0 on create.
func (ui *UI) renderCharacterForm(w http.ResponseWriter, r *http.Request, status, id int, in catalog.CharacterInput, errs map[string]string) {
	locations, err := ui.catalog.LocationChoices(r.Context())
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	title, action := "Create Character", "/characters/create"
	if id != 0 {
		title, action = "Edit Character", "/characters/edit/"+strconv.Itoa(id)
	}
	ui.render(w, r, status, "characters/form", map[string]any{
		"Title":     title,
		"Action":    action,
		"Form":      in,
		"Errors":    errs,
		"Locations": locations,
		"Genders":   model.Genders,
	})
}

// HandleCharacterCreate renders an empty character form.
func (ui *UI) HandleCharacterCreate(w http.ResponseWriter, r *http.Request) {
	ui.renderCharacterForm(w, r, http.StatusOK, 0, catalog.CharacterInput{IsAlive: "true"}, nil)
}

// HandleCharacterCreatePost stores a new character.
func (ui *UI) HandleCharacterCreatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	in := characterForm(r)
	c, err := ui.catalog.CreateCharacter(r.Context(), in)
	if apperr.Is(err, apperr.CodeValidationFailed) {
		ui.renderCharacterForm(w, r, http.StatusBadRequest, 0, in, fieldMap(err))
		return
	}
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.flash(w, r, session.FlashSuccess, "Character created successfully!", "/characters/"+strconv.Itoa(c.CharacterID))
}

// HandleCharacterEdit renders the form for an existing character.
func (ui *UI) HandleCharacterEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Character not found")
		return
	}
	c, err := ui.catalog.GetCharacter(r.Context(), id)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.renderCharacterForm(w, r, http.StatusOK, id, catalog.CharacterInputFrom(c), nil)
}

// HandleCharacterEditPost rewrites a character.
func (ui *UI) HandleCharacterEditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Character not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	in := characterForm(r)
	_, err := ui.catalog.UpdateCharacter(r.Context(), id, in)
	if apperr.Is(err, apperr.CodeValidationFailed) {
		ui.renderCharacterForm(w, r, http.StatusBadRequest, id, in, fieldMap(err))
		return
	}
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.flash(w, r, session.FlashSuccess, "Character updated successfully!", "/characters/"+strconv.Itoa(id))
}

// HandleCharacterDelete removes a character.
func (ui *UI) HandleCharacterDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Character not found")
		return
	}
	if err := ui.catalog.DeleteCharacter(r.Context(), id); err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.flash(w, r, session.FlashSuccess, "Character deleted successfully!", "/characters")
}
