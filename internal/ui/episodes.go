package ui

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/internal/catalog"
	"github.com/me/showrunner/internal/session"
)

var seasonPattern = regexp.MustCompile(`^S\d{2}$`)

// HandleEpisodeList renders one page of episodes, optionally of one season.
func (ui *UI) HandleEpisodeList(w http.ResponseWriter, r *http.Request) {
	season := r.URL.Query().Get("season")
	page, ok := parsePage(r)
	if !ok || (season != "" && season != "all" && !seasonPattern.MatchString(season)) {
		ui.renderError(w, r, http.StatusBadRequest, msgInvalidSearch)
		return
	}

	listing, err := ui.catalog.ListEpisodes(r.Context(), season, page)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	if season == "" {
		season = "all"
	}
	ui.render(w, r, http.StatusOK, "episodes/list", map[string]any{
		"Title":      "Episodes",
		"Episodes":   listing.Items,
		"Total":      listing.Total,
		"Season":     season,
		"Seasons":    listing.Seasons,
		"Pagination": buildPagination(r, listing.Page.Page, listing.TotalPages),
	})
}

// HandleEpisodeDetail renders an episode and its characters.
func (ui *UI) HandleEpisodeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Episode not found")
		return
	}
	ep, cast, err := ui.catalog.EpisodeCast(r.Context(), id)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.render(w, r, http.StatusOK, "episodes/detail", map[string]any{
		"Title":      ep.Name,
		"Episode":    ep,
		"Characters": cast,
	})
}

func episodeForm(r *http.Request) catalog.EpisodeInput {
	return catalog.EpisodeInput{
		EpisodeID:  r.PostForm.Get("episodeId"),
		Name:       r.PostForm.Get("name"),
		AirDate:    r.PostForm.Get("air_date"),
		Code:       r.PostForm.Get("episode"),
		Characters: r.PostForm.Get("characters"),
	}
}

func (ui *UI) renderEpisodeForm(w http.ResponseWriter, r *http.Request, status, id int, in catalog.EpisodeInput, errs map[string]string) {
	title, action := "Create Episode", "/episodes/create"
	if id != 0 {
		title, action = "Edit Episode", "/episodes/edit/"+strconv.Itoa(id)
	}
	ui.render(w, r, status, "episodes/form", map[string]any{
		"Title":  title,
		"Action": action,
		"IsEdit": id != 0,
		"Form":   in,
		"Errors": errs,
	})
}

// episodeFormError re-renders the form for validation and duplicate-id errors.
// It reports false for other errors, which the caller handles.
func (ui *UI) episodeFormError(w http.ResponseWriter, r *http.Request, id int, in catalog.EpisodeInput, err error) bool {
	switch {
	case apperr.Is(err, apperr.CodeValidationFailed):
		ui.renderEpisodeForm(w, r, http.StatusBadRequest, id, in, fieldMap(err))
	case apperr.Is(err, apperr.CodeConflict):
		ui.renderEpisodeForm(w, r, http.StatusConflict, id, in, map[string]string{"episodeId": "Episode ID already exists"})
	default:
		return false
	}
	return true
}

// HandleEpisodeCreate renders an empty episode form.
func (ui *UI) HandleEpisodeCreate(w http.ResponseWriter, r *http.Request) {
	ui.renderEpisodeForm(w, r, http.StatusOK, 0, catalog.EpisodeInput{}, nil)
}

// HandleEpisodeCreatePost stores a new episode.
func (ui *UI) HandleEpisodeCreatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	in := episodeForm(r)
	ep, err := ui.catalog.CreateEpisode(r.Context(), in)
	if err != nil {
		if !ui.episodeFormError(w, r, 0, in, err) {
			ui.fail(w, r, err)
		}
		return
	}
	ui.flash(w, r, session.FlashSuccess,
		fmt.Sprintf("Episode %q has been created successfully.", ep.Name), "/episodes/"+strconv.Itoa(ep.EpisodeID))
}

// HandleEpisodeEdit renders the form for an existing episode.
func (ui *UI) HandleEpisodeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Episode not found")
		return
	}
	ep, err := ui.catalog.GetEpisode(r.Context(), id)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.renderEpisodeForm(w, r, http.StatusOK, id, catalog.EpisodeInputFrom(ep), nil)
}

// HandleEpisodeEditPost rewrites an episode.
func (ui *UI) HandleEpisodeEditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Episode not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	in := episodeForm(r)
	in.EpisodeID = strconv.Itoa(id)
	ep, err := ui.catalog.UpdateEpisode(r.Context(), id, in)
	if err != nil {
		if !ui.episodeFormError(w, r, id, in, err) {
			ui.fail(w, r, err)
		}
		return
	}
	ui.flash(w, r, session.FlashSuccess,
		fmt.Sprintf("Episode %q has been updated successfully.", ep.Name), "/episodes/"+strconv.Itoa(id))
}

// HandleEpisodeDelete removes an episode.
func (ui *UI) HandleEpisodeDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		ui.renderError(w, r, http.StatusNotFound, "Episode not found")
		return
	}
	ep, err := ui.catalog.DeleteEpisode(r.Context(), id)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.flash(w, r, session.FlashSuccess, fmt.Sprintf("Episode %q has been deleted successfully.", ep.Name), "/episodes")
}
