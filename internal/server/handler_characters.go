package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/showrunner/internal/catalog"
	"github.com/me/showrunner/pkg/model"
)

// characterRequest is the JSON body of create and update calls.
type characterRequest struct {
	Name       string `json:"name"`
	IsAlive    *bool  `json:"isAlive"`
	Species    string `json:"species"`
	Type       string `json:"type"`
	Gender     string `json:"gender"`
	Image      string `json:"image"`
	Episode    []int  `json:"episode"`
	LocationID *int   `json:"locationId"`
	OriginID   *int   `json:"originId"`
}

// input converts the body into the form shape the catalog validates, so
// both surfaces report the same field messages.
func (req characterRequest) input() catalog.CharacterInput {
	in := catalog.CharacterInput{
		Name:    req.Name,
		Species: req.Species,
		Type:    req.Type,
		Gender:  req.Gender,
		Image:   req.Image,
		Episode: catalog.FormatIDList(req.Episode),
	}
	if req.IsAlive != nil {
		in.IsAlive = strconv.FormatBool(*req.IsAlive)
	}
	if req.LocationID != nil {
		in.LocationID = strconv.Itoa(*req.LocationID)
	}
	if req.OriginID != nil {
		in.OriginID = strconv.Itoa(*req.OriginID)
	}
	return in
}

func parseCharacterID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest,
			model.NewValidationError("invalid character id", model.FieldError{Field: "id", Message: "must be a positive integer"}))
		return 0, false
	}
	return id, true
}

func (s *Server) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	q := r.URL.Query()

	f, ok := catalog.CharacterFilterFrom(q)
	if !ok {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid search parameters"))
		return
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid page", model.FieldError{Field: "page", Message: "must be a positive integer"}))
			return
		}
		page = n
	}

	result, err := s.catalog.ListCharacters(r.Context(), f, page)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	opts := model.PageOptions(page)
	respondList(w, reqID, result.Items, &model.Pagination{
		Total:   result.Total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(result.Items) < result.Total,
	})
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCharacterID(w, r)
	if !ok {
		return
	}
	c, err := s.catalog.GetCharacter(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), c)
}

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req characterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.catalog.CreateCharacter(r.Context(), req.input())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.logger.Info("character created via api", "character_id", c.CharacterID, "user_id", UserFromContext(r.Context()).User.ID)
	respondCreated(w, RequestIDFromContext(r.Context()), c)
}

func (s *Server) handleUpdateCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCharacterID(w, r)
	if !ok {
		return
	}
	var req characterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.catalog.UpdateCharacter(r.Context(), id, req.input())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), c)
}

func (s *Server) handleDeleteCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCharacterID(w, r)
	if !ok {
		return
	}
	if err := s.catalog.DeleteCharacter(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), map[string]int{"character_id": id})
}
