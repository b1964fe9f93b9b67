package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Auth        string   `json:"auth"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "Showrunner API",
		Version:     "v1",
		Description: "Rick and Morty content management: characters over JSON with bearer tokens",
		Endpoints: []endpointInfo{
			{"/auth/api/register", []string{"POST"}, "none", "Create an account"},
			{"/auth/api/login", []string{"POST"}, "none", "Exchange credentials for a bearer token"},
			{"/auth/api/logout", []string{"POST"}, "none", "Acknowledge logout; the client drops its token"},
			{"/api/v1/characters", []string{"GET"}, "none", "List characters, 12 per page, with filters"},
			{"/api/v1/characters", []string{"POST"}, "bearer", "Create a character"},
			{"/api/v1/characters/{id}", []string{"GET"}, "none", "Single character"},
			{"/api/v1/characters/{id}", []string{"PUT", "DELETE"}, "bearer", "Replace or delete a character"},
			{"/api/v1/health", []string{"GET"}, "none", "Server health and version"},
		},
	})
}
