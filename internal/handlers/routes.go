package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the HTML routes on the router and the JSON
// routes on the API. The slug route is registered last so fixed paths
// like /preview and /api keep precedence.
func RegisterRoutes(router chi.Router, api huma.API, redirector *Redirector, jsonAPI *API) {
	router.Get("/", redirector.Welcome)
	router.Get("/preview/{slug}", redirector.Preview)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/api/{slug}",
		Summary:     "Resolve short URL",
		Description: "Resolves a slug to its destination without redirecting. The visit is tracked like a regular one.",
		Tags:        []string{"URLs"},
	}, jsonAPI.Lookup)

	huma.Register(api, huma.Operation{
		Method:        http.MethodPost,
		Path:          "/api/shorten",
		Summary:       "Create short URL",
		Description:   "Creates a short url for the given destination. Repeating the request with the same url and slug returns the same entry.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
	}, jsonAPI.Shorten)

	router.Get("/{slug}", redirector.Redirect)
}
