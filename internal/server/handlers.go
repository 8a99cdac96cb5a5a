package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Sternrassler/git-notes/pkg/client"
	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/Sternrassler/git-notes/pkg/pagination"
	"github.com/Sternrassler/git-notes/pkg/queries"
	"github.com/Sternrassler/git-notes/pkg/ratelimit"
	"github.com/Sternrassler/git-notes/pkg/session"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds create-gist request bodies.
const maxBodyBytes = 10 << 20

// createGistRequest is the body of POST /api/gists.
type createGistRequest struct {
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Files       []struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	} `json:"files"`
}

func (s *Server) listGists(w http.ResponseWriter, r *http.Request) {
	params, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := s.svc.Gists(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	page.Data = gist.Filter(page.Data, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) starredGists(w http.ResponseWriter, r *http.Request) {
	params, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := s.svc.StarredGists(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) userGists(w http.ResponseWriter, r *http.Request) {
	params, ok := pageParams(w, r)
	if !ok {
		return
	}
	page, err := s.svc.UserGists(r.Context(), chi.URLParam(r, "username"), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getGist(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Gist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) fileContent(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Gist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	file, ok := g.Files[chi.URLParam(r, "filename")]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "file not found"})
		return
	}

	content, err := s.svc.FileContent(r.Context(), file.RawURL)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

func (s *Server) starStatus(w http.ResponseWriter, r *http.Request) {
	starred, err := s.svc.IsStarred(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"starred": starred})
}

func (s *Server) star(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Star(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unstar(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Unstar(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) forkGist(w http.ResponseWriter, r *http.Request) {
	fork, err := s.svc.Fork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fork)
}

func (s *Server) createGist(w http.ResponseWriter, r *http.Request) {
	var body createGistRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	drafts := make([]gist.Draft, 0, len(body.Files))
	for _, f := range body.Files {
		drafts = append(drafts, gist.Draft{Filename: f.Filename, Content: f.Content})
	}
	req, err := gist.NewCreateRequest(body.Description, body.Public, drafts)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	created, err := s.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// pageParams reads page/per_page; a malformed value answers 400.
func pageParams(w http.ResponseWriter, r *http.Request) (pagination.Params, bool) {
	var p pagination.Params
	q := r.URL.Query()
	for name, dst := range map[string]*int{"page": &p.Page, "per_page": &p.PerPage} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name})
			return pagination.Params{}, false
		}
		*dst = n
	}
	return p.Normalize(), true
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an error to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, queries.ErrUsernameRequired), errors.Is(err, queries.ErrIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, ratelimit.ErrRateLimited), client.Class(err) == client.ErrorClassRateLimit:
		return http.StatusTooManyRequests
	case client.IsNotFound(err):
		return http.StatusNotFound
	case client.Class(err) == client.ErrorClassClient:
		if code := client.StatusCode(err); code >= 400 && code < 500 {
			return code
		}
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
