package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/thermal"
)

// ProfileBody is the body of GET and PUT /profiles/{package}.
type ProfileBody struct {
	Package string          `json:"package,omitempty"`
	Profile thermal.Profile `json:"profile"`
}

// FlagBody is the body of GET and PUT /forcestop/{package}.
type FlagBody struct {
	Package string `json:"package,omitempty"`
	Enabled bool   `json:"enabled"`
}

// FrozenBody is the body of PUT /components/{component}.
type FrozenBody struct {
	Frozen bool `json:"frozen"`
}

// RotateBody is the body of GET and PUT /rotate.
type RotateBody struct {
	Policy string `json:"policy"`
	Name   string `json:"name,omitempty"`
}

// EnabledBody is the body of PUT /touch/doubletap.
type EnabledBody struct {
	Enabled bool `json:"enabled"`
}

func pathParam(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil || v == "" {
		return "", errors.ValidationError("invalid path parameter").WithContext("param", name).Build()
	}
	return v, nil
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Profiles.List(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, list)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	pkg, err := pathParam(r, "package")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	p, err := s.deps.Profiles.GetProfile(r.Context(), pkg)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, ProfileBody{Package: pkg, Profile: p})
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	pkg, err := pathParam(r, "package")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	var body ProfileBody
	if err := decode(w, r, &body); err != nil {
		s.Error(w, r, err)
		return
	}
	if err := s.deps.Profiles.SetProfile(r.Context(), pkg, body.Profile); err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, ProfileBody{Package: pkg, Profile: body.Profile})
}

func (s *Server) handleListForceStop(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Registry.Reload(r.Context()); err != nil {
		slog.Warn("Serving cached force-stop set", logfields.Error(err))
	}
	s.Success(w, http.StatusOK, s.deps.Registry.List())
}

func (s *Server) handleGetForceStop(w http.ResponseWriter, r *http.Request) {
	pkg, err := pathParam(r, "package")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, FlagBody{Package: pkg, Enabled: s.deps.Registry.GetFlag(pkg)})
}

func (s *Server) handleSetForceStop(w http.ResponseWriter, r *http.Request) {
	pkg, err := pathParam(r, "package")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	var body FlagBody
	if err := decode(w, r, &body); err != nil {
		s.Error(w, r, err)
		return
	}
	if err := s.deps.Registry.SetFlag(r.Context(), pkg, body.Enabled); err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, FlagBody{Package: pkg, Enabled: body.Enabled})
}

func (s *Server) handleSweeps(w http.ResponseWriter, _ *http.Request) {
	s.Success(w, http.StatusOK, s.deps.Sweeper.Reports())
}

func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	s.Success(w, http.StatusOK, s.deps.Freeze.List(r.Context()))
}

func (s *Server) handleSetComponent(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "component")
	if err != nil {
		s.Error(w, r, err)
		return
	}
	var body FrozenBody
	if err := decode(w, r, &body); err != nil {
		s.Error(w, r, err)
		return
	}
	if err := s.deps.Freeze.SetFrozen(r.Context(), name, body.Frozen); err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, map[string]any{"name": name, "frozen": body.Frozen})
}

func (s *Server) handleGetRotate(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Rotate.Get(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, RotateBody{Policy: string(p), Name: p.Name()})
}

func (s *Server) handleSetRotate(w http.ResponseWriter, r *http.Request) {
	var body RotateBody
	if err := decode(w, r, &body); err != nil {
		s.Error(w, r, err)
		return
	}
	p, err := s.deps.Rotate.Set(r.Context(), body.Policy)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, RotateBody{Policy: string(p), Name: p.Name()})
}

func (s *Server) handleDoubleTap(w http.ResponseWriter, r *http.Request) {
	if s.deps.Touch == nil || !s.deps.Touch.Supported() {
		s.Error(w, r, errors.NotFoundError("touch device not present").Build())
		return
	}
	var body EnabledBody
	if err := decode(w, r, &body); err != nil {
		s.Error(w, r, err)
		return
	}
	if err := s.deps.Touch.SetDoubleTapToWake(body.Enabled); err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, body)
}
