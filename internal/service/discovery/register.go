package discovery

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/matchme/internal/app"
	"github.com/oggyb/matchme/internal/db"
	svcErr "github.com/oggyb/matchme/internal/errors"
	"github.com/oggyb/matchme/internal/server"
)

// Registrar ties the discovery service into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the discovery service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the discovery endpoints to the router.
func (reg *Registrar) Register(r chi.Router) {
	svc := NewService(reg.appCtx)
	h := &handler{svc: svc}

	r.Route("/discovery", func(r chi.Router) {
		r.Get("/candidates", h.rank)
		r.Get("/next", h.next)
		r.Get("/count", h.count)
	})
}

type handler struct {
	svc *Service
}

// candidateView is the outward DTO: a public profile/bio view plus the
// score and rationale.
type candidateView struct {
	UserID    uint64       `json:"user_id"`
	Score     float64      `json:"score"`
	Rationale string       `json:"rationale"`
	Profile   *profileView `json:"profile,omitempty"`
	Bio       *bioView     `json:"bio,omitempty"`
}

type profileView struct {
	DisplayName string `json:"display_name,omitempty"`
	AboutMe     string `json:"about_me,omitempty"`
	County      string `json:"county,omitempty"`
	Age         *int   `json:"age,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

type bioView struct {
	Interests           []string `json:"interests,omitempty"`
	PriorityTraits      []string `json:"priority_traits,omitempty"`
	FavouriteCuisine    string   `json:"favourite_cuisine,omitempty"`
	FavouriteMusicGenre string   `json:"favourite_music_genre,omitempty"`
	PetPreference       string   `json:"pet_preference,omitempty"`
	LookingFor          string   `json:"looking_for,omitempty"`
}

func toView(c Candidate) candidateView {
	view := candidateView{
		UserID:    c.UserID,
		Score:     c.Score,
		Rationale: c.Rationale,
	}
	if c.Profile != nil {
		view.Profile = &profileView{
			DisplayName: c.Profile.DisplayName,
			AboutMe:     c.Profile.AboutMe,
			County:      c.Profile.County,
			Age:         c.Profile.Age,
			Gender:      string(c.Profile.Gender),
		}
	}
	if c.Bio != nil {
		view.Bio = &bioView{
			Interests:           interestNames(c.Bio.Interests),
			PriorityTraits:      c.Bio.PriorityTraits,
			FavouriteCuisine:    c.Bio.FavouriteCuisine,
			FavouriteMusicGenre: c.Bio.FavouriteMusicGenre,
			PetPreference:       c.Bio.PetPreference,
			LookingFor:          c.Bio.LookingFor,
		}
	}
	return view
}

func interestNames(interests []db.Interest) []string {
	names := make([]string, 0, len(interests))
	for _, i := range interests {
		names = append(names, i.Name)
	}
	return names
}

func (h *handler) rank(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.svc.Rank(r.Context(), server.CallerID(r.Context()))
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}

	views := make([]candidateView, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, toView(c))
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"candidates": views})
}

func (h *handler) next(w http.ResponseWriter, r *http.Request) {
	candidate, err := h.svc.Next(r.Context(), server.CallerID(r.Context()))
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	if candidate == nil {
		server.RespondJSON(w, http.StatusOK, map[string]any{"candidate": nil})
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"candidate": toView(*candidate)})
}

func (h *handler) count(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Count(r.Context(), server.CallerID(r.Context()))
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"count": count})
}
