package connections

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/matchme/internal/app"
	svcErr "github.com/oggyb/matchme/internal/errors"
	"github.com/oggyb/matchme/internal/server"
)

// Registrar ties the connections service into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the connections service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the connections endpoints to the router.
func (reg *Registrar) Register(r chi.Router) {
	svc := NewService(reg.appCtx)
	h := &handler{svc: svc}

	r.Route("/approvals", func(r chi.Router) {
		r.Post("/", h.approve)
		r.Delete("/{targetID}", h.remove)
		r.Get("/given", h.listGiven)
		r.Get("/received", h.listReceived)
		r.Get("/stats", h.stats)
	})
	r.Get("/matches", h.matches)
	r.Get("/matches/{otherID}", h.isMatch)
}

type handler struct {
	svc *Service
}

type approveRequest struct {
	TargetUserID uint64 `json:"target_user_id"`
	Approved     bool   `json:"approved"`
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		svcErr.WriteJSON(w, svcErr.InvalidArgument("invalid request body"))
		return
	}

	matched, err := h.svc.Approve(r.Context(), server.CallerID(r.Context()), req.TargetUserID, req.Approved)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"matched": matched})
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseUint(chi.URLParam(r, "targetID"), 10, 64)
	if err != nil {
		svcErr.WriteJSON(w, svcErr.InvalidArgument("target id must be a valid uint64"))
		return
	}

	removed, err := h.svc.RemoveApproval(r.Context(), server.CallerID(r.Context()), targetID)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

type edgeView struct {
	UserID    uint64 `json:"user_id"`
	Approved  bool   `json:"approved"`
	UpdatedAt int64  `json:"updated_unix"`
}

func (h *handler) listGiven(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *handler) listReceived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request, outgoing bool) {
	callerID := server.CallerID(r.Context())
	approved := parseApprovedFilter(r)
	token := parseToken(r)

	list := h.svc.ListReceived
	if outgoing {
		list = h.svc.ListGiven
	}

	results, nextToken, err := list(r.Context(), callerID, approved, token, 20)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}

	views := make([]edgeView, 0, len(results))
	for _, e := range results {
		peer := e.TargetID
		if !outgoing {
			peer = e.ActorID
		}
		views = append(views, edgeView{
			UserID:    peer,
			Approved:  e.Approved,
			UpdatedAt: e.UpdatedAt.UnixMilli(),
		})
	}

	resp := map[string]any{"edges": views}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	server.RespondJSON(w, http.StatusOK, resp)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := server.CallerID(ctx)
	yes, no := true, false

	approvalsGiven, err := h.svc.CountGiven(ctx, callerID, &yes)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	rejectionsGiven, err := h.svc.CountGiven(ctx, callerID, &no)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	approvalsReceived, err := h.svc.CountReceived(ctx, callerID)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}

	server.RespondJSON(w, http.StatusOK, map[string]any{
		"approvals_given":    approvalsGiven,
		"rejections_given":   rejectionsGiven,
		"approvals_received": approvalsReceived,
	})
}

func (h *handler) matches(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.MatchesFor(r.Context(), server.CallerID(r.Context()))
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"matches": ids})
}

func (h *handler) isMatch(w http.ResponseWriter, r *http.Request) {
	otherID, err := strconv.ParseUint(chi.URLParam(r, "otherID"), 10, 64)
	if err != nil {
		svcErr.WriteJSON(w, svcErr.InvalidArgument("user id must be a valid uint64"))
		return
	}

	matched, err := h.svc.IsMatch(r.Context(), server.CallerID(r.Context()), otherID)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"matched": matched})
}

func parseApprovedFilter(r *http.Request) *bool {
	switch r.URL.Query().Get("approved") {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func parseToken(r *http.Request) *string {
	if t := r.URL.Query().Get("page_token"); t != "" {
		return &t
	}
	return nil
}
