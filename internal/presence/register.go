package presence

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/matchme/internal/app"
	svcErr "github.com/oggyb/matchme/internal/errors"
	"github.com/oggyb/matchme/internal/repository"
	"github.com/oggyb/matchme/internal/server"
)

// Registrar ties the presence tracker into the HTTP router.
type Registrar struct {
	appCtx  *app.AppContext
	tracker *Tracker
}

// NewRegistrar creates a new Registrar around an already-running tracker.
func NewRegistrar(appCtx *app.AppContext, tracker *Tracker) *Registrar {
	return &Registrar{appCtx: appCtx, tracker: tracker}
}

// Register attaches the presence endpoints to the router.
func (reg *Registrar) Register(r chi.Router) {
	h := &handler{
		tracker:   reg.tracker,
		approvals: repository.NewApprovalRepository(reg.appCtx.DB),
	}

	r.Route("/presence", func(r chi.Router) {
		r.Post("/heartbeat", h.heartbeat)
		r.Post("/disconnect", h.disconnect)
		r.Get("/{userID}", h.status)
	})
}

type handler struct {
	tracker   *Tracker
	approvals *repository.ApprovalRepository
}

func (h *handler) heartbeat(w http.ResponseWriter, r *http.Request) {
	h.tracker.Heartbeat(r.Context(), server.CallerID(r.Context()))
	server.RespondJSON(w, http.StatusOK, map[string]any{"online": true})
}

func (h *handler) disconnect(w http.ResponseWriter, r *http.Request) {
	h.tracker.Disconnect(r.Context(), server.CallerID(r.Context()))
	server.RespondJSON(w, http.StatusOK, map[string]any{"online": false})
}

// status answers presence queries. A user may always query themselves;
// anyone else's presence is visible only to their matches.
func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		svcErr.WriteJSON(w, svcErr.InvalidArgument("user id must be a valid uint64"))
		return
	}

	callerID := server.CallerID(ctx)
	if userID != callerID {
		forward, err := h.approvals.HasApproved(ctx, callerID, userID)
		if err != nil {
			svcErr.WriteJSON(w, err)
			return
		}
		reverse, err := h.approvals.HasApproved(ctx, userID, callerID)
		if err != nil {
			svcErr.WriteJSON(w, err)
			return
		}
		if !forward || !reverse {
			svcErr.WriteJSON(w, svcErr.NotMatched())
			return
		}
	}

	resp := map[string]any{"user_id": userID, "online": false}
	if rec, ok := h.tracker.Status(userID); ok {
		resp["online"] = rec.Online
		resp["last_seen_unix"] = rec.LastSeen.UnixMilli()
	}
	server.RespondJSON(w, http.StatusOK, resp)
}
