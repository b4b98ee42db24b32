package chat

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/matchme/internal/app"
	"github.com/oggyb/matchme/internal/db"
	svcErr "github.com/oggyb/matchme/internal/errors"
	"github.com/oggyb/matchme/internal/server"
)

// Registrar ties the chat service into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the chat service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the chat endpoints to the router. Conversations are
// addressed by peer user id; the thread is an internal detail.
func (reg *Registrar) Register(r chi.Router) {
	svc := NewService(reg.appCtx)
	h := &handler{svc: svc}

	r.Route("/chats/{otherID}", func(r chi.Router) {
		r.Get("/", h.thread)
		r.Get("/messages", h.history)
		r.Post("/messages", h.send)
	})
}

type handler struct {
	svc *Service
}

func otherID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "otherID"), 10, 64)
}

func (h *handler) thread(w http.ResponseWriter, r *http.Request) {
	peer, err := otherID(r)
	if err != nil {
		svcErr.WriteJSON(w, svcErr.InvalidArgument("user id must be a valid uint64"))
		return
	}

	thread, err := h.svc.Thread(r.Context(), server.CallerID(r.Context()), peer)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{
		"thread_id":    thread.ID,
		"created_unix": thread.CreatedAt.UnixMilli(),
	})
}

type sendRequest struct {
	Content string `json:"content"`
}

type messageView struct {
	ID       uint64 `json:"id"`
	SenderID uint64 `json:"sender_id"`
	Content  string `json:"content"`
	SentAt   int64  `json:"sent_unix"`
}

func toMessageView(m db.ChatMessage) messageView {
	return messageView{
		ID:       m.ID,
		SenderID: m.SenderID,
		Content:  m.Content,
		SentAt:   m.SentAt.UnixMilli(),
	}
}

func (h *handler) send(w http.ResponseWriter, r *http.Request) {
	peer, err := otherID(r)
	if err != nil {
		svcErr.WriteJSON(w, svcErr.InvalidArgument("user id must be a valid uint64"))
		return
	}

	var req sendRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		svcErr.WriteJSON(w, svcErr.InvalidArgument("invalid request body"))
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), server.CallerID(r.Context()), peer, req.Content)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}
	server.RespondJSON(w, http.StatusCreated, map[string]any{"message": toMessageView(*msg)})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	peer, err := otherID(r)
	if err != nil {
		svcErr.WriteJSON(w, svcErr.InvalidArgument("user id must be a valid uint64"))
		return
	}

	var token *string
	if t := r.URL.Query().Get("page_token"); t != "" {
		token = &t
	}

	messages, nextToken, err := h.svc.History(r.Context(), server.CallerID(r.Context()), peer, token, 50)
	if err != nil {
		svcErr.WriteJSON(w, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, toMessageView(m))
	}

	resp := map[string]any{"messages": views}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	server.RespondJSON(w, http.StatusOK, resp)
}
