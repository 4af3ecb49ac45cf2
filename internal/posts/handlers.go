package posts

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/logicalerror-in/elice-dev/internal/auth"
	"github.com/logicalerror-in/elice-dev/internal/db"
	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
)

type CreateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type PostView struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) error {
	userCtx := auth.GetUserFromContext(r.Context())
	if userCtx == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	post, err := h.service.Create(r.Context(), userCtx.UserID, req.Title, req.Content)
	if err != nil {
		return err
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusCreated, postView(post))
	return nil
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query().Get("q")
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.service.List(r.Context(), q, skip, limit)
	if err != nil {
		return err
	}

	views := make([]*PostView, 0, len(list))
	for _, post := range list {
		views = append(views, postView(post))
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusOK, views)
	return nil
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := postID(r)
	if err != nil {
		return err
	}

	post, err := h.service.Get(r.Context(), id)
	if err != nil {
		return err
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusOK, postView(post))
	return nil
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) error {
	userCtx := auth.GetUserFromContext(r.Context())
	if userCtx == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	id, err := postID(r)
	if err != nil {
		return err
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	post, err := h.service.Update(r.Context(), id, userCtx.UserID, req.Title, req.Content)
	if err != nil {
		return err
	}

	apperrors.WriteJSON(w, requestID(r), http.StatusOK, postView(post))
	return nil
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) error {
	userCtx := auth.GetUserFromContext(r.Context())
	if userCtx == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	id, err := postID(r)
	if err != nil {
		return err
	}

	if err := h.service.Delete(r.Context(), id, userCtx.UserID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func postID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid post id")
	}
	return id, nil
}

func postView(post *db.Post) *PostView {
	return &PostView{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func requestID(r *http.Request) string {
	return apperrors.GetRequestID(r.Context())
}
