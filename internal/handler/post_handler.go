package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cglreviews/internal/middleware"
	"cglreviews/internal/models"
	"cglreviews/internal/service"
)

const defaultFavoriteNum = 6

type CreatePostRequest struct {
	Content        string             `json:"content" validate:"required"`
	Location       string             `json:"location" validate:"required,max=255"`
	City           string             `json:"city" validate:"required,max=255"`
	Country        string             `json:"country" validate:"required,max=255"`
	LocationTypeID int                `json:"locationTypeId" validate:"required"`
	ProgramID      int                `json:"programId" validate:"required"`
	Rating         models.RatingInput `json:"rating"`
	ThreeWords     string             `json:"threeWords" validate:"required,max=255"`
	Address        *string            `json:"address" validate:"omitempty,max=255"`
	Phone          *string            `json:"phone" validate:"omitempty,max=64"`
	Website        *string            `json:"website" validate:"omitempty,url,max=255"`
	Images         [][]byte           `json:"images" validate:"max=10"`
}

type EditPostRequest struct {
	models.PostEdit
	Rating *models.RatingInput `json:"rating"`
}

type PostResponse struct {
	Post     *models.Post   `json:"post"`
	Rating   *models.Rating `json:"rating"`
	ImageIDs []string       `json:"imageIds"`
	Votes    int            `json:"votes"`
	Voted    bool           `json:"voted"`
	Favorite bool           `json:"favorite"`
}

// ListPosts searches approved posts. A bare q uses the plain text search;
// any filter or sort switches to the advanced query.
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := service.QueryParams{Search: q.Get("q")}
	var err error
	for _, f := range []struct {
		name string
		dst  *[]int
	}{
		{"program", &params.ProgramIDs},
		{"locationType", &params.LocationTypeIDs},
		{"status", &params.StatusIDs},
		{"rating", &params.Ratings},
	} {
		if *f.dst, err = intList(q[f.name]); err != nil {
			WriteError(w, "invalid "+f.name+" filter", http.StatusBadRequest)
			return
		}
	}

	sort := q.Get("sort")
	filtered := len(params.ProgramIDs)+len(params.LocationTypeIDs)+len(params.StatusIDs)+len(params.Ratings) > 0
	if !filtered && sort == "" {
		posts, err := h.Services.Query.Query(r.Context(), params.Search)
		h.writeList(w, r, posts, err)
		return
	}

	sortBy := service.SortByTimestamp
	if sort != "" {
		if sortBy, err = service.ParseSortField(sort); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	ascending := q.Get("order") == "asc"

	posts, err := h.Services.Query.AdvancedQuery(r.Context(), params, sortBy, ascending)
	h.writeList(w, r, posts, err)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.validLookups(w, r, req.LocationTypeID, req.ProgramID) {
		return
	}

	me := middleware.UserFromContext(r.Context())
	postID, err := h.Services.Post.CreatePost(r.Context(), service.CreatePostRequest{
		UserID:         me.ID,
		Content:        req.Content,
		Images:         req.Images,
		Location:       req.Location,
		City:           req.City,
		Country:        req.Country,
		LocationTypeID: req.LocationTypeID,
		ProgramID:      req.ProgramID,
		Rating:         req.Rating,
		ThreeWords:     req.ThreeWords,
		Address:        req.Address,
		Phone:          req.Phone,
		Website:        req.Website,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]string{"postId": postID}, http.StatusCreated)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	resp := PostResponse{Post: post}
	var err error
	if resp.Rating, err = h.Services.Rating.GetRating(ctx, post.RatingID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if resp.ImageIDs, err = h.Services.PostImage.GetPostImageIDs(ctx, post.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if resp.Votes, err = h.Services.PostVote.GetNumPostVotes(ctx, post.ID, service.VoteUpvote); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if resp.Favorite, err = h.Services.AdminFavorites.IsFavorite(ctx, post.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if me := middleware.UserFromContext(ctx); me != nil {
		if resp.Voted, err = h.Services.PostVote.Voted(ctx, me.ID, post.ID); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	WriteSuccess(w, resp, http.StatusOK)
}

func (h *Handlers) EditPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}

	var req EditPostRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Rating != nil {
		if err := h.Validate.Struct(req.Rating); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	locationTypeID, programID := post.LocationTypeID, post.ProgramID
	if req.LocationTypeID != nil {
		locationTypeID = *req.LocationTypeID
	}
	if req.ProgramID != nil {
		programID = *req.ProgramID
	}
	if !h.validLookups(w, r, locationTypeID, programID) {
		return
	}

	if err := h.Services.Post.EditPost(r.Context(), post.ID, req.PostEdit); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if req.Rating != nil {
		if err := h.Services.Post.EditPostRating(r.Context(), post.ID, *req.Rating); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}
	if err := h.Services.Post.DeletePost(r.Context(), post.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetPostImage(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	index, _ := strconv.Atoi(mux.Vars(r)["index"])

	image, err := h.Services.PostImage.GetPostImage(r.Context(), post.ID, index)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if image == nil {
		WriteError(w, "image not found", http.StatusNotFound)
		return
	}
	writeImage(w, image.Data)
}

func (h *Handlers) DeletePostImage(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}
	index, _ := strconv.Atoi(mux.Vars(r)["index"])

	deleted, err := h.Services.PostImage.DeletePostImage(r.Context(), post.ID, index)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		WriteError(w, "image not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Vote(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	me := middleware.UserFromContext(r.Context())
	if err := h.Services.PostVote.Vote(r.Context(), me.ID, post.ID, service.VoteUpvote); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Unvote(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromContext(r.Context())
	if err := h.Services.PostVote.Unvote(r.Context(), me.ID, mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Favorites returns the most recently written featured posts.
func (h *Handlers) Favorites(w http.ResponseWriter, r *http.Request) {
	n := defaultFavoriteNum
	if limit := r.URL.Query().Get("limit"); limit != "" {
		var err error
		if n, err = strconv.Atoi(limit); err != nil || n < 1 || n > 100 {
			WriteError(w, "invalid limit", http.StatusBadRequest)
			return
		}
	}
	posts, err := h.Services.AdminFavorites.GetRecentFavorites(r.Context(), n)
	h.writeList(w, r, posts, err)
}

// visiblePost loads the post named in the path. Unapproved posts are only
// visible to their author and admins.
func (h *Handlers) visiblePost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	post, err := h.Services.Post.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return nil, false
	}
	if post == nil || (!post.Approved && !canManage(r, post)) {
		WriteError(w, "post not found", http.StatusNotFound)
		return nil, false
	}
	return post, true
}

// ownedPost loads the post named in the path for a change by its author or an admin.
func (h *Handlers) ownedPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	post, err := h.Services.Post.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return nil, false
	}
	if post == nil {
		WriteError(w, "post not found", http.StatusNotFound)
		return nil, false
	}
	if !canManage(r, post) {
		WriteError(w, "only the author can change this post", http.StatusForbidden)
		return nil, false
	}
	return post, true
}

func canManage(r *http.Request, post *models.Post) bool {
	me := middleware.UserFromContext(r.Context())
	return me != nil && (me.Admin || me.ID == post.UserID)
}

func (h *Handlers) validLookups(w http.ResponseWriter, r *http.Request, locationTypeID, programID int) bool {
	valid, err := h.Services.LocationType.ValidLocationType(r.Context(), locationTypeID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return false
	}
	if !valid {
		WriteError(w, "unknown location type", http.StatusBadRequest)
		return false
	}

	valid, err = h.Services.Program.ValidProgram(r.Context(), programID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return false
	}
	if !valid {
		WriteError(w, "unknown program", http.StatusBadRequest)
		return false
	}
	return true
}

// intList parses repeated or comma separated integer query values.
func intList(values []string) ([]int, error) {
	var ids []int
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
