package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aigenthix/cms-backend/errs"
	"github.com/aigenthix/cms-backend/models"
	"github.com/aigenthix/cms-backend/services"
)

type blogHandler struct {
	responder Responder
	logger    zerolog.Logger
	blogs     *services.BlogService
	validate  *validator.Validate
}

func newBlogHandler(blogs *services.BlogService) blogHandler {
	logger := log.With().Str("handlerName", "blogHandler").Logger()

	return blogHandler{
		responder: NewResponder(logger),
		logger:    logger,
		blogs:     blogs,
		validate:  validator.New(),
	}
}

// bulkActionRequest carries the target IDs for bulk operations
type bulkActionRequest struct {
	IDs []int `json:"ids"`
}

func (h blogHandler) blogIDParam(r *http.Request) (int, error) {
	idStr := chi.URLParam(r, "blogID")
	if idStr == "" {
		return 0, errs.NewBadRequestError("missing blogID")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, errs.NewBadRequestError("invalid blogID")
	}
	return id, nil
}

func (h blogHandler) decodeInput(r *http.Request) (*models.BlogInput, error) {
	var input models.BlogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode blog request body")
		return nil, errs.NewInvalidJSONError(err)
	}

	if err := h.validate.Struct(&input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return nil, errs.NewInvalidFieldError(fe.Field(), fe.Tag())
		}
		return nil, errs.NewBadRequestError("invalid blog payload")
	}
	return &input, nil
}

// getPageData serves the aggregated public landing payload: featured blog,
// latest blogs, popular blogs and categories in one response.
func (h blogHandler) getPageData() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := h.blogs.GetPageData(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, data, "")
	}
}

// getBySlug serves a single published blog by its slug.
func (h blogHandler) getBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing slug"))
			return
		}

		blog, err := h.blogs.GetBySlug(r.Context(), slug)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, blog, "")
	}
}

// getAllBlogs lists every blog, including unpublished ones. Admin only.
func (h blogHandler) getAllBlogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogs, err := h.blogs.GetAll(r.Context(), false)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, blogs, "")
	}
}

// getBlog fetches a single blog by ID regardless of published state.
func (h blogHandler) getBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.blogIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blog, err := h.blogs.GetByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, blog, "")
	}
}

func (h blogHandler) createBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := h.decodeInput(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := h.blogs.Create(r.Context(), input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteSuccessStatus(w, http.StatusCreated, result, "Blog created successfully")
	}
}

func (h blogHandler) updateBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.blogIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		input, err := h.decodeInput(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		slug, err := h.blogs.Update(r.Context(), id, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, map[string]string{"slug": slug}, "Blog updated successfully")
	}
}

func (h blogHandler) deleteBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.blogIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.blogs.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, nil, "Blog deleted successfully")
	}
}

func (h blogHandler) togglePublished() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.blogIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		published, err := h.blogs.TogglePublished(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message := "Blog unpublished"
		if published {
			message = "Blog published"
		}
		h.responder.WriteSuccess(w, map[string]bool{"published": published}, message)
	}
}

func (h blogHandler) toggleFeatured() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := h.blogIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		featured, err := h.blogs.ToggleFeatured(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message := "Blog unfeatured"
		if featured {
			message = "Blog featured"
		}
		h.responder.WriteSuccess(w, map[string]bool{"is_featured": featured}, message)
	}
}

func (h blogHandler) decodeBulkRequest(r *http.Request) (*bulkActionRequest, error) {
	var req bulkActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode bulk action request body")
		return nil, errs.NewInvalidJSONError(err)
	}
	return &req, nil
}

func (h blogHandler) bulkPublish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.decodeBulkRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		count, err := h.blogs.BulkPublish(r.Context(), req.IDs)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, map[string]int64{"affected": count}, "Blogs published")
	}
}

func (h blogHandler) bulkUnpublish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.decodeBulkRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		count, err := h.blogs.BulkUnpublish(r.Context(), req.IDs)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, map[string]int64{"affected": count}, "Blogs unpublished")
	}
}

func (h blogHandler) bulkDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.decodeBulkRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		count, err := h.blogs.BulkDelete(r.Context(), req.IDs)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, map[string]int64{"affected": count}, "Blogs deleted")
	}
}
