package handler

import (
	"errors"
	"mime/multipart"
	"strconv"

	"resume-match/internal/delivery/http/dto"
	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/pkg/response"
	"resume-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	formResumeFile     = "resume_file"
	formJobDescription = "job_description"
)

type MatchHandler struct {
	uc usecase.MatchUsecase
}

func NewMatchHandler(uc usecase.MatchUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/matches")
	grp.Post("", h.Submit)
	grp.Get("", h.History)
	grp.Get("/latest", h.Latest)
	grp.Get("/:id", h.Get)
	grp.Get("/:id/preview", h.Preview)
}

func (h *MatchHandler) Submit(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	in := usecase.SubmitInput{
		OwnerID:        userID,
		JobDescription: c.FormValue(formJobDescription),
	}

	// a missing file is reported by the usecase like any other invalid input
	if fh, err := c.FormFile(formResumeFile); err == nil && fh != nil {
		var f multipart.File
		f, err = fh.Open()
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Unreadable resume file", nil, err)
		}
		defer f.Close()
		in.Filename = fh.Filename
		in.Size = fh.Size
		in.Content = f
	}

	res, err := h.uc.Submit(c.Context(), in)
	if err != nil {
		return mapMatchUsecaseError(err)
	}
	return response.Created(c, dto.NewSubmitMatchResponse(res))
}

func (h *MatchHandler) Latest(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	rec, found, err := h.uc.Latest(c.Context(), userID)
	if err != nil {
		return mapMatchUsecaseError(err)
	}

	out := dto.LatestMatchResponse{HadPrevious: found}
	if found {
		r := dto.NewMatchRecordResponse(rec)
		out.Match = &r
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *MatchHandler) History(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	limit, err := queryInt(c, "limit", usecase.DefaultHistoryLimit)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid limit", nil, err)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid offset", nil, err)
	}
	if limit <= 0 {
		limit = usecase.DefaultHistoryLimit
	}
	if limit > usecase.MaxHistoryLimit {
		limit = usecase.MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	recs, err := h.uc.History(c.Context(), userID, limit, offset)
	if err != nil {
		return mapMatchUsecaseError(err)
	}

	out := dto.MatchHistoryResponse{
		Items:  make([]dto.MatchRecordResponse, 0, len(recs)),
		Limit:  limit,
		Offset: offset,
	}
	for _, r := range recs {
		out.Items = append(out.Items, dto.NewMatchRecordResponse(r))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *MatchHandler) Get(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid match id", nil, err)
	}

	rec, err := h.uc.Get(c.Context(), userID, id)
	if err != nil {
		return mapMatchUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchRecordResponse(rec))
}

func (h *MatchHandler) Preview(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid match id", nil, err)
	}

	images, err := h.uc.Preview(c.Context(), userID, id)
	if err != nil {
		return mapMatchUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.PreviewResponse{
		MatchID: id,
		Images:  dto.NewPreviewImages(images),
	})
}

func queryInt(c fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func mapMatchUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrResumeRequired):
		return middleware.NewAppError(fiber.StatusBadRequest, "Resume file is required", nil, err)
	case errors.Is(err, usecase.ErrResumeNotPDF):
		return middleware.NewAppError(fiber.StatusBadRequest, "Resume must be a PDF file", nil, err)
	case errors.Is(err, usecase.ErrResumeTooLarge):
		return middleware.NewAppError(fiber.StatusRequestEntityTooLarge, "Resume file is too large", nil, err)
	case errors.Is(err, usecase.ErrJobDescriptionRequired):
		return middleware.NewAppError(fiber.StatusBadRequest, "Job description is required", nil, err)
	case errors.Is(err, usecase.ErrValidation):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrMatchNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
