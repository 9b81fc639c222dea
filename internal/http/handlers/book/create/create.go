// Package create реализует HTTP-обработчик добавления книги администратором.
//
// Запрос приходит multipart-формой: поля книги, обложка cover_image и от одной
// до пяти страниц infographic_images. Порядок файлов задаёт порядок страниц.
package create

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/glanceread/internal/http/request"
	"github.com/magabrotheeeer/glanceread/internal/http/response"
	"github.com/magabrotheeeer/glanceread/internal/lib/sl"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

// Form текстовые поля формы.
type Form struct {
	Title         string `validate:"required,max=200"`
	Author        string `validate:"required,max=200"`
	Category      string `validate:"required,max=100"`
	AffiliateLink string `validate:"omitempty,url"`
}

// Service описывает интерфейс бизнес-логики создания книги.
type Service interface {
	Create(ctx context.Context, in models.BookInput) (*models.Book, error)
}

// Handler обрабатывает запросы на создание книги.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавить книгу
// @Description Загружает обложку и страницы в хранилище изображений и создаёт книгу.
// @Tags Books
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param title formData string true "Название"
// @Param author formData string true "Автор"
// @Param category formData string true "Категория"
// @Param is_premium formData bool false "Премиальная (по умолчанию true)"
// @Param is_free formData bool false "Бесплатная"
// @Param affiliate_link formData string false "Партнёрская ссылка"
// @Param cover_image formData file true "Обложка"
// @Param infographic_images formData file true "Страницы (1-5)"
// @Success 201 {object} response.Response "Книга создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /books [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := request.ParseMultipart(w, r); err != nil {
		log.Info("failed to parse multipart form", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	form := Form{
		Title:         strings.TrimSpace(r.FormValue("title")),
		Author:        strings.TrimSpace(r.FormValue("author")),
		Category:      strings.TrimSpace(r.FormValue("category")),
		AffiliateLink: strings.TrimSpace(r.FormValue("affiliate_link")),
	}
	if err := h.validate.Struct(form); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Validation(w, r, err)
		return
	}

	in, err := h.input(r, form)
	if err != nil {
		log.Info("invalid form", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.service.Create(r.Context(), in)
	if err != nil {
		log.Error("failed to create book", sl.Err(err))
		response.ServiceError(w, r, err, "failed to create book")
		return
	}

	log.Info("book created", slog.Int64("book_id", book.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(book))
}

func (h *Handler) input(r *http.Request, form Form) (models.BookInput, error) {
	in := models.BookInput{
		Title:    form.Title,
		Author:   form.Author,
		Category: form.Category,
	}
	if form.AffiliateLink != "" {
		in.AffiliateLink = &form.AffiliateLink
	}

	var err error
	if in.IsPremium, err = request.FormBool(r, "is_premium", true); err != nil {
		return in, err
	}
	if in.IsFree, err = request.FormBool(r, "is_free", false); err != nil {
		return in, err
	}

	cover, err := request.File(r, "cover_image")
	if err != nil {
		return in, err
	}
	if cover != nil {
		in.Cover = *cover
	}
	if in.Pages, err = request.Files(r, "infographic_images"); err != nil {
		return in, err
	}
	return in, nil
}
