// Package request разбирает параметры и тела входящих HTTP-запросов.
package request

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/glanceread/internal/models"
)

// MaxUploadSize предел тела multipart-запроса.
const MaxUploadSize = 32 << 20

// ErrEmptyBody тело запроса отсутствует.
var ErrEmptyBody = errors.New("empty request body")

// PathID читает положительный числовой идентификатор из параметра маршрута key.
func PathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

// PathUUID читает идентификатор пользователя из параметра маршрута key.
func PathUUID(r *http.Request, key string) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return "", fmt.Errorf("invalid %s", key)
	}
	return id.String(), nil
}

// DecodeJSON читает JSON-тело в v.
func DecodeJSON(r *http.Request, v any) error {
	err := render.DecodeJSON(r.Body, v)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return err
}

// ParseMultipart разбирает multipart-форму с ограничением MaxUploadSize.
func ParseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	return r.ParseMultipartForm(MaxUploadSize)
}

// Files читает все файлы поля field. Форма должна быть уже разобрана.
func Files(r *http.Request, field string) ([]models.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]models.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// File читает первый файл поля field; nil, если файла нет.
func File(r *http.Request, field string) (*models.File, error) {
	files, err := Files(r, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

func readFile(fh *multipart.FileHeader) (models.File, error) {
	f, err := fh.Open()
	if err != nil {
		return models.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.File{}, err
	}
	return models.File{Name: fh.Filename, Data: data}, nil
}

// FormBool читает булево поле формы; пустое значение даёт def.
func FormBool(r *http.Request, key string, def bool) (bool, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
