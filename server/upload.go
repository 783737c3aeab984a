package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"Slidecast/model"
)

// allowedImageExts mirrors the file picker on the slide page.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func readSlideRequest(r *http.Request) (model.SlideRequest, error) {
	req := model.SlideRequest{Text: formValue(r, "text")}

	header := firstFile(r.MultipartForm, "image")
	if header == nil {
		return req, nil
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return req, &model.ValidationError{Field: "image", Reason: "please upload a JPG or PNG image"}
	}

	data, err := readFormFile(header)
	if err != nil {
		return req, err
	}
	req.Image = data
	req.ImageName = header.Filename
	return req, nil
}

func readCombineRequest(form *multipart.Form) (model.VideoCombineRequest, error) {
	var req model.VideoCombineRequest
	if form == nil {
		return req, nil
	}

	for _, header := range form.File["videos"] {
		data, err := readFormFile(header)
		if err != nil {
			return req, err
		}
		req.Files = append(req.Files, model.UploadedFile{Name: header.Filename, Data: data})
	}
	return req, nil
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	return data, nil
}
