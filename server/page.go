package server

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"

	"Slidecast/logger"
	"Slidecast/model"
	"Slidecast/storage"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Mode   model.Mode
	Error  string
	Result *resultView
}

// Modes feeds the page selector.
func (p pageData) Modes() []model.Mode {
	return model.Modes
}

type resultView struct {
	Name       string
	DataURI    template.URL
	ArchiveURL string
	Size       string
	Duration   string
}

func newResultView(art *model.Artifact) *resultView {
	v := &resultView{
		Name:       art.Name,
		DataURI:    template.URL("data:" + art.ContentType + ";base64," + base64.StdEncoding.EncodeToString(art.Data)),
		ArchiveURL: art.URL,
		Size:       storage.FormatSize(int64(len(art.Data))),
	}
	if art.Duration > 0 {
		v.Duration = fmt.Sprintf("%.1fs", art.Duration)
	}
	return v
}

// PageHandler renders the form for the mode in the query. Unknown modes
// fall back to the slide page.
func (h *Handler) PageHandler(w http.ResponseWriter, r *http.Request) {
	mode, err := model.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		mode = model.ModeSlide
	}
	renderPage(w, http.StatusOK, pageData{Mode: mode})
}

func renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		logger.Error("Failed to render page", logger.ErrorField(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("Error writing page", logger.ErrorField(err))
	}
}
