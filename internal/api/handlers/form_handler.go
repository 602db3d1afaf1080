package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	api "productform/internal/api/application"
	"productform/internal/api/web"
	formdomain "productform/internal/form/domain"
	submissionapp "productform/internal/submission/application"
	"productform/internal/submission/domain"
)

var fieldLabels = map[string]string{
	formdomain.FieldName:        "Nombre",
	formdomain.FieldDescription: "Descripción",
	formdomain.FieldPrice:       "Precio",
	formdomain.FieldStock:       "Stock",
	formdomain.FieldBrand:       "Marca",
	formdomain.FieldCategory:    "Categoría",
}

var variantLabels = map[domain.Variant]string{
	domain.VariantFetch:  "Enviar con Fetch",
	domain.VariantClient: "Enviar con Cliente HTTP",
}

type fieldView struct {
	Name      string
	Label     string
	Value     string
	Multiline bool
	Numeric   bool
}

type variantView struct {
	Variant domain.Variant
	Label   string
}

type pageView struct {
	Fields     []fieldView
	Files      []api.FileResponse
	Variants   []variantView
	Submission submissionapp.State
	ResultJSON string
}

// FormHandler serves the HTML form
type FormHandler struct {
	service   *api.FormService
	templates *template.Template
}

// NewFormHandler creates a new form handler
func NewFormHandler(service *api.FormService) *FormHandler {
	return &FormHandler{
		service:   service,
		templates: web.Templates,
	}
}

// Index handles GET /
func (h *FormHandler) Index(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)
	state := h.service.State()

	view := pageView{
		Files:      state.Files,
		Submission: state.Submission,
	}
	for _, name := range formdomain.Fields {
		view.Fields = append(view.Fields, fieldView{
			Name:      name,
			Label:     fieldLabels[name],
			Value:     state.Draft.Value(name),
			Multiline: name == formdomain.FieldDescription,
			Numeric:   name == formdomain.FieldPrice || name == formdomain.FieldStock,
		})
	}
	for _, v := range domain.Variants {
		view.Variants = append(view.Variants, variantView{Variant: v, Label: variantLabels[v]})
	}
	if state.Submission.Result != nil {
		out, err := json.MarshalIndent(state.Submission.Result, "", "  ")
		if err != nil {
			logger.Error("Failed to encode result", "err", err)
		} else {
			view.ResultJSON = string(out)
		}
	}

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, web.IndexTemplate, view); err != nil {
		logger.Error("Failed to render form", "err", err)
		http.Error(w, "Failed to render form", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// UpdateDraft handles POST /draft
func (h *FormHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	if err := r.ParseForm(); err != nil {
		logger.Warn("Invalid draft form", "err", err)
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	req := api.DraftUpdateRequest{}
	for _, name := range formdomain.Fields {
		if _, ok := r.PostForm[name]; ok {
			req[name] = r.PostForm.Get(name)
		}
	}

	if err := h.service.UpdateDraft(req); err != nil {
		logger.Warn("Failed to update draft", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Debug("Draft updated", "fields", len(req))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ReplaceFiles handles POST /files
func (h *FormHandler) ReplaceFiles(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	files, err := readFiles(r, "files")
	if err != nil {
		logger.Warn("Failed to read files", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.service.ReplaceFiles(files)

	logger.Debug("Files selected", "count", len(files))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Submit handles POST /submit/{variant}
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)
	variant := chi.URLParam(r, "variant")

	if _, err := h.service.StartSubmission(variant); err != nil {
		if errors.Is(err, domain.ErrUnknownVariant) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Debug("Submission rejected", "variant", variant, "err", err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	logger.Info("Submission started", "variant", variant)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
