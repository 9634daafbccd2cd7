// Package web serves the annotation pages: the identity form, the
// sentence-labeling form, the recent-annotations view and the CSV
// download. Handlers follow a post-redirect-get cycle; notices travel
// as session flashes.
package web

import (
	"bytes"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"framelabel/pkg/dataset"
	"framelabel/pkg/logger"
	"framelabel/pkg/models"
	"framelabel/pkg/progress"
	"framelabel/pkg/selection"
	"framelabel/pkg/session"
	"framelabel/pkg/store"
	"framelabel/pkg/telemetry"
	"framelabel/pkg/validation"
)

//go:embed templates
var templateFS embed.FS

// reviewTail caps the annotations view at the most recent records.
const reviewTail = 50

// Pages is the HTML controller. It holds the loaded dataset, the
// annotation store and the session manager; handlers recompute progress
// and the current candidate on every request.
type Pages struct {
	data      *dataset.Catalog
	st        store.Store
	sess      *session.Manager
	picker    *selection.Picker
	randomize bool
	tmpl      *template.Template
}

func New(data *dataset.Catalog, st store.Store, sess *session.Manager, picker *selection.Picker, randomize bool) (*Pages, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{data: data, st: st, sess: sess, picker: picker, randomize: randomize, tmpl: tmpl}, nil
}

// Register registers all page routes to the provided router.
func (p *Pages) Register(r *mux.Router) {
	r.HandleFunc("/", p.home).Methods(http.MethodGet)
	r.HandleFunc("/identify", p.identify).Methods(http.MethodPost)
	r.HandleFunc("/annotate", p.annotate).Methods(http.MethodPost)
	r.HandleFunc("/skip", p.skip).Methods(http.MethodPost)
	r.HandleFunc("/signout", p.signout).Methods(http.MethodPost)
	r.HandleFunc("/annotations", p.annotations).Methods(http.MethodGet)
	r.HandleFunc("/export.csv", p.exportCSV).Methods(http.MethodGet)
}

type homeData struct {
	Flash       []string
	Warning     string
	Identified  bool
	AnnotatorID string
	Done        int
	Total       int
	Remaining   int
	Exhausted   bool
	Sentence    *models.Sentence
	Labels      [2]string
}

// home renders the identity form, or the annotating view once an
// annotator id is in the session.
func (p *Pages) home(w http.ResponseWriter, r *http.Request) {
	st := p.sess.State(r)
	flashes := p.sess.Flashes(w, r)
	if st.AnnotatorID == "" {
		p.render(w, http.StatusOK, "home.html", homeData{Flash: flashes})
		return
	}
	p.renderAnnotating(w, r, st, flashes, "", http.StatusOK)
}

// renderAnnotating recomputes progress, ensures a current candidate
// exists (picking one if the session has none) and renders the form.
func (p *Pages) renderAnnotating(w http.ResponseWriter, r *http.Request, st session.State, flashes []string, warning string, code int) {
	done, err := progress.DoneSet(r.Context(), p.st, st.AnnotatorID)
	if err != nil {
		p.renderError(w, fmt.Sprintf("Error reading annotations: %v", err))
		return
	}

	if st.CurrentSentenceID == "" {
		if id, ok := p.picker.Pick(p.data.IDs(), done); ok {
			st.CurrentSentenceID = id
			if err := p.sess.SaveState(w, r, st); err != nil {
				logger.Warn("session_save_failed", "error", err)
			}
		}
	}

	sum := progress.Summarize(st.AnnotatorID, done, p.data.Len())
	d := homeData{
		Flash:       flashes,
		Warning:     warning,
		Identified:  true,
		AnnotatorID: st.AnnotatorID,
		Done:        sum.Done,
		Total:       sum.Total,
		Remaining:   sum.Remaining,
		Labels:      st.LabelOrder(),
	}

	if st.CurrentSentenceID == "" {
		d.Exhausted = true
	} else {
		s, ok := p.data.Get(st.CurrentSentenceID)
		if !ok {
			p.renderError(w, "Could not find the selected sentence in the dataset.")
			return
		}
		d.Sentence = &s
	}
	p.render(w, code, "home.html", d)
}

// identify transitions to the annotating state on a valid id.
func (p *Pages) identify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p.renderError(w, "Could not read the submitted form.")
		return
	}
	id, err := validation.AnnotatorID(r.PostFormValue("annotator_id"))
	if err != nil {
		warning := "Please enter your annotator ID to start annotating."
		if !errors.Is(err, validation.ErrAnnotatorIDEmpty) {
			warning = "That annotator ID cannot be used: " + err.Error() + "."
		}
		p.render(w, http.StatusBadRequest, "home.html", homeData{Warning: warning})
		return
	}

	st := p.sess.State(r)
	if st.AnnotatorID != id {
		// a changed identity restarts selection for the new annotator
		st.AnnotatorID = id
		st.CurrentSentenceID = ""
	}
	if st.LabelFirst == "" {
		st.LabelFirst = models.LabelPositive
		if p.randomize && p.picker.Coin() {
			st.LabelFirst = models.LabelNegative
		}
	}
	if err := p.sess.SaveState(w, r, st); err != nil {
		p.renderError(w, fmt.Sprintf("Could not start the session: %v", err))
		return
	}
	logger.Info("annotator_identified", "annotator", id, "label_first", st.LabelFirst)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// annotate validates the label, appends one record and advances to the
// next unseen sentence.
func (p *Pages) annotate(w http.ResponseWriter, r *http.Request) {
	st := p.sess.State(r)
	if st.AnnotatorID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		p.renderError(w, "Could not read the submitted form.")
		return
	}
	label := strings.TrimSpace(r.PostFormValue("label"))
	if !models.ValidLabel(label) {
		p.renderAnnotating(w, r, st, nil, "Please choose one of the two labels before submitting.", http.StatusBadRequest)
		return
	}
	if st.CurrentSentenceID == "" {
		// nothing pending: fresh session or exhausted dataset
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if !p.data.Has(st.CurrentSentenceID) {
		p.renderError(w, "Could not find the selected sentence in the dataset.")
		return
	}

	ann := models.Annotation{
		AnnotatorID:     st.AnnotatorID,
		SentenceID:      st.CurrentSentenceID,
		Label:           label,
		Timestamp:       models.Now(),
		LabelOrderFirst: st.LabelOrder()[0],
	}
	if err := validation.Annotation(ann); err != nil {
		p.renderError(w, fmt.Sprintf("Error saving the annotation: %v", err))
		return
	}
	if err := p.st.Append(r.Context(), ann); err != nil {
		p.renderError(w, fmt.Sprintf("Error saving the annotation: %v", err))
		return
	}
	telemetry.AnnotationStored(ann.Label)
	logger.Info("annotation_saved", "annotator", ann.AnnotatorID, "sentence", ann.SentenceID, "label", ann.Label)
	if logger.Audit != nil {
		logger.Audit.Info("annotation_recorded",
			"annotator", ann.AnnotatorID,
			"sentence", ann.SentenceID,
			"label", ann.Label,
			"ts", ann.Timestamp,
			"label_order_first", ann.LabelOrderFirst)
	}

	st.CurrentSentenceID = ""
	if done, err := progress.DoneSet(r.Context(), p.st, st.AnnotatorID); err == nil {
		// cover the store's read-after-write lag
		done[ann.SentenceID] = struct{}{}
		if id, ok := p.picker.Pick(p.data.IDs(), done); ok {
			st.CurrentSentenceID = id
		}
	} else {
		// leave the pick to the next render
		logger.Warn("next_pick_deferred", "error", err)
	}

	p.sess.AddFlash(r, "Annotation saved. Thank you!")
	if err := p.sess.SaveState(w, r, st); err != nil {
		logger.Warn("session_save_failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// skip advances without writing a record.
func (p *Pages) skip(w http.ResponseWriter, r *http.Request) {
	st := p.sess.State(r)
	if st.AnnotatorID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	st.CurrentSentenceID = ""
	if done, err := progress.DoneSet(r.Context(), p.st, st.AnnotatorID); err == nil {
		if id, ok := p.picker.Pick(p.data.IDs(), done); ok {
			st.CurrentSentenceID = id
		}
	} else {
		logger.Warn("next_pick_deferred", "error", err)
	}
	logger.Info("sentence_skipped", "annotator", st.AnnotatorID)

	p.sess.AddFlash(r, "Sentence skipped. Showing a new one.")
	if err := p.sess.SaveState(w, r, st); err != nil {
		logger.Warn("session_save_failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// signout drops the session and returns to the identity form.
func (p *Pages) signout(w http.ResponseWriter, r *http.Request) {
	st := p.sess.State(r)
	if err := p.sess.Clear(w, r); err != nil {
		logger.Warn("session_clear_failed", "error", err)
	}
	logger.Info("annotator_signed_out", "annotator", st.AnnotatorID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// annotations shows the most recent records, newest last.
func (p *Pages) annotations(w http.ResponseWriter, r *http.Request) {
	anns, err := p.st.ListAll(r.Context())
	if err != nil {
		p.renderError(w, fmt.Sprintf("Error reading annotations: %v", err))
		return
	}
	if len(anns) > reviewTail {
		anns = anns[len(anns)-reviewTail:]
	}
	p.render(w, http.StatusOK, "annotations.html", struct {
		Rows []models.Annotation
	}{Rows: anns})
}

// exportCSV streams every record as a CSV attachment.
func (p *Pages) exportCSV(w http.ResponseWriter, r *http.Request) {
	anns, err := p.st.ListAll(r.Context())
	if err != nil {
		http.Error(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="annotations_export.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write(models.AnnotationHeader)
	for _, a := range anns {
		_ = cw.Write(a.Row())
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.Error("export_stream_failed", "error", err)
	}
}

func (p *Pages) render(w http.ResponseWriter, code int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("template_render_failed", "template", name, "error", err)
		http.Error(w, "internal render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func (p *Pages) renderError(w http.ResponseWriter, msg string) {
	p.render(w, http.StatusInternalServerError, "error.html", struct{ Message string }{Message: msg})
}
