package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/internal/export"
	"github.com/mesh-intelligence/stockparts/internal/scan"
	"github.com/mesh-intelligence/stockparts/internal/view"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

type page struct {
	State   view.State
	Fields  []view.Field
	Notice  string
	Message string
	Error   string
	Preview string
	Rows    []types.PartEntry
	Policy  types.Policy
	Columns []string
}

// formState reads the three inputs from r. r.ParseForm or
// r.ParseMultipartForm must have run.
func formState(r *http.Request) view.State {
	var st view.State
	for _, f := range view.Fields {
		st.Form = st.Form.With(f, r.FormValue(string(f)))
	}
	st.LastScanned = r.FormValue("last_scanned")
	return st
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, p page) {
	p.Fields = view.Fields
	p.Policy = s.svc.Policy()
	p.Columns = types.ExportColumns(p.Policy)
	p.Notice = s.svc.Notice()

	rows, err := s.svc.List(r.Context())
	if err != nil && p.Error == "" {
		p.Error = entry.UserMessage(err)
	}
	if len(rows) > s.recent {
		rows = rows[:s.recent]
	}
	p.Rows = rows

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, p); err != nil {
		s.logger.Error("render failed", zap.Error(err))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := formState(r)
	p := page{State: st}
	if st.Form.SKU != "" {
		if d, err := s.svc.Preview(r.Context(), st.Form.SKU); err == nil {
			p.Preview = d.Describe(st.Form.SKU)
		}
	}
	s.render(w, r, http.StatusOK, p)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	st := formState(r)
	res, err := s.svc.Submit(r.Context(), st.Form.Entry())
	if err != nil {
		s.render(w, r, statusFor(err), page{State: st, Error: entry.UserMessage(err)})
		return
	}
	s.render(w, r, http.StatusOK, page{State: st.Saved(), Message: res.Message()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrWritesDisabled), errors.Is(err, types.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleScanStart(w http.ResponseWriter, r *http.Request) {
	st := formState(r)
	target, err := view.ParseField(r.FormValue("target"))
	if err != nil {
		s.render(w, r, http.StatusBadRequest, page{State: st, Error: err.Error()})
		return
	}
	if s.decoder == nil {
		s.render(w, r, http.StatusNotImplemented, page{State: st, Error: "Barcode scanning is not available."})
		return
	}
	s.render(w, r, http.StatusOK, page{State: st.StartScan(target)})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "bad upload", http.StatusBadRequest)
		return
	}
	st := formState(r)
	target, err := view.ParseField(r.FormValue("target"))
	if err != nil {
		s.render(w, r, http.StatusBadRequest, page{State: st, Error: err.Error()})
		return
	}
	st = st.StartScan(target)
	if s.decoder == nil {
		s.render(w, r, http.StatusNotImplemented, page{State: st.Cancel(), Error: "Barcode scanning is not available."})
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.render(w, r, http.StatusBadRequest, page{State: st, Error: "Please choose an image."})
		return
	}
	defer file.Close()

	text, ok, err := scan.DecodeReader(s.decoder, file)
	if err != nil {
		s.render(w, r, http.StatusBadRequest, page{State: st, Error: "Could not read the image: " + err.Error()})
		return
	}
	if !ok {
		s.render(w, r, http.StatusOK, page{State: st, Error: "No barcode detected. Try again."})
		return
	}
	st = st.Scanned(text, true)
	p := page{State: st, Message: "Scanned " + target.Label() + ": " + text}
	if target == view.FieldSKU {
		if d, err := s.svc.Preview(r.Context(), text); err == nil {
			p.Preview = d.Describe(text)
		}
	}
	s.render(w, r, http.StatusOK, p)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.List(r.Context())
	if err != nil {
		http.Error(w, entry.UserMessage(err), http.StatusInternalServerError)
		return
	}
	data, err := export.CSV(s.svc.Policy(), rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.DownloadName+`"`)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("export write failed", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
