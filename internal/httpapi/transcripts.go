package httpapi

import (
	"bytes"
	"net/http"

	"voice-ingest-go/internal/export"
)

func (s *Server) listTranscripts(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, s.catalog.Transcripts())
}

func (s *Server) transcriptSummary(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, export.Summarize(s.catalog.Transcripts()))
}

func (s *Server) exportTranscripts(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "export")

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, s.catalog.Transcripts()); err != nil {
		log.WithError(err).Error("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="transcripts.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

// deleteTranscript removes the stored audio and the catalog record, then
// saves the catalog.
func (s *Server) deleteTranscript(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	log := s.log.WithRequest(r).WithField("handler", "delete_transcript").WithField("file", name)

	rec, ok := s.catalog.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "transcript not found")
		return
	}
	if err := s.blobs.Remove(rec.FilePath); err != nil {
		log.WithError(err).Warn("blob removal failed, dropping record anyway")
	}
	s.catalog.Remove(name)
	if err := s.catalog.Save(); err != nil {
		log.WithError(err).Error("catalog save failed")
		writeError(w, http.StatusInternalServerError, "catalog save failed")
		return
	}
	log.Info("transcript deleted")
	w.WriteHeader(http.StatusNoContent)
}
