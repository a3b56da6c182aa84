package server

import (
	"errors"
	"net/http"

	"github.com/onecard-labs/cardassist/internal/analytics"
	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/health"
	"github.com/onecard-labs/cardassist/internal/payment"
	"github.com/onecard-labs/cardassist/internal/statement"
)

func (s *Server) handleStatementPDF(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.sessionAccount(w, r)
	if !ok {
		return
	}

	pdf, err := statement.PDF(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), apperrors.NewStorageError(err)))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="statement.pdf"`)
	_, _ = w.Write(pdf)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.sessionAccount(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, analytics.Build(acct))
}

func (s *Server) handleAnalyticsChart(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.sessionAccount(w, r)
	if !ok {
		return
	}

	png, err := analytics.PiePNG(analytics.Build(acct))
	if err != nil {
		if errors.Is(err, analytics.ErrNoSpending) {
			writeError(w, http.StatusNotFound, "No spending to chart yet.")
			return
		}

		writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), apperrors.NewStorageError(err)))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handlePaymentQR(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.sessionAccount(w, r)
	if !ok {
		return
	}

	if acct.Bill.Amount <= 0 {
		writeError(w, http.StatusNotFound, "No outstanding bill to pay.")
		return
	}

	png, err := payment.QRPNG(s.links.BillLink(acct.Bill.Amount), 320)
	if err != nil {
		writeError(w, http.StatusInternalServerError, s.errs.Handle(r.Context(), apperrors.NewStorageError(err)))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// handleSpeechToText proxies one audio upload to the upstream transcriber.
// Failures come back as a JSON error and are never retried here.
func (s *Server) handleSpeechToText(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionAccount(w, r); !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request.")
		return
	}
	defer func() { _ = file.Close() }()

	text, err := s.speech.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadGateway, s.errs.Handle(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	results := s.checker.Check(r.Context())

	status := http.StatusOK
	if !health.Healthy(results) {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, results)
}
