package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"checklance/internal/domain"
)

// sessionView is the wire shape of a session. Raw media bytes never leave
// the server; the client only needs the step, the payment handle and the
// verdict.
type sessionView struct {
	ID          string                 `json:"id"`
	Step        domain.Step            `json:"step"`
	Focus       domain.AnalysisFocus   `json:"focus"`
	Media       *mediaView             `json:"media,omitempty"`
	Normalizing bool                   `json:"normalizing,omitempty"`
	Payment     *domain.PaymentRecord  `json:"payment,omitempty"`
	Result      *domain.AnalysisResult `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

type mediaView struct {
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Frames   int    `json:"frames,omitempty"`
}

func viewOf(s domain.Session) sessionView {
	v := sessionView{
		ID:          s.ID,
		Step:        s.Step,
		Focus:       s.Focus,
		Normalizing: s.Normalizing,
		Payment:     s.Payment,
		Result:      s.Result,
		Error:       s.LastError,
	}
	if s.Asset != nil {
		v.Media = &mediaView{MIMEType: s.Asset.MIMEType, Size: s.Asset.Size}
		if s.Payload != nil && s.Payload.Kind == domain.PayloadFrames {
			v.Media.Frames = len(s.Payload.Frames)
		}
	}
	return v
}

func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	s := a.Sessions.Create()
	a.json(w, http.StatusCreated, viewOf(s))
}

func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	s, err := a.Sessions.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}

func (a *App) SessionStart(w http.ResponseWriter, r *http.Request) {
	s, err := a.Sessions.Start(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}

// SessionMedia accepts a multipart upload in the "media" field and runs
// normalization before returning. Oversized bodies are cut off by the
// reader before they are buffered in full.
func (a *App) SessionMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxAssetBytes+1<<20)
	file, header, err := r.FormFile("media")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusBadRequest, domain.UserMessage(domain.ErrOversizedAsset))
			return
		}
		a.error(w, http.StatusBadRequest, "media file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, domain.UserMessage(domain.ErrOversizedAsset))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	asset := domain.MediaAsset{
		Data:     data,
		MIMEType: mimeType,
		Size:     int64(len(data)),
	}

	s, err := a.Sessions.SelectMedia(r.Context(), chi.URLParam(r, "id"), asset)
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}

type focusRequest struct {
	Focus string `json:"focus"`
}

func (a *App) SessionFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	focus, ok := domain.ParseFocus(req.Focus)
	if !ok {
		a.error(w, http.StatusBadRequest, "unknown focus")
		return
	}
	s, err := a.Sessions.SetFocus(chi.URLParam(r, "id"), focus)
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}

func (a *App) SessionCheckout(w http.ResponseWriter, r *http.Request) {
	s, err := a.Sessions.Checkout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}

type confirmRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (a *App) SessionConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentMethod == "" {
		a.error(w, http.StatusBadRequest, "payment_method required")
		return
	}
	s, err := a.Sessions.ConfirmCard(r.Context(), chi.URLParam(r, "id"), req.PaymentMethod)
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}

// SessionAnalyze blocks while the payment settles and the verdict is
// produced. On failure the session has already been routed back to UPLOAD;
// the response carries the user-facing message.
func (a *App) SessionAnalyze(w http.ResponseWriter, r *http.Request) {
	s, err := a.Sessions.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}

func (a *App) SessionReset(w http.ResponseWriter, r *http.Request) {
	s, err := a.Sessions.Reset(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}

func (a *App) SessionBack(w http.ResponseWriter, r *http.Request) {
	s, err := a.Sessions.Back(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, statusFor(err), domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, viewOf(s))
}
