package apperr

import (
	"encoding/json"
	"net/http"

	"github.com/5w1tchy/lms-catalog/internal/api/reqid"
)

const problemContentType = "application/problem+json"

// FieldError points a problem at one input field. Code is a short machine
// token such as "required", "unique" or "unknown".
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Problem is an RFC 7807 body extended with the request id and per-field
// errors.
type Problem struct {
	Type        string       `json:"type,omitempty"`
	Title       string       `json:"title"`
	Status      int          `json:"status"`
	Detail      string       `json:"detail,omitempty"`
	Instance    string       `json:"instance,omitempty"`
	RequestID   string       `json:"request_id,omitempty"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
	Retryable   bool         `json:"retryable,omitempty"`
}

// stamp fills the fields that come from the request rather than the error.
func (p *Problem) stamp(r *http.Request) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if r == nil {
		return
	}
	if p.Instance == "" {
		p.Instance = r.URL.Path
	}
	if p.RequestID == "" {
		p.RequestID = reqid.FromRequest(r)
	}
}

func Write(w http.ResponseWriter, r *http.Request, p Problem) {
	p.stamp(r)
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func WriteStatus(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	Write(w, r, Problem{Status: status, Title: title, Detail: detail})
}
