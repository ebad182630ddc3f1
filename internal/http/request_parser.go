package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cartao/internal/blob"
	"cartao/internal/core"
)

// maxUploadBody bounds a receipt upload request. A base64 data URL of a
// receipt at the size limit is about 4/3 of it, plus the other fields.
const maxUploadBody = blob.MaxReceiptSize*4/3 + 64<<10

// ParsePeriodParams reads the invoice period from query parameters, either
// as period=YYYY-MM or as separate month and year. Missing or invalid values
// fall back to the matching field of fallback.
func ParsePeriodParams(query url.Values, fallback core.Period) core.Period {
	if v := strings.TrimSpace(query.Get("period")); v != "" {
		if p, err := core.ParsePeriod(v); err == nil {
			return p
		}
	}
	p := fallback
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1 && y <= 9999 {
			p.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			p.Month = m
		}
	}
	return p
}

var (
	errInvalidMonth = errors.New("invalid month")
	errInvalidYear  = errors.New("invalid year")
)

// parseReportPeriod is the strict variant used by the JSON API: a value that
// is present must be a month in 1..12 and a year in 2000..2100.
func parseReportPeriod(query url.Values, fallback core.Period) (core.Period, error) {
	p := fallback
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return core.Period{}, errInvalidMonth
		}
		p.Month = m
	}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 2000 || y > 2100 {
			return core.Period{}, errInvalidYear
		}
		p.Year = y
	}
	return p, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato de requisição inválido")
	}
	return nil
}

// parseUploadForm parses a multipart or urlencoded form bounded by
// maxUploadBody.
func parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := r.ParseMultipartForm(maxUploadBody)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: receipt: %w", core.ErrValidation, blob.ErrTooLarge)
		}
		return err
	}
	return r.ParseForm()
}

// receiptFromRequest returns the receipt carried by a parsed upload form: a
// file in the "receipt" part, or a data URL in the "receipt" field. It
// returns nil when neither is present.
func receiptFromRequest(r *http.Request) ([]byte, error) {
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["receipt"]; len(files) > 0 {
			return readUpload(files[0])
		}
	}
	v := strings.TrimSpace(r.FormValue("receipt"))
	if v == "" {
		return nil, nil
	}
	data, err := blob.DecodeDataURL(v)
	if err != nil {
		return nil, fmt.Errorf("%w: receipt: %w", core.ErrValidation, err)
	}
	return data, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > blob.MaxReceiptSize {
		return nil, fmt.Errorf("%w: receipt: %w", core.ErrValidation, blob.ErrTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, blob.MaxReceiptSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}
