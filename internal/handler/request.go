package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

// Pager turns limit/offset query parameters into a domain.Page.
type Pager struct {
	Default int
	Max     int
}

func (p Pager) parse(q url.Values) (domain.Page, []FieldError) {
	var errs []FieldError
	page := domain.Page{Limit: p.Default}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil || n <= 0:
			errs = append(errs, FieldError{Field: "limit", Message: "must be a positive integer"})
		case n > p.Max:
			errs = append(errs, FieldError{Field: "limit", Message: "must be at most " + strconv.Itoa(p.Max)})
		default:
			page.Limit = n
		}
	}

	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "offset", Message: "must be a non-negative integer"})
		} else {
			page.Offset = n
		}
	}

	return page, errs
}

type pageDTO[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func toPageDTO[S, D any](p *domain.PageResult[S], conv func(*S) D) pageDTO[D] {
	items := make([]D, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, conv(&p.Items[i]))
	}
	return pageDTO[D]{Items: items, Total: p.Total, Limit: p.Limit, Offset: p.Offset}
}

// idParam reads a uuid path parameter. A malformed id cannot name an existing
// resource, so callers answer 404.
func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func optionalUUID(q url.Values, field string, errs *[]FieldError) *uuid.UUID {
	raw := q.Get(field)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		*errs = append(*errs, FieldError{Field: field, Message: "must be a valid UUID"})
		return nil
	}
	return &id
}

func optionalString(q url.Values, field string) *string {
	if v := q.Get(field); v != "" {
		return &v
	}
	return nil
}
