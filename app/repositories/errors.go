package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

// NonFieldErrors is the path that collects messages not tied to a field.
const NonFieldErrors = "non_field_errors"

// FlattenFieldErrors turns an API error body into form paths:
//
//	{"ProductName": ["This field is required."]}            → ProductName
//	{"variants": [{}, {"sku": ["already exists.", "x"]}]}   → variants.1.sku = "already exists. x"
//	{"variants": {"0": {"stock": "must be positive"}}}      → variants.0.stock
//
// Message lists are joined with a space. It returns false when the body is not
// a JSON object or holds no messages.
func FlattenFieldErrors(body []byte) (validate.Errors, bool) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, false
	}
	out := validate.Errors{}
	for key, raw := range root {
		flatten(out, key, raw)
	}
	// {"detail": "..."} is a plain failure, not a field error.
	if _, ok := out["detail"]; ok && len(out) == 1 {
		return nil, false
	}
	return out, len(out) > 0
}

func flatten(out validate.Errors, path string, raw json.RawMessage) {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s != "" {
			out.Set(fieldPath(path), s)
		}
		return
	}

	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		var msgs []string
		for i, item := range list {
			var m string
			if json.Unmarshal(item, &m) == nil {
				if m != "" {
					msgs = append(msgs, m)
				}
				continue
			}
			flatten(out, validate.Path(path, i), item)
		}
		if len(msgs) > 0 {
			out.Set(fieldPath(path), strings.Join(msgs, " "))
		}
		return
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == NonFieldErrors {
				flatten(out, path, obj[k])
				continue
			}
			flatten(out, validate.Path(path, k), obj[k])
		}
		return
	}

	// Numbers and booleans are not messages, but keep them visible.
	if txt := strings.TrimSpace(string(raw)); txt != "" && txt != "null" {
		out.Set(fieldPath(path), txt)
	}
}

func fieldPath(path string) string {
	if path == "" {
		return NonFieldErrors
	}
	return path
}

// classify converts a failed API call into the error taxonomy.
func classify(err error) error {
	var se *apihttp.StatusError
	if !errors.As(err, &se) {
		return apperr.RemoteGenericErr(err)
	}
	switch se.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if fields, ok := FlattenFieldErrors(se.Body); ok {
			return apperr.RemoteFieldErr(fields, err)
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &apperr.Error{Kind: apperr.Unauthorized, Message: "the API rejected the token, sign in again", Err: err}
	case http.StatusConflict:
		return &apperr.Error{Kind: apperr.Conflict, Message: "the API reported a conflict", Err: err}
	}
	return apperr.RemoteGenericErr(err)
}

// send runs req and classifies every failure.
func send(req *apihttp.Request, dest any) error {
	resp, err := req.Send()
	if err != nil {
		return classify(err)
	}
	if err := resp.Throw(); err != nil {
		return classify(err)
	}
	if dest == nil || len(resp.Raw) == 0 {
		return nil
	}
	if err := resp.JSON(dest); err != nil {
		return apperr.RemoteGenericErr(fmt.Errorf("decode %s: %w", req.URL(), err))
	}
	return nil
}
