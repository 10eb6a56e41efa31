package notionsync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// nullNumberTransport strips number properties whose value is null from
// database query responses. notionapi decodes a null number as 0, while a
// stripped property reads as missing, so an empty amount stays nil.
type nullNumberTransport struct {
	base http.RoundTripper
}

func (t *nullNumberTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK || !isDatabaseQuery(req) {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}

	if stripped, changed, err := dropNullNumbers(body); err == nil && changed {
		body = stripped
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Del("Content-Length")
	return resp, nil
}

func isDatabaseQuery(req *http.Request) bool {
	return req.Method == http.MethodPost && strings.HasSuffix(req.URL.Path, "/query")
}

// dropNullNumbers removes null number and null number-formula properties
// from every page in a query response body.
func dropNullNumbers(body []byte) ([]byte, bool, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, err
	}

	var results []map[string]json.RawMessage
	if err := json.Unmarshal(payload["results"], &results); err != nil {
		return nil, false, err
	}

	changed := false
	for _, page := range results {
		var props map[string]json.RawMessage
		if err := json.Unmarshal(page["properties"], &props); err != nil {
			continue
		}

		pageChanged := false
		for name, raw := range props {
			if isNullNumber(raw) {
				delete(props, name)
				pageChanged = true
			}
		}
		if !pageChanged {
			continue
		}

		encoded, err := json.Marshal(props)
		if err != nil {
			return nil, false, err
		}
		page["properties"] = encoded
		changed = true
	}

	if !changed {
		return body, false, nil
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		return nil, false, err
	}
	payload["results"] = encoded

	out, err := json.Marshal(payload)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func isNullNumber(raw json.RawMessage) bool {
	var p struct {
		Type    string          `json:"type"`
		Number  json.RawMessage `json:"number"`
		Formula *struct {
			Type   string          `json:"type"`
			Number json.RawMessage `json:"number"`
		} `json:"formula"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}

	switch p.Type {
	case "number":
		return isNull(p.Number)
	case "formula":
		return p.Formula != nil && p.Formula.Type == "number" && isNull(p.Formula.Number)
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
