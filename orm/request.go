package orm

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)
	bracketRe     = regexp.MustCompile(`^[^\[\]]+\[([^\[\]]+)\]$`)
)

// RequestSpec is one resolved HTTP call.
type RequestSpec struct {
	Method string
	URL    string
	Body   any
}

// BuildURL resolves the {placeholders} of template from query and body,
// joins the result to the base URI and appends the remaining query
// parameters merged over the auth parameters. Caller parameters win over
// auth parameters on key collision.
func (c *Connection) BuildURL(ctx context.Context, template string, query Params, body any) (string, error) {
	path, rest, err := expandTemplate(template, query, body)
	if err != nil {
		return "", err
	}

	authParams, err := c.authParams(ctx)
	if err != nil {
		return "", err
	}

	merged := make(Params, len(authParams)+len(rest))
	maps.Copy(merged, authParams)
	maps.Copy(merged, rest)

	return appendQuery(c.absoluteURL(path), merged), nil
}

func (c *Connection) absoluteURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.cfg.BaseURI, "/") + "/" + strings.TrimLeft(path, "/")
}

// lookupEntry remembers where a flattened value came from so that it can be
// removed from the query once a placeholder consumed it.
type lookupEntry struct {
	value  any
	key    string
	nested string
}

// flattenParams builds the placeholder lookup table. Nested mappings are
// merged into the table and bracketed keys ("filter[name]") register under
// their inner name. Indexed forms win over plain keys; among nested
// mappings later keys (in sorted order) overwrite earlier ones.
func flattenParams(params Params) map[string]lookupEntry {
	out := make(map[string]lookupEntry, len(params))
	keys := slices.Sorted(maps.Keys(params))

	for _, k := range keys {
		if _, nested := asMap(params[k]); nested || bracketRe.MatchString(k) {
			continue
		}
		out[k] = lookupEntry{value: params[k], key: k}
	}
	for _, k := range keys {
		m, ok := asMap(params[k])
		if !ok {
			continue
		}
		for _, nk := range slices.Sorted(maps.Keys(m)) {
			out[nk] = lookupEntry{value: m[nk], key: k, nested: nk}
		}
	}
	for _, k := range keys {
		if _, nested := asMap(params[k]); nested {
			continue
		}
		if sub := bracketRe.FindStringSubmatch(k); sub != nil {
			out[sub[1]] = lookupEntry{value: params[k], key: k}
		}
	}
	return out
}

// expandTemplate substitutes every {name} token of template. It returns
// the resolved path and the query parameters no token consumed.
func expandTemplate(template string, query Params, body any) (string, Params, error) {
	rest := cloneParams(query)
	if !strings.Contains(template, "{") {
		return template, rest, nil
	}

	lookup := flattenParams(query)
	bodyMap, _ := asMap(body)

	var missing string
	path := placeholderRe.ReplaceAllStringFunc(template, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if e, ok := lookup[name]; ok {
			if s, ok := formatScalar(e.value); ok {
				consume(rest, e)
				return url.PathEscape(s)
			}
		}
		if v, ok := bodyMap[name]; ok {
			if s, ok := formatScalar(v); ok {
				return url.PathEscape(s)
			}
		}
		if missing == "" {
			missing = name
		}
		return tok
	})
	if missing != "" {
		return "", nil, &URLResolutionError{Template: template, Placeholder: missing}
	}
	return path, rest, nil
}

func consume(params Params, e lookupEntry) {
	if e.nested == "" {
		delete(params, e.key)
		return
	}
	m, ok := params[e.key].(map[string]any)
	if !ok {
		return
	}
	delete(m, e.nested)
	if len(m) == 0 {
		delete(params, e.key)
	}
}

// cloneParams copies params and the first level of nested mappings, which
// are normalized to map[string]any.
func cloneParams(params Params) Params {
	out := make(Params, len(params))
	for k, v := range params {
		if m, ok := asMap(v); ok {
			out[k] = maps.Clone(m)
			continue
		}
		out[k] = v
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Row:
		return map[string]any(m), true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// formatScalar renders values usable as a path segment or parameter value.
func formatScalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case fmt.Stringer:
		return x.String(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.String:
		return rv.String(), true
	default:
		return "", false
	}
}

func appendQuery(u string, params Params) string {
	qs := encodeParams(params)
	if qs == "" {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&" + qs
	}
	return u + "?" + qs
}

// repeated values encode as one plain key per value ("id=1&id=2").
type repeated []any

// encodeParams renders params with bracket notation: nested mappings as
// key[sub], scalar lists as key[] and lists of mappings as key[i].
func encodeParams(params Params) string {
	vals := url.Values{}
	for _, k := range slices.Sorted(maps.Keys(params)) {
		addParam(vals, k, params[k])
	}
	return vals.Encode()
}

func addParam(vals url.Values, key string, v any) {
	if v == nil {
		return
	}
	if list, ok := v.(repeated); ok {
		for _, e := range list {
			if s, ok := formatScalar(e); ok {
				vals.Add(key, s)
			}
		}
		return
	}
	if m, ok := asMap(v); ok {
		for _, nk := range slices.Sorted(maps.Keys(m)) {
			addParam(vals, key+"["+nk+"]", m[nk])
		}
		return
	}
	if s, ok := formatScalar(v); ok {
		vals.Add(key, s)
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := range rv.Len() {
			e := rv.Index(i).Interface()
			if _, scalar := formatScalar(e); scalar || e == nil {
				addParam(vals, key+"[]", e)
				continue
			}
			addParam(vals, key+"["+strconv.Itoa(i)+"]", e)
		}
		return
	}
	vals.Add(key, fmt.Sprint(v))
}
