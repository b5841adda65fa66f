package editor

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/embed"
)

type propSpec struct {
	key       string
	def       any
	normalize func(v any) (any, error)
}

type schema []propSpec

func (s schema) defaults() edtypes.Props {
	res := make(edtypes.Props, len(s))
	for _, p := range s {
		res[p.key] = p.def
	}
	return res
}

func (s schema) normalize(in edtypes.Props) (edtypes.Props, []PropError) {
	res := make(edtypes.Props, len(s))
	var errs []PropError
	for _, p := range s {
		v, ok := in[p.key]
		if !ok || v == nil {
			res[p.key] = p.def
			continue
		}
		nv, err := p.normalize(v)
		if err != nil {
			errs = append(errs, PropError{Prop: p.key, Err: err})
			res[p.key] = p.def
			continue
		}
		res[p.key] = nv
	}
	return res, errs
}

func typeError(want string, v any) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrInvalidProp, want, v)
}

func stringProp(key, def string) propSpec {
	return propSpec{key: key, def: def, normalize: func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, typeError("string", v)
		}
		return s, nil
	}}
}

func boolProp(key string, def bool) propSpec {
	return propSpec{key: key, def: def, normalize: func(v any) (any, error) {
		b, ok := v.(bool)
		if !ok {
			return nil, typeError("bool", v)
		}
		return b, nil
	}}
}

func enumProp(key, def string, values ...string) propSpec {
	return propSpec{key: key, def: def, normalize: func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, typeError("string", v)
		}
		if !slices.Contains(values, s) {
			return nil, fmt.Errorf("%w: %q is not one of %v", ErrInvalidProp, s, values)
		}
		return s, nil
	}}
}

func intRangeProp(key string, def, min, max int) propSpec {
	return propSpec{key: key, def: def, normalize: func(v any) (any, error) {
		i, ok := edtypes.Props{key: v}.Int(key)
		if !ok {
			return nil, typeError("integer", v)
		}
		if i < min || i > max {
			return nil, fmt.Errorf("%w: %d is out of range %d..%d", ErrInvalidProp, i, min, max)
		}
		return i, nil
	}}
}

// embedProp хранит только нормализованную ссылку провайдера.
func embedProp(key string, provider embed.Provider) propSpec {
	return propSpec{key: key, def: "", normalize: func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, typeError("string", v)
		}
		res := embed.Validate(provider, s)
		if err := res.Err(); err != nil {
			return nil, err
		}
		return res.URL, nil
	}}
}

var videoRefRegexp = regexp.MustCompile(`^videos/[A-Za-z0-9_-]+(/[A-Za-z0-9._-]+)+$`)

func mediaRefProp(key string) propSpec {
	return propSpec{key: key, def: "", normalize: func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, typeError("string", v)
		}
		if s == "" {
			return s, nil
		}
		if !videoRefRegexp.MatchString(s) || strings.Contains(s, "..") {
			return nil, fmt.Errorf("%w: %q is not a media reference", ErrInvalidProp, s)
		}
		return s, nil
	}}
}

var codeLanguages = []string{
	"plaintext", "bash", "c", "cpp", "csharp", "css", "dart", "go", "html", "java",
	"javascript", "json", "jsx", "kotlin", "markdown", "php", "python", "ruby", "rust",
	"scss", "sql", "swift", "tsx", "typescript", "xml", "yaml",
}

var languageAliases = map[string]string{
	"js":     "javascript",
	"ts":     "typescript",
	"py":     "python",
	"golang": "go",
	"sh":     "bash",
	"shell":  "bash",
	"yml":    "yaml",
	"md":     "markdown",
	"text":   "plaintext",
	"c++":    "cpp",
	"cs":     "csharp",
}

// languageProp заменяет неизвестный язык на plaintext без ошибки.
func languageProp(key string) propSpec {
	return propSpec{key: key, def: "plaintext", normalize: func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return "plaintext", nil
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if alias, ok := languageAliases[s]; ok {
			s = alias
		}
		if !slices.Contains(codeLanguages, s) {
			return "plaintext", nil
		}
		return s, nil
	}}
}
