// Пакет embed проверяет и нормализует ссылки на встраиваемый контент сторонних сервисов.
//
// Каждый провайдер принимает ограниченный набор хостов и путей, ссылки "для браузера"
// переписываются в embed-форму. Вставленный целиком <iframe> разбирается, берется его src.
// Функции пакета чистые: без сети и таймеров, повторная нормализация результата не меняет его.
package embed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Provider string

const (
	YouTube     Provider = "youtube"
	Figma       Provider = "figma"
	CodePen     Provider = "codepen"
	StackBlitz  Provider = "stackblitz"
	CodeSandbox Provider = "codesandbox"
	Replit      Provider = "replit"
)

type Status int

const (
	Unset Status = iota
	Valid
	Invalid
)

func (s Status) String() string {
	switch s {
	case Unset:
		return "unset"
	case Valid:
		return "valid"
	default:
		return "invalid"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrInvalidEmbedURL = errors.New("invalid embed url")
	ErrUnknownProvider = errors.New("unknown embed provider")
)

// Result - результат проверки ссылки. URL заполнен только для Valid.
type Result struct {
	Status Status `json:"status"`
	URL    string `json:"url"`
	Reason string `json:"reason,omitempty"`
}

// Err возвращает ErrInvalidEmbedURL с причиной для Invalid и nil в остальных случаях.
func (r Result) Err() error {
	if r.Status != Invalid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidEmbedURL, r.Reason)
}

type normalizer func(u *url.URL) (string, error)

var providers = map[Provider]normalizer{
	YouTube:     normalizeYouTube,
	Figma:       normalizeFigma,
	CodePen:     normalizeCodePen,
	StackBlitz:  normalizeStackBlitz,
	CodeSandbox: normalizeCodeSandbox,
	Replit:      normalizeReplit,
}

// Providers возвращает список поддерживаемых провайдеров.
func Providers() []Provider {
	return []Provider{YouTube, Figma, CodePen, StackBlitz, CodeSandbox, Replit}
}

func Known(p Provider) bool {
	_, ok := providers[p]
	return ok
}

// Validate проверяет ссылку для провайдера p. Пустая строка дает Unset.
func Validate(p Provider, raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Status: Unset}
	}

	normalize, ok := providers[p]
	if !ok {
		return invalid(fmt.Sprintf("%s: %q", ErrUnknownProvider, p))
	}

	if isIframe(raw) {
		src, ok := IframeSrc(raw)
		if !ok {
			return invalid("iframe has no src attribute")
		}
		raw = src
	}

	u, err := parseAbsolute(raw)
	if err != nil {
		return invalid(err.Error())
	}

	res, err := normalize(u)
	if err != nil {
		return invalid(err.Error())
	}
	return Result{Status: Valid, URL: res}
}

func invalid(reason string) Result {
	return Result{Status: Invalid, Reason: reason}
}

func isIframe(raw string) bool {
	return len(raw) >= 7 && strings.EqualFold(raw[:7], "<iframe")
}

// IframeSrc извлекает src первого iframe во фрагменте разметки.
func IframeSrc(fragment string) (string, bool) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return "", false
	}
	for _, n := range nodes {
		if src, ok := findIframeSrc(n); ok {
			return src, true
		}
	}
	return "", false
}

func findIframeSrc(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Iframe {
		for _, attr := range n.Attr {
			if attr.Key == "src" && strings.TrimSpace(attr.Val) != "" {
				return strings.TrimSpace(attr.Val), true
			}
		}
		return "", false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if src, ok := findIframeSrc(c); ok {
			return src, true
		}
	}
	return "", false
}

// IframeHTML возвращает разметку iframe для уже проверенной ссылки.
func IframeHTML(embedURL string) string {
	return `<iframe src="` + html.EscapeString(embedURL) + `" width="100%" height="450" frameborder="0" allowfullscreen></iframe>`
}

func parseAbsolute(raw string) (*url.URL, error) {
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return nil, errors.New("url must be absolute")
	default:
		return nil, fmt.Errorf("scheme %q is not allowed", u.Scheme)
	}
	if u.User != nil {
		return nil, errors.New("credentials in url are not allowed")
	}
	if u.Port() != "" {
		return nil, errors.New("custom port is not allowed")
	}
	if u.Hostname() == "" {
		return nil, errors.New("url has no host")
	}
	return u, nil
}

func host(u *url.URL) string {
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

func segments(u *url.URL) []string {
	var res []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}

// keepQuery оставляет в запросе только разрешенные параметры, порядок ключей сортирован.
func keepQuery(q url.Values, keys ...string) url.Values {
	res := url.Values{}
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			res.Set(k, v)
		}
	}
	return res
}

func withQuery(base string, q url.Values) string {
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
