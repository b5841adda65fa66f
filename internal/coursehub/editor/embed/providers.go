package embed

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

var (
	youtubeIDRegexp  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	slugRegexp       = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	pathSegRegexp    = regexp.MustCompile(`^[A-Za-z0-9._~@%-]+$`)
	startParamRegexp = regexp.MustCompile(`^(\d+)s?$`)
)

func unsupportedHost(u *url.URL) error {
	return fmt.Errorf("host %q is not supported", u.Hostname())
}

func unsupportedPath(u *url.URL) error {
	return fmt.Errorf("path %q is not an embeddable resource", u.Path)
}

func normalizeYouTube(u *url.URL) (string, error) {
	seg := segments(u)
	base := "https://www.youtube.com/embed/"
	var id string

	switch host(u) {
	case "youtu.be":
		if len(seg) != 1 {
			return "", unsupportedPath(u)
		}
		id = seg[0]
	case "youtube.com", "www.youtube.com", "m.youtube.com":
		switch {
		case len(seg) == 1 && seg[0] == "watch":
			id = u.Query().Get("v")
		case len(seg) == 2 && (seg[0] == "embed" || seg[0] == "shorts" || seg[0] == "live"):
			id = seg[1]
		default:
			return "", unsupportedPath(u)
		}
	case "youtube-nocookie.com", "www.youtube-nocookie.com":
		if len(seg) != 2 || seg[0] != "embed" {
			return "", unsupportedPath(u)
		}
		id = seg[1]
		base = "https://www.youtube-nocookie.com/embed/"
	default:
		return "", unsupportedHost(u)
	}

	if !youtubeIDRegexp.MatchString(id) {
		return "", fmt.Errorf("%q is not a video id", id)
	}

	q := url.Values{}
	if start := youtubeStart(u.Query()); start != "" {
		q.Set("start", start)
	}
	return withQuery(base+id, q), nil
}

// youtubeStart переводит параметры start и t (формат 30 или 30s) в секунды.
func youtubeStart(q url.Values) string {
	for _, key := range []string{"start", "t"} {
		if m := startParamRegexp.FindStringSubmatch(q.Get(key)); m != nil {
			return m[1]
		}
	}
	return ""
}

var figmaKinds = []string{"file", "design", "proto", "board"}

func isFigmaHost(h string) bool {
	return h == "figma.com" || h == "www.figma.com"
}

func normalizeFigma(u *url.URL) (string, error) {
	if !isFigmaHost(host(u)) {
		return "", unsupportedHost(u)
	}

	seg := segments(u)
	if len(seg) == 1 && seg[0] == "embed" {
		inner := u.Query().Get("url")
		if inner == "" {
			return "", errors.New("figma embed has no url parameter")
		}
		iu, err := parseAbsolute(inner)
		if err != nil {
			return "", fmt.Errorf("figma target: %w", err)
		}
		return figmaEmbed(iu)
	}
	return figmaEmbed(u)
}

func figmaEmbed(u *url.URL) (string, error) {
	if !isFigmaHost(host(u)) {
		return "", unsupportedHost(u)
	}
	seg := escapedSegments(u)
	if len(seg) < 2 || !slices.Contains(figmaKinds, seg[0]) || !slugRegexp.MatchString(seg[1]) {
		return "", unsupportedPath(u)
	}
	for _, s := range seg[2:] {
		if !pathSegRegexp.MatchString(s) {
			return "", unsupportedPath(u)
		}
	}

	target := withQuery("https://www.figma.com/"+strings.Join(seg, "/"), keepQuery(u.Query(), "node-id"))
	q := url.Values{}
	q.Set("embed_host", "share")
	q.Set("url", target)
	return "https://www.figma.com/embed?" + q.Encode(), nil
}

var codepenViews = []string{"pen", "embed", "full", "details", "pres"}

func normalizeCodePen(u *url.URL) (string, error) {
	if h := host(u); h != "codepen.io" && h != "www.codepen.io" {
		return "", unsupportedHost(u)
	}
	seg := segments(u)
	if len(seg) < 3 || !slices.Contains(codepenViews, seg[1]) {
		return "", unsupportedPath(u)
	}
	user, id := seg[0], seg[2]
	if !slugRegexp.MatchString(user) || !slugRegexp.MatchString(id) {
		return "", unsupportedPath(u)
	}
	base := "https://codepen.io/" + user + "/embed/" + id
	return withQuery(base, keepQuery(u.Query(), "default-tab", "theme-id")), nil
}

func normalizeStackBlitz(u *url.URL) (string, error) {
	if h := host(u); h != "stackblitz.com" && h != "www.stackblitz.com" {
		return "", unsupportedHost(u)
	}
	seg := escapedSegments(u)
	switch {
	case len(seg) == 2 && seg[0] == "edit":
	case len(seg) >= 3 && seg[0] == "github":
	default:
		return "", unsupportedPath(u)
	}
	for _, s := range seg[1:] {
		if !pathSegRegexp.MatchString(s) {
			return "", unsupportedPath(u)
		}
	}

	q := keepQuery(u.Query(), "file", "view", "hideExplorer", "hideNavigation", "theme", "ctl")
	q.Set("embed", "1")
	return withQuery("https://stackblitz.com/"+strings.Join(seg, "/"), q), nil
}

func normalizeCodeSandbox(u *url.URL) (string, error) {
	if h := host(u); h != "codesandbox.io" && h != "www.codesandbox.io" {
		return "", unsupportedHost(u)
	}
	seg := segments(u)
	var id string
	switch {
	case len(seg) == 2 && (seg[0] == "embed" || seg[0] == "s"):
		id = seg[1]
	case len(seg) == 3 && seg[0] == "p" && seg[1] == "sandbox":
		id = seg[2]
	default:
		return "", unsupportedPath(u)
	}
	if !slugRegexp.MatchString(id) {
		return "", unsupportedPath(u)
	}
	q := keepQuery(u.Query(), "view", "module", "fontsize", "hidenavigation", "theme", "file")
	return withQuery("https://codesandbox.io/embed/"+id, q), nil
}

func normalizeReplit(u *url.URL) (string, error) {
	switch host(u) {
	case "replit.com", "www.replit.com", "repl.it":
	default:
		return "", unsupportedHost(u)
	}
	seg := segments(u)
	if len(seg) != 2 || !strings.HasPrefix(seg[0], "@") {
		return "", unsupportedPath(u)
	}
	user, repl := strings.TrimPrefix(seg[0], "@"), seg[1]
	if !slugRegexp.MatchString(user) || !slugRegexp.MatchString(repl) {
		return "", unsupportedPath(u)
	}
	return "https://replit.com/@" + user + "/" + repl + "?embed=true", nil
}

func escapedSegments(u *url.URL) []string {
	var res []string
	for _, s := range strings.Split(u.EscapedPath(), "/") {
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}
