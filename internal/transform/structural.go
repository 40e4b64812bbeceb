package transform

import (
	"html"
	"regexp"
	"strings"
)

var (
	clozeRe     = regexp.MustCompile(`\{\{cloze\s+(.+?)\}\}`)
	videoRe     = regexp.MustCompile(`\{\{(video|youtube)\s+([^\s}]+)\s*\}\}`)
	pdfMacroRe  = regexp.MustCompile(`\{\{pdf\s+([^\s}]+)\s*\}\}`)
	pdfImageRe  = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+\.pdf)\)`)
	rendererRe  = regexp.MustCompile(`\{\{renderer\s[^}]*\}\}`)
	imageAttrRe = regexp.MustCompile(`\{:\s*(?:height|width)[^}]*\}`)
	assetLinkRe = regexp.MustCompile(`\]\((?:\.\./)+assets/`)
	youtubeIDRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([A-Za-z0-9_-]{6,})`)
	vimeoIDRe   = regexp.MustCompile(`vimeo\.com/(\d+)`)
)

// rewriteStructural converts macros and markup the site renderer does not
// understand: hiccup, cloze, media embeds and renderer macros.
func rewriteStructural(c *Context, text string) string {
	text = rewriteHiccup(c, text)
	text = clozeRe.ReplaceAllStringFunc(text, func(s string) string {
		return "==" + strings.TrimSpace(clozeRe.FindStringSubmatch(s)[1]) + "=="
	})
	text = videoRe.ReplaceAllStringFunc(text, func(s string) string {
		m := videoRe.FindStringSubmatch(s)
		return c.protect(spanRaw, videoEmbed(m[1], m[2]))
	})
	text = pdfMacroRe.ReplaceAllStringFunc(text, func(s string) string {
		return c.protect(spanRaw, pdfEmbed(pdfMacroRe.FindStringSubmatch(s)[1]))
	})
	text = pdfImageRe.ReplaceAllStringFunc(text, func(s string) string {
		return c.protect(spanRaw, pdfEmbed(pdfImageRe.FindStringSubmatch(s)[1]))
	})
	text = rendererRe.ReplaceAllStringFunc(text, func(string) string {
		return c.protect(spanCode, "`[renderer]`")
	})
	text = imageAttrRe.ReplaceAllString(text, "")
	return assetLinkRe.ReplaceAllString(text, "](/assets/")
}

func videoEmbed(kind, src string) string {
	if m := youtubeIDRe.FindStringSubmatch(src); m != nil {
		return youtubeFrame(m[1])
	}
	if kind == "youtube" && !strings.Contains(src, "/") {
		return youtubeFrame(src)
	}
	if m := vimeoIDRe.FindStringSubmatch(src); m != nil {
		return `<iframe src="https://player.vimeo.com/video/` + m[1] + `" width="100%" height="400" frameborder="0" allowfullscreen></iframe>`
	}
	return `<video src="` + html.EscapeString(assetPath(src)) + `" controls></video>`
}

func youtubeFrame(id string) string {
	return `<iframe src="https://www.youtube.com/embed/` + html.EscapeString(id) + `" width="100%" height="400" frameborder="0" allowfullscreen></iframe>`
}

func pdfEmbed(src string) string {
	return `<iframe src="` + html.EscapeString(assetPath(src)) + `" width="100%" height="600px"></iframe>`
}

// assetPath maps graph-relative asset paths to the site root.
func assetPath(src string) string {
	if i := strings.Index(src, "assets/"); i >= 0 && strings.HasPrefix(src, "../") {
		return "/" + src[i:]
	}
	return src
}
