// Package render converts the newsletter markdown dialect into inline-styled
// HTML fragments and wraps them in the branded email layout. Everything here
// is a pure function: identical input always yields identical output.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"
)

// BrandConfig controls the branded parts of the layout.
type BrandConfig struct {
	BrandName    string
	AccentColor  string
	CustomFooter string
}

// DefaultBrand is used when no partner branding is supplied.
var DefaultBrand = BrandConfig{
	BrandName:   "Starboard Analytics",
	AccentColor: "#4B8BFF",
}

// Color tokens shared by the fragment and layout styles.
const (
	heroBg     = "#000C24"
	heroText   = "#FFFFFF"
	heroSub    = "#8896A6"
	pageBg     = "#f4f4f5"
	contentBg  = "#FFFFFF"
	thinkBg    = "#f0f5ff"
	thinkEdge  = "#4B8BFF"
	analysisBg = "#f7f8fa"
	borderCol  = "#e8ecf0"
	accentCol  = "#4B8BFF"
	headingCol = "#111827"
	bodyCol    = "#374151"
	secondary  = "#6b7280"
	mutedCol   = "#9ca3af"
	linkCol    = "#4B8BFF"
	footerBg   = "#f7f8fa"
)

const fontStack = "'Inter', 'PingFang SC', -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif"

var (
	titleLineRe  = regexp.MustCompile(`^.+\|\s*\d{4}-\d{2}-\d{2}\s*\n+`)
	autolinkRe   = regexp.MustCompile(`<(https?://[^>]+)>`)
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	sourceRowRe  = regexp.MustCompile(`(?m)^🔗\s*(https?://\S+)$`)
	pinRowRe     = regexp.MustCompile(`(?m)^📍\s*(.+)$`)
	analysisRe   = regexp.MustCompile(`(?m)^💡\s*(.+)$`)
	thinkCardRe  = regexp.MustCompile(`(?m)^(Worth thinking about|值得思考|核心主题)[：:][ \t]*\n((?:[•\-][ \t]+[^\n]+\n?)+)`)
	thinkItemRe  = regexp.MustCompile(`^[•\-][ \t]+`)
	keycapRe     = regexp.MustCompile(`(?m)^([0-9]\x{FE0F}?\x{20E3})[ \t]*(.+)$`)
	hrRe         = regexp.MustCompile(`─{3,}`)
	bulletRe     = regexp.MustCompile(`(?m)^[•\-][ \t]+(.+)$`)
	numberedRe   = regexp.MustCompile(`(?m)^(\d+)\.[ \t]+(.+)$`)
	divCloseNLRe = regexp.MustCompile(`</div>\n+`)
	nlDivOpenRe  = regexp.MustCompile(`\n+<div`)
)

// Replacement templates, built once so every call styles identically.
var (
	autolinkRep  = fmt.Sprintf(`<a href="$1" style="color: %s; text-decoration: none;">$1</a>`, linkCol)
	boldRep      = fmt.Sprintf(`<strong style="color: %s; font-weight: 600;">$1</strong>`, headingCol)
	linkRep      = fmt.Sprintf(`<a href="$2" style="color: %s; text-decoration: none;">$1</a>`, linkCol)
	sourceRowRep = fmt.Sprintf(`<div style="margin: 8px 0 4px;"><a href="$1" style="color: %s; text-decoration: none; font-size: 13px;">🔗 Source</a></div>`, mutedCol)
	pinRowRep    = fmt.Sprintf(`<div style="margin: 6px 0 10px;"><span style="font-size: 12px; color: %s; line-height: 1.5;">📍 $1</span></div>`, secondary)
	analysisRep  = fmt.Sprintf(`<div style="margin: 14px 0; padding: 12px 16px; background: %s; border-left: 3px solid %s; border-radius: 0 6px 6px 0; font-size: 14px; color: %s; line-height: 1.7;">$1</div>`, analysisBg, accentCol, bodyCol)
	keycapRep    = fmt.Sprintf(`<div style="margin-top: 6px; margin-bottom: 14px;"><span style="font-size: 24px; vertical-align: middle;">$1</span> <span style="font-size: 19px; font-weight: 700; color: %s; vertical-align: middle; line-height: 1.35;">$2</span></div>`, headingCol)
	hrRep        = fmt.Sprintf(`<div style="height: 1px; background: %s; margin: 28px 0;"></div>`, borderCol)
	bulletRep    = fmt.Sprintf(`<div style="margin: 5px 0; padding-left: 20px; position: relative; color: %s; font-size: 14px; line-height: 1.7;"><span style="position: absolute; left: 0; color: %s;">→</span>$1</div>`, bodyCol, linkCol)
	numberedRep  = fmt.Sprintf(`<div style="margin: 8px 0; padding-left: 22px; position: relative; color: %s; font-size: 14px; line-height: 1.7;"><span style="position: absolute; left: 0; color: %s; font-weight: 600; font-size: 13px;">$1.</span>$2</div>`, bodyCol, linkCol)
	arrowItemRep = fmt.Sprintf(`<div style="margin: 6px 0; padding-left: 20px; position: relative; color: %s; font-size: 14px; line-height: 1.7;"><span style="position: absolute; left: 0; color: %s;">→</span>`, bodyCol, linkCol)
	paragraphTag = fmt.Sprintf(`<p style="margin: 14px 0; line-height: 1.8; color: %s; font-size: 15px;">`, bodyCol)
	emojiHeadRep = fmt.Sprintf(`<div style="margin-top: 4px; margin-bottom: 10px;"><span style="font-size: 16px; vertical-align: middle;">%%s</span> <span style="font-size: 15px; font-weight: 600; color: %s; vertical-align: middle;">%%s</span></div>`, secondary)
)

// MarkdownToHTML maps the limited newsletter markdown dialect (bold, links,
// bracketed links, emoji section headers, ─── rules, bullet/numbered lists,
// bare <url> links, paragraph breaks) to inline-styled HTML.
//
// The ampersand escape runs first, before any generated anchor tags are
// re-inserted, so generated markup is never double-escaped.
func MarkdownToHTML(text string) string {
	if text == "" {
		return text
	}

	// Strip a leading title line that would duplicate the hero.
	html := titleLineRe.ReplaceAllString(text, "")

	html = strings.ReplaceAll(html, "&", "&amp;")

	// Bare <url> to clickable links.
	html = autolinkRe.ReplaceAllString(html, autolinkRep)

	// Bold: **text**
	html = boldRe.ReplaceAllString(html, boldRep)

	// Links: [text](url)
	html = linkRe.ReplaceAllString(html, linkRep)

	// Source rows: 🔗 followed by a URL.
	html = sourceRowRe.ReplaceAllString(html, sourceRowRep)

	// Metadata pills: 📍 at start of line.
	html = pinRowRe.ReplaceAllString(html, pinRowRep)

	// Analysis boxes: 💡 at start of line.
	html = analysisRe.ReplaceAllString(html, analysisRep)

	// "Worth thinking about" label + bullet block becomes a highlighted card.
	html = thinkCardRe.ReplaceAllStringFunc(html, renderThinkCard)

	// Keycap digit headers (1️⃣ 2️⃣ ...) are article titles.
	html = keycapRe.ReplaceAllString(html, keycapRep)

	// Other emoji section headers (📊 📡 ...) are secondary headers.
	html = renderEmojiHeaders(html)

	// Horizontal rules: ───
	html = hrRe.ReplaceAllString(html, hrRep)

	// Bullets become arrow rows.
	html = bulletRe.ReplaceAllString(html, bulletRep)

	// Numbered list items keep their markers.
	html = numberedRe.ReplaceAllString(html, numberedRep)

	// Drop newlines adjacent to block elements so they don't become <br>.
	html = divCloseNLRe.ReplaceAllString(html, "</div>")
	html = nlDivOpenRe.ReplaceAllString(html, "<div")

	// Paragraphs and line breaks.
	html = strings.ReplaceAll(html, "\n\n", "</p>"+paragraphTag)
	html = strings.ReplaceAll(html, "\n", "<br>")

	return paragraphTag + html + "</p>"
}

func renderThinkCard(match string) string {
	sub := thinkCardRe.FindStringSubmatch(match)
	if sub == nil {
		return match
	}
	var items strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(sub[2]), "\n") {
		text := thinkItemRe.ReplaceAllString(line, "")
		items.WriteString(arrowItemRep)
		items.WriteString(text)
		items.WriteString("</div>")
	}
	return fmt.Sprintf(`<div style="margin: 16px 0; padding: 14px 18px; background: %s; border-radius: 8px; border: 1px solid %s20;">%s</div>`,
		thinkBg, thinkEdge, items.String())
}

// renderEmojiHeaders styles lines that start with a pictographic rune.
// Lines already converted to block elements are left alone.
func renderEmojiHeaders(html string) string {
	lines := strings.Split(html, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "<") {
			continue
		}
		r, size := utf8.DecodeRuneInString(line)
		if !isPictographic(r) {
			continue
		}
		head := line[:size]
		rest := line[size:]
		// Consume an optional emoji variation selector.
		if vs, vsSize := utf8.DecodeRuneInString(rest); vs == 0xFE0F {
			head += rest[:vsSize]
			rest = rest[vsSize:]
		}
		body := strings.TrimLeft(rest, " \t")
		if body == "" {
			continue
		}
		lines[i] = fmt.Sprintf(emojiHeadRep, head, body)
	}
	return strings.Join(lines, "\n")
}

// isPictographic covers the emoji blocks the prompt templates use. Box
// drawing (the ─── rule marker) and plain bullets are deliberately outside.
func isPictographic(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, transport, supplemental
		return true
	case r >= 0x2600 && r <= 0x26FF: // misc symbols (⚡ ☀)
		return true
	case r >= 0x2700 && r <= 0x27BF: // dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // stars, heavy arrows
		return true
	default:
		return false
	}
}

// EmailOptions carries everything needed to build one newsletter email.
type EmailOptions struct {
	Title          string
	Emoji          string
	Date           string
	Content        string
	UnsubscribeURL string
	Brand          *BrandConfig
}

var layoutTpl = template.Must(template.New("email").Parse(emailLayout))

type layoutData struct {
	Title          string
	Emoji          string
	Date           string
	Formatted      template.HTML
	UnsubscribeURL string
	BrandName      string
	Accent         string
	CustomFooter   string
	Font           template.CSS
	HeroBg         string
	HeroText       string
	HeroSub        string
	PageBg         string
	ContentBg      string
	Border         string
	Muted          string
	Secondary      string
	FooterBg       string
}

// BuildEmailHTML wraps the rendered content fragment in the three-part
// layout: dark hero with brand mark, title and date; light content body;
// footer with the unsubscribe link.
func BuildEmailHTML(opts EmailOptions) (string, error) {
	brand := DefaultBrand
	if opts.Brand != nil {
		if opts.Brand.BrandName != "" {
			brand.BrandName = opts.Brand.BrandName
		}
		if opts.Brand.AccentColor != "" {
			brand.AccentColor = opts.Brand.AccentColor
		}
		brand.CustomFooter = opts.Brand.CustomFooter
	}

	data := layoutData{
		Title:          opts.Title,
		Emoji:          opts.Emoji,
		Date:           opts.Date,
		Formatted:      template.HTML(MarkdownToHTML(opts.Content)),
		UnsubscribeURL: opts.UnsubscribeURL,
		BrandName:      brand.BrandName,
		Accent:         brand.AccentColor,
		CustomFooter:   brand.CustomFooter,
		Font:           template.CSS(fontStack),
		HeroBg:         heroBg,
		HeroText:       heroText,
		HeroSub:        heroSub,
		PageBg:         pageBg,
		ContentBg:      contentBg,
		Border:         borderCol,
		Muted:          mutedCol,
		Secondary:      secondary,
		FooterBg:       footerBg,
	}

	var buf bytes.Buffer
	if err := layoutTpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const emailLayout = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} | {{.Date}}</title>
  <!--[if mso]><style>body,table,td{font-family:Arial,sans-serif!important;}</style><![endif]-->
</head>
<body style="margin: 0; padding: 0; background-color: {{.PageBg}}; font-family: {{.Font}}; -webkit-font-smoothing: antialiased;">

  <div style="max-width: 640px; margin: 0 auto;">

    <!-- Hero -->
    <div style="background: {{.HeroBg}}; padding: 40px 32px 36px; text-align: center;">
      <div style="margin-bottom: 28px;">
        <span style="font-size: 14px; font-weight: 700; color: #FFFFFF; letter-spacing: 3px; text-transform: uppercase; font-family: {{.Font}};">STARBOARD</span><span style="font-size: 14px; font-weight: 400; color: {{.HeroSub}}; letter-spacing: 3px; text-transform: uppercase; font-family: {{.Font}};"> ANALYTICS</span>
      </div>
      <h1 style="margin: 0; color: {{.HeroText}}; font-size: 28px; font-weight: 700; letter-spacing: -0.5px; line-height: 1.2; font-family: {{.Font}};">
        {{.Emoji}} {{.Title}}
      </h1>
      <p style="margin: 12px 0 0 0; color: {{.HeroSub}}; font-size: 13px; letter-spacing: 1.5px; font-weight: 400;">
        {{.Date}}
      </p>
      <div style="margin-top: 32px; height: 2px; background: linear-gradient(to right, transparent, {{.Accent}}, transparent);"></div>
    </div>

    <!-- Content -->
    <div style="background: {{.ContentBg}}; padding: 28px 36px 40px;">
      {{.Formatted}}
    </div>

    <!-- Footer -->
    <div style="background: {{.FooterBg}}; padding: 24px 32px; text-align: center; border-top: 1px solid {{.Border}};">
      {{if .CustomFooter}}<div style="margin-bottom: 14px; color: {{.Secondary}}; font-size: 13px;">{{.CustomFooter}}</div>{{end}}
      <p style="margin: 0 0 16px 0;">
        <span style="color: {{.Muted}}; font-size: 12px;">{{.BrandName}}</span>
      </p>
      <a href="{{.UnsubscribeURL}}" style="color: {{.Muted}}; text-decoration: none; font-size: 12px;">
        Unsubscribe
      </a>
    </div>

  </div>
</body>
</html>`
