package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/valter-silva-au/story-digest/pkg/models"
	"golang.org/x/net/html"
)

// Format tags the detected shape of an input.
type Format string

const (
	FormatPlainText   Format = "plain_text"
	FormatSRT         Format = "subtitle_srt"
	FormatVTT         Format = "subtitle_vtt"
	FormatMeetingChat Format = "meeting_chat"
	FormatJSONMeeting Format = "json_meeting"
	FormatHTMLChat    Format = "html_chat"
)

// HasEntries reports whether the format carries speaker/timestamp segments
// rendered in canonical form.
func (f Format) HasEntries() bool {
	return f != FormatPlainText && f != ""
}

// NormalizedInput is the uniform view of an input produced by Normalize.
type NormalizedInput struct {
	Format             Format
	SourceType         string
	SourceConfidence   float64
	Language           string
	LanguageConfidence float64
	Entries            []models.Entry
	// Text is the canonical rendering that chunk offsets refer to.
	Text       string
	WordCount  int
	TokenCount int
	CharCount  int
}

// Normalizer detects format, content type and language of raw inputs.
type Normalizer struct {
	h *Heuristics
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(h *Heuristics) *Normalizer {
	if h == nil {
		h = NewHeuristics(nil)
	}
	return &Normalizer{h: h}
}

// ReadInput returns the contents of path, or all of stdin when path is "-".
func ReadInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading input %s: %w", path, err)
	}
	return string(data), nil
}

// Normalize is a pure function of raw: it never fails. Detection problems
// degrade to plain text with an unknown content type.
func (n *Normalizer) Normalize(raw string) NormalizedInput {
	raw = strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")
	raw = strings.TrimPrefix(raw, "\ufeff")

	format, entries := n.detectFormat(raw)

	out := NormalizedInput{Format: format}
	if len(entries) > 0 {
		out.Entries = entries
		out.Text = renderEntries(entries)
		out.SourceType = "transcript"
		out.SourceConfidence = 1
	} else {
		out.Format = FormatPlainText
		out.Text = strings.TrimSpace(raw)
		if format == FormatHTMLChat {
			out.Text = flattenHTML(raw)
		}
		out.Entries = plainEntries(out.Text)
		ct := n.DetectContentType(out.Text)
		out.SourceType, out.SourceConfidence = ct.Label, ct.Confidence
	}

	lang := n.DetectLanguage(out.Text)
	out.Language, out.LanguageConfidence = lang.Tag, lang.Confidence
	out.WordCount = wordCount(out.Text)
	out.TokenCount = estimateTokens(out.Text)
	out.CharCount = len(out.Text)
	return out
}

type formatResult struct {
	format  Format
	entries []models.Entry
}

func (n *Normalizer) detectFormat(raw string) (Format, []models.Entry) {
	res := memo(n.h, "format", raw, formatResult{format: FormatPlainText}, func() formatResult {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			if entries, ok := parseJSONMeeting(trimmed); ok {
				return formatResult{FormatJSONMeeting, entries}
			}
		}
		if strings.HasPrefix(trimmed, "WEBVTT") {
			return formatResult{FormatVTT, parseCues(trimmed)}
		}
		if srtTimingLine.MatchString(trimmed) {
			if entries := parseCues(trimmed); len(entries) > 0 {
				return formatResult{FormatSRT, entries}
			}
		}
		if htmlMarker.MatchString(trimmed) {
			flat := flattenHTML(trimmed)
			if entries, ok := parseMeetingChat(flat); ok {
				return formatResult{FormatHTMLChat, entries}
			}
			return formatResult{FormatHTMLChat, nil}
		}
		if entries, ok := parseMeetingChat(trimmed); ok {
			return formatResult{FormatMeetingChat, entries}
		}
		return formatResult{FormatPlainText, nil}
	})
	return res.format, append([]models.Entry(nil), res.entries...)
}

var (
	srtTimingLine = regexp.MustCompile(`(?m)^\d{1,2}:\d{2}:\d{2}[,.]\d{3}\s+-->\s+\d{1,2}:\d{2}:\d{2}[,.]\d{3}`)
	cueTiming     = regexp.MustCompile(`^((?:\d{1,2}:)?\d{1,2}:\d{2}[,.]\d{3})\s+-->\s+((?:\d{1,2}:)?\d{1,2}:\d{2}[,.]\d{3})`)
	voiceTag      = regexp.MustCompile(`^<v(?:\.[\w.]+)?\s+([^>]+)>\s*(.*?)(?:</v>)?$`)
	markupTag     = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	htmlMarker    = regexp.MustCompile(`(?i)^(?:<!doctype html|<html|<body|<div|<table|<ul|<p[\s>])`)

	zoomLine      = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2})?)\s+From\s+(.+?)\s+to\s+(?:Everyone|[^:]+?)\s*:\s*(.*)$`)
	bracketLine   = regexp.MustCompile(`^\[(\d{1,2}:\d{2}(?::\d{2})?(?:\s?[AaPp][Mm])?)\]\s*([^:\]]{1,40}):\s*(.*)$`)
	stampNameLine = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2})?)\s+([^:]{1,40}):\s+(.*)$`)
	nameLine      = regexp.MustCompile(`^([A-Z][\w.'-]*(?:\s[A-Z][\w.'-]*){0,2}):\s+(.+)$`)
	bareStamp     = regexp.MustCompile(`^\[(\d{1,2}:\d{2}(?::\d{2})?)\]\s*(.*)$`)
)

// parseCues reads SRT and WebVTT cue blocks.
func parseCues(text string) []models.Entry {
	var entries []models.Entry
	for _, block := range strings.Split(text, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timing := -1
		for i, l := range lines {
			if cueTiming.MatchString(strings.TrimSpace(l)) {
				timing = i
				break
			}
		}
		if timing < 0 || timing+1 >= len(lines) {
			continue
		}
		m := cueTiming.FindStringSubmatch(strings.TrimSpace(lines[timing]))
		ms, ok := parseTimestamp(m[1])
		var stamp *int64
		if ok {
			stamp = &ms
		}
		body := strings.Join(lines[timing+1:], " ")
		speaker := ""
		if vm := voiceTag.FindStringSubmatch(strings.TrimSpace(body)); vm != nil {
			speaker, body = strings.TrimSpace(vm[1]), vm[2]
		}
		body = strings.TrimSpace(markupTag.ReplaceAllString(body, ""))
		body = strings.TrimPrefix(body, "- ")
		if speaker == "" {
			if nm := nameLine.FindStringSubmatch(body); nm != nil {
				speaker, body = nm[1], nm[2]
			}
		}
		if body == "" {
			continue
		}
		entries = appendEntry(entries, models.Entry{TimestampMS: stamp, Speaker: speaker, Text: body})
	}
	return entries
}

// appendEntry merges consecutive cues from the same speaker that do not
// end a sentence, which is how subtitle tools break long utterances.
func appendEntry(entries []models.Entry, e models.Entry) []models.Entry {
	if n := len(entries); n > 0 {
		prev := &entries[n-1]
		if prev.Speaker == e.Speaker && !strings.ContainsAny(prev.Text[len(prev.Text)-1:], ".!?") {
			prev.Text += " " + e.Text
			return entries
		}
	}
	return append(entries, e)
}

// parseMeetingChat recognizes chat exports. At least two lines and 30% of
// the non-empty lines must look like chat lines.
func parseMeetingChat(text string) ([]models.Entry, bool) {
	var entries []models.Entry
	matched, total := 0, 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		e, ok := parseChatLine(line)
		if ok {
			matched++
			entries = append(entries, e)
			continue
		}
		if len(entries) > 0 {
			entries[len(entries)-1].Text += " " + line
		} else {
			entries = append(entries, models.Entry{Text: line})
		}
	}
	if matched < 2 || float64(matched) < 0.3*float64(total) {
		return nil, false
	}
	return entries, true
}

func parseChatLine(line string) (models.Entry, bool) {
	stamp := func(s string) *int64 {
		if ms, ok := parseTimestamp(s); ok {
			return &ms
		}
		return nil
	}
	if m := zoomLine.FindStringSubmatch(line); m != nil {
		return models.Entry{TimestampMS: stamp(m[1]), Speaker: strings.TrimSpace(m[2]), Text: strings.TrimSpace(m[3])}, true
	}
	if m := bracketLine.FindStringSubmatch(line); m != nil {
		return models.Entry{TimestampMS: stamp(m[1]), Speaker: strings.TrimSpace(m[2]), Text: strings.TrimSpace(m[3])}, true
	}
	if m := voiceTag.FindStringSubmatch(line); m != nil {
		return models.Entry{Speaker: strings.TrimSpace(m[1]), Text: strings.TrimSpace(markupTag.ReplaceAllString(m[2], ""))}, true
	}
	if m := stampNameLine.FindStringSubmatch(line); m != nil {
		return models.Entry{TimestampMS: stamp(m[1]), Speaker: strings.TrimSpace(m[2]), Text: strings.TrimSpace(m[3])}, true
	}
	if m := bareStamp.FindStringSubmatch(line); m != nil {
		return models.Entry{TimestampMS: stamp(m[1]), Text: strings.TrimSpace(m[2])}, true
	}
	if m := nameLine.FindStringSubmatch(line); m != nil {
		return models.Entry{Speaker: m[1], Text: strings.TrimSpace(m[2])}, true
	}
	return models.Entry{}, false
}

var jsonContainers = []string{"segments", "entries", "transcript", "messages", "utterances"}

// parseJSONMeeting accepts a top-level array of segments or an object that
// holds one under a well-known key.
func parseJSONMeeting(text string) ([]models.Entry, bool) {
	var root any
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return nil, false
	}
	var items []any
	switch v := root.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range jsonContainers {
			if arr, ok := v[key].([]any); ok {
				items = arr
				break
			}
		}
	}
	var entries []models.Entry
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		e := models.Entry{
			Speaker: firstString(obj, "speaker", "name", "author", "user"),
			Text:    strings.TrimSpace(firstString(obj, "text", "content", "message", "body")),
		}
		if e.Text == "" {
			continue
		}
		e.TimestampMS = jsonTimestamp(obj)
		entries = append(entries, e)
	}
	return entries, len(entries) > 0
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				return name
			}
		}
	}
	return ""
}

func jsonTimestamp(obj map[string]any) *int64 {
	if v, ok := obj["start_ms"].(float64); ok {
		ms := int64(v)
		return &ms
	}
	for _, k := range []string{"start", "timestamp", "time", "offset"} {
		switch v := obj[k].(type) {
		case float64:
			ms := int64(v * 1000)
			return &ms
		case string:
			if ms, ok := parseTimestamp(v); ok {
				return &ms
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				ms := int64(f * 1000)
				return &ms
			}
		}
	}
	return nil
}

// parseTimestamp understands h:mm:ss(.mmm|,mmm), mm:ss and 12-hour clock
// times such as "10:32 AM" (milliseconds since midnight).
func parseTimestamp(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	pm, am := false, false
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "PM") {
		pm, s = true, strings.TrimSpace(s[:len(s)-2])
	} else if strings.HasSuffix(upper, "AM") {
		am, s = true, strings.TrimSpace(s[:len(s)-2])
	}
	frac := int64(0)
	if i := strings.IndexAny(s, ",."); i >= 0 {
		f, err := strconv.Atoi((s[i+1:] + "000")[:3])
		if err != nil {
			return 0, false
		}
		frac, s = int64(f), s[:i]
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	nums := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, false
		}
		nums[i] = int64(v)
	}
	var h, m, sec int64
	if len(nums) == 3 {
		h, m, sec = nums[0], nums[1], nums[2]
	} else if am || pm {
		h, m = nums[0], nums[1]
	} else {
		m, sec = nums[0], nums[1]
	}
	if pm && h < 12 {
		h += 12
	}
	if am && h == 12 {
		h = 0
	}
	return ((h*60+m)*60+sec)*1000 + frac, true
}

// formatTimestamp renders milliseconds as mm:ss or h:mm:ss.
func formatTimestamp(ms int64) string {
	total := ms / 1000
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// renderEntries produces the canonical "[mm:ss] Speaker: text" form, one
// entry per line.
func renderEntries(entries []models.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.TimestampMS != nil {
			b.WriteString("[" + formatTimestamp(*e.TimestampMS) + "] ")
		}
		if e.Speaker != "" {
			b.WriteString(e.Speaker + ": ")
		}
		b.WriteString(strings.Join(strings.Fields(e.Text), " "))
	}
	return b.String()
}

var canonicalLine = regexp.MustCompile(`^(?:\[(\d{1,2}:\d{2}(?::\d{2})?)\]\s*)?(?:([^:\[\]]{1,40}):\s)?(.*)$`)

// parseCanonical turns a (possibly partial) canonical rendering back into
// entries. A leading fragment without a prefix keeps the given speaker.
func parseCanonical(text string) []models.Entry {
	var entries []models.Entry
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := canonicalLine.FindStringSubmatch(line)
		e := models.Entry{Speaker: strings.TrimSpace(m[2]), Text: strings.TrimSpace(m[3])}
		if m[1] != "" {
			if ms, ok := parseTimestamp(m[1]); ok {
				e.TimestampMS = &ms
			}
		}
		if e.Text != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

// plainEntries treats each non-empty line of plain text as one entry.
func plainEntries(text string) []models.Entry {
	var entries []models.Entry
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, models.Entry{Text: line})
		}
	}
	return entries
}

// EntriesFor re-derives entries from a slice of the canonical text.
func EntriesFor(format Format, text string) []models.Entry {
	if format.HasEntries() {
		return parseCanonical(text)
	}
	return plainEntries(text)
}

// flattenHTML extracts visible text, starting a new line at block elements.
func flattenHTML(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return markupTag.ReplaceAllString(src, " ")
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			case "div", "p", "li", "tr", "br", "h1", "h2", "h3", "h4", "section", "article":
				buf.WriteString("\n")
			case "td", "th", "span":
				buf.WriteString(" ")
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var lines []string
	for _, l := range strings.Split(buf.String(), "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}
