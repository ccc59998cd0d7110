package section

import (
	"regexp"
	"strings"
)

// IntroductionTitle names the span before the first numbered heading.
const IntroductionTitle = "Introduction"

// A heading line is "<n>. <Capitalized Words>", optionally wrapped in markdown
// decoration. Words after the first may also be short lowercase connectors.
var headingPattern = regexp.MustCompile(
	`(?m)^[ \t]*(?:#{1,6}[ \t]*)?(?:\*\*)?(\d+)\.[ \t]+` +
		`([A-Z][A-Za-z'/\-]*(?:[ \t]+(?:[A-Z][A-Za-z'/\-]*|and|or|of|the|for|to|in|on|with|&))*)` +
		`[ \t]*:?(?:\*\*)?:?[ \t]*\r?$`,
)

var spaceRun = regexp.MustCompile(`[ \t]+`)

type Heading struct {
	Title string
	// Start and End are byte offsets of the heading text, excluding the line break.
	Start int
	End   int
}

type Section struct {
	Title string
	Body  string
}

// Sections is an ordered title -> body mapping.
type Sections struct {
	order []Section
	index map[string]int
}

func newSections() *Sections {
	return &Sections{index: map[string]int{}}
}

// Headings returns every numbered heading in text, in document order.
func Headings(text string) []Heading {
	matches := headingPattern.FindAllStringSubmatchIndex(text, -1)
	headings := make([]Heading, 0, len(matches))
	for _, m := range matches {
		number := text[m[2]:m[3]]
		words := spaceRun.ReplaceAllString(text[m[4]:m[5]], " ")
		headings = append(headings, Heading{
			Title: number + ". " + words,
			Start: m[0],
			End:   trimLineEnd(text, m[0], m[1]),
		})
	}
	return headings
}

func trimLineEnd(text string, start, end int) int {
	for end > start && text[end-1] == '\r' {
		end--
	}
	return end
}

// Extract splits text into sections keyed by heading title. Text before the
// first heading becomes the Introduction section when it is not blank. With no
// headings at all the whole text is returned as Introduction. A repeated title
// keeps its first position but takes the body of its last occurrence.
func Extract(text string) *Sections {
	out := newSections()
	headings := Headings(text)
	if len(headings) == 0 {
		out.put(IntroductionTitle, text)
		return out
	}
	if intro := text[:headings[0].Start]; strings.TrimSpace(intro) != "" {
		out.put(IntroductionTitle, intro)
	}
	for i, h := range headings {
		bodyEnd := len(text)
		if i+1 < len(headings) {
			bodyEnd = headings[i+1].Start
		}
		out.put(h.Title, text[h.End:bodyEnd])
	}
	return out
}

func (s *Sections) put(title, body string) {
	if i, ok := s.index[title]; ok {
		s.order[i].Body = body
		return
	}
	s.index[title] = len(s.order)
	s.order = append(s.order, Section{Title: title, Body: body})
}

func (s *Sections) Get(title string) (string, bool) {
	i, ok := s.index[title]
	if !ok {
		return "", false
	}
	return s.order[i].Body, true
}

// Replace swaps the body of an existing section. It reports false and leaves
// the mapping untouched when the title is absent.
func (s *Sections) Replace(title, body string) bool {
	i, ok := s.index[title]
	if !ok {
		return false
	}
	s.order[i].Body = body
	return true
}

func (s *Sections) Len() int {
	return len(s.order)
}

func (s *Sections) Titles() []string {
	titles := make([]string, 0, len(s.order))
	for _, sec := range s.order {
		titles = append(titles, sec.Title)
	}
	return titles
}

func (s *Sections) All() []Section {
	out := make([]Section, len(s.order))
	copy(out, s.order)
	return out
}

// Find returns sections whose title or body contains keyword, ignoring case.
func (s *Sections) Find(keyword string) []Section {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}
	var found []Section
	for _, sec := range s.order {
		if strings.Contains(strings.ToLower(sec.Title), needle) || strings.Contains(strings.ToLower(sec.Body), needle) {
			found = append(found, sec)
		}
	}
	return found
}
