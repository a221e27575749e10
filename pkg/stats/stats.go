// Package stats summarises a channel's history: frequent words, emoji, reactions and authors.
package stats

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/Jacobbrewer1/discordgo"
)

// Count is a key and how often it was seen.
type Count struct {
	Key   string
	Count int
}

// Report is the outcome of a scan.
type Report struct {
	// Messages is the number of messages scanned.
	Messages int

	// Words are the most frequent words.
	Words []Count

	// Emoji are the most used emoji in message content.
	Emoji []Count

	// Reactions are the most used reactions.
	Reactions []Count

	// Authors are the members with the most messages, keyed by user ID.
	Authors []Count
}

var (
	customEmoji = regexp.MustCompile(`<a?:(\w+):\d+>`)
	mention     = regexp.MustCompile(`<[@#][!&]?\d+>`)
	link        = regexp.MustCompile(`https?://\S+`)
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {}, "any": {},
	"can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {}, "has": {}, "him": {},
	"his": {}, "how": {}, "its": {}, "may": {}, "new": {}, "now": {}, "old": {}, "see": {}, "two": {},
	"who": {}, "did": {}, "get": {}, "got": {}, "let": {}, "say": {}, "she": {}, "too": {}, "use": {},
	"that": {}, "with": {}, "have": {}, "this": {}, "will": {}, "your": {}, "from": {}, "they": {},
	"been": {}, "were": {}, "what": {}, "when": {}, "them": {}, "then": {}, "just": {}, "like": {},
	"there": {}, "their": {}, "would": {}, "about": {}, "which": {}, "could": {}, "dont": {}, "im": {},
}

// Tally counts words, emoji, reactions and authors.
type Tally struct {
	messages  int
	words     map[string]int
	emoji     map[string]int
	reactions map[string]int
	authors   map[string]int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{
		words:     make(map[string]int),
		emoji:     make(map[string]int),
		reactions: make(map[string]int),
		authors:   make(map[string]int),
	}
}

// Add counts one message. Bot messages are ignored.
func (t *Tally) Add(m *discordgo.Message) {
	if m.Author != nil && m.Author.Bot {
		return
	}
	t.messages++
	if m.Author != nil {
		t.authors[m.Author.ID]++
	}

	content := m.Content
	for _, match := range customEmoji.FindAllStringSubmatch(content, -1) {
		t.emoji[":"+match[1]+":"]++
	}
	content = customEmoji.ReplaceAllString(content, " ")
	content = mention.ReplaceAllString(content, " ")
	content = link.ReplaceAllString(content, " ")

	for _, r := range content {
		if isEmoji(r) {
			t.emoji[string(r)]++
		}
	}

	for _, w := range strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	}) {
		w = strings.ReplaceAll(strings.Trim(w, "'"), "'", "")
		if len([]rune(w)) < 3 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		t.words[w]++
	}

	for _, r := range m.Reactions {
		if r.Emoji == nil {
			continue
		}
		key := r.Emoji.Name
		if r.Emoji.ID != "" {
			key = ":" + r.Emoji.Name + ":"
		}
		t.reactions[key] += r.Count
	}
}

// Report returns the top n of each tally.
func (t *Tally) Report(n int) *Report {
	return &Report{
		Messages:  t.messages,
		Words:     top(t.words, n),
		Emoji:     top(t.emoji, n),
		Reactions: top(t.reactions, n),
		Authors:   top(t.authors, n),
	}
}

// isEmoji matches the common pictographic blocks.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	}
	return false
}

func top(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
