// Package chunker splits long section text into prompt-sized pieces.
package chunker

import "strings"

// Config controls splitting.
type Config struct {
	MaxTokens int // Upper bound per piece in estimated tokens.
	Overlap   int // Tokens repeated from the end of the previous piece.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens: 6000,
		Overlap:   0,
	}
}

// Split returns text unchanged as a single piece when it fits, otherwise
// pieces of at most cfg.MaxTokens, breaking between paragraphs first and
// between sentences inside oversized paragraphs. Empty text yields nil.
func Split(text string, cfg Config) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxTokens {
		cfg.Overlap = 0
	}
	if EstimateTokens(text) <= cfg.MaxTokens {
		return []string{text}
	}

	p := packer{cfg: cfg, sep: "\n"}
	for _, para := range splitParagraphs(text) {
		if EstimateTokens(para) > cfg.MaxTokens {
			p.flush()
			p.result = append(p.result, splitBySentences(para, cfg)...)
			continue
		}
		p.add(para)
	}
	p.flush()
	return p.result
}

// packer greedily fills pieces up to the token limit. Words are counted
// across the whole piece so the estimate matches EstimateTokens on the
// joined text.
type packer struct {
	cfg     Config
	sep     string
	current strings.Builder
	words   int
	result  []string
}

func wordTokens(words int) int {
	return int(float64(words) * tokensPerWord)
}

func (p *packer) add(s string) {
	n := len(strings.Fields(s))
	if p.words > 0 && wordTokens(p.words+n) > p.cfg.MaxTokens {
		prev := p.current.String()
		p.flush()
		if overlap := getOverlapText(prev, p.cfg.Overlap); overlap != "" {
			p.current.WriteString(overlap)
			p.words = len(strings.Fields(overlap))
		}
	}
	if p.current.Len() > 0 {
		p.current.WriteString(p.sep)
	}
	p.current.WriteString(s)
	p.words += n
}

func (p *packer) flush() {
	if p.words > 0 {
		p.result = append(p.result, p.current.String())
	}
	p.current.Reset()
	p.words = 0
}

// splitParagraphs splits on newlines, dropping blank lines.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitBySentences packs sentences of one oversized paragraph. A single
// sentence above the limit is cut on word boundaries.
func splitBySentences(text string, cfg Config) []string {
	p := packer{cfg: cfg, sep: " "}
	for _, sent := range splitSentences(text) {
		if EstimateTokens(sent) <= cfg.MaxTokens {
			p.add(sent)
			continue
		}
		for _, part := range splitWords(sent, cfg.MaxTokens) {
			p.add(part)
		}
	}
	p.flush()
	return p.result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && runes[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func splitWords(text string, maxTokens int) []string {
	words := strings.Fields(text)
	per := max(int(float64(maxTokens)/tokensPerWord), 1)
	var out []string
	for len(words) > 0 {
		n := min(per, len(words))
		out = append(out, strings.Join(words[:n], " "))
		words = words[n:]
	}
	return out
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
