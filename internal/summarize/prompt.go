package summarize

import (
	"fmt"
	"strings"
)

// Actor is the role a prompt asks the model to play.
type Actor string

const (
	Explainer  Actor = "explainer"
	Translator Actor = "translator"
)

const explainerSystem = "You are an AI assistant who explains AI technology."

const explainerPrompt = `Please explain the following sentences in detail. Please summarize in bullet points using only * for clarity.
<example>
**section**
* point1
* point2
</example>
<sentence>
%s
</sentence>`

const translatorPrompt = `Translate the following text into %s. Keep the structure of the text and leave technical terms untranslated.
<text>
%s
</text>`

func buildPrompt(actor Actor, language, text string) (system, prompt string) {
	switch actor {
	case Translator:
		return fmt.Sprintf("You are an AI assistant who translates English text into %s.", language),
			fmt.Sprintf(translatorPrompt, language, text)
	default:
		return explainerSystem, fmt.Sprintf(explainerPrompt, text)
	}
}

// PostProcess keeps the lines from the first to the last one starting with
// "*". ok is false when the response has no such line.
func PostProcess(response string) (string, bool) {
	lines := strings.Split(response, "\n")
	start, end := -1, -1
	for i, line := range lines {
		if strings.HasPrefix(line, "*") {
			if start < 0 {
				start = i
			}
			end = i
		}
	}
	if start < 0 {
		return "", false
	}
	return strings.Join(lines[start:end+1], "\n"), true
}
