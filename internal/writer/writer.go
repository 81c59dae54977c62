// Package writer serializes converted documents.
package writer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/papergest/internal/doctree"
)

// Writer renders a document in one output format.
type Writer interface {
	Extension() string
	Write(w io.Writer, doc *doctree.Document) error
}

// Names lists the formats ForName accepts.
var Names = []string{"json", "md", "html", "docx", "xlsx"}

// ForName returns the writer for a format name.
func ForName(name string) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON{}, nil
	case "md", "markdown":
		return Markdown{}, nil
	case "html":
		return HTML{}, nil
	case "docx":
		return DOCX{}, nil
	case "xlsx":
		return XLSX{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// ContentType returns the MIME type for a writer's output.
func ContentType(w Writer) string {
	switch w.Extension() {
	case "json":
		return "application/json"
	case "md":
		return "text/markdown; charset=utf-8"
	case "html":
		return "text/html; charset=utf-8"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

var titleReplacer = strings.NewReplacer(
	"/", "", `\`, "", ":", "", "*", "", "?", "", `"`, "", "<", "", ">", "", "|", "",
)

// SanitizeTitle removes characters that are not allowed in file names.
func SanitizeTitle(title string) string {
	return strings.TrimSpace(titleReplacer.Replace(title))
}

// OutputName builds "<base>(<title>).<ext>" from the input path. The title
// part is omitted when nothing is left after sanitizing.
func OutputName(inputPath, title, ext string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if t := SanitizeTitle(title); t != "" {
		base += "(" + t + ")"
	}
	return base + "." + ext
}
