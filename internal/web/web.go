package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Engine returns the page template engine. Pages render inside "layout".
func Engine() *html.Engine {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("gradeClass", GradeClass)
	engine.AddFunc("excerpt", Excerpt)
	engine.AddFunc("formatTime", func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006 15:04")
	})
	return engine
}

// Static serves the css and js assets under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// GradeClass maps "B - Good" to "grade-b".
func GradeClass(grade string) string {
	if grade == "" {
		return "grade-none"
	}
	return "grade-" + strings.ToLower(grade[:1])
}

// Excerpt shortens text for list views.
func Excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
