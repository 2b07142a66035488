// Package schedule pulls the schedule matrix out of a saved PowerSchool
// "My Schedule" page so it can be viewed on its own.
package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"

	"powerapi-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const MatrixSelector = "table#tableStudentSchedMatrix"

var ErrMatrixNotFound = errors.New("schedule matrix not found")

type Matrix struct {
	// Html is the outer html of the matrix table.
	Html string
	// Rows holds the cleaned up text of every th/td, row by row.
	Rows [][]string
	// Links are the anchors found inside the matrix.
	Links []htmlutil.Anchor
}

// ExtractMatrix finds the schedule matrix in a schedule page.
func ExtractMatrix(ctx context.Context, page []byte) (Matrix, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return Matrix{}, err
	}

	table := doc.Find(MatrixSelector).First()
	if table.Length() == 0 {
		return Matrix{}, ErrMatrixNotFound
	}

	outer, err := goquery.OuterHtml(table)
	if err != nil {
		return Matrix{}, err
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		texts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			texts = append(texts, htmlutil.CleanText(htmlutil.GetText(cell.Get(0))))
		})
		rows = append(rows, texts)
	})

	return Matrix{
		Html:  outer,
		Rows:  rows,
		Links: htmlutil.GetAnchors(ctx, table.Find("a[href]")),
	}, nil
}

var pageTemplate = template.Must(template.New("schedule").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
<style>
table { border-collapse: collapse; font-family: sans-serif; font-size: 12px; }
th, td { border: 1px solid #999; padding: 4px; vertical-align: top; }
</style>
</head>
<body>
{{ .Table }}
</body>
</html>
`))

// Render writes the matrix as a standalone html page.
func (m Matrix) Render(w io.Writer, title string) error {
	err := pageTemplate.Execute(w, struct {
		Title string
		Table template.HTML
	}{
		Title: title,
		Table: template.HTML(m.Html),
	})
	if err != nil {
		return fmt.Errorf("render schedule: %w", err)
	}
	return nil
}
