// Package report renders validation results as JSON, YAML, a text table or
// an HTML page.
package report

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formset/pkg/form"
	"github.com/goliatone/go-formset/pkg/validation"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
	FormatHTML  = "html"
)

// ErrUnknownFormat is returned by Write for unsupported formats.
var ErrUnknownFormat = errors.New("report: unknown format")

// Report summarises one validation run.
type Report struct {
	ID     string               `json:"id"`
	Model  string               `json:"model,omitempty"`
	Rows   int                  `json:"rows"`
	Valid  bool                 `json:"valid"`
	Errors *validation.ErrorSet `json:"errors"`
	Issues []validation.Issue   `json:"issues"`
}

// New builds a report from an error set.
func New(modelName string, rows int, valid bool, errs *validation.ErrorSet) Report {
	if errs == nil {
		errs = validation.NewErrorSet()
	}
	issues := errs.Issues()
	if issues == nil {
		issues = []validation.Issue{}
	}
	return Report{
		ID:     uuid.NewString(),
		Model:  modelName,
		Rows:   rows,
		Valid:  valid,
		Errors: errs,
		Issues: issues,
	}
}

// FromForm builds a report from a validated form.
func FromForm(modelName string, f *form.Form, valid bool) Report {
	return New(modelName, f.Data().Len(), valid, f.Errors())
}

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatTable, FormatHTML}
}

// Write renders r to w in format.
func Write(w io.Writer, format string, r Report) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		return WriteJSON(w, r)
	case FormatYAML, "yml":
		return WriteYAML(w, r)
	case FormatTable:
		return WriteTable(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

type yamlReport struct {
	ID     string             `yaml:"id"`
	Model  string             `yaml:"model,omitempty"`
	Rows   int                `yaml:"rows"`
	Valid  bool               `yaml:"valid"`
	Errors map[string]any     `yaml:"errors"`
	Issues []validation.Issue `yaml:"issues"`
}

// WriteYAML writes r as YAML.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	out := yamlReport{
		ID:     r.ID,
		Model:  r.Model,
		Rows:   r.Rows,
		Valid:  r.Valid,
		Errors: r.Errors.Messages(),
		Issues: r.Issues,
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("report: encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteTable writes one line per issue followed by a summary.
func WriteTable(w io.Writer, r Report) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Row", "Field", "Code", "Message"})
	table.SetAutoWrapText(false)
	for _, issue := range r.Issues {
		table.Append([]string{rowLabel(issue.Row), issue.Field, issue.Code, issue.Message})
	}
	table.SetFooter([]string{"", "", "rows " + strconv.Itoa(r.Rows), summary(r)})
	table.Render()
	return nil
}

//go:embed templates/report.html
var templates embed.FS

// TemplatesFS exposes the embedded report templates so callers can reuse or
// extend them.
func TemplatesFS() fs.FS {
	return templates
}

var page = pongo2.Must(pongo2.FromBytes(mustTemplate("templates/report.html")))

func mustTemplate(name string) []byte {
	data, err := templates.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return data
}

type htmlIssue struct {
	Row     string
	Field   string
	Code    string
	Message string
}

// WriteHTML renders r as an HTML page. Cell content is escaped.
func WriteHTML(w io.Writer, r Report) error {
	issues := make([]htmlIssue, 0, len(r.Issues))
	for _, issue := range r.Issues {
		issues = append(issues, htmlIssue{Row: rowLabel(issue.Row), Field: issue.Field, Code: issue.Code, Message: issue.Message})
	}
	if err := page.ExecuteWriter(pongo2.Context{"report": r, "issues": issues}, w); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

func rowLabel(row *int) string {
	if row == nil {
		return "-"
	}
	return strconv.Itoa(*row)
}

func summary(r Report) string {
	if r.Valid {
		return "valid"
	}
	return fmt.Sprintf("invalid (%d issues)", len(r.Issues))
}
