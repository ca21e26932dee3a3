package render

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strconv"
)

//go:embed certificate.html.tmpl
var certificateHTML string

var certificateTmpl = template.Must(template.New("certificate").Parse(certificateHTML))

// SynthesizedRenderer builds a landscape A4 HTML certificate and prints it
// with a headless browser. Used when no template applies.
type SynthesizedRenderer struct {
	browser Browser
}

func NewSynthesizedRenderer(browser Browser) *SynthesizedRenderer {
	return &SynthesizedRenderer{browser: browser}
}

type certificateView struct {
	LearnerName    string
	DocumentNumber string
	SubjectTitle   string
	DurationHours  int
	CompletionDate string
	Score          string
	Hash           string
	VerifyURL      string
}

// HTML returns the self-contained document for f.
func HTML(f Fields) (string, error) {
	v := f.Values()
	var b bytes.Buffer
	err := certificateTmpl.Execute(&b, certificateView{
		LearnerName:    f.LearnerName,
		DocumentNumber: f.DocumentNumber,
		SubjectTitle:   f.SubjectTitle,
		DurationHours:  f.DurationHours,
		CompletionDate: v["completion_date"],
		Score:          strconv.FormatFloat(f.Score, 'f', 1, 64),
		Hash:           f.Hash,
		VerifyURL:      f.VerifyURL,
	})
	if err != nil {
		return "", fmt.Errorf("execute certificate template: %w", err)
	}
	return b.String(), nil
}

func (r *SynthesizedRenderer) Render(ctx context.Context, f Fields) ([]byte, error) {
	if r == nil || r.browser == nil {
		return nil, &RenderError{Stage: "synthesize", Err: errors.New("browser not configured")}
	}
	html, err := HTML(f)
	if err != nil {
		return nil, Wrap("synthesize", err)
	}
	pdf, err := r.browser.PrintPDF(ctx, html)
	if err != nil {
		return nil, Wrap("print", err)
	}
	if len(pdf) == 0 {
		return nil, Errorf("print", "browser produced empty output")
	}
	return pdf, nil
}
