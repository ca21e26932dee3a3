package render

import (
	"context"
	"errors"
	"fmt"
)

// TemplateRenderer merges fields into a DOCX template and converts it.
type TemplateRenderer struct {
	conv Converter
}

func NewTemplateRenderer(conv Converter) *TemplateRenderer {
	return &TemplateRenderer{conv: conv}
}

func (r *TemplateRenderer) Render(ctx context.Context, docx []byte, f Fields) ([]byte, error) {
	if r == nil || r.conv == nil {
		return nil, &RenderError{Stage: "template", Err: errors.New("converter not configured")}
	}
	if len(docx) == 0 {
		return nil, Errorf("template", "empty template document")
	}
	merged, err := MergeDocx(docx, f.Values())
	if err != nil {
		return nil, Wrap("template", fmt.Errorf("merge fields: %w", err))
	}
	pdf, err := r.conv.Convert(ctx, merged)
	if err != nil {
		return nil, Wrap("convert", err)
	}
	if len(pdf) == 0 {
		return nil, Errorf("convert", "converter produced empty output")
	}
	return pdf, nil
}
