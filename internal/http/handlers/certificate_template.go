package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/http/response"
	"github.com/yungbote/learnproof-backend/internal/platform/logger"
	"github.com/yungbote/learnproof-backend/internal/services"
)

const maxTemplateBytes = 10 << 20

type TemplateHandler struct {
	log       *logger.Logger
	templates services.CertificateTemplateService
}

func NewTemplateHandler(log *logger.Logger, templates services.CertificateTemplateService) *TemplateHandler {
	return &TemplateHandler{
		log:       log.With("handler", "TemplateHandler"),
		templates: templates,
	}
}

// POST /api/admin/certificate-templates (multipart: file, name, is_default,
// subject_kind, subject_id, organization_id)
func (h *TemplateHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTemplateBytes+1<<20)
	if err := c.Request.ParseMultipartForm(maxTemplateBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidTemplate, errors.New("file is required"))
		return
	}
	if fh.Size > maxTemplateBytes {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidTemplate, fmt.Errorf("template larger than %d bytes", maxTemplateBytes))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidTemplate, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidTemplate, err)
		return
	}

	scope, err := parseTemplateScope(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidTemplate, err)
		return
	}
	isDefault, _ := strconv.ParseBool(strings.TrimSpace(c.PostForm("is_default")))
	name := c.PostForm("name")
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(fh.Filename, ".docx")
	}

	tpl, err := h.templates.Upload(c.Request.Context(), services.TemplateUpload{
		Name:      name,
		Scope:     scope,
		IsDefault: isDefault,
		Data:      data,
	})
	if err != nil {
		h.log.Warn("Template upload failed", "filename", fh.Filename, "error", err)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"template": tpl})
}

// GET /api/admin/certificate-templates
func (h *TemplateHandler) List(c *gin.Context) {
	rows, err := h.templates.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": rows})
}

// DELETE /api/admin/certificate-templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseTemplateScope(c *gin.Context) (services.TemplateScope, error) {
	var sc services.TemplateScope
	if v := strings.TrimSpace(c.PostForm("subject_kind")); v != "" {
		kind := types.SubjectKind(strings.ToLower(v))
		sc.SubjectKind = &kind
	}
	for field, dst := range map[string]**uuid.UUID{
		"subject_id":      &sc.SubjectID,
		"organization_id": &sc.OrganizationID,
	} {
		v := strings.TrimSpace(c.PostForm(field))
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return sc, fmt.Errorf("invalid %s", field)
		}
		*dst = &id
	}
	return sc, nil
}
