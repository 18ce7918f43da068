package httpadapter

import (
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

// documentIDParam binds the {id} path segment the way generated servers bind simple path params.
func documentIDParam(r *http.Request) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return 0, domain.NewPublicError(domain.ErrInvalidInput, "Invalid document id")
	}
	if id <= 0 {
		return 0, domain.NewPublicError(domain.ErrDocumentNotFound, "Document not found")
	}
	return id, nil
}
