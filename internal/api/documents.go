package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// MaxDocumentSize caps document uploads.
const MaxDocumentSize = 10 * 1024 * 1024

// DocumentCategories lists the accepted document categories.
var DocumentCategories = []string{"Lease", "Receipt", "Identification", "Insurance", "Inspection", "Other"}

// Document is a stored file such as a lease or receipt.
type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	URL        string `json:"url"`
	MimeType   string `json:"mimeType"`
	Size       int64  `json:"size"`
	PropertyID string `json:"propertyId"`
	UploadedAt string `json:"uploadedAt"`
}

type rawDocument struct {
	identity
	Name       flexString `json:"name"`
	FileName   flexString `json:"fileName"`
	Category   flexString `json:"category"`
	Type       flexString `json:"type"`
	URL        flexString `json:"url"`
	FileURL    flexString `json:"fileUrl"`
	MimeType   flexString `json:"mimeType"`
	Size       flexFloat  `json:"size"`
	Property   ref        `json:"property"`
	UploadedAt flexString `json:"uploadedAt"`
	CreatedAt  flexString `json:"createdAt"`
}

func shapeDocument(r rawDocument) Document {
	return Document{
		ID:         r.id(),
		Name:       orDefault(flexString(firstNonEmpty(string(r.Name), string(r.FileName))), "Untitled Document"),
		Category:   orDefault(flexString(firstNonEmpty(string(r.Category), string(r.Type))), "Other"),
		URL:        firstNonEmpty(string(r.URL), string(r.FileURL)),
		MimeType:   string(r.MimeType),
		Size:       int64(r.Size),
		PropertyID: r.Property.ID,
		UploadedAt: firstNonEmpty(string(r.UploadedAt), string(r.CreatedAt)),
	}
}

// DocumentUpload is a new document and its metadata.
type DocumentUpload struct {
	File       File
	Name       string
	Category   string
	PropertyID string
}

func (in DocumentUpload) Validate() error {
	if len(in.File.Content) == 0 || strings.TrimSpace(in.File.Name) == "" {
		return clientErrorf("A document file is required")
	}
	if len(in.File.Content) > MaxDocumentSize {
		return clientErrorf("Document must be at most %d MB", MaxDocumentSize/(1024*1024))
	}
	if in.Category != "" && !oneOf(in.Category, DocumentCategories) {
		return clientErrorf("Invalid document category %q: must be one of %s", in.Category, strings.Join(DocumentCategories, ", "))
	}
	return nil
}

// List returns the caller's documents.
func (s DocumentsService) List(ctx context.Context, token string) ([]Document, error) {
	op := operation{action: "fetch documents", resource: "Documents"}
	return Guard(ctx, s.inflight, "fetchDocuments", op.action, func(ctx context.Context) ([]Document, error) {
		raws, err := fetchList[rawDocument](ctx, s.Client, request{
			method: http.MethodGet,
			path:   s.rolePath("/documents"),
			token:  token,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		return shapeAll(raws, shapeDocument), nil
	})
}

// Upload stores a new document as a multipart upload.
func (s DocumentsService) Upload(ctx context.Context, token string, in DocumentUpload) (*Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	fields := map[string]string{"name": firstNonEmpty(in.Name, in.File.Name)}
	if in.Category != "" {
		fields["category"] = in.Category
	}
	if in.PropertyID != "" {
		fields["propertyId"] = in.PropertyID
	}
	op := operation{action: "upload document", resource: "Document"}
	return Guard(ctx, s.inflight, "uploadDocument", op.action, func(ctx context.Context) (*Document, error) {
		return s.one(ctx, request{
			method: http.MethodPost,
			path:   s.rolePath("/documents"),
			token:  token,
			form:   &multipartForm{fields: fields, fileField: "file", file: in.File},
			op:     op,
		})
	})
}

// Rename changes a document's display name.
func (s DocumentsService) Rename(ctx context.Context, token, id, name string) (*Document, error) {
	if err := requireID(id, "Document"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, clientErrorf("Document name is required")
	}
	op := operation{action: "rename document", resource: "Document"}
	return Guard(ctx, s.inflight, operationKey("renameDocument", id), op.action, func(ctx context.Context) (*Document, error) {
		return s.one(ctx, request{
			method: http.MethodPatch,
			path:   s.rolePath(fmt.Sprintf("/documents/%s", url.PathEscape(id))),
			token:  token,
			body:   map[string]string{"name": strings.TrimSpace(name)},
			op:     op,
		})
	})
}

// Delete removes a document.
func (s DocumentsService) Delete(ctx context.Context, token, id string) error {
	if err := requireID(id, "Document"); err != nil {
		return err
	}
	op := operation{action: "delete document", resource: "Document"}
	_, err := Guard(ctx, s.inflight, operationKey("deleteDocument", id), op.action, func(ctx context.Context) ([]byte, error) {
		return s.send(ctx, request{
			method: http.MethodDelete,
			path:   s.rolePath(fmt.Sprintf("/documents/%s", url.PathEscape(id))),
			token:  token,
			op:     op,
		})
	})
	return err
}

func (s DocumentsService) one(ctx context.Context, req request) (*Document, error) {
	raw, err := fetchOne[rawDocument](ctx, s.Client, req)
	if err != nil {
		return nil, err
	}
	d := shapeDocument(raw)
	return &d, nil
}
