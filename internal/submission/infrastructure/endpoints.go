package infrastructure

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	formdomain "productform/internal/form/domain"
	"productform/internal/submission/domain"
)

func productURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + domain.ProductPath
}

func uploadURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + domain.UploadImagePath
}

func productByIDURL(baseURL, productID string) string {
	return productURL(baseURL) + "/" + url.PathEscape(productID)
}

// contentType returns the declared type of f, or sniffs it from the content
func contentType(f formdomain.File) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return mimetype.Detect(f.Data).String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartDisposition(field, filename string) string {
	return fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(filename))
}
