package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"avenue/internal/apperr"
)

const maxImageSize = 5 << 20

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// ImageUploads writes product images below PublicDir/uploads/products. The
// returned path is relative to PublicDir, which is served at /public.
type ImageUploads struct {
	PublicDir string
}

func (u ImageUploads) Save(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExtensions[extension]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unsupported image type %q", extension))
	}
	if file.Size > maxImageSize {
		return "", apperr.Validation("image file too large (max 5MB)")
	}

	dir := filepath.Join(u.PublicDir, "uploads", "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := primitive.NewObjectID().Hex() + extension
	fullPath := filepath.Join(dir, filename)

	in, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer in.Close()

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("write image: %w", err)
	}

	return filepath.ToSlash(filepath.Join("uploads", "products", filename)), nil
}

func UploadProductImage(uploads ImageUploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				failAdmin(c, apperr.Validation("image is required"))
				return
			}
			failAdmin(c, apperr.Validation("invalid multipart body"))
			return
		}
		imagePath, err := uploads.Save(file)
		if err != nil {
			failAdmin(c, err)
			return
		}
		respondCreated(c, "Image uploaded", gin.H{"imagePath": imagePath})
	}
}
