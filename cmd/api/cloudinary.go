package main

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	foodImagesFolder = "food-images"
	avatarsFolder    = "avatars"

	maxUploadBytes = 15 * 1024 * 1024
)

// mediaStore is the part of the Cloudinary upload API the handlers use.
// *uploader.API satisfies it.
type mediaStore interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

func (app *application) deletePhotoFromCloudinary(ctx context.Context, photoURL string) error {
	publicID, err := extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.media.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}

	return nil
}

// extractPublicIDFromURL turns
// https://res.cloudinary.com/demo/image/upload/v1712/food-images/abc.jpg
// into food-images/abc. The version segment and extension are not part of
// the public ID.
func extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part != "upload" || i+1 >= len(pathParts) {
			continue
		}
		rest := pathParts[i+1:]
		if len(rest) > 1 && isVersionSegment(rest[0]) {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		id = strings.TrimSuffix(id, path.Ext(id))
		if id == "" {
			break
		}
		return id, nil
	}

	return "", errors.New("failed to extract public ID from URL")
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (app *application) uploadToCloudinary(ctx context.Context, file multipart.File, params uploader.UploadParams) (string, error) {
	params.Overwrite = api.Bool(false)
	resp, err := app.media.Upload(ctx, file, params)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

// uploadImages uploads files into folder, naming each after prefix. It
// removes what it already uploaded when a later file fails.
func (app *application) uploadImages(ctx context.Context, files []*multipart.FileHeader, folder, prefix string) ([]string, error) {
	var urls []string

	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			app.cleanupUploads(urls)
			return nil, fmt.Errorf("open file: %w", err)
		}

		publicID := fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
		url, err := app.uploadToCloudinary(ctx, file, uploader.UploadParams{
			Folder:   folder,
			PublicID: publicID,
		})
		file.Close()
		if err != nil {
			app.cleanupUploads(urls)
			return nil, err
		}

		urls = append(urls, url)
	}

	return urls, nil
}

func (app *application) cleanupUploads(urls []string) {
	for _, u := range urls {
		if err := app.deletePhotoFromCloudinary(context.Background(), u); err != nil {
			app.logger.Warnw("failed to clean up upload", "url", u, "error", err)
		}
	}
}

// parseMultipart limits the body and parses a multipart form.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}
