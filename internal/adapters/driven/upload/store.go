package upload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// Ensure Store implements the interfaces.
var (
	_ driven.Uploader    = (*Store)(nil)
	_ driven.ImageProber = (*Store)(nil)
)

// extensions maps accepted content types to stored file extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// decoders reads image dimensions for each accepted content type.
var decoders = map[string]func(io.Reader) (image.Config, error){
	"image/jpeg": jpeg.DecodeConfig,
	"image/png":  png.DecodeConfig,
	"image/gif":  gif.DecodeConfig,
}

// Store writes uploads to a directory and probes images by locator.
type Store struct {
	dir      string
	baseURL  string
	maxBytes int64
	client   *http.Client
}

// NewStore creates an upload store from settings.
// If settings.Dir is empty, defaults to ~/.gangboyz/uploads.
func NewStore(settings domain.UploadSettings) (*Store, error) {
	dir := settings.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".gangboyz", "uploads")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	maxBytes := settings.MaxBytes
	if maxBytes <= 0 {
		maxBytes = domain.DefaultAppSettings().Upload.MaxBytes
	}

	return &Store{
		dir:      dir,
		baseURL:  strings.TrimRight(settings.BaseURL, "/"),
		maxBytes: maxBytes,
		client:   http.DefaultClient,
	}, nil
}

// SetHTTPClient sets the client used to probe remote images.
func (s *Store) SetHTTPClient(client *http.Client) {
	if client != nil {
		s.client = client
	}
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Upload validates r and stores it. Nothing is written on error.
func (s *Store) Upload(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadResult{}, err
	}

	// Read one byte past the limit to tell "exactly max" from "too large".
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("reading %s: %w", filename, err)
	}
	if int64(len(data)) > s.maxBytes {
		return domain.UploadResult{}, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrFileTooLarge, filename, s.maxBytes)
	}

	mimeType, cfg, err := inspect(data)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("%s: %w", filename, err)
	}

	name := uuid.NewString() + extensions[mimeType]
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return domain.UploadResult{}, fmt.Errorf("writing %s: %w", filename, err)
	}
	logger.Debug("upload %s stored as %s", filename, path)

	return domain.UploadResult{
		URL:      s.locator(name, path),
		MimeType: mimeType,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Size:     int64(len(data)),
	}, nil
}

// Probe reads the dimensions of the image at src. Local paths, file://
// URLs and URLs under the configured base URL are read from disk; other
// http(s) URLs are fetched.
func (s *Store) Probe(ctx context.Context, src string) (domain.ImageInfo, error) {
	path, local, err := s.localPath(src)
	if err != nil {
		return domain.ImageInfo{}, err
	}
	if local {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return domain.ImageInfo{}, fmt.Errorf("%w: %s", domain.ErrNotFound, src)
			}
			return domain.ImageInfo{}, fmt.Errorf("opening %s: %w", src, err)
		}
		defer f.Close()
		return s.probeReader(src, f)
	}

	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return domain.ImageInfo{}, fmt.Errorf("%w: unsupported locator %q", domain.ErrInvalidInput, src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ImageInfo{}, fmt.Errorf("%w: %s", domain.ErrNotFound, src)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ImageInfo{}, fmt.Errorf("fetching %s: status %d", src, resp.StatusCode)
	}
	return s.probeReader(src, resp.Body)
}

func (s *Store) probeReader(src string, r io.Reader) (domain.ImageInfo, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("reading %s: %w", src, err)
	}
	mimeType, cfg, err := inspect(data)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("%s: %w", src, err)
	}
	return domain.ImageInfo{Src: src, Width: cfg.Width, Height: cfg.Height, MimeType: mimeType}, nil
}

func (s *Store) locator(name, path string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + name
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// localPath maps src to a file on disk when it refers to one. Names under
// the base URL must be a single path element.
func (s *Store) localPath(src string) (string, bool, error) {
	if s.baseURL != "" && strings.HasPrefix(src, s.baseURL+"/") {
		name := strings.TrimPrefix(src, s.baseURL+"/")
		if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
			return "", false, fmt.Errorf("%w: bad upload name in %q", domain.ErrInvalidInput, src)
		}
		return filepath.Join(s.dir, name), true, nil
	}
	if strings.HasPrefix(src, "file://") {
		u, err := url.Parse(src)
		if err != nil {
			return "", false, fmt.Errorf("%w: %q: %v", domain.ErrInvalidInput, src, err)
		}
		return filepath.FromSlash(u.Path), true, nil
	}
	if filepath.IsAbs(src) {
		return src, true, nil
	}
	return "", false, nil
}

// inspect sniffs the content type and decodes the image header.
func inspect(data []byte) (string, image.Config, error) {
	mimeType := http.DetectContentType(data)
	decode, ok := decoders[mimeType]
	if !ok {
		return "", image.Config{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimeType)
	}
	cfg, err := decode(bytes.NewReader(data))
	if err != nil {
		return "", image.Config{}, fmt.Errorf("%w: undecodable %s: %v", domain.ErrUnsupportedType, mimeType, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", image.Config{}, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	return mimeType, cfg, nil
}
