package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"StratLab/pkg/logger"

	"github.com/google/uuid"
)

// ErrUploadTooLarge means the upload exceeded the configured size limit.
var ErrUploadTooLarge = errors.New("upload too large")

// UploadInfo describes a stored upload.
type UploadInfo struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Uploads stores caller files under the upload directory.
type Uploads struct {
	dir        string
	maxBytes   int64
	extensions []string
	logger     *logger.Logger
}

func NewUploads(dir string, maxBytes int64, extensions []string, lgr *logger.Logger) *Uploads {
	return &Uploads{dir: dir, maxBytes: maxBytes, extensions: extensions, logger: logger.OrNop(lgr).Component("uploads")}
}

// Save copies r into a uniquely named file keeping the original extension.
// The returned path is relative to the upload directory.
func (u *Uploads) Save(name string, r io.Reader) (UploadInfo, error) {
	base := filepath.Base(strings.TrimSpace(name))
	ext := strings.ToLower(filepath.Ext(base))
	if !u.allowed(ext) {
		return UploadInfo{}, fmt.Errorf("%w: %q", ErrExtensionNotAllowed, ext)
	}
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return UploadInfo{}, fmt.Errorf("create upload dir: %w", err)
	}

	stored := uuid.NewString() + ext
	full := filepath.Join(u.dir, stored)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return UploadInfo{}, fmt.Errorf("create upload: %w", err)
	}

	src := r
	if u.maxBytes > 0 {
		src = io.LimitReader(r, u.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && u.maxBytes > 0 && n > u.maxBytes {
		err = fmt.Errorf("%w: limit %d bytes", ErrUploadTooLarge, u.maxBytes)
	}
	if err != nil {
		_ = os.Remove(full)
		return UploadInfo{}, err
	}

	u.logger.Info("upload stored",
		logger.String("name", base),
		logger.String("path", stored),
		logger.Int64("size", n))
	return UploadInfo{Path: stored, Name: base, Size: n}, nil
}

func (u *Uploads) allowed(ext string) bool {
	for _, a := range u.extensions {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
