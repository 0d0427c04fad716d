package validation

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"cardsmith/internal/domain"
	"cardsmith/internal/export"
)

// Validator provides request validation functionality
type Validator struct {
	maxInputChars  int
	maxUploadBytes int64
	acceptedTypes  []string
}

// NewValidator creates a new validator instance. Zero limits disable the
// corresponding check.
func NewValidator(maxInputChars int, maxUploadBytes int64, acceptedTypes []string) *Validator {
	return &Validator{
		maxInputChars:  maxInputChars,
		maxUploadBytes: maxUploadBytes,
		acceptedTypes:  acceptedTypes,
	}
}

// ValidateText rejects blank text with the empty-input error and overly
// long text with a range error.
func (v *Validator) ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.NewEmptyInputError()
	}
	if v.maxInputChars > 0 {
		if n := utf8.RuneCountInString(text); n > v.maxInputChars {
			return domain.ValidationErrors{domain.NewOutOfRangeError("text", n, 1, v.maxInputChars)}
		}
	}
	return nil
}

// ValidateUpload checks the file name and size before anything is read.
func (v *Validator) ValidateUpload(fileName string, size int64) error {
	if strings.TrimSpace(fileName) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("file")}
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !v.accepts(ext) {
		return domain.NewUnsupportedFileError(ext)
	}
	if v.maxUploadBytes > 0 && size > v.maxUploadBytes {
		return domain.NewFileTooLargeError(size, v.maxUploadBytes)
	}
	return nil
}

// ValidateExportFormat parses the requested export format.
func (v *Validator) ValidateExportFormat(format string) (export.Format, error) {
	if strings.TrimSpace(format) == "" {
		return "", domain.ValidationErrors{domain.NewMissingFieldError("format")}
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", domain.ValidationErrors{domain.NewInvalidFormatError("format", format)}
	}
	return f, nil
}

// AcceptList is the accepted types as an HTML accept attribute.
func (v *Validator) AcceptList() string {
	return strings.Join(v.acceptedTypes, ",")
}

func (v *Validator) accepts(ext string) bool {
	if len(v.acceptedTypes) == 0 {
		return true
	}
	for _, accepted := range v.acceptedTypes {
		if ext == accepted {
			return true
		}
	}
	return false
}
