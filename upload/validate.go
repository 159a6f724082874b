package upload

import "fmt"

// ValidationError carries the single message describing the first violated
// constraint of a submission.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the structural constraints of in against maxFileSize and
// returns a *ValidationError for the first violation.
func Validate(in Input, maxFileSize int) error {
	switch in.Kind {
	case KindBinary:
		if len(in.Data) > maxFileSize {
			return &ValidationError{Message: fmt.Sprintf("File size cannot exceed %s", formatSize(maxFileSize))}
		}
		if len(in.Data) == 0 {
			return &ValidationError{Message: "File cannot be empty"}
		}
		return nil

	case KindHex:
		maxChars := maxFileSize * 2
		if !isHex(in.Hex) || len(in.Hex) > maxChars {
			return &ValidationError{Message: fmt.Sprintf("Hex string must be valid and not exceed %d characters", maxChars)}
		}
		if len(in.Hex) == 0 {
			return &ValidationError{Message: "Hex string cannot be empty"}
		}
		return nil

	default:
		return ErrMissingPayload
	}
}

// isHex reports whether s consists of whole hex-encoded bytes.
func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func formatSize(n int) string {
	if n%1024 == 0 {
		return fmt.Sprintf("%dKB", n/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
