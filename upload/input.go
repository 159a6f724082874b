package upload

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ErrMissingPayload is returned when a submission carries neither a file nor a hex string.
var ErrMissingPayload = errors.New("missing file or hex payload")

// DefaultMaxFileSize is the largest accepted quote, in decoded bytes.
const DefaultMaxFileSize = 20 * 1024

// multipartOverhead leaves room for boundaries and part headers on top of
// the largest accepted field.
const multipartOverhead = 64 * 1024

// Kind tags the accepted input variants.
type Kind int

const (
	KindBinary Kind = iota + 1
	KindHex
)

func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindHex:
		return "hex"
	default:
		return "none"
	}
}

// Input is a submitted quote, either raw bytes or hex text.
type Input struct {
	Kind Kind
	Data []byte
	Hex  string
}

func BinaryInput(data []byte) Input {
	return Input{Kind: KindBinary, Data: data}
}

func HexInput(s string) Input {
	return Input{Kind: KindHex, Hex: s}
}

// Canonical returns the raw quote bytes. Hex input is decoded two characters
// at a time and fails as a whole on any invalid pair or an odd length.
func (in Input) Canonical() ([]byte, error) {
	switch in.Kind {
	case KindBinary:
		return in.Data, nil
	case KindHex:
		decoded, err := hex.DecodeString(in.Hex)
		if err != nil {
			return nil, fmt.Errorf("could not decode hex input: %w", err)
		}
		return decoded, nil
	default:
		return nil, ErrMissingPayload
	}
}

// MaxRequestBytes bounds the request body for a given maximum file size.
// Hex text takes two characters per byte.
func MaxRequestBytes(maxFileSize int) int64 {
	return int64(maxFileSize)*2 + multipartOverhead
}

// ParseRequest reads the submission from a multipart or urlencoded form body.
// The returned error is ErrMissingPayload, a *ValidationError, or an I/O error
// while reading an uploaded file.
func ParseRequest(w http.ResponseWriter, r *http.Request, maxFileSize int, acceptHex bool) (Input, error) {
	maxBytes := MaxRequestBytes(maxFileSize)
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	err := r.ParseMultipartForm(maxBytes)
	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
		return FromForm(r.MultipartForm, acceptHex)
	case errors.As(err, &maxBytesErr):
		return Input{}, &ValidationError{Message: "Request body too large"}
	case errors.Is(err, http.ErrNotMultipart):
		// ParseForm has already consumed urlencoded bodies into PostForm.
		return FromForm(&multipart.Form{Value: r.PostForm}, acceptHex)
	default:
		return Input{}, ErrMissingPayload
	}
}

// FromForm resolves the submitted variant once. A file takes precedence over
// hex text; an empty hex value counts as absent.
func FromForm(form *multipart.Form, acceptHex bool) (Input, error) {
	if form == nil {
		return Input{}, ErrMissingPayload
	}

	if files := form.File["file"]; len(files) > 0 {
		data, err := readFileHeader(files[0])
		if err != nil {
			return Input{}, err
		}
		return BinaryInput(data), nil
	}

	if values := form.Value["file"]; len(values) > 0 && values[0] != "" {
		return Input{}, &ValidationError{Message: "Expected a file upload"}
	}

	if acceptHex {
		if values := form.Value["hex"]; len(values) > 0 && values[0] != "" {
			return HexInput(values[0]), nil
		}
	}

	return Input{}, ErrMissingPayload
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read uploaded file: %w", err)
	}
	return data, nil
}
