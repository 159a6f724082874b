package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	for name, data := range files {
		part, err := mw.CreateFormFile(name, "quote.bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCanonical(t *testing.T) {
	decoded, err := HexInput("00ff").Canonical()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xFF}, decoded)

	raw := []byte{1, 2, 3}
	decoded, err = BinaryInput(raw).Canonical()
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	_, err = HexInput("abc").Canonical()
	assert.Error(t, err)

	_, err = HexInput("zz").Canonical()
	assert.Error(t, err)

	_, err = Input{}.Canonical()
	assert.ErrorIs(t, err, ErrMissingPayload)
}

func TestParseRequest_File(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 100)
	req := multipartRequest(t, nil, map[string][]byte{"file": data})

	in, err := ParseRequest(httptest.NewRecorder(), req, DefaultMaxFileSize, true)
	require.NoError(t, err)
	assert.Equal(t, KindBinary, in.Kind)
	assert.Equal(t, data, in.Data)
}

func TestParseRequest_FileTakesPrecedenceOverHex(t *testing.T) {
	req := multipartRequest(t, map[string]string{"hex": "00ff"}, map[string][]byte{"file": {0x01}})

	in, err := ParseRequest(httptest.NewRecorder(), req, DefaultMaxFileSize, true)
	require.NoError(t, err)
	assert.Equal(t, KindBinary, in.Kind)
}

func TestParseRequest_Hex(t *testing.T) {
	req := multipartRequest(t, map[string]string{"hex": "00ff"}, nil)

	in, err := ParseRequest(httptest.NewRecorder(), req, DefaultMaxFileSize, true)
	require.NoError(t, err)
	assert.Equal(t, HexInput("00ff"), in)
}

func TestParseRequest_HexRejectedWhenFileOnly(t *testing.T) {
	req := multipartRequest(t, map[string]string{"hex": "00ff"}, nil)

	_, err := ParseRequest(httptest.NewRecorder(), req, DefaultMaxFileSize, false)
	assert.ErrorIs(t, err, ErrMissingPayload)
}

func TestParseRequest_URLEncodedHex(t *testing.T) {
	form := url.Values{"hex": {"00ff"}}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := ParseRequest(httptest.NewRecorder(), req, DefaultMaxFileSize, true)
	require.NoError(t, err)
	assert.Equal(t, HexInput("00ff"), in)
}

func TestParseRequest_MissingPayload(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "empty multipart", req: multipartRequest(t, nil, nil)},
		{name: "empty hex value", req: multipartRequest(t, map[string]string{"hex": ""}, nil)},
		{name: "unrelated field", req: multipartRequest(t, map[string]string{"quote": "00ff"}, nil)},
		{name: "json body", req: func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"hex":"00ff"}`))
			req.Header.Set("Content-Type", "application/json")
			return req
		}()},
		{name: "broken multipart", req: func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("garbage"))
			req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
			return req
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(httptest.NewRecorder(), tt.req, DefaultMaxFileSize, true)
			assert.ErrorIs(t, err, ErrMissingPayload)
		})
	}
}

func TestParseRequest_FileFieldAsText(t *testing.T) {
	req := multipartRequest(t, map[string]string{"file": "not a file"}, nil)

	_, err := ParseRequest(httptest.NewRecorder(), req, DefaultMaxFileSize, true)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Expected a file upload", validationErr.Message)
}

func TestParseRequest_BodyTooLarge(t *testing.T) {
	data := make([]byte, MaxRequestBytes(DefaultMaxFileSize)+1)
	req := multipartRequest(t, nil, map[string][]byte{"file": data})

	_, err := ParseRequest(httptest.NewRecorder(), req, DefaultMaxFileSize, true)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Request body too large", validationErr.Message)
}

func TestParseRequest_OversizeFileWithinBodyCap(t *testing.T) {
	req := multipartRequest(t, nil, map[string][]byte{"file": make([]byte, DefaultMaxFileSize+1)})

	in, err := ParseRequest(httptest.NewRecorder(), req, DefaultMaxFileSize, true)
	require.NoError(t, err)
	assert.EqualError(t, Validate(in, DefaultMaxFileSize), "File size cannot exceed 20KB")
}
