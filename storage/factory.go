package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/ra-quote-explorer/interfaces"
)

// ArchiveFactory creates quote archives from location URIs.
type ArchiveFactory struct {
	log *slog.Logger
}

func NewArchiveFactory(log *slog.Logger) *ArchiveFactory {
	return &ArchiveFactory{log: log}
}

// ArchiveFor creates a quote archive from a location URI.
//
// Supported schemes:
//   - file:///absolute/path or file://./relative/path
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-east-1&endpoint=https://minio:9000
//   - ipfs://host:port/?timeout=30s
func (f *ArchiveFactory) ArchiveFor(locationURI string) (interfaces.QuoteArchive, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.createFileBackend(u)
	case "s3":
		return f.createS3Backend(u)
	case "ipfs":
		return f.createIPFSBackend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// ArchiveForList accepts a comma-separated list of location URIs. A single
// URI yields its backend directly; several are combined into a MultiArchive.
func (f *ArchiveFactory) ArchiveForList(locationURIs string) (interfaces.QuoteArchive, error) {
	var backends []interfaces.QuoteArchive
	for _, uri := range strings.Split(locationURIs, ",") {
		uri = strings.TrimSpace(uri)
		if uri == "" {
			continue
		}
		backend, err := f.ArchiveFor(uri)
		if err != nil {
			return nil, err
		}
		backends = append(backends, backend)
	}

	switch len(backends) {
	case 0:
		return nil, fmt.Errorf("%w: no archive location given", interfaces.ErrInvalidLocationURI)
	case 1:
		return backends[0], nil
	default:
		return NewMultiArchive(backends, f.log), nil
	}
}

func (f *ArchiveFactory) createFileBackend(u *url.URL) (interfaces.QuoteArchive, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	f.log.Debug("Creating file archive", slog.String("path", path))
	return NewFileBackend(path, f.log)
}

func (f *ArchiveFactory) createS3Backend(u *url.URL) (interfaces.QuoteArchive, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", interfaces.ErrInvalidLocationURI, u.Redacted())
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	f.log.Debug("Creating S3 archive", slog.String("uri", u.Redacted()))
	return NewS3Backend(u.Host, strings.TrimPrefix(u.Path, "/"), region, query.Get("endpoint"), accessKey, secretKey, f.log)
}

func (f *ArchiveFactory) createIPFSBackend(u *url.URL) (interfaces.QuoteArchive, error) {
	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	port := u.Port()
	if port == "" {
		port = "5001"
	}

	timeout := 30 * time.Second
	if raw := u.Query().Get("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout %q", interfaces.ErrInvalidLocationURI, raw)
		}
		timeout = parsed
	}

	f.log.Debug("Creating IPFS archive", slog.String("uri", u.String()))
	return NewIPFSBackend(host, port, timeout, f.log)
}
