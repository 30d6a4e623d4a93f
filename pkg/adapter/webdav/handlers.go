package webdav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/marmos91/scopefs/internal/logger"
	"github.com/marmos91/scopefs/pkg/facade"
	"github.com/marmos91/scopefs/pkg/vfs"
)

// davHeader advertises WebDAV compliance classes on OPTIONS responses.
// https://datatracker.ietf.org/doc/html/rfc4918#section-18
const davHeader = "1, 3, access-control, extended-mkcol"

const allowedMethods = "OPTIONS, GET, HEAD, PUT, DELETE, MKCOL, COPY, MOVE"

// errCrossMount marks a COPY/MOVE Destination pointing at another mount.
var errCrossMount = errors.New("destination is on a different mount")

// buildEcho assembles the echo instance with middleware and routes.
func (s *DavAdapter) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	s.configureRequestLogger(e)
	if s.limiter != nil {
		e.Use(s.rateLimitMiddleware)
	}
	e.Use(s.metricsMiddleware)

	e.GET("/mounts", s.handleMounts)

	routes := []struct {
		method  string
		handler echo.HandlerFunc
	}{
		{http.MethodGet, s.handleGet},
		{http.MethodHead, s.handleHead},
		{http.MethodPut, s.handlePut},
		{http.MethodDelete, s.handleDelete},
		{"MKCOL", s.handleMkcol},
		{"COPY", s.handleCopy},
		{"MOVE", s.handleMove},
		{http.MethodOptions, s.handleOptions},
	}

	// The bare group route covers requests for the mount root without a
	// trailing slash, which the wildcard route does not match.
	g := e.Group("/mount/:mount")
	for _, r := range routes {
		g.Add(r.method, "", r.handler)
		g.Add(r.method, "/*", r.handler)
	}

	return e
}

// configureRequestLogger attaches structured per-request logging.
//
// Successful requests log at debug level to avoid log spam under load;
// failed ones at error level.
func (s *DavAdapter) configureRequestLogger(e *echo.Echo) {
	zl := logger.Zerolog()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogURIPath: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				zl.Error().
					Str("method", v.Method).
					Str("URI", v.URIPath).
					Int("status", v.Status).
					Err(v.Error).
					Msg("")
			} else {
				zl.Debug().
					Str("method", v.Method).
					Str("URI", v.URIPath).
					Int("status", v.Status).
					Msg("")
			}
			return nil
		},
	}))
}

func (s *DavAdapter) rateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.Allow() {
			return c.String(http.StatusTooManyRequests, "Too Many Requests")
		}
		return next(c)
	}
}

func (s *DavAdapter) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		method := c.Request().Method
		s.metrics.RecordRequestStart(method)
		start := time.Now()

		err := next(c)

		status := c.Response().Status
		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			} else if status == 0 || status == http.StatusOK {
				status = http.StatusInternalServerError
			}
		}

		s.metrics.RecordRequestEnd(method)
		s.metrics.RecordRequest(method, c.Param("mount"), status, time.Since(start))
		return err
	}
}

// davPath extracts the filesystem path from the request URL.
//
// The wildcard capture is missing entirely for requests addressing the
// mount root without a trailing slash.
func davPath(c echo.Context) string {
	raw := c.Param("*")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// davError translates the filesystem error taxonomy into HTTP responses.
// IO details are logged, never sent to the client.
func davError(c echo.Context, err error) error {
	switch {
	case vfs.IsNotFound(err):
		return c.String(http.StatusNotFound, "Not Found")
	case vfs.IsConflict(err):
		return c.String(http.StatusConflict, "Conflict")
	case vfs.IsReadOnly(err):
		return c.String(http.StatusForbidden, "Forbidden")
	default:
		logger.Error("WebDAV %s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}
}

// handleMounts lists the names of all registered mounts.
func (s *DavAdapter) handleMounts(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Mounts())
}

// handleOptions advertises WebDAV capabilities.
func (s *DavAdapter) handleOptions(c echo.Context) error {
	c.Response().Header().Set("DAV", davHeader)
	c.Response().Header().Set(echo.HeaderAllow, allowedMethods)
	return c.NoContent(http.StatusOK)
}

// handleGet serves file content, honoring single byte-range requests, or a
// JSON listing when the path names a collection.
func (s *DavAdapter) handleGet(c echo.Context) error {
	ctx := c.Request().Context()
	mount := c.Param("mount")
	path := davPath(c)

	info, err := s.service.Stat(ctx, mount, path)
	if err != nil {
		return davError(c, err)
	}
	if info.IsDir {
		entries, err := s.service.List(ctx, mount, path)
		if err != nil {
			return davError(c, err)
		}
		return c.JSON(http.StatusOK, entries)
	}

	download, err := s.service.Open(ctx, mount, path, c.Request().Header.Get("Range"))
	if err != nil {
		if errors.Is(err, vfs.ErrRangeNotSatisfiable) {
			c.Response().Header().Set("Content-Range", fmt.Sprintf("bytes */%d", info.Size))
			return c.NoContent(http.StatusRequestedRangeNotSatisfiable)
		}
		return davError(c, err)
	}
	defer download.Body.Close()

	status, contentType := writeDownloadHeaders(c, download)

	body := &countingReader{r: download.Body}
	streamErr := c.Stream(status, contentType, body)
	s.metrics.RecordBytesTransferred("read", body.n)
	return streamErr
}

// handleHead serves the same headers as handleGet without a body.
func (s *DavAdapter) handleHead(c echo.Context) error {
	ctx := c.Request().Context()
	mount := c.Param("mount")
	path := davPath(c)

	info, err := s.service.Stat(ctx, mount, path)
	if err != nil {
		return davError(c, err)
	}
	if info.IsDir {
		return c.NoContent(http.StatusOK)
	}

	download, err := s.service.Open(ctx, mount, path, c.Request().Header.Get("Range"))
	if err != nil {
		if errors.Is(err, vfs.ErrRangeNotSatisfiable) {
			c.Response().Header().Set("Content-Range", fmt.Sprintf("bytes */%d", info.Size))
			return c.NoContent(http.StatusRequestedRangeNotSatisfiable)
		}
		return davError(c, err)
	}
	download.Body.Close()

	status, contentType := writeDownloadHeaders(c, download)
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	return c.NoContent(status)
}

// writeDownloadHeaders emits the content negotiation headers shared by GET
// and HEAD and resolves the response status and content type.
func writeDownloadHeaders(c echo.Context, download *facade.Download) (status int, contentType string) {
	h := c.Response().Header()

	contentType = download.ContentType
	if contentType == "" {
		// A fixed fallback beats net/http content sniffing, which would
		// classify range responses by whatever bytes the range starts with.
		contentType = echo.MIMEOctetStream
	}

	escaped := url.PathEscape(download.Filename)
	h.Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename*=UTF-8''%s; filename=%s", escaped, escaped))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Last-Modified", download.Info.Modified.UTC().Format(http.TimeFormat))
	h.Set("ETag", download.ETag)

	status = http.StatusOK
	length := download.Info.Size
	if download.Range != nil {
		status = http.StatusPartialContent
		length = download.Range.Length()
		h.Set("Content-Range", download.Range.Header())
	}
	h.Set(echo.HeaderContentLength, strconv.FormatInt(length, 10))

	return status, contentType
}

// handlePut streams the request body into a new or replaced file.
func (s *DavAdapter) handlePut(c echo.Context) error {
	body := &countingReader{r: c.Request().Body}

	created, err := s.service.Put(c.Request().Context(), c.Param("mount"), davPath(c), body)
	if err != nil {
		return davError(c, err)
	}
	s.metrics.RecordBytesTransferred("write", body.n)

	if created {
		return c.NoContent(http.StatusCreated)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleMkcol creates a collection.
func (s *DavAdapter) handleMkcol(c echo.Context) error {
	if err := s.service.MkDir(c.Request().Context(), c.Param("mount"), davPath(c)); err != nil {
		return davError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

// handleDelete removes a file or a collection with everything below it.
func (s *DavAdapter) handleDelete(c echo.Context) error {
	if err := s.service.Delete(c.Request().Context(), c.Param("mount"), davPath(c)); err != nil {
		return davError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *DavAdapter) handleCopy(c echo.Context) error {
	return s.transfer(c, s.service.Copy)
}

func (s *DavAdapter) handleMove(c echo.Context) error {
	return s.transfer(c, s.service.Move)
}

// transfer implements the shared COPY/MOVE flow: resolve the Destination
// header, apply the Overwrite header (defaulting to overwrite), and report
// 201 for a fresh destination or 204 for a replaced one.
func (s *DavAdapter) transfer(c echo.Context, op func(ctx context.Context, mount, fromRaw, toRaw string, overwrite bool) (bool, error)) error {
	mount := c.Param("mount")

	dest, err := parseDestination(c.Request().Header.Get("Destination"), mount)
	if err != nil {
		if errors.Is(err, errCrossMount) {
			return c.String(http.StatusBadGateway, "Bad Gateway")
		}
		return c.String(http.StatusBadRequest, err.Error())
	}

	overwrite := !strings.EqualFold(c.Request().Header.Get("Overwrite"), "F")

	existed, err := op(c.Request().Context(), mount, davPath(c), dest, overwrite)
	if err != nil {
		return davError(c, err)
	}

	if existed {
		return c.NoContent(http.StatusNoContent)
	}
	return c.NoContent(http.StatusCreated)
}

// parseDestination resolves a Destination header against the source mount.
//
// The header may be an absolute URL or an absolute path; either way the
// path must have the shape /mount/{mount}/{path} and name the same mount
// as the source. url.Parse leaves us with a percent-decoded path.
func parseDestination(header, mount string) (string, error) {
	if header == "" {
		return "", errors.New("missing Destination header")
	}

	u, err := url.Parse(header)
	if err != nil {
		return "", fmt.Errorf("invalid Destination header: %w", err)
	}

	rest, ok := strings.CutPrefix(u.Path, "/mount/")
	if !ok {
		return "", fmt.Errorf("destination %q is outside the mount namespace", u.Path)
	}

	destMount, destPath, ok := strings.Cut(rest, "/")
	if !ok || destPath == "" {
		return "", fmt.Errorf("destination %q names no path inside a mount", u.Path)
	}
	if destMount != mount {
		return "", errCrossMount
	}

	return destPath, nil
}

// countingReader tracks how many bytes passed through for transfer metrics.
type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
