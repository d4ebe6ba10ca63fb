package web

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/codes"
)

// ExportActivity downloads an activity's data file. With FormatOriginal
// the file comes back exactly as it was uploaded; uploads from old
// mobile apps have no original file and are served as a json blob, in
// which case the download is retried once as GPX.
func (c *Client) ExportActivity(ctx context.Context, activityId int64, format DataFormat) (*ExportFile, error) {
	ctx, span := tracer.Start(ctx, "client:ExportActivity")
	defer span.End()

	if format == "" {
		format = FormatOriginal
	}
	if !format.valid() {
		return nil, fmt.Errorf("invalid data format %q", format)
	}

	path := fmt.Sprintf(activityExportPath, activityId, format)
	file, contentType, err := c.download(ctx, path, strconv.FormatInt(activityId, 10), format)
	if err != nil {
		span.SetStatus(codes.Error, "download failed")
		return nil, err
	}

	if format == FormatOriginal && strings.HasPrefix(contentType, "application/json") {
		file.Data.Close()
		path = fmt.Sprintf(activityExportPath, activityId, FormatGPX)
		file, _, err = c.download(ctx, path, strconv.FormatInt(activityId, 10), FormatGPX)
		if err != nil {
			span.SetStatus(codes.Error, "gpx fallback download failed")
			return nil, err
		}
	}
	return file, nil
}

// ExportRoute downloads a route's data file. Routes have no original
// upload, so FormatOriginal maps to GPX.
func (c *Client) ExportRoute(ctx context.Context, routeId int64, format DataFormat) (*ExportFile, error) {
	ctx, span := tracer.Start(ctx, "client:ExportRoute")
	defer span.End()

	if format == "" || format == FormatOriginal {
		format = FormatGPX
	}
	if !format.valid() {
		return nil, fmt.Errorf("invalid data format %q", format)
	}

	path := fmt.Sprintf(routeExportPath, routeId, format)
	file, _, err := c.download(ctx, path, strconv.FormatInt(routeId, 10), format)
	if err != nil {
		span.SetStatus(codes.Error, "download failed")
		return nil, err
	}
	return file, nil
}

// download streams a file endpoint without buffering the body, pulling
// the suggested filename out of the content-disposition header.
func (c *Client) download(ctx context.Context, path, fallbackName string, format DataFormat) (*ExportFile, string, error) {
	req := c.session.Http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	res, err := c.session.Do(req, http.MethodGet, path)
	if err != nil {
		return nil, "", err
	}

	if res.StatusCode() == http.StatusNotFound {
		res.RawBody().Close()
		return nil, "", ErrNotFound
	}
	if res.StatusCode() != http.StatusOK {
		res.RawBody().Close()
		return nil, "", requestError(res.StatusCode(), res.Request.URL)
	}
	// exporting a manual activity bounces back to the activity page
	// instead of erroring
	if finalPath := res.RawResponse.Request.URL.Path; !strings.HasSuffix(finalPath, path) {
		res.RawBody().Close()
		return nil, "", requestError(res.StatusCode(), res.RawResponse.Request.URL.String())
	}

	filename := filenameFromHeader(res.Header().Get("content-disposition"))
	if filename == "" {
		filename = fallbackName
	}
	// the site strips periods from names it generates, so a name without
	// an extension gets one matching the format
	if !strings.Contains(filename, ".") {
		ext := string(format)
		if format == FormatOriginal {
			ext = "dat"
		}
		filename = filename + "." + ext
	}

	return &ExportFile{
		Filename: filename,
		Data:     res.RawBody(),
	}, res.Header().Get("content-type"), nil
}

func filenameFromHeader(contentDisposition string) string {
	if contentDisposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// DeleteActivity deletes an activity. Success is signalled by a redirect
// to the training page.
func (c *Client) DeleteActivity(ctx context.Context, activityId int64) error {
	ctx, span := tracer.Start(ctx, "client:DeleteActivity")
	defer span.End()

	param, token, err := c.session.Csrf(ctx)
	if err != nil {
		return err
	}

	req := c.session.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"_method": "delete",
			param:     token,
		})
	res, err := c.session.Do(req, http.MethodPost, fmt.Sprintf(activityPath, activityId))
	if err != nil {
		span.SetStatus(codes.Error, "delete request failed")
		return err
	}

	if res.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if !strings.HasSuffix(res.RawResponse.Request.URL.Path, trainingPagePath) {
		span.SetStatus(codes.Error, "delete was not acknowledged")
		return requestError(res.StatusCode(), res.Request.URL)
	}
	return nil
}
