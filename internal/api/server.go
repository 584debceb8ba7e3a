// Package api exposes the conversion pipeline as a small REST service.
package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/seastrand/hexcat/internal/convert"
	"github.com/seastrand/hexcat/pkg/memory"
)

type Server struct {
	limitBytes uint64
}

func NewServer() *Server {
	return &Server{limitBytes: convert.DefaultLimitBytes}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/convert", s.handleConvert)
	e.GET("/v1/formats", s.handleFormats)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleConvert(c *echo.Context) error {
	req, err := decodeJSON[ConvertRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	inputs := make([]convert.Input, 0, len(req.Inputs))
	for i, in := range req.Inputs {
		data, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return writeError(c, http.StatusBadRequest, "invalid_request_error",
				fmt.Sprintf("inputs[%d]: invalid base64 data", i), fmt.Sprintf("inputs[%d].data", i), "")
		}
		name := in.Name
		if name == "" {
			name = fmt.Sprintf("inputs[%d]", i)
		}
		input := convert.Input{Name: name, Data: data}
		if in.Address != nil {
			input.Offset = *in.Address
			input.Relocate = true
		}
		inputs = append(inputs, input)
	}

	format, err := parseFormat(req.OutputFormat)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error",
			err.Error(), "output_format", "")
	}

	limit := s.limitBytes
	if req.LimitMegabytes != 0 {
		limit = req.LimitMegabytes * 1024 * 1024
	}
	img, warnings, err := convert.Run(inputs, convert.Options{
		OverwriteData: req.Overwrite,
		LastStartWins: req.OverwriteStart,
		Fill:          req.Fill,
		Keep:          req.Keep,
		Remove:        req.Remove,
		WriteData:     req.WriteData,
		WriteValue:    req.WriteValue,
		LimitBytes:    limit,
	})
	if err != nil {
		return writeConvertError(c, err)
	}
	if req.StartAddress != nil {
		img.SetStartAddress(*req.StartAddress)
	}
	if req.ExcludeStartAddress {
		img.ClearStartAddress()
	}

	bytesPerRecord := req.BytesPerRecord
	if bytesPerRecord <= 0 {
		bytesPerRecord = memory.DefaultBytesPerRecord
	}
	var buf bytes.Buffer
	switch format {
	case memory.FormatBinary:
		err = img.WriteBinary(&buf)
	case memory.FormatSRecord:
		err = img.WriteSRecord(&buf, memory.SRecordOptions{BytesPerRecord: bytesPerRecord})
	case memory.FormatSRecCount:
		err = img.WriteSRecord(&buf, memory.SRecordOptions{BytesPerRecord: bytesPerRecord, RecordCount: true})
	case memory.FormatIntelHex:
		err = img.WriteIntelHex(&buf, bytesPerRecord)
	default:
		err = img.WriteHexDump(&buf)
	}
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}

	resp := ConvertResponse{
		ID:       newConversionID(),
		Object:   "conversion",
		Format:   string(format),
		Warnings: warnings,
		Stats:    imageStats(img),
	}
	if format == memory.FormatBinary {
		resp.Output = base64.StdEncoding.EncodeToString(buf.Bytes())
		resp.Binary = true
	} else {
		resp.Output = buf.String()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFormats(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data": []FormatInfo{
			{
				Name:        string(memory.FormatBinary),
				Description: "raw binary, gaps between segments dropped",
				Extensions:  []string{"bin", "dat", "raw"},
			},
			{
				Name:        string(memory.FormatSRecord),
				Description: "Motorola S-record",
				Extensions:  []string{"srec", "s19", "s28", "s37", "mot"},
			},
			{
				Name:        string(memory.FormatSRecCount),
				Description: "Motorola S-record with an S5/S6 record count",
			},
			{
				Name:        string(memory.FormatIntelHex),
				Description: "Intel Hex",
				Extensions:  []string{"hex", "ihex", "ihx", "mcs"},
			},
			{
				Name:        string(memory.FormatHexDump),
				Description: "human-readable hex dump",
			},
		},
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func parseFormat(name string) (memory.Format, error) {
	switch memory.Format(name) {
	case memory.FormatBinary, memory.FormatSRecord, memory.FormatSRecCount,
		memory.FormatIntelHex, memory.FormatHexDump:
		return memory.Format(name), nil
	case "":
		return memory.FormatHexDump, nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

// writeConvertError maps pipeline errors onto API error types so
// clients can tell bad input content from bad request options.
func writeConvertError(c *echo.Context, err error) error {
	var (
		content  *memory.ContentError
		collide  *memory.CollisionError
		conflict *memory.StartConflictError
		limit    *convert.SpanLimitError
	)
	switch {
	case errors.As(err, &content):
		return writeError(c, http.StatusUnprocessableEntity, "content_error", content.Error(), "", "")
	case errors.As(err, &collide):
		return writeError(c, http.StatusConflict, "collision_error", collide.Error(), "", "")
	case errors.As(err, &conflict):
		return writeError(c, http.StatusConflict, "collision_error", conflict.Error(), "", "")
	case errors.As(err, &limit):
		return writeError(c, http.StatusUnprocessableEntity, "limit_error", limit.Error(), "", "")
	default:
		return writeBadRequest(c, err.Error())
	}
}

func imageStats(img *memory.Image) Stats {
	stats := Stats{
		Segments: img.Segments().Len(),
		Span:     img.Segments().Span(),
		Lo:       img.Segments().Lo(),
		Hi:       img.Segments().Hi(),
	}
	for _, seg := range img.Segments().All() {
		stats.Bytes += uint64(seg.Size())
	}
	if start, ok := img.StartAddress(); ok {
		stats.StartAddress = &start
	}
	return stats
}
