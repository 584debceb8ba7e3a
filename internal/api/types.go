package api

// ConvertRequest is the request body for POST /v1/convert. Input file
// contents travel base64-encoded; transformation options mirror the
// command-line flags.
type ConvertRequest struct {
	Inputs []ConvertInput `json:"inputs,omitempty"`

	OutputFormat   string `json:"output_format,omitempty"`
	BytesPerRecord int    `json:"bytes_per_record,omitempty"`

	Overwrite           bool     `json:"overwrite,omitempty"`
	OverwriteStart      bool     `json:"overwrite_start_address,omitempty"`
	Fill                string   `json:"fill,omitempty"`
	Keep                []string `json:"keep,omitempty"`
	Remove              []string `json:"remove,omitempty"`
	WriteData           []string `json:"write_data,omitempty"`
	WriteValue          []string `json:"write_value,omitempty"`
	LimitMegabytes      uint64   `json:"limit_megabytes,omitempty"`
	StartAddress        *uint32  `json:"start_address,omitempty"`
	ExcludeStartAddress bool     `json:"exclude_start_address,omitempty"`
}

// ConvertInput is one input file: a name (drives format detection error
// reporting only; content detection is sniffed), base64 data, and an
// optional relocation address.
type ConvertInput struct {
	Name    string  `json:"name,omitempty"`
	Data    string  `json:"data"`
	Address *uint32 `json:"address,omitempty"`
}

// ConvertResponse is the reply for a successful conversion.
type ConvertResponse struct {
	ID       string   `json:"id"`
	Object   string   `json:"object"`
	Format   string   `json:"format"`
	Output   string   `json:"output"`
	Binary   bool     `json:"binary"`
	Warnings []string `json:"warnings,omitempty"`
	Stats    Stats    `json:"stats"`
}

// Stats summarizes the converted image.
type Stats struct {
	Segments     int     `json:"segments"`
	Bytes        uint64  `json:"bytes"`
	Span         uint64  `json:"span"`
	Lo           uint64  `json:"lo"`
	Hi           uint64  `json:"hi"`
	StartAddress *uint32 `json:"start_address,omitempty"`
}

// FormatInfo describes one supported output format for GET /v1/formats.
type FormatInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Extensions  []string `json:"extensions,omitempty"`
}

// ResponseError is the error payload wrapped under an "error" key.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
