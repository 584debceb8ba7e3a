package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/seastrand/hexcat/internal/memfile"
	"github.com/seastrand/hexcat/pkg/memory"
)

type inspectSegment struct {
	Addr uint32 `json:"addr"`
	End  uint64 `json:"end"`
	Size int    `json:"size"`
}

type inspectReport struct {
	File         string           `json:"file"`
	FileSize     uint64           `json:"file_size"`
	Header       string           `json:"header,omitempty"`
	StartAddress *uint32          `json:"start_address,omitempty"`
	Lo           uint64           `json:"lo"`
	Hi           uint64           `json:"hi"`
	Span         uint64           `json:"span"`
	Bytes        uint64           `json:"bytes"`
	Segments     []inspectSegment `json:"segments"`
}

func inspectCmd() *cli.Command {
	var (
		asJSON    bool
		overwrite bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the segment map of a hex or binary file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit the report as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "overwrite-data", Aliases: []string{"d"}, Usage: "allow overlapping records to overwrite", Destination: &overwrite},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return cli.Exit("error: inspect takes exactly one file", 1)
			}
			path := c.Args().First()

			f, err := memfile.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %q: %v", path, err), 1)
			}
			defer func() { _ = f.Close() }()

			img, err := memory.Decode(f.Data, overwrite)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			report := buildReport(path, uint64(len(f.Data)), img)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}
}

func buildReport(path string, fileSize uint64, img *memory.Image) inspectReport {
	report := inspectReport{
		File:     path,
		FileSize: fileSize,
		Header:   string(img.Header()),
		Lo:       img.Segments().Lo(),
		Hi:       img.Segments().Hi(),
		Span:     img.Segments().Span(),
	}
	if start, ok := img.StartAddress(); ok {
		report.StartAddress = &start
	}
	for _, seg := range img.Segments().All() {
		report.Bytes += uint64(seg.Size())
		report.Segments = append(report.Segments, inspectSegment{
			Addr: seg.Addr(),
			End:  seg.End(),
			Size: seg.Size(),
		})
	}
	return report
}

func printReport(r inspectReport) {
	section("Image")
	row("file", r.File)
	row("file_size", formatBytes(r.FileSize))
	row("header", r.Header)
	if r.StartAddress != nil {
		row("start_address", fmt.Sprintf("0x%08x", *r.StartAddress))
	}
	if len(r.Segments) == 0 {
		row("segments", "none")
		return
	}
	row("range", fmt.Sprintf("0x%08x-0x%08x", r.Lo, r.Hi))
	row("span", formatBytes(r.Span))
	row("data", formatBytes(r.Bytes))

	section("Segments")
	for _, seg := range r.Segments {
		fmt.Printf("0x%08x-0x%08x  %s\n", seg.Addr, seg.End, formatBytes(uint64(seg.Size)))
	}
}

func section(title string) {
	line := strings.Repeat("-", len(title)+8)
	fmt.Printf("\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-16s %s\n", label+":", value)
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
