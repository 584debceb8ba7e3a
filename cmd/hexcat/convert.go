package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/seastrand/hexcat/internal/convert"
	"github.com/seastrand/hexcat/internal/logger"
	"github.com/seastrand/hexcat/internal/memfile"
	"github.com/seastrand/hexcat/pkg/memory"
)

func convertCmd() *cli.Command {
	var (
		lastStart      bool
		overwriteData  bool
		fill           string
		keep           []string
		remove         []string
		writeValue     []string
		writeData      []string
		limitMB        int64
		output         string
		overwriteFile  bool
		forceBinary    bool
		forceIntelHex  bool
		forceSRecord   bool
		recordCount    bool
		bytesPerRecord int
	)

	return &cli.Command{
		ArgsUsage: "[infile[@ADDR]...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "overwrite-start-address",
				Aliases:     []string{"a"},
				Usage:       "use start address from the last input file",
				Destination: &lastStart,
			},
			&cli.BoolFlag{
				Name:        "overwrite-data",
				Aliases:     []string{"d"},
				Usage:       "allow newer overlapping data to overwrite older data",
				Destination: &overwriteData,
			},
			&cli.StringFlag{
				Name:        "fill",
				Aliases:     []string{"f"},
				Usage:       "fill unused memory with repeating (big-endian) `DATA`",
				Destination: &fill,
			},
			&cli.StringSliceFlag{
				Name:        "keep",
				Aliases:     []string{"k"},
				Usage:       "keep data in `ADDR-ADDR` and discard the rest",
				Destination: &keep,
			},
			&cli.StringSliceFlag{
				Name:        "remove",
				Aliases:     []string{"r"},
				Usage:       "remove data in `ADDR-ADDR` and keep the rest",
				Destination: &remove,
			},
			&cli.StringSliceFlag{
				Name:        "write-value",
				Aliases:     []string{"v"},
				Usage:       "write (little-endian) `VAL[@ADDR]` at ADDR or 0",
				Destination: &writeValue,
			},
			&cli.StringSliceFlag{
				Name:        "write-data",
				Aliases:     []string{"w"},
				Usage:       "write (big-endian) `DATA[@ADDR]` at ADDR or 0",
				Destination: &writeData,
			},
			&cli.Int64Flag{
				Name:        "limit",
				Aliases:     []string{"l"},
				Usage:       "set memory range limit in `MB`",
				Value:       convert.DefaultLimitBytes / (1024 * 1024),
				Destination: &limitMB,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "the `outfile` to create",
				Destination: &output,
			},
			&cli.BoolFlag{
				Name:        "overwrite",
				Usage:       "overwrite the output file if it exists",
				Destination: &overwriteFile,
			},
			&cli.BoolFlag{
				Name:        "binary",
				Aliases:     []string{"B"},
				Usage:       "force binary output (with -o option only)",
				Destination: &forceBinary,
			},
			&cli.BoolFlag{
				Name:        "ihex",
				Aliases:     []string{"I"},
				Usage:       "force Intel Hex output",
				Destination: &forceIntelHex,
			},
			&cli.BoolFlag{
				Name:        "srec",
				Aliases:     []string{"S"},
				Usage:       "force Motorola S output",
				Destination: &forceSRecord,
			},
			&cli.BoolFlag{
				Name:        "record-count",
				Aliases:     []string{"c"},
				Usage:       "generate a record count (Motorola S output only)",
				Destination: &recordCount,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "data bytes per output record",
				Value:       memory.DefaultBytesPerRecord,
				Destination: &bytesPerRecord,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)

			cfg := LoadConfig()
			applyConvertConfig(c, cfg, &limitMB, &bytesPerRecord)

			inputs, err := loadInputs(c.Args().Slice())
			if err != nil {
				return err
			}
			img, warnings, err := convert.Run(inputs, convert.Options{
				OverwriteData: overwriteData,
				LastStartWins: lastStart,
				Fill:          fill,
				Keep:          keep,
				Remove:        remove,
				WriteData:     writeData,
				WriteValue:    writeValue,
				LimitBytes:    uint64(limitMB) * 1024 * 1024,
			})
			if err != nil {
				return err
			}
			for _, w := range warnings {
				log.Warn(w)
			}

			format := resolveOutputFormat(forceSRecord, forceIntelHex, forceBinary, recordCount, output, cfg.Format)
			return writeOutput(img, output, format, overwriteFile, bytesPerRecord)
		},
	}
}

func loadInputs(tokens []string) ([]convert.Input, error) {
	inputs := make([]convert.Input, 0, len(tokens))
	for _, token := range tokens {
		name, addr, hasAddr, err := convert.SplitInputToken(token)
		if err != nil {
			return nil, err
		}
		f, err := memfile.Open(name)
		if err != nil {
			return nil, err
		}
		// The pipeline holds all inputs in memory at once, so copy out
		// of the mapping and release it straight away.
		data := make([]byte, len(f.Data))
		copy(data, f.Data)
		if err := f.Close(); err != nil {
			return nil, err
		}
		inputs = append(inputs, convert.Input{
			Name:     name,
			Data:     data,
			Offset:   addr,
			Relocate: hasAddr,
		})
	}
	return inputs, nil
}

// resolveOutputFormat picks the output format from the force flags,
// the output filename extension, a configured default, in that order.
// An empty result means "stdout hex dump".
func resolveOutputFormat(srec, ihex, binary, count bool, output, configured string) memory.Format {
	switch {
	case srec && count:
		return memory.FormatSRecCount
	case srec:
		return memory.FormatSRecord
	case ihex:
		return memory.FormatIntelHex
	case binary:
		return memory.FormatBinary
	}
	if output != "" {
		return convert.FormatFromExtension(output)
	}
	if configured != "" {
		return memory.Format(configured)
	}
	return memory.FormatHexDump
}

func writeOutput(img *memory.Image, output string, format memory.Format, overwrite bool, bytesPerRecord int) error {
	if output == "" {
		// Raw binary on a terminal is useless; downgrade to a dump.
		if format == memory.FormatBinary {
			format = memory.FormatHexDump
		}
		return encodeImage(img, os.Stdout, format, bytesPerRecord)
	}
	if !overwrite {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("%q already exists, use --overwrite to replace it", output)
		}
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := encodeImage(img, f, format, bytesPerRecord); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encodeImage(img *memory.Image, w io.Writer, format memory.Format, bytesPerRecord int) error {
	if bytesPerRecord <= 0 {
		bytesPerRecord = memory.DefaultBytesPerRecord
	}
	switch format {
	case memory.FormatBinary:
		return img.WriteBinary(w)
	case memory.FormatSRecord:
		return img.WriteSRecord(w, memory.SRecordOptions{BytesPerRecord: bytesPerRecord})
	case memory.FormatSRecCount:
		return img.WriteSRecord(w, memory.SRecordOptions{BytesPerRecord: bytesPerRecord, RecordCount: true})
	case memory.FormatIntelHex:
		return img.WriteIntelHex(w, bytesPerRecord)
	default:
		return img.WriteHexDump(w)
	}
}
