package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/qrscan/qrscan"
	"github.com/qrscan/qrscan/binarizer"
	"github.com/qrscan/qrscan/charset"
	"github.com/qrscan/qrscan/internal/config"

	_ "github.com/qrscan/qrscan/qrcode"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	scanTryHarder bool
	scanPure      bool
	scanJSON      bool
	scanFormat    string
	scanStrict    bool
	scanWithInfo  bool
	scanCharset   string
)

var scanCmd = &cobra.Command{
	Use:   "scan <image-file> [image-file...]",
	Short: "Decode QR codes from one or more image files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		exitCode := 0
		for _, path := range args {
			result, err := scanFile(path, cfg)
			if err != nil {
				slog.Error("scan failed", slog.String("file", path), slog.Any("error", err))
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: error: %v\n", path, err)
				exitCode = 1
				continue
			}
			printResult(cmd, path, result, len(args) > 1)
		}
		if exitCode != 0 {
			os.Exit(exitCode)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanTryHarder, "try-harder", false, "set DecodeOptions.TryHarder (read only by the multi-symbol reader, not by scan's single-symbol decode)")
	scanCmd.Flags().BoolVar(&scanPure, "pure", false, "hint that the image is a clean QR render with minimal border")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "emit JSON output (shorthand for --format json)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "text", "output format: text, json, or yaml")
	scanCmd.Flags().BoolVar(&scanStrict, "strict", false, "abort on unsupported mode segments instead of returning a partial decode")
	scanCmd.Flags().BoolVar(&scanWithInfo, "info", false, "include version, EC level, and error-correction diagnostics")
	scanCmd.Flags().StringVar(&scanCharset, "charset", "", "override byte-mode character set detection")
}

func scanFile(path string, cfg *config.Config) (*qrscan.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	source := qrscan.NewImageLuminanceSource(img)
	characterSet := scanCharset
	if characterSet == "" {
		characterSet = cfg.Decode.CharacterSet
	}
	opts := &qrscan.DecodeOptions{
		TryHarder:      scanTryHarder || cfg.Detect.TryHarder,
		PureBarcode:    scanPure,
		StrictMode:     scanStrict || cfg.Decode.StrictMode,
		CharacterSet:   characterSet,
		WithInfo:       scanWithInfo,
		RatioTolerance: cfg.Detect.RatioTolerance,
	}

	reader := qrscan.NewMultiFormatReader()
	bitmap := qrscan.NewBinaryBitmap(binarizer.NewHybrid(source, cfg.Prepare.BlockSize, cfg.Prepare.BlockWindow))
	result, err := reader.Decode(bitmap, opts)
	if err == nil {
		return result, nil
	}

	// Retry with the simpler global-histogram binarizer, which sometimes
	// succeeds on clean renders where Hybrid's local thresholding does not.
	bitmap = qrscan.NewBinaryBitmap(binarizer.NewGlobalHistogram(source))
	return reader.Decode(bitmap, opts)
}

func printResult(cmd *cobra.Command, path string, result *qrscan.Result, multi bool) {
	format := scanFormat
	if scanJSON {
		format = "json"
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		_ = enc.Encode(scanResultPayload(path, result))
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		_ = enc.Encode(scanResultPayload(path, result))
		_ = enc.Close()
	default:
		if multi {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ", path)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", result.Format, result.Text)
	}
}

// scanResultPayload builds the structured representation of a scan result
// shared by --format json and --format yaml.
func scanResultPayload(path string, result *qrscan.Result) map[string]interface{} {
	payload := map[string]interface{}{
		"file":   path,
		"text":   result.Text,
		"format": result.Format.String(),
	}
	if info, ok := result.Metadata[qrscan.MetadataOther].(qrscan.QRInfo); ok {
		payload["info"] = info
	}
	if segs, ok := result.Metadata[qrscan.MetadataByteSegments].([][]byte); ok && scanCharset != "" {
		decoded := make([]string, len(segs))
		for i, seg := range segs {
			decoded[i] = charset.DecodeBytes(seg, scanCharset)
		}
		payload["byte_segments_decoded"] = decoded
	}
	return payload
}
