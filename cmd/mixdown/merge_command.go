package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var extensionMIME = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var title string
	var configFile string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "merge [files or urls...]",
		Short: "Merge audio sources into one artifact",
		Long: `Merge submits the given sources to the daemon in order. Local files are
embedded in the request; http(s) entries are fetched by the daemon.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioUrls := make([]string, 0, len(args))
			for _, arg := range args {
				entry, err := referenceFor(arg)
				if err != nil {
					return err
				}
				audioUrls = append(audioUrls, entry)
			}

			payload := map[string]any{
				"audioUrls": audioUrls,
				"metadata":  map[string]string{"title": title},
			}
			if configFile != "" {
				data, err := os.ReadFile(configFile)
				if err != nil {
					return fmt.Errorf("read config file: %w", err)
				}
				payload["config"] = json.RawMessage(data)
			}

			var result struct {
				UploadedAudioURL  string `json:"uploadedAudioUrl"`
				UploadedConfigURL string `json:"uploadedConfigUrl"`
				MergedAudioURL    string `json:"mergedAudioUrl"`
				AudioID           string `json:"audioId"`
			}
			if err := ctx.doJSON("POST", "/api/merge", payload, &result); err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merged %d sources\n", len(args))
			fmt.Fprintf(out, "Audio: %s\n", result.MergedAudioURL)
			if result.UploadedConfigURL != "" {
				fmt.Fprintf(out, "Config: %s\n", result.UploadedConfigURL)
			}
			fmt.Fprintf(out, "Record: %s\n", result.AudioID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Display title for the merged artifact")
	cmd.Flags().StringVar(&configFile, "config-file", "", "JSON descriptor published alongside the audio")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the raw response as JSON")
	return cmd
}

// referenceFor converts one CLI argument into a trigger-endpoint reference:
// URLs pass through, local files are embedded as base64 data URIs.
func referenceFor(arg string) (string, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "data:") {
		return arg, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", arg, err)
	}
	mime := extensionMIME[strings.ToLower(filepath.Ext(arg))]
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
