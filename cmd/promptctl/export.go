package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"promptsmith/internal/domain"
	"promptsmith/pkg/zip"
)

func newExportCmd(st *cliState) *cobra.Command {
	var (
		out      string
		filter   domain.BundleFilter
		markUsed bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored bundles to a zip, one folder per bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundles, err := st.services.Store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(bundles) == 0 {
				return fmt.Errorf("no bundles to export")
			}
			assets, err := bundleAssets(bundles)
			if err != nil {
				return err
			}
			data, err := zip.ArchiveAssets(assets)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			if markUsed {
				for _, b := range bundles {
					if _, err := st.services.Store.SetUsed(cmd.Context(), b.ID, true); err != nil {
						return err
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d bundles to %s\n", len(bundles), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "bundles.zip", "archive path")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "l", 0, "maximum bundles to export (0 for all)")
	cmd.Flags().BoolVar(&filter.UnusedOnly, "unused", true, "only bundles not yet marked used")
	cmd.Flags().BoolVar(&markUsed, "mark-used", false, "mark exported bundles as used")
	return cmd
}

func bundleAssets(bundles []domain.PromptBundle) ([]zip.Asset, error) {
	assets := make([]zip.Asset, 0, len(bundles)*4)
	for _, b := range bundles {
		raw, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode bundle %s: %w", b.ID, err)
		}
		files := []struct {
			name string
			data string
		}{
			{"image_prompt.txt", b.ImagePrompt.FinalPrompt},
			{"negative_prompt.txt", b.ImagePrompt.NegativePrompt},
			{"video_prompt.txt", b.VideoPrompt.Line},
		}
		for _, f := range files {
			assets = append(assets, zip.Asset{Filename: path.Join(b.ID, f.name), Data: []byte(f.data + "\n"), Modified: b.CreatedAt})
		}
		assets = append(assets, zip.Asset{Filename: path.Join(b.ID, "bundle.json"), Data: raw, Modified: b.CreatedAt})
	}
	return assets, nil
}
