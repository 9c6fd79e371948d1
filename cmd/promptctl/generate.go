package main

import (
	"strings"

	"github.com/spf13/cobra"

	"promptsmith/internal/domain"
)

type requestFlags struct {
	setting         string
	count           int
	seeds           []string
	bind            []string
	singleAccessory bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.setting, "setting", "s", "", "setting id from the diversity bank (required)")
	cmd.Flags().IntVarP(&f.count, "count", "n", 1, "number of bundles (1-5)")
	cmd.Flags().StringSliceVar(&f.seeds, "seed", nil, "seed words to weave into the prompt")
	cmd.Flags().StringSliceVar(&f.bind, "bind", nil, "slots to bind: scene, pose, lighting, camera, angle, accessories, wardrobe, hairstyle or all")
	cmd.Flags().BoolVar(&f.singleAccessory, "single-accessory", false, "sample one accessory instead of two")
	_ = cmd.MarkFlagRequired("setting")
}

func (f *requestFlags) request() (domain.GenerateRequest, error) {
	req := domain.GenerateRequest{
		SettingID: f.setting,
		Count:     f.count,
		SeedWords: f.seeds,
	}
	req.SingleAccessory = f.singleAccessory
	for _, name := range f.bind {
		if strings.EqualFold(strings.TrimSpace(name), "all") {
			for _, s := range domain.SlotOrder {
				req.Set(s, true)
			}
			continue
		}
		slot, err := domain.ParseSlot(name)
		if err != nil {
			return domain.GenerateRequest{}, err
		}
		req.Set(slot, true)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.GenerateRequest{}, err
	}
	return req, nil
}

func newGenerateCmd(st *cliState) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compile, validate and store prompt bundles",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			bundles, err := st.services.Controller.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"bundles": bundles})
		},
	}
	flags.register(cmd)
	return cmd
}
