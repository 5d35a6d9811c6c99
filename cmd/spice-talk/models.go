package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-spice-must-talk/internal/cli"
	"github.com/Veraticus/the-spice-must-talk/internal/config"
)

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Find and choose the local language model",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List model files found in the configured directories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			locator, _ := newModels(settings, slog.Default())

			out := cmd.OutOrStdout()
			files := locator.List()
			if len(files) == 0 {
				_, err := fmt.Fprintln(out, cli.FormatWarning("No model files found. Add a .gguf file to one of model.dirs or the cache directory."))
				return err
			}
			for _, f := range files {
				marker := "  "
				if f.Name == settings.Model.Preferred {
					marker = cli.SuccessIcon + " "
				}
				_, _ = fmt.Fprintf(out, "%s%-40s %6d MB  %s\n", marker, f.Name, f.SizeMB(), cli.SubtleStyle.Render(f.Path))
			}
			return nil
		},
	}

	which := &cobra.Command{
		Use:   "which",
		Short: "Show which model file the preferred model resolves to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if settings.Model.Preferred == "" {
				_, err := fmt.Fprintln(out, cli.FormatWarning("No preferred model configured; answers are computed without a model."))
				return err
			}

			locator, _ := newModels(settings, slog.Default())
			file, err := locator.Locate(settings.Model.Preferred)
			if err != nil {
				_, _ = fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s could not be found", settings.Model.Preferred)))
				return err
			}
			_, err = fmt.Fprintf(out, "%s\n%s\n", cli.FormatSuccess(file.Name), cli.SubtleStyle.Render(fmt.Sprintf("%s (%d MB)", file.Path, file.SizeMB())))
			return err
		},
	}

	use := &cobra.Command{
		Use:   "use <model>",
		Short: "Set the preferred model and save it to the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pref := config.NewPreference(viper.GetViper())
			pref.SetPreferred(args[0])
			path, err := pref.Save(defaultConfigPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Preferred model set to %s in %s", pref.Preferred(), path)))
			return err
		},
	}

	cmd.AddCommand(list, which, use)
	return cmd
}
