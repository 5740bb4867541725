package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/virtual-tryon/internal/bootstrap"
	"github.com/kirillkom/virtual-tryon/internal/core/domain"
	"github.com/kirillkom/virtual-tryon/internal/core/ports"
)

type runOptions struct {
	subjectPath  string
	heightCm     float64
	weightKg     float64
	garmentPath  string
	measurements string
	garmentID    int
	size         string
	feedback     bool
	outputDir    string
	timeout      time.Duration
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Upload a subject and a garment, run the try-on and optionally ask for feedback",
		Example: `  tryon run --subject me.jpg --height 175 --weight 70 --garment-id 2 --size M --feedback
  tryon run --subject me.jpg --height 175 --weight 70 --garment shirt.png --measurements "chest 104 cm"`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := global.loadConfig()
			if opts.outputDir != "" {
				cfg.ResultStoragePath = opts.outputDir
			}
			logger := newLogger(cfg)

			ctx := cmd.Context()
			app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
				Logger:      logger,
				Service:     serviceName,
				HTTPTimeout: opts.timeout,
			})
			if err != nil {
				return err
			}
			defer app.Close()

			return runSession(ctx, cmd.OutOrStdout(), app.Session, app.Results, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.subjectPath, "subject", "", "subject photo path")
	flags.Float64Var(&opts.heightCm, "height", 0, "subject height in cm")
	flags.Float64Var(&opts.weightKg, "weight", 0, "subject weight in kg")
	flags.StringVar(&opts.garmentPath, "garment", "", "garment photo path (manual garment)")
	flags.StringVar(&opts.measurements, "measurements", "", "garment measurements text (manual garment)")
	flags.IntVar(&opts.garmentID, "garment-id", 0, "catalog garment id")
	flags.StringVar(&opts.size, "size", "", "catalog garment size")
	flags.BoolVar(&opts.feedback, "feedback", false, "request fit feedback after the try-on")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "directory for the composite image (overrides RESULT_STORAGE_PATH)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request backend timeout, overrides TRYON_HTTP_TIMEOUT_SECONDS")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("height")
	_ = cmd.MarkFlagRequired("weight")
	cmd.MarkFlagsMutuallyExclusive("garment", "garment-id")
	cmd.MarkFlagsOneRequired("garment", "garment-id")
	cmd.MarkFlagsRequiredTogether("garment-id", "size")
	return cmd
}

func (o *runOptions) validate() error {
	if o.garmentPath == "" && o.garmentID <= 0 {
		return fmt.Errorf("either --garment or a positive --garment-id is required")
	}
	return nil
}

// runSession walks one session through the workflow in order and stops at
// the first failed step, reporting the session's error text.
func runSession(ctx context.Context, out io.Writer, session ports.TryOnSession, results ports.ResultImageStore, opts *runOptions) error {
	subjectPhoto, err := readPhoto(opts.subjectPath)
	if err != nil {
		return err
	}
	state, err := session.UploadSubject(ctx, domain.SubjectPhoto{
		Photo:   subjectPhoto,
		Metrics: domain.BodyMetrics{HeightCm: opts.heightCm, WeightKg: opts.weightKg},
	})
	if err != nil {
		return stepError(state, err)
	}
	fmt.Fprintf(out, "subject uploaded: %s\n", state.SubjectUpload.StoredPath)

	if opts.garmentPath != "" {
		garmentPhoto, err := readPhoto(opts.garmentPath)
		if err != nil {
			return err
		}
		state, err = session.UploadGarment(ctx, domain.ManualGarment{
			Photo:            garmentPhoto,
			MeasurementsText: opts.measurements,
		})
		if err != nil {
			return stepError(state, err)
		}
	} else {
		state, err = session.SelectCatalogGarment(ctx, opts.garmentID, opts.size)
		if err != nil {
			return stepError(state, err)
		}
	}
	fmt.Fprintf(out, "garment ready: %s (%s)\n", state.GarmentUpload.StoredPath, state.GarmentUpload.MeasurementsText)

	state, err = session.TryOn(ctx)
	if err != nil {
		return stepError(state, err)
	}
	ref := state.TryOn.ResultImagePath
	path, err := results.SaveResultImage(ctx, session.ID(), ref)
	switch {
	case err == nil:
		fmt.Fprintf(out, "try-on result saved: %s\n", path)
	case domain.IsKind(err, domain.ErrInvalidInput):
		fmt.Fprintf(out, "try-on result: %s\n", ref)
	default:
		return fmt.Errorf("save try-on result: %w", err)
	}
	if state.TryOn.Description != "" {
		fmt.Fprintf(out, "garment description: %s\n", state.TryOn.Description)
	}

	if !opts.feedback {
		return nil
	}
	state, err = session.RequestFeedback(ctx)
	if err != nil {
		return stepError(state, err)
	}
	fmt.Fprintf(out, "feedback: %s\n", state.Feedback)
	return nil
}

func readPhoto(path string) (domain.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("read photo: %w", err)
	}
	return domain.NewPhoto(path, data)
}

// stepError prefers the session's user-facing message when the step reached
// the backend.
func stepError(state domain.State, err error) error {
	if state.Error != "" {
		return fmt.Errorf("%s", state.Error)
	}
	return err
}
