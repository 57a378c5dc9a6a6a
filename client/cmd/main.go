package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"pdfcrop/client"
	"pdfcrop/config"

	"github.com/urfave/cli/v2"
)

var opts struct {
	server   string
	topCm    string
	bottomCm string
	outDir   string
}

func main() {
	config.LoadEnv()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app := &cli.App{
		Name:      "pdfcrop",
		HelpName:  "pdfcrop",
		Usage:     "Crop headers and footers from a PDF and download the extracted sections",
		ArgsUsage: "<file.pdf>",
		Action:    submit,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Usage:       "Base URL of the processing server",
				Value:       "http://localhost:8080",
				EnvVars:     []string{"PDFCROP_SERVER"},
				Destination: &opts.server,
			},
			&cli.StringFlag{
				Name:        "top",
				Usage:       "Height to remove from the top of each page, in cm, or auto to detect it",
				Value:       client.DefaultMarginCm,
				Destination: &opts.topCm,
			},
			&cli.StringFlag{
				Name:        "bottom",
				Usage:       "Height to remove from the bottom of each page, in cm, or auto to detect it",
				Value:       client.DefaultMarginCm,
				Destination: &opts.bottomCm,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "Directory to save processed_output.zip into",
				Value:       ".",
				EnvVars:     []string{"PDFCROP_OUT_DIR"},
				Destination: &opts.outDir,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func submit(cc *cli.Context) error {
	form := client.NewForm()
	form.SetTopMarginCm(opts.topCm)
	form.SetBottomMarginCm(opts.bottomCm)
	if cc.Args().Present() {
		file, err := client.PickPDF(cc.Args().First())
		if err != nil {
			return err
		}
		form.SetFile(file)
	}

	ctx, stop := signal.NotifyContext(cc.Context, os.Interrupt)
	defer stop()

	c := client.NewController(opts.server, form, client.DirDownloader{Dir: opts.outDir})
	outcome := awaitOutcome(ctx, c, os.Stderr)
	switch {
	case outcome.Skipped:
		return fmt.Errorf("no file selected")
	case outcome.Err != nil:
		return outcome.Err
	}

	fmt.Printf("saved %s (%d bytes)\n", outcome.Path, outcome.Size)
	return nil
}

// awaitOutcome starts a submission and waits for it. A form with a file
// always sends a request, so the in-flight label is written before waiting
// and a fast reply cannot skip it.
func awaitOutcome(ctx context.Context, c *client.Controller, w io.Writer) client.Outcome {
	if c.Form().Snapshot().File != nil {
		fmt.Fprintln(w, client.LabelInFlight)
	}
	return <-c.Start(ctx)
}
