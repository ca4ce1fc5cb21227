package cmd

import (
	"cmp"
	"fmt"
	"time"

	"surveyops/lib/table"
	"surveyops/services/surveysubmit"

	"github.com/spf13/cobra"
)

var submitFlags struct {
	input      string
	column     string
	skip       int
	loadDelay  time.Duration
	clickDelay time.Duration
	headless   bool
	controlURL string
}

func init() {
	flags := submitSurveysCmd.Flags()
	flags.StringVar(&submitFlags.input, "input", "", "CSV holding the survey links")
	flags.StringVar(&submitFlags.column, "column", "", "column holding the links, SurveyURL by default")
	flags.IntVar(&submitFlags.skip, "skip", 0, "leave out the first N links")
	flags.DurationVar(&submitFlags.loadDelay, "load-delay", 0, "wait after opening a link")
	flags.DurationVar(&submitFlags.clickDelay, "click-delay", 0, "wait after pressing the button")
	flags.BoolVar(&submitFlags.headless, "headless", false, "run the browser without a window")
	flags.StringVar(&submitFlags.controlURL, "control-url", "", "DevTools URL of an already running browser")
	submitSurveysCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(submitSurveysCmd)
}

var submitSurveysCmd = &cobra.Command{
	Use:   "submit-surveys",
	Short: "Opens every survey link of a CSV in a browser and presses the next button.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.SubmitSurveys
		ctx := cmd.Context()

		input, err := table.ReadCSVFile(submitFlags.input, ",")
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		links, err := surveysubmit.Links(input, cmp.Or(submitFlags.column, cfg.Column))
		if err != nil {
			return err
		}

		browserOpts := cfg.Browser
		browserOpts.ControlURL = cmp.Or(submitFlags.controlURL, browserOpts.ControlURL)
		if cmd.Flags().Changed("headless") {
			browserOpts.Headless = submitFlags.headless
		}
		browser, err := surveysubmit.LaunchRod(ctx, browserOpts)
		if err != nil {
			return err
		}
		defer browser.Close()

		opts := surveysubmit.Options{
			NextButton: cfg.NextButton,
			Skip:       submitFlags.skip,
			LoadDelay:  time.Duration(cfg.LoadDelayMs) * time.Millisecond,
			ClickDelay: time.Duration(cfg.ClickDelayMs) * time.Millisecond,
		}
		if cmd.Flags().Changed("load-delay") {
			opts.LoadDelay = submitFlags.loadDelay
		}
		if cmd.Flags().Changed("click-delay") {
			opts.ClickDelay = submitFlags.clickDelay
		}

		results, runErr := surveysubmit.NewSubmitter(tel, browser, opts).Run(ctx, links)
		err = emit(cmd, "submit_surveys", surveysubmit.ToTable(results))
		if runErr != nil {
			return runErr
		}
		return err
	},
}
