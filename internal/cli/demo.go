package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
)

type demoOpts struct {
	course     string
	count      int
	completed  int
	inProgress bool
	progress   float64
	markers    []string
	output     string
}

// demoCommand creates the demo command.
func (c *CLI) demoCommand() *cobra.Command {
	opts := demoOpts{
		course:     "demo",
		count:      12,
		completed:  3,
		inProgress: true,
		progress:   40,
	}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write a synthetic course to try the other commands on",
		Long: `Write a synthetic course: the first --completed steps are done, the next
one is in progress (unless --in-progress=false) and the rest are not started.

Step ids are name-based UUIDs derived from the course name, so the same flags
always produce the same file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := demoSteps(opts)
			if err != nil {
				return err
			}
			output := opts.output
			if output == "" {
				output = opts.course + ".json"
			}
			if err := board.WriteStepsFile(steps, output); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}

			printSuccess("Wrote %d steps", len(steps.Steps))
			printFile(output)
			printNewline()
			printNextStep("Preview", "trailmap preview "+output)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.course, "course", opts.course, "course name")
	cmd.Flags().IntVar(&opts.count, "count", opts.count, "number of steps")
	cmd.Flags().IntVar(&opts.completed, "completed", opts.completed, "number of completed steps")
	cmd.Flags().BoolVar(&opts.inProgress, "in-progress", opts.inProgress, "mark the step after the completed ones as in progress")
	cmd.Flags().Float64Var(&opts.progress, "progress", opts.progress, "progress percentage of the in-progress step")
	cmd.Flags().StringSliceVar(&opts.markers, "marker", []string{"mascot.png"}, "marker image, repeatable")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, .json or .yaml (default: <course>.json)")

	return cmd
}

// demoSteps builds the synthetic course described by opts.
func demoSteps(opts demoOpts) (board.Steps, error) {
	if err := errors.ValidateCourseID(opts.course); err != nil {
		return board.Steps{}, err
	}
	if opts.count < 0 {
		return board.Steps{}, errors.New(errors.ErrCodeInvalidArgument, "count must not be negative, got %d", opts.count)
	}
	if opts.completed < 0 || opts.completed > opts.count {
		return board.Steps{}, errors.New(errors.ErrCodeInvalidArgument,
			"completed must be between 0 and count (%d), got %d", opts.count, opts.completed)
	}

	steps := make([]trail.Step, opts.count)
	for i := range steps {
		steps[i] = trail.Step{ID: demoStepID(opts.course, i), Status: trail.NotStarted}
		switch {
		case i < opts.completed:
			steps[i].Status = trail.Completed
		case i == opts.completed && opts.inProgress:
			steps[i].Status = trail.InProgress
			steps[i].Progress = opts.progress
		}
	}
	return board.FromTrail(opts.course, steps, opts.markers), nil
}

// demoStepID is stable for a given course and position.
func demoStepID(course string, i int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "trailmap:%s:%d", course, i)).String()
}
