package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	wizard "github.com/WhisperLooms/grant-harness"
	"github.com/WhisperLooms/grant-harness/forms/igp"
)

func newStepsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the steps of the wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.session
			type row struct {
				ID      int    `json:"id"`
				Name    string `json:"name"`
				Title   string `json:"title"`
				Path    string `json:"path"`
				Current bool   `json:"current"`
				Saved   bool   `json:"saved"`
			}
			rows := make([]row, 0, s.seq.StepCount())
			for _, step := range s.seq.Steps() {
				path, _ := s.seq.StepPath(step.ID)
				_, saved := s.store.StepData(step.ID)
				rows = append(rows, row{
					ID:      step.ID,
					Name:    step.Name,
					Title:   step.Title,
					Path:    path,
					Current: step.ID == s.gate.Step(),
					Saved:   saved,
				})
			}
			w := a.out(cmd)
			if a.jsonOut {
				return writeJSON(w, rows)
			}
			for _, r := range rows {
				marker := " "
				if r.Current {
					marker = ">"
				}
				saved := ""
				if r.Saved {
					saved = " (saved)"
				}
				fmt.Fprintf(w, "%s %d. %s%s\n", marker, r.ID, r.Title, saved)
			}
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current step and whether it is complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := a.session.view()
			if a.jsonOut {
				return writeJSON(a.out(cmd), view)
			}
			writeStep(a.out(cmd), view)
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var traceField string
	cmd := &cobra.Command{
		Use:   "show [step]",
		Short: "Print the saved values of a step (default: the current step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.session
			w := a.out(cmd)
			if traceField != "" {
				if len(args) > 0 {
					return usagef("--trace only applies to the current step")
				}
				trace, err := s.gate.Trace(traceField)
				if err != nil {
					return err
				}
				if a.jsonOut {
					return writeJSON(w, trace)
				}
				source := trace.Source()
				if source == "" {
					source = "unset"
				}
				fmt.Fprintf(w, "%s = %s (from %s)\n", trace.Field, wizard.FormatValue(trace.Value), source)
				for _, layer := range trace.Layers {
					value := "-"
					if layer.Found {
						value = wizard.FormatValue(layer.Value)
					}
					fmt.Fprintf(w, "  %-8s %s\n", layer.Layer, value)
				}
				return nil
			}

			id := s.gate.Step()
			if len(args) > 0 {
				var err error
				if id, err = parseStepID(s.seq, args[0]); err != nil {
					return err
				}
			}
			step, err := s.seq.Step(id)
			if err != nil {
				return err
			}
			data := s.gate.Data()
			if id != s.gate.Step() {
				data, _ = s.store.StepData(id)
			}
			if a.jsonOut {
				return writeJSON(w, data)
			}
			fmt.Fprintf(w, "%d. %s\n", step.ID, step.Title)
			writeData(w, step, data)
			if s.seq.Name() == igp.Name && id == igp.StepBudget {
				writeBudgetSummary(w, igp.Summarize(data))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&traceField, "trace", "", "explain where the value of a field comes from")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate [field=value...]",
		Short: "Check the current step with optional edits, without saving",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.applyEdits(file, args); err != nil {
				return err
			}
			return a.printStatus(cmd)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file of field values")
	return cmd
}

func newSaveCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save [field=value...]",
		Short: "Apply edits to the current step and save a draft",
		Long:  "Saves the current step as entered, even if it is incomplete.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.applyEdits(file, args); err != nil {
				return err
			}
			if err := a.session.gate.SaveDraft(cmd.Context()); err != nil {
				return err
			}
			if !a.jsonOut {
				fmt.Fprintln(a.out(cmd), "Draft saved.")
			}
			return a.printStatus(cmd)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file of field values")
	return cmd
}

func newNextCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "next [field=value...]",
		Short: "Apply edits, save the current step and move to the next one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.applyEdits(file, args); err != nil {
				return err
			}
			if _, err := a.session.gate.Advance(cmd.Context()); err != nil {
				return a.blocked(cmd, err)
			}
			return a.printStatus(cmd)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file of field values")
	return cmd
}

func newBackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Return to the previous step",
		Long:  "Returns to the previous step. Edits made to the current step in this invocation are not saved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.session.gate.Retreat(cmd.Context()); err != nil {
				return err
			}
			return a.printStatus(cmd)
		},
	}
}

func newGotoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <step>",
		Short: "Jump to a step by number or name",
		Long: `Jumps to another step. Earlier steps are always reachable. Moving forward
saves each step on the way and stops at the first one that is incomplete.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseStepID(a.session.seq, args[0])
			if err != nil {
				return err
			}
			if _, err := a.session.gate.GoTo(cmd.Context(), id); err != nil {
				return a.blocked(cmd, err)
			}
			return a.printStatus(cmd)
		},
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "submit [field=value...]",
		Short: "Apply edits to the last step and submit the application",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.applyEdits(file, args); err != nil {
				return err
			}
			receipt, err := a.session.gate.Submit(cmd.Context())
			if err != nil {
				return a.blocked(cmd, err)
			}
			w := a.out(cmd)
			if a.jsonOut {
				return writeJSON(w, receipt)
			}
			fmt.Fprintln(w, receipt.Message)
			fmt.Fprintf(w, "  reference: %s\n", receipt.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file of field values")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard all saved progress and start again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.gate.Clear(cmd.Context()); err != nil {
				return err
			}
			if !a.jsonOut {
				fmt.Fprintln(a.out(cmd), "Progress cleared.")
			}
			return a.printStatus(cmd)
		},
	}
}

func (a *app) applyEdits(file string, args []string) (wizard.Result, error) {
	edits, err := collectEdits(file, a.cfg.Wizard, args)
	if err != nil {
		return wizard.Result{}, err
	}
	if len(edits) == 0 {
		return a.session.gate.Result(), nil
	}
	res, err := a.session.gate.EditAll(edits)
	var unknown *wizard.UnknownFieldError
	if errors.As(err, &unknown) {
		return res, &usageError{err: err}
	}
	return res, err
}

func (a *app) printStatus(cmd *cobra.Command) error {
	view := a.session.view()
	if a.jsonOut {
		return writeJSON(a.out(cmd), view)
	}
	writeStep(a.out(cmd), view)
	return nil
}

// blocked prints the offending step before returning err.
func (a *app) blocked(cmd *cobra.Command, err error) error {
	var blocked *wizard.BlockedError
	if !errors.As(err, &blocked) {
		return err
	}
	if a.jsonOut {
		if werr := a.printStatus(cmd); werr != nil {
			return werr
		}
		return err
	}
	writeStep(a.out(cmd), a.session.view())
	return err
}

func parseStepID(seq *wizard.Sequencer, arg string) (int, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		if !seq.Contains(id) {
			return 0, &usageError{err: &wizard.UnknownStepError{Wizard: seq.Name(), Step: id, Count: seq.StepCount()}}
		}
		return id, nil
	}
	for _, step := range seq.Steps() {
		if step.Name == arg {
			return step.ID, nil
		}
	}
	return 0, usagef("%s has no step named %q", seq.Name(), arg)
}
