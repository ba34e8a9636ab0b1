package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/perftcheck/internal/corpus"
)

// ValidationResult holds corpus validation results.
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	Vectors      int      `json:"vectors"`
	Expectations int      `json:"expectations"`
	Errors       []string `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Marker string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <corpus>",
		Short: "Validate a corpus without invoking an engine",
		Long: `Parse every line of a corpus and report malformed ones, without
invoking any engine. Faster than a run for checking hand-edited vectors.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Marker, "marker", string(corpus.DefaultMarker), "depth-prefix character in the corpus")

	return cmd
}

func runValidate(opts *ValidateOptions, corpusPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if len(opts.Marker) != 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("marker %q must be a single character", opts.Marker))
	}

	f, err := os.Open(corpusPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open corpus", err)
	}
	defer f.Close()

	result, err := validateCorpus(f, opts.Marker[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read corpus", err)
	}

	formatter.VerboseLog("Checked %d vector(s) in %s", result.Vectors, corpusPath)

	if !result.Valid {
		if err := formatter.Error("PARSE_ERROR",
			fmt.Sprintf("%d malformed line(s)", len(result.Errors)), result.Errors); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "corpus has malformed lines")
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("OK: %d vector(s), %d expectation(s)", result.Vectors, result.Expectations))
}

// validateCorpus parses the whole stream, collecting per-line errors.
func validateCorpus(src io.Reader, marker byte) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}
	reader := corpus.NewReaderMarker(src, marker)

	for {
		vec, err := reader.Next()
		if err == io.EOF {
			break
		}
		var perr *corpus.ParseError
		if errors.As(err, &perr) {
			result.Valid = false
			result.Errors = append(result.Errors, perr.Error())
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Vectors++
		result.Expectations += len(vec.Expectations)
	}

	return result, nil
}
