package commands

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

func appendQuestionRows(table interface{ Append(...interface{}) error }, owner string, questions []libcal.Question) {
	for _, question := range questions {
		_ = table.Append(owner, num(question.ID), question.Label, question.Type, check(question.Required),
			strings.Join(question.Options, ", "))
	}
}

// NewFormCommand creates the form command.
func NewFormCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "form FORM_IDS",
		Short: "Show booking forms",
		Long:  "Show one or more comma separated booking forms and their fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[0])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				forms, err := client.Space().Form(ctx, &libcal.FormParams{IDs: ids, Cache: cacheOptions()})
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), forms, func(w io.Writer) error {
					table := newTable(w, "Form", "Field ID", "Label", "Type", "Required", "Options")
					for _, form := range forms {
						appendQuestionRows(table, strconv.Itoa(form.ID)+" "+form.Name, form.Fields)
					}

					return renderTable(table)
				})
			})
		},
	}
}

// NewQuestionCommand creates the question command.
func NewQuestionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "question QUESTION_IDS",
		Aliases: []string{"questions"},
		Short:   "Show booking form questions",
		Long:    "Show one or more comma separated booking form questions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[0])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				questions, err := client.Space().Question(ctx, &libcal.QuestionParams{IDs: ids})
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), questions, func(w io.Writer) error {
					table := newTable(w, "Form", "ID", "Label", "Type", "Required", "Options")
					appendQuestionRows(table, "", questions)

					return renderTable(table)
				})
			})
		},
	}
}
