package commands

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// NewLocationsCommand creates the locations command.
func NewLocationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "locations",
		Aliases: []string{"locs"},
		Short:   "List locations",
		Long:    "List the space booking locations of the LibCal site",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &libcal.LocationsParams{
				AdminOnly: boolFlag(cmd, "admin-only"),
				Details:   boolFlag(cmd, "details"),
				Cache:     cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				locations, err := client.Space().Locations(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), locations, func(w io.Writer) error {
					table := newTable(w, "ID", "Name", "Public", "Form")
					for _, location := range locations {
						_ = table.Append(strconv.Itoa(location.LID), location.Name, check(location.Public), num(location.FormID))
					}

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().Bool("admin-only", false, "include admin only locations")
	cmd.Flags().Bool("details", false, "include terms and form details")

	return cmd
}

// NewCategoriesCommand creates the categories command.
func NewCategoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories LOCATION_IDS",
		Short: "List the categories of locations",
		Long:  "List the space categories of one or more comma separated locations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[0])
			if err != nil {
				return err
			}

			params := &libcal.CategoriesParams{
				IDs:       ids,
				AdminOnly: boolFlag(cmd, "admin-only"),
				Details:   boolFlag(cmd, "details"),
				Cache:     cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				locations, err := client.Space().Categories(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), locations, func(w io.Writer) error {
					table := newTable(w, "Location", "Category ID", "Name", "Form", "Public", "Items")
					for _, location := range locations {
						for _, category := range location.Categories {
							_ = table.Append(num(location.LID), strconv.Itoa(category.CID), str(category.Name),
								strconv.Itoa(category.FormID), check(category.Public), strconv.Itoa(len(category.Items)))
						}
					}

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().Bool("admin-only", false, "include admin only categories")
	cmd.Flags().Bool("details", false, "include category details")

	return cmd
}

// NewCategoryCommand creates the category command.
func NewCategoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category CATEGORY_IDS",
		Short: "Show categories and their items",
		Long:  "Show one or more comma separated categories with the items they contain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[0])
			if err != nil {
				return err
			}

			params := &libcal.CategoryParams{
				IDs:          ids,
				Availability: stringFlag(cmd, "availability"),
				Details:      boolFlag(cmd, "details"),
				Cache:        cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				categories, err := client.Space().Category(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), categories, func(w io.Writer) error {
					table := newTable(w, "Category ID", "Item ID", "Item")
					for _, category := range categories {
						for _, item := range category.Items {
							_ = table.Append(strconv.Itoa(category.CID), strconv.Itoa(item.ID), str(item.Name))
						}
					}

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().String("availability", "", "availability date, date range (from,to) or next")
	cmd.Flags().Bool("details", false, "include item details")

	return cmd
}

// NewNicknameCommand creates the nickname command.
func NewNicknameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nickname CATEGORY_IDS",
		Short: "Show public booking nicknames",
		Long:  "Show the public nicknames of bookings in one or more comma separated categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[0])
			if err != nil {
				return err
			}

			params := &libcal.NicknameParams{
				IDs:   ids,
				Date:  stringFlag(cmd, "date"),
				Cache: cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				results, err := client.Space().Nickname(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), results, func(w io.Writer) error {
					table := newTable(w, "Space", "Nickname", "Start", "End", "Booking ID")
					for _, result := range results {
						for _, category := range result.Categories {
							for _, space := range category.Spaces {
								for _, booking := range space.Bookings {
									_ = table.Append(space.Name, booking.Nickname, formatTime(booking.Start),
										formatTime(booking.End), booking.BookingID)
								}
							}
						}
					}

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().String("date", "", "date to show (YYYY-MM-DD), defaults to today")

	return cmd
}
