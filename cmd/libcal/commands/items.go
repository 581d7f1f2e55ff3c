package commands

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

func appendItemRows(table interface{ Append(...interface{}) error }, items []libcal.Item) {
	for _, item := range items {
		_ = table.Append(strconv.Itoa(item.ID), str(item.Name), num(item.Capacity), str(item.ZoneName),
			checkPtr(item.IsAccessible), checkPtr(item.IsPowered), strconv.Itoa(len(item.Availability)))
	}
}

// NewItemsCommand creates the items command.
func NewItemsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items LOCATION_ID",
		Short: "List the items of a location",
		Long:  "List the bookable spaces of a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locationID, err := parseID(args[0])
			if err != nil {
				return err
			}

			params := &libcal.ItemsParams{
				LocationID:     locationID,
				CategoryID:     intFlag(cmd, "category"),
				ZoneID:         intFlag(cmd, "zone"),
				AccessibleOnly: boolFlag(cmd, "accessible-only"),
				Bookable:       boolFlag(cmd, "bookable"),
				Powered:        boolFlag(cmd, "powered"),
				Availability:   stringFlag(cmd, "availability"),
				PageIndex:      intFlag(cmd, "page-index"),
				PageSize:       intFlag(cmd, "page-size"),
				Visibility:     stringFlag(cmd, "visibility"),
				Cache:          cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				items, err := client.Space().Items(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), items, func(w io.Writer) error {
					table := newTable(w, "ID", "Name", "Capacity", "Zone", "Accessible", "Powered", "Slots")
					appendItemRows(table, items)

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().Int("category", 0, "only items of this category")
	cmd.Flags().Int("zone", 0, "only items of this zone")
	cmd.Flags().Bool("accessible-only", false, "only accessible items")
	cmd.Flags().Bool("bookable", false, "only bookable items")
	cmd.Flags().Bool("powered", false, "only powered items")
	cmd.Flags().String("availability", "", "availability date, date range (from,to) or next")
	cmd.Flags().Int("page-index", 0, "page to fetch, starting at 0")
	cmd.Flags().Int("page-size", 0, "items per page (1-100)")
	cmd.Flags().String("visibility", "", "public, private or admin_only")

	return cmd
}

// NewItemCommand creates the item command.
func NewItemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item ITEM_IDS",
		Short: "Show items",
		Long:  "Show one or more comma separated items and their availability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[0])
			if err != nil {
				return err
			}

			params := &libcal.ItemParams{
				IDs:          ids,
				Availability: stringFlag(cmd, "availability"),
				Cache:        cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				items, err := client.Space().Item(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), items, func(w io.Writer) error {
					table := newTable(w, "ID", "Name", "Capacity", "Zone", "Accessible", "Powered", "Slots")
					appendItemRows(table, items)

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().String("availability", "", "availability date, date range (from,to) or next")

	return cmd
}

func appendSeatRows(table interface{ Append(...interface{}) error }, seats []libcal.Seat) {
	for _, seat := range seats {
		_ = table.Append(strconv.Itoa(seat.ID), seat.Name, seat.Status, check(seat.IsAccessible),
			check(seat.IsPowered), strconv.Itoa(len(seat.Availability)))
	}
}

// NewSeatsCommand creates the seats command.
func NewSeatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seats LOCATION_ID",
		Short: "List the seats of a location",
		Long:  "List the bookable seats of a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locationID, err := parseID(args[0])
			if err != nil {
				return err
			}

			params := &libcal.SeatsParams{
				LocationID:     locationID,
				Availability:   stringFlag(cmd, "availability"),
				CategoryID:     intFlag(cmd, "category"),
				ZoneID:         intFlag(cmd, "zone"),
				AccessibleOnly: boolFlag(cmd, "accessible-only"),
				Powered:        boolFlag(cmd, "powered"),
				PageIndex:      intFlag(cmd, "page-index"),
				PageSize:       intFlag(cmd, "page-size"),
				Cache:          cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				seats, err := client.Space().Seats(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), seats, func(w io.Writer) error {
					table := newTable(w, "ID", "Name", "Status", "Accessible", "Powered", "Slots")
					appendSeatRows(table, seats)

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().String("availability", "", "availability date, date range (from,to) or next")
	cmd.Flags().Int("category", 0, "only seats of this category")
	cmd.Flags().Int("zone", 0, "only seats of this zone")
	cmd.Flags().Bool("accessible-only", false, "only accessible seats")
	cmd.Flags().Bool("powered", false, "only powered seats")
	cmd.Flags().Int("page-index", 0, "page to fetch, starting at 0")
	cmd.Flags().Int("page-size", 0, "seats per page (1-100)")

	return cmd
}

// NewSeatCommand creates the seat command.
func NewSeatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seat SEAT_ID",
		Short: "Show a seat",
		Long:  "Show a seat and its availability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seatID, err := parseID(args[0])
			if err != nil {
				return err
			}

			params := &libcal.SeatParams{
				ID:           seatID,
				Availability: stringFlag(cmd, "availability"),
				Cache:        cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				seat, err := client.Space().Seat(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), seat, func(w io.Writer) error {
					table := newTable(w, "ID", "Name", "Status", "Accessible", "Powered", "Slots")
					appendSeatRows(table, []libcal.Seat{*seat})

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().String("availability", "", "availability date or date range (from,to)")

	return cmd
}

func appendZoneRows(table interface{ Append(...interface{}) error }, zones []libcal.Zone) {
	for _, zone := range zones {
		_ = table.Append(strconv.Itoa(zone.ID), zone.Name, str(zone.Description), strconv.Itoa(len(zone.ItemIDs)))
	}
}

// NewZonesCommand creates the zones command.
func NewZonesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zones LOCATION_ID",
		Short: "List the zones of a location",
		Long:  "List the zones of a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locationID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				zones, err := client.Space().Zones(ctx, &libcal.ZonesParams{LocationID: locationID})
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), zones, func(w io.Writer) error {
					table := newTable(w, "ID", "Name", "Description", "Items")
					appendZoneRows(table, zones)

					return renderTable(table)
				})
			})
		},
	}
}

// NewZoneCommand creates the zone command.
func NewZoneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zone ZONE_ID",
		Short: "Show a zone",
		Long:  "Show a zone and the items it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zoneID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				zone, err := client.Space().Zone(ctx, &libcal.ZoneParams{ID: zoneID, Cache: cacheOptions()})
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), zone, func(w io.Writer) error {
					table := newTable(w, "ID", "Name", "Description", "Items")
					appendZoneRows(table, []libcal.Zone{*zone})

					return renderTable(table)
				})
			})
		},
	}
}

// NewUtilizationCommand creates the utilization command.
func NewUtilizationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "utilization LOCATION_ID",
		Short: "Show the utilization of a location",
		Long:  "Show current seat and space occupancy of a location, per zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locationID, err := parseID(args[0])
			if err != nil {
				return err
			}

			params := &libcal.UtilizationParams{
				LocationID: locationID,
				CategoryID: intFlag(cmd, "category"),
				ZoneID:     intFlag(cmd, "zone"),
				Cache:      cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				utilization, err := client.Space().Utilization(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), utilization, func(w io.Writer) error {
					table := newTable(w, "Zone", "Item", "Occupancy", "Capacity", "Max")
					_ = table.Append("seats", "", strconv.Itoa(utilization.SeatSummary.Active),
						strconv.Itoa(utilization.SeatSummary.BookableCount), strconv.Itoa(utilization.SeatSummary.TotalCount))
					_ = table.Append("spaces", "", strconv.Itoa(utilization.SpaceSummary.Active),
						strconv.Itoa(utilization.SpaceSummary.BookableCount), strconv.Itoa(utilization.SpaceSummary.TotalCount))

					for _, zone := range utilization.Zones {
						for _, item := range zone.Items {
							_ = table.Append(zone.Name, item.Name, strconv.Itoa(item.CurrentOccupancy),
								strconv.Itoa(item.CurrentCapacity), strconv.Itoa(item.MaxCapacity))
						}
					}

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().Int("category", 0, "only this category")
	cmd.Flags().Int("zone", 0, "only this zone")

	return cmd
}
