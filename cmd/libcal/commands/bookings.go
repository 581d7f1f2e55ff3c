package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/libcal/internal/constants"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

func appendBookingRows(table interface{ Append(...interface{}) error }, bookings []libcal.Booking) {
	for _, booking := range bookings {
		_ = table.Append(booking.BookID, booking.ItemName, formatTime(booking.FromDate), formatTime(booking.ToDate),
			booking.FirstName+" "+booking.LastName, booking.Email, booking.Status)
	}
}

var bookingHeaders = []interface{}{"Booking ID", "Item", "From", "To", "Name", "Email", "Status"}

// NewBookingsCommand creates the bookings command.
func NewBookingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List bookings",
		Long:  "List space and seat bookings, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &libcal.BookingsParams{
				EID:         intsFlag(cmd, "eid"),
				SeatID:      intsFlag(cmd, "seat-id"),
				CID:         intsFlag(cmd, "cid"),
				LID:         intFlag(cmd, "lid"),
				Email:       stringFlag(cmd, "email"),
				Date:        stringFlag(cmd, "date"),
				Days:        intFlag(cmd, "days"),
				Limit:       intFlag(cmd, "limit"),
				Page:        intFlag(cmd, "page"),
				FormAnswers: boolFlag(cmd, "form-answers"),
				Cache:       cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				bookings, err := client.Space().Bookings(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), bookings, func(w io.Writer) error {
					table := newTable(w, bookingHeaders...)
					appendBookingRows(table, bookings)

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().IntSlice("eid", nil, "item ids")
	cmd.Flags().IntSlice("seat-id", nil, "seat ids")
	cmd.Flags().IntSlice("cid", nil, "category ids")
	cmd.Flags().Int("lid", 0, "location id")
	cmd.Flags().String("email", "", "bookings made with this email")
	cmd.Flags().String("date", "", "first day (YYYY-MM-DD)")
	cmd.Flags().Int("days", 0, "number of days to include (0-365)")
	cmd.Flags().Int("limit", 0, "maximum number of bookings (1-500)")
	cmd.Flags().Int("page", 0, "page to fetch, starting at 1")
	cmd.Flags().Bool("form-answers", false, "include booking form answers")

	return cmd
}

// NewBookingCommand creates the booking command.
func NewBookingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booking BOOKING_IDS",
		Short: "Show bookings",
		Long:  "Show one or more comma separated bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := &libcal.BookingParams{
				IDs:         parseStringIDs(args[0]),
				FormAnswers: boolFlag(cmd, "form-answers"),
				Cache:       cacheOptions(),
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				bookings, err := client.Space().Booking(ctx, params)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), bookings, func(w io.Writer) error {
					table := newTable(w, bookingHeaders...)
					appendBookingRows(table, bookings)

					for _, booking := range bookings {
						for _, name := range booking.QuestionNames() {
							_ = table.Append(booking.BookID, name, "", "", booking.QuestionString(name), "", "")
						}
					}

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().Bool("form-answers", false, "include booking form answers")

	return cmd
}

// NewCancelCommand creates the cancel command.
func NewCancelCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cancel BOOKING_IDS",
		Short: "Cancel bookings",
		Long:  "Cancel one or more comma separated bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := parseStringIDs(args[0])

			if !force && !confirm(cmd, fmt.Sprintf("Cancel %s? [y/N]: ", strings.Join(ids, ", "))) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")

				return nil
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				responses, err := client.Space().Cancel(ctx, &libcal.CancelParams{IDs: ids})
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), responses, func(w io.Writer) error {
					table := newTable(w, "Booking ID", "Cancelled", "Error")
					for _, response := range responses {
						message := ""
						if response.Error != nil {
							message = *response.Error
						}

						_ = table.Append(response.BookingID, check(response.Cancelled), message)
					}

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")

	return cmd
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}

// ReserveOptions holds the flags of the reserve command.
type ReserveOptions struct {
	Start     string
	FirstName string
	LastName  string
	Email     string
	Nickname  string
	Bookings  []string
	Answers   []string
	Admin     bool
	Test      bool
}

// NewReserveCommand creates the reserve command.
func NewReserveCommand() *cobra.Command {
	var opts ReserveOptions

	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Reserve spaces or seats",
		Long: `Reserve one or more items, optionally a seat within each.

Bookings are given as ITEM_ID[:SEAT_ID]@END_TIME, for example
--booking 12@2025-03-04T11:00:00-05:00. Booking form answers are given as
--answer q1=value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := buildReservePayload(opts)
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client libcal.Client) error {
				response, err := client.Space().Reserve(ctx, payload)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), response, func(w io.Writer) error {
					cost := constants.NotAvailable
					if response.Cost != nil {
						cost = strconv.FormatFloat(*response.Cost, 'f', 2, 64) //nolint:mnd // two decimals
					}

					table := newTable(w, "Booking ID", "Cost")
					_ = table.Append(response.BookingID, cost)

					return renderTable(table)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "start time (RFC 3339)")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "patron first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "patron last name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "patron email")
	cmd.Flags().StringVar(&opts.Nickname, "nickname", "", "public nickname of the booking")
	cmd.Flags().StringArrayVar(&opts.Bookings, "booking", nil, "ITEM_ID[:SEAT_ID]@END_TIME, repeatable")
	cmd.Flags().StringArrayVar(&opts.Answers, "answer", nil, "form answer qN=value, repeatable")
	cmd.Flags().BoolVar(&opts.Admin, "admin", false, "make an admin booking")
	cmd.Flags().BoolVar(&opts.Test, "test", false, "validate without booking")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("booking")

	return cmd
}

func buildReservePayload(opts ReserveOptions) (*libcal.ReservePayload, error) {
	start, err := libcal.ParseTime(opts.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}

	payload := &libcal.ReservePayload{
		Start:     start.Time,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
		Email:     opts.Email,
	}

	if opts.Nickname != "" {
		payload.Nickname = libcal.String(opts.Nickname)
	}

	if opts.Admin {
		payload.AdminBooking = libcal.Bool(true)
	}

	if opts.Test {
		payload.Test = libcal.Bool(true)
	}

	for _, raw := range opts.Bookings {
		booking, err := parseReserveBooking(raw)
		if err != nil {
			return nil, err
		}

		payload.Bookings = append(payload.Bookings, booking)
	}

	for _, answer := range opts.Answers {
		name, value, ok := strings.Cut(answer, "=")
		if !ok || !libcal.IsQuestionField(name) {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidAnswer, answer)
		}

		err := payload.SetQuestion(name, value)
		if err != nil {
			return nil, err
		}
	}

	return payload, nil
}

// parseReserveBooking parses ITEM_ID[:SEAT_ID]@END_TIME.
func parseReserveBooking(raw string) (libcal.ReserveBooking, error) {
	ids, end, ok := strings.Cut(raw, "@")
	if !ok {
		return libcal.ReserveBooking{}, fmt.Errorf("%w: %q", constants.ErrInvalidBooking, raw)
	}

	itemPart, seatPart, hasSeat := strings.Cut(ids, ":")

	itemID, err := strconv.Atoi(itemPart)
	if err != nil {
		return libcal.ReserveBooking{}, fmt.Errorf("%w: %q", constants.ErrInvalidBooking, raw)
	}

	to, err := libcal.ParseTime(end)
	if err != nil {
		return libcal.ReserveBooking{}, fmt.Errorf("%w: %q", constants.ErrInvalidBooking, raw)
	}

	booking := libcal.ReserveBooking{ID: itemID, To: to.Time}

	if hasSeat {
		seatID, err := strconv.Atoi(seatPart)
		if err != nil {
			return libcal.ReserveBooking{}, fmt.Errorf("%w: %q", constants.ErrInvalidBooking, raw)
		}

		booking.SeatID = libcal.Int(seatID)
	}

	return booking, nil
}
