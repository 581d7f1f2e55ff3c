package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/libcal/internal/jsonmap"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// SpaceClient implements libcal.SpaceClient.
type SpaceClient struct {
	client *Client
}

var _ libcal.SpaceClient = (*SpaceClient)(nil)

// NewSpaceClient creates a new space client.
func NewSpaceClient(client *Client) *SpaceClient {
	return &SpaceClient{
		client: client,
	}
}

// action is a validated set of parameters that knows its request URI.
type action interface {
	Validate() error
	URI() string
}

func getArray[T any](ctx context.Context, c *SpaceClient, params action, cache libcal.CacheOptions) ([]T, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	uri := params.URI()

	return Memoize(ctx, c.client, uri, cache.Enabled, cache.EffectiveTTL(), func(ctx context.Context) ([]T, error) {
		body, err := c.client.Get(ctx, uri)
		if err != nil {
			return nil, err
		}

		return jsonmap.DecodeArray[T](c.client.mapper, []byte(body))
	})
}

func getObject[T any](ctx context.Context, c *SpaceClient, params action, cache libcal.CacheOptions) (*T, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}

	uri := params.URI()

	return Memoize(ctx, c.client, uri, cache.Enabled, cache.EffectiveTTL(), func(ctx context.Context) (*T, error) {
		body, err := c.client.Get(ctx, uri)
		if err != nil {
			return nil, err
		}

		return jsonmap.DecodeObject[T](c.client.mapper, []byte(body))
	})
}

// Booking implements libcal.SpaceClient.Booking.
func (c *SpaceClient) Booking(ctx context.Context, params *libcal.BookingParams) ([]libcal.Booking, error) {
	if params == nil {
		params = &libcal.BookingParams{}
	}

	bookings, err := getArray[libcal.Booking](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("getting booking: %w", err)
	}

	return bookings, nil
}

// Bookings implements libcal.SpaceClient.Bookings.
func (c *SpaceClient) Bookings(ctx context.Context, params *libcal.BookingsParams) ([]libcal.Booking, error) {
	if params == nil {
		params = &libcal.BookingsParams{}
	}

	bookings, err := getArray[libcal.Booking](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}

	return bookings, nil
}

// Cancel implements libcal.SpaceClient.Cancel.
func (c *SpaceClient) Cancel(ctx context.Context, params *libcal.CancelParams) ([]libcal.CancelResponse, error) {
	if params == nil {
		params = &libcal.CancelParams{}
	}

	err := params.Validate()
	if err != nil {
		return nil, fmt.Errorf("cancelling bookings: %w", err)
	}

	body, err := c.client.Post(ctx, params.URI(), nil)
	if err != nil {
		return nil, fmt.Errorf("cancelling bookings: %w", err)
	}

	responses, err := jsonmap.DecodeArray[libcal.CancelResponse](c.client.mapper, []byte(body))
	if err != nil {
		return nil, fmt.Errorf("parsing cancel response: %w", err)
	}

	return responses, nil
}

// Categories implements libcal.SpaceClient.Categories.
func (c *SpaceClient) Categories(ctx context.Context, params *libcal.CategoriesParams) ([]libcal.Categories, error) {
	if params == nil {
		params = &libcal.CategoriesParams{}
	}

	categories, err := getArray[libcal.Categories](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	return categories, nil
}

// Category implements libcal.SpaceClient.Category.
func (c *SpaceClient) Category(ctx context.Context, params *libcal.CategoryParams) ([]libcal.Category, error) {
	if params == nil {
		params = &libcal.CategoryParams{}
	}

	categories, err := getArray[libcal.Category](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}

	return categories, nil
}

// Form implements libcal.SpaceClient.Form.
func (c *SpaceClient) Form(ctx context.Context, params *libcal.FormParams) ([]libcal.Form, error) {
	if params == nil {
		params = &libcal.FormParams{}
	}

	forms, err := getArray[libcal.Form](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("getting form: %w", err)
	}

	return forms, nil
}

// Item implements libcal.SpaceClient.Item.
func (c *SpaceClient) Item(ctx context.Context, params *libcal.ItemParams) ([]libcal.Item, error) {
	if params == nil {
		params = &libcal.ItemParams{}
	}

	items, err := getArray[libcal.Item](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	return items, nil
}

// Items implements libcal.SpaceClient.Items.
func (c *SpaceClient) Items(ctx context.Context, params *libcal.ItemsParams) ([]libcal.Item, error) {
	if params == nil {
		params = &libcal.ItemsParams{}
	}

	items, err := getArray[libcal.Item](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	return items, nil
}

// Locations implements libcal.SpaceClient.Locations.
func (c *SpaceClient) Locations(ctx context.Context, params *libcal.LocationsParams) ([]libcal.Location, error) {
	if params == nil {
		params = &libcal.LocationsParams{}
	}

	locations, err := getArray[libcal.Location](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}

	return locations, nil
}

// Nickname implements libcal.SpaceClient.Nickname.
func (c *SpaceClient) Nickname(ctx context.Context, params *libcal.NicknameParams) ([]libcal.Categories, error) {
	if params == nil {
		params = &libcal.NicknameParams{}
	}

	categories, err := getArray[libcal.Categories](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("getting nicknames: %w", err)
	}

	return categories, nil
}

// Question implements libcal.SpaceClient.Question.
func (c *SpaceClient) Question(ctx context.Context, params *libcal.QuestionParams) ([]libcal.Question, error) {
	if params == nil {
		params = &libcal.QuestionParams{}
	}

	questions, err := getArray[libcal.Question](ctx, c, params, libcal.CacheOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting question: %w", err)
	}

	return questions, nil
}

// Reserve implements libcal.SpaceClient.Reserve.
func (c *SpaceClient) Reserve(ctx context.Context, payload *libcal.ReservePayload) (*libcal.ReserveResponse, error) {
	if payload == nil {
		payload = &libcal.ReservePayload{}
	}

	err := payload.Validate()
	if err != nil {
		return nil, fmt.Errorf("reserving space: %w", err)
	}

	body, err := c.client.Post(ctx, libcal.ReserveURI(), payload)
	if err != nil {
		return nil, fmt.Errorf("reserving space: %w", err)
	}

	response, err := jsonmap.DecodeObject[libcal.ReserveResponse](c.client.mapper, []byte(body))
	if err != nil {
		return nil, fmt.Errorf("parsing reserve response: %w", err)
	}

	return response, nil
}

// Seat implements libcal.SpaceClient.Seat.
func (c *SpaceClient) Seat(ctx context.Context, params *libcal.SeatParams) (*libcal.Seat, error) {
	if params == nil {
		params = &libcal.SeatParams{}
	}

	seat, err := getObject[libcal.Seat](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("getting seat: %w", err)
	}

	return seat, nil
}

// Seats implements libcal.SpaceClient.Seats.
func (c *SpaceClient) Seats(ctx context.Context, params *libcal.SeatsParams) ([]libcal.Seat, error) {
	if params == nil {
		params = &libcal.SeatsParams{}
	}

	seats, err := getArray[libcal.Seat](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("listing seats: %w", err)
	}

	return seats, nil
}

// Utilization implements libcal.SpaceClient.Utilization.
func (c *SpaceClient) Utilization(ctx context.Context, params *libcal.UtilizationParams) (*libcal.Utilization, error) {
	if params == nil {
		params = &libcal.UtilizationParams{}
	}

	utilization, err := getObject[libcal.Utilization](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("getting utilization: %w", err)
	}

	return utilization, nil
}

// Zone implements libcal.SpaceClient.Zone.
func (c *SpaceClient) Zone(ctx context.Context, params *libcal.ZoneParams) (*libcal.Zone, error) {
	if params == nil {
		params = &libcal.ZoneParams{}
	}

	zone, err := getObject[libcal.Zone](ctx, c, params, params.Cache)
	if err != nil {
		return nil, fmt.Errorf("getting zone: %w", err)
	}

	return zone, nil
}

// Zones implements libcal.SpaceClient.Zones.
func (c *SpaceClient) Zones(ctx context.Context, params *libcal.ZonesParams) ([]libcal.Zone, error) {
	if params == nil {
		params = &libcal.ZonesParams{}
	}

	zones, err := getArray[libcal.Zone](ctx, c, params, libcal.CacheOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}

	return zones, nil
}
