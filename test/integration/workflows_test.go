//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

func TestTokenWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	client := config.NewClient(t)
	ctx := context.Background()

	first, err := client.Token(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first.AccessToken)
	assert.Positive(t, first.ExpiresIn)

	cached, err := client.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.AccessToken, cached.AccessToken)
}

func TestBrowseWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	client := config.NewClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	locations, err := client.Space().Locations(ctx, &libcal.LocationsParams{Cache: libcal.CacheFor(time.Minute)})
	require.NoError(t, err)
	require.NotEmpty(t, locations)

	categories, err := client.Space().Categories(ctx, &libcal.CategoriesParams{IDs: []int{locations[0].LID}})
	require.NoError(t, err)

	for _, group := range categories {
		for _, category := range group.Categories {
			assert.Positive(t, category.CID)
		}
	}

	_, err = client.Space().Zone(ctx, &libcal.ZoneParams{ID: 999999999})
	if err != nil {
		assert.True(t, libcal.IsNotFound(err) || libcal.IsResponse(err), "unexpected error kind %q", libcal.KindOf(err))
	}
}

func TestLocationWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)
	config.SkipIfMissingLocation(t)

	client := config.NewClient(t)
	ctx := context.Background()

	items, err := client.Space().Items(ctx, &libcal.ItemsParams{
		LocationID:   config.LocationID,
		Availability: libcal.String(libcal.AvailabilityNext),
		PageSize:     libcal.Int(20),
	})
	require.NoError(t, err)

	for _, item := range items {
		assert.Positive(t, item.ID)
	}

	utilization, err := client.Space().Utilization(ctx, &libcal.UtilizationParams{LocationID: config.LocationID})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, utilization.SpaceSummary.TotalCount, utilization.SpaceSummary.Active)

	bookings, err := client.Space().Bookings(ctx, &libcal.BookingsParams{
		LID:   libcal.Int(config.LocationID),
		Limit: libcal.Int(5),
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(bookings), 5)
}

func TestCLIWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)
	config.SkipIfMissingBinary(t)

	runner := NewCommandRunner(config, t)

	stdout, stderr, err := runner.Run("locations", "-o", "json")
	require.NoError(t, err, stderr)
	AssertJSONOutput(t, stdout)
	assert.True(t, gjson.Get(stdout, "0.lid").Exists())

	stdout, stderr, err = runner.Run("token", "-o", "yaml")
	require.NoError(t, err, stderr)
	AssertYAMLOutput(t, stdout)
	assert.NotContains(t, stdout, "access_token: ey")

	_, _, err = runner.Run("bookings", "--limit", "501")
	require.Error(t, err)
}
