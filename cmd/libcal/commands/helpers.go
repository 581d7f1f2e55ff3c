package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/libcal/internal/constants"
	"github.com/fivetwenty-io/libcal/internal/jsonmap"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
	"github.com/fivetwenty-io/libcal/pkg/libcalclient"
)

const (
	// JSON formatting.
	defaultJSONIndent = 2
)

// newClient is swapped in tests.
var newClient = libcalclient.New

// CreateClient builds a client from the effective configuration: flags,
// LIBCAL_ environment variables and the config file, in that order.
func CreateClient(ctx context.Context) (libcal.Client, error) {
	config := loadConfig()

	if config.Host == "" {
		return nil, constants.ErrNoHostConfigured
	}

	if config.ClientSecret == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := promptSecret("Client secret: ")
		if err != nil {
			return nil, err
		}

		config.ClientSecret = secret
	}

	clientConfig := &libcal.Config{
		Host:          config.Host,
		ClientID:      config.ClientID,
		ClientSecret:  config.ClientSecret,
		StrictMapping: config.Strict,
		UserAgent:     "libcal-cli/" + constants.Version,
	}

	if viper.GetBool("verbose") {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		clientConfig.Logger = libcal.NewSlogLogger(slog.New(handler))
		clientConfig.Debug = true
	}

	switch libcal.CacheType(config.Cache) {
	case libcal.CacheTypeNATS:
		clientConfig.Cache = &libcal.CacheConfig{
			Type: libcal.CacheTypeNATS,
			NATS: &libcal.NATSKVConfig{URL: config.NATSURL},
		}
	case libcal.CacheTypeMemory:
		clientConfig.Cache = libcal.DefaultCacheConfig()
	}

	client, err := newClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// withClient runs fn with a client that is closed afterwards.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client libcal.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := CreateClient(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	return fn(ctx, client)
}

func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}

// cacheOptions enables memoization when --cache-ttl is set.
func cacheOptions() libcal.CacheOptions {
	ttl := viper.GetDuration("cache_ttl")
	if ttl <= 0 {
		return libcal.CacheOptions{}
	}

	return libcal.CacheFor(ttl)
}

// renderOutput writes data in the selected output format; table renders
// the table format.
func renderOutput(w io.Writer, data interface{}, table func(w io.Writer) error) error {
	output := viper.GetString("output")

	switch output {
	case constants.FormatJSON:
		return StandardJSONRenderer(w, data)
	case constants.FormatYAML:
		return StandardYAMLRenderer(w, data)
	case constants.FormatTable, "":
		return table(w)
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, output)
	}
}

// StandardJSONRenderer writes data as indented JSON, kept members included.
func StandardJSONRenderer(w io.Writer, data interface{}) error {
	raw, err := jsonmap.New(false).Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	var out bytes.Buffer

	err = json.Indent(&out, raw, "", strings.Repeat(" ", defaultJSONIndent))
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	out.WriteByte('\n')

	_, err = out.WriteTo(w)

	return err
}

// StandardYAMLRenderer writes data as YAML.
func StandardYAMLRenderer(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultJSONIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return encoder.Close()
}

func newTable(w io.Writer, headers ...interface{}) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers...)

	return table
}

func renderTable(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// parseIDs parses a comma separated list of positive ids.
func parseIDs(arg string) ([]int, error) {
	var ids []int

	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidID, part)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func parseID(arg string) (int, error) {
	ids, err := parseIDs(arg)
	if err != nil {
		return 0, err
	}

	if len(ids) != 1 {
		return 0, fmt.Errorf("%w: %q", constants.ErrInvalidID, arg)
	}

	return ids[0], nil
}

// parseStringIDs splits a comma separated list of booking ids.
func parseStringIDs(arg string) []string {
	var ids []string

	for _, part := range strings.Split(arg, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}

	return ids
}

// Optional flags map to nil unless given on the command line.

func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}

	v, _ := cmd.Flags().GetBool(name)

	return &v
}

func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}

	v, _ := cmd.Flags().GetInt(name)

	return &v
}

func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}

	v, _ := cmd.Flags().GetString(name)

	return &v
}

func intsFlag(cmd *cobra.Command, name string) []int {
	v, _ := cmd.Flags().GetIntSlice(name)

	return v
}

func str(v *string) string {
	if v == nil || *v == "" {
		return constants.NotAvailable
	}

	return *v
}

func num(v *int) string {
	if v == nil {
		return constants.NotAvailable
	}

	return strconv.Itoa(*v)
}

func check(v bool) string {
	if v {
		return constants.CheckMarkSymbol
	}

	return ""
}

func checkPtr(v *bool) string {
	return check(v != nil && *v)
}

func formatTime(t libcal.Time) string {
	if t.IsZero() {
		return constants.NotAvailable
	}

	return t.Format("2006-01-02 15:04")
}
