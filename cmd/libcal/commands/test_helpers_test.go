package commands

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// setupViper resets the global configuration to values for one test.
func setupViper(t *testing.T, values map[string]interface{}) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	for key, value := range values {
		viper.Set(key, value)
	}
}

// newLibCalServer answers the token endpoint and routes the rest by path.
func newLibCalServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/1.1/oauth/token" {
			_, _ = io.WriteString(writer, `{"access_token":"cli-token","expires_in":3600,"token_type":"Bearer","scope":"rm_r"}`)

			return
		}

		body, ok := routes[request.URL.Path]
		if !ok {
			writer.WriteHeader(http.StatusNotFound)

			return
		}

		_, _ = io.WriteString(writer, body)
	}))
	t.Cleanup(server.Close)

	return server
}

// runCommand executes cmd with args and returns what it printed.
func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(bytes.NewBufferString(stdin))
	if args == nil {
		args = []string{}
	}

	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func clientValues(serverURL, output string) map[string]interface{} {
	return map[string]interface{}{
		"host":          serverURL,
		"client_id":     "id",
		"client_secret": "secret",
		"output":        output,
	}
}
