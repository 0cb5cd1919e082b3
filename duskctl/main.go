package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/docopt/docopt-go"
	"github.com/golang/glog"
	"golang.org/x/term"

	"github.com/bringyour/dusk/dusk"
	"github.com/bringyour/dusk/dusk/console"
)

const DefaultApiUrl = "http://localhost:8080/api"
const DefaultGatewayUrl = "ws://localhost:8080/gateway"

const LocalVersion = "0.0.0-local"

func main() {
	usage := fmt.Sprintf(
		`Dusk interactive message sessions.

The default urls are:
    api_url: %s
    gateway_url: %s

Usage:
    duskctl console [--ephemeral] [--timeout=<timeout>] [--log_v=<v>]
    duskctl gateway [--api_url=<api_url>] [--gateway_url=<gateway_url>]
        [--token=<token>]
        [--command=<command>]
        [--ephemeral] [--timeout=<timeout>] [--log_v=<v>]

Options:
    -h --help                        Show this screen.
    --version                        Show version.
    --api_url=<api_url>
    --gateway_url=<gateway_url>
    --token=<token>                  Application token. Prompted when omitted.
    --command=<command>              Command that starts a session [default: counter].
    --ephemeral                      Only the invoking user sees the session messages.
    --timeout=<timeout>              Close a session after waiting this long for an event, e.g. 10m.
    --log_v=<v>                      Log verbosity [default: 0].`,
		DefaultApiUrl,
		DefaultGatewayUrl,
	)

	opts, err := docopt.ParseArgs(usage, os.Args[1:], RequireVersion())
	if err != nil {
		panic(err)
	}

	if console_, _ := opts.Bool("console"); console_ {
		runConsole(opts)
	} else if gateway_, _ := opts.Bool("gateway"); gateway_ {
		runGateway(opts)
	}
}

func initGlog(opts docopt.Opts, toStderr bool) {
	if toStderr {
		flag.Set("logtostderr", "true")
		flag.Set("stderrthreshold", "INFO")
	}
	if logV, err := opts.String("--log_v"); err == nil {
		flag.Set("v", logV)
	}
}

func sessionSettings(opts docopt.Opts) *dusk.SessionSettings {
	settings := dusk.DefaultSessionSettings()
	settings.Ephemeral, _ = opts.Bool("--ephemeral")
	if timeoutAny := opts["--timeout"]; timeoutAny != nil {
		timeout, err := time.ParseDuration(timeoutAny.(string))
		if err != nil {
			panic(err)
		}
		settings.WaitTimeout = timeout
		settings.TimeoutPolicy = dusk.TimeoutPolicyClose
	}
	return settings
}

func runConsole(opts docopt.Opts) {
	// the terminal ui owns stdout and stderr, so logs go to files
	initGlog(opts, false)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer cancel()

	settings := sessionSettings(opts)

	correlator := dusk.NewCorrelatorWithDefaults(ctx)
	defer correlator.Close()

	c := console.NewConsoleWithDefaults(ctx, correlator)
	defer c.Close()

	c.AddCommandCallback(func(event *dusk.Event) {
		runCounter(ctx, correlator, c, event, settings)
	})
	// open with one session
	c.Command()

	if err := c.Run(tea.WithAltScreen()); err != nil {
		fmt.Printf("console error: %s\n", err)
		os.Exit(1)
	}
}

func runGateway(opts docopt.Opts) {
	initGlog(opts, true)

	var apiUrl string
	if apiUrlAny := opts["--api_url"]; apiUrlAny != nil {
		apiUrl = apiUrlAny.(string)
	} else {
		apiUrl = DefaultApiUrl
	}

	var gatewayUrl string
	if gatewayUrlAny := opts["--gateway_url"]; gatewayUrlAny != nil {
		gatewayUrl = gatewayUrlAny.(string)
	} else {
		gatewayUrl = DefaultGatewayUrl
	}

	command, _ := opts.String("--command")

	var token string
	if tokenAny := opts["--token"]; tokenAny != nil {
		token = tokenAny.(string)
	} else {
		fmt.Print("Enter application token: ")
		tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			panic(err)
		}
		token = strings.TrimSpace(string(tokenBytes))
		fmt.Printf("\n")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer cancel()

	settings := sessionSettings(opts)

	auth := &dusk.GatewayAuth{
		Token:      token,
		InstanceId: dusk.NewId(),
		AppVersion: RequireVersion(),
	}
	applicationId, err := auth.ApplicationId()
	if err != nil {
		panic(err)
	}

	fmt.Printf("application_id: %s\n", applicationId)
	fmt.Printf("instance_id: %s\n", auth.InstanceId)

	api := dusk.NewApiWithDefaults(ctx, apiUrl, token)
	defer api.Close()

	correlator := dusk.NewCorrelatorWithDefaults(ctx)
	defer correlator.Close()

	gateway := dusk.NewGatewayWithDefaults(ctx, gatewayUrl, auth, correlator, api)
	defer gateway.Close()

	gateway.AddCommandCallback(func(event *dusk.Event) {
		if event.Name != command {
			glog.V(1).Infof("[duskctl]ignore %s\n", event)
			return
		}
		runCounter(ctx, correlator, api, event, settings)
	})
	gateway.AddUnmatchedCallback(func(event *dusk.Event) {
		// usually a control on a message whose session already closed
		glog.V(1).Infof("[duskctl]unmatched %s\n", event)
	})

	select {
	case <-ctx.Done():
	case <-gateway.Done():
	}
}

func RequireVersion() string {
	if version := os.Getenv("DUSK_VERSION"); version != "" {
		return version
	}
	return LocalVersion
}
