package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-delivery-auth/client"
	"github.com/jrsteele09/go-delivery-auth/internal/config"
	"github.com/jrsteele09/go-delivery-auth/internal/logging"
	"github.com/jrsteele09/go-delivery-auth/namespace"
	"github.com/jrsteele09/go-delivery-auth/store"
	"github.com/jrsteele09/go-delivery-auth/store/memstore"
	"github.com/jrsteele09/go-delivery-auth/store/redisstore"
	"github.com/rs/zerolog"
)

const usage = `usage: deliveryctl [flags] <command> [args]

commands:
  login <namespace> <email> <password>   sign in to admin, restaurant, delivery or user
  get <path>                             GET an API path; the path selects the namespace
  whoami <namespace>                     show the stored session
  logout <namespace>                     sign out of one namespace
  logout-all                             forget every stored session

flags:
`

func main() {
	config.LoadDotEnv()

	flags := flag.NewFlagSet("deliveryctl", flag.ExitOnError)
	configFile := flags.String("config", "", "YAML settings file")
	baseURL := flags.String("base-url", "", "API base URL (overrides API_BASE_URL)")
	verbose := flags.Bool("v", false, "log refresh and storage activity")
	banner := flags.Bool("banner", false, "print the app banner")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	var c config.Config = config.New()
	if *configFile != "" {
		var err error
		if c, err = config.WithFile(c, *configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logger := zerolog.Nop()
	if *verbose {
		logger = logging.New(c.GetEnv())
	}
	if *banner {
		figure.NewFigure(c.GetAppName(), "cybermedium", true).Print()
		fmt.Println()
	}

	if err := run(context.Background(), c, logger, *baseURL, flags.Args()); err != nil {
		if msg, ok := client.BackendMessage(err); ok {
			fmt.Fprintf(os.Stderr, "error: %v (%s)\n", err, msg)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, c config.Config, logger zerolog.Logger, baseURL string, args []string) error {
	tokens, closeStore, err := openStore(ctx, c, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if baseURL == "" {
		baseURL = c.GetAPIBaseURL()
	}

	location := client.NewLocation("/")
	opts := []client.Option{
		client.WithLocation(location),
		client.WithNavigator(client.NavigatorFunc(func(_ context.Context, route string) {
			location.SetPath(route)
			fmt.Fprintf(os.Stderr, "session ended, sign in again (%s)\n", route)
		})),
		client.WithLogger(logger),
		client.WithTimeout(c.GetRequestTimeout()),
	}
	if c.GetRefreshDeduplication() {
		opts = append(opts, client.WithRefreshDeduplication())
	}
	api, err := client.New(baseURL, tokens, opts...)
	if err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		if len(rest) != 3 {
			return fmt.Errorf("login needs <namespace> <email> <password>")
		}
		ns, err := namespace.Parse(rest[0])
		if err != nil {
			return err
		}
		res, err := api.Login(ctx, ns, client.Credentials{Email: rest[1], Password: rest[2]})
		if err != nil {
			return err
		}
		fmt.Printf("signed in to %s\n", res.Namespace)
		return printJSON(res.User)

	case "get":
		if len(rest) != 1 {
			return fmt.Errorf("get needs <path>")
		}
		path := "/" + strings.TrimLeft(rest[0], "/")
		location.SetPath(path)
		return get(ctx, api, path)

	case "whoami":
		if len(rest) != 1 {
			return fmt.Errorf("whoami needs <namespace>")
		}
		ns, err := namespace.Parse(rest[0])
		if err != nil {
			return err
		}
		return printJSON(api.Session(ctx, ns))

	case "logout":
		if len(rest) != 1 {
			return fmt.Errorf("logout needs <namespace>")
		}
		ns, err := namespace.Parse(rest[0])
		if err != nil {
			return err
		}
		if err := api.Logout(ctx, ns); err != nil {
			logger.Warn().Err(err).Msg("backend logout failed, local session cleared")
		}
		fmt.Printf("signed out of %s\n", ns)
		return nil

	case "logout-all":
		tokens.ClearAll(ctx)
		fmt.Println("all sessions cleared")
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func get(ctx context.Context, api *client.Client, path string) error {
	req, err := api.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := api.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	fmt.Fprintln(os.Stderr, resp.Status)
	_, err = io.Copy(os.Stdout, resp.Body)
	return err
}

// openStore uses Redis when an address is configured so sessions outlive the
// process; otherwise sessions last for this invocation only.
func openStore(ctx context.Context, c config.Config, logger zerolog.Logger) (store.TokenStore, func(), error) {
	if addr := c.GetRedisAddr(); addr != "" {
		rdb, err := redisstore.Connect(ctx, addr, c.GetRedisPassword(), c.GetRedisDB())
		if err != nil {
			return nil, nil, err
		}
		backend := redisstore.New(rdb, c.GetStoreKeyPrefix())
		return store.New(backend, store.WithLogger(logger)), func() { _ = rdb.Close() }, nil
	}

	logger.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory for this run only")
	return store.New(memstore.New(), store.WithLogger(logger)), func() {}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
