package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"infinity/internal/config"
	"infinity/internal/db"
	"infinity/internal/engine"
	"infinity/internal/migrate"
	"infinity/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "infinity",
	Short: "Infinity workbench CLI",
	Long: `Infinity is a workbench for data pipeline runs and decision rules.
Core concepts:
- Workspace: the .infinity directory with the database, next to infinity.yml.
- Dashboard: pipelines, runs and schedules loaded from Dagster, with mock data when it is unreachable.
- Reviews: finished runs flagged for review are approved or denied once; decisions are kept.
- Decision table: columns of conditions, rows of rules, test cases; saved snapshots and a change log.
- DMN: a graph of decision model nodes exported as DMN 1.3 XML.
- Event log: every saved table, launched run and review, view with 'infinity events tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("INFINITY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "", "reviewer and author identifier")
	rootCmd.PersistentFlags().String("graphql-url", "", "Dagster GraphQL endpoint (overrides config and environment)")
	rootCmd.PersistentFlags().String("api-token", "", "Dagster API token (overrides config and environment)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides config)")
	for _, name := range []string{"workspace", "json", "actor-id", "graphql-url", "api-token", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(schedulesCmd())
	rootCmd.AddCommand(reviewsCmd())
	rootCmd.AddCommand(prsCmd())
	rootCmd.AddCommand(tableCmd())
	rootCmd.AddCommand(dmnCmd())
	rootCmd.AddCommand(shellCmd())
	rootCmd.AddCommand(reposCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(copilotCmd())
	rootCmd.AddCommand(eventsCmd())
}

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage infinity.yml"}
	cfgCmd.AddCommand(configInitCmd())
	cfgCmd.AddCommand(configShowCmd())
	return cfgCmd
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default infinity.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Write(viper.GetString("workspace"), force)
			if err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration and Dagster endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ep := cfg.Resolve(overrides(), nil)
			token := ""
			if ep.APIToken != "" {
				token = "(set)"
			}
			return printJSON(map[string]any{
				"config": cfg,
				"endpoint": map[string]string{
					"graphql_url": ep.GraphQLURL,
					"base_url":    ep.BaseURL,
					"api_token":   token,
				},
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Server.BasePath = basePath
			}
			logger := hclog.Default()
			conn, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()
			reg := prometheus.NewRegistry()
			e, err := engine.New(conn, engine.Options{
				Config:     cfg,
				Overrides:  overrides(),
				Logger:     logger.Named("engine"),
				Registerer: reg,
			})
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.Restore(cmd.Context()); err != nil {
				return err
			}
			if _, err := e.Reload(cmd.Context()); err != nil {
				return err
			}
			handler, err := server.New(server.Config{
				Engine:      e,
				BasePath:    cfg.Server.BasePath,
				Auth:        server.AuthConfig{JWTSecret: cfg.Auth.JWTSecret},
				CORSOrigins: cfg.Server.CORSOrigins,
				Gatherer:    reg,
				Logger:      logger.Named("server"),
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			if cfg.Auth.JWTSecret == "" {
				logger.Warn("no jwt secret configured; bearer tokens are ignored and reviews use the default reviewer")
			}
			fmt.Printf("Serving Infinity API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs, metrics at /metrics)\n",
				cfg.Server.Addr, cfg.Server.BasePath, cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", config.DefaultBasePath, "API base path")
	return cmd
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token that names the reviewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret (INFINITY_JWT_SECRET) is required to sign tokens")
			}
			tok, err := server.SignToken(cfg.Auth.JWTSecret, subject, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "reviewer identity, usually an email")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

// --- helpers ---

// loadConfig reads infinity.yml and the environment, applies the log level
// flag and configures the default logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadWorkspace(viper.GetString("workspace"))
	if err != nil {
		return config.Config{}, err
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	hclog.SetDefault(hclog.New(&hclog.LoggerOptions{
		Name:       "infinity",
		Level:      hclog.LevelFromString(cfg.Log.Level),
		JSONFormat: cfg.Log.JSON,
		Output:     os.Stderr,
	}))
	return cfg, nil
}

func overrides() config.Overrides {
	return config.Overrides{
		GraphQLURL: viper.GetString("graphql-url"),
		APIToken:   viper.GetString("api-token"),
	}
}

func openDB(ctx context.Context) (*sql.DB, error) {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// withEngine builds an engine over the workspace database with the saved
// table, reviews and commits restored. reload also loads the dashboard.
func withEngine(ctx context.Context, reload bool, fn func(context.Context, *engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	conn, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	e, err := engine.New(conn, engine.Options{
		Config:    cfg,
		Overrides: overrides(),
		Logger:    hclog.Default().Named("engine"),
	})
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.Restore(ctx); err != nil {
		return err
	}
	if reload {
		if _, err := e.Reload(ctx); err != nil {
			return err
		}
		if msg := e.Dashboard.Message(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
	}
	return fn(ctx, e)
}

func actor() string {
	return viper.GetString("actor-id")
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable prints rows with a header unless --json is set, in which case
// v is printed instead.
func renderTable(v any, header table.Row, rows []table.Row) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.Render()
	return nil
}

func isJSON() bool {
	return viper.GetBool("json")
}
