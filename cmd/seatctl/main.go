package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/wedding-seating/internal/app"
	"github.com/iliyamo/wedding-seating/internal/blob"
	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/export"
	"github.com/iliyamo/wedding-seating/internal/logger"
	"github.com/iliyamo/wedding-seating/internal/seating"
	"github.com/iliyamo/wedding-seating/internal/utils"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return logger.NewWriter(os.Stderr, config.LoadLogConfig())
}

// openLayout opens the layout store the server uses.  Redis is only
// dialled for the redis backend.  The caller must Close the layout and,
// when non-nil, the client.
func openLayout(ctx context.Context) (*app.Layout, *redis.Client, error) {
	cfg := config.LoadLayoutConfig()
	var rdb *redis.Client
	if cfg.Backend == config.LayoutBackendRedis {
		if rdb = config.NewRedisClient(); rdb == nil {
			return nil, nil, errors.New("redis unreachable")
		}
	}
	l, err := app.OpenLayout(ctx, cfg, rdb, newLogger())
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	return l, rdb, nil
}

func withLayout(fn func(ctx context.Context, store *seating.Store) error) error {
	ctx := context.Background()
	l, rdb, err := openLayout(ctx)
	if err != nil {
		return err
	}
	defer l.Close()
	if rdb != nil {
		defer rdb.Close()
	}
	return fn(ctx, l.Store)
}

// output opens the -o file, or stdout when it is empty or "-".
func output(cmd *cobra.Command) (io.WriteCloser, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" || path == "-" {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

var rootCmd = &cobra.Command{
	Use:          "seatctl",
	Short:        "Wedding seating admin tool",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

// tables command
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect the table layout",
}

var tablesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tables with assigned/capacity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLayout(func(_ context.Context, store *seating.Store) error {
			return printTables(cmd.OutOrStdout(), store.Tables(), store.Seating())
		})
	},
}

func printTables(w io.Writer, tables []seating.Table, seats seating.Seating) error {
	if len(tables) == 0 {
		_, err := fmt.Fprintln(w, "No tables.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tTYPE\tSEATS\tPOSITION\tID")
	for _, t := range tables {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%.0f,%.0f\t%s\n",
			t.Number, t.Name, t.Shape, seats.Occupied(t.Number), t.Capacity, t.X, t.Y, t.ID)
	}
	return tw.Flush()
}

// export command
var exportCmd = &cobra.Command{
	Use:       "export {json|csv|xlsx|png}",
	Short:     "Export the layout",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"json", "csv", "xlsx", "png"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLayout(func(_ context.Context, store *seating.Store) error {
			w, err := output(cmd)
			if err != nil {
				return err
			}
			if err := writeExport(w, args[0], store.Snapshot(time.Now())); err != nil {
				_ = w.Close()
				return err
			}
			return w.Close()
		})
	},
}

func writeExport(w io.Writer, format string, snap seating.Snapshot) error {
	switch format {
	case "json":
		return export.EncodeSnapshot(w, snap)
	case "csv":
		return export.WriteCSV(w, snap.Tables, snap.Seating)
	case "xlsx":
		return export.WriteXLSX(w, snap.Tables, snap.Seating)
	case "png":
		return export.RenderPNG(w, snap.Tables, snap.Seating)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a layout",
}

var importJSONCmd = &cobra.Command{
	Use:   "json FILE",
	Short: "Replace the layout with a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		snap, err := export.DecodeSnapshot(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		return withLayout(func(ctx context.Context, store *seating.Store) error {
			if err := store.Restore(ctx, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tables from %s\n", len(snap.Tables), args[0])
			return nil
		})
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Publish and fetch layout snapshots",
}

var snapshotUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the current layout and plan to the blob store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadBlobConfig()
		return withLayout(func(ctx context.Context, store *seating.Store) error {
			bs, err := blob.NewFromConfig(ctx, cfg)
			if err != nil {
				return fmt.Errorf("opening blob store: %w", err)
			}
			up, err := export.NewUploader(bs, cfg.Prefix, nil, nil, newLogger()).Upload(ctx, store.Snapshot(time.Now()))
			if up.JSONPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Layout: %s\n", up.JSONPath)
			}
			if up.PNGPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Plan:   %s\n", up.PNGPath)
			}
			return err
		})
	},
}

var snapshotGetCmd = &cobra.Command{
	Use:   "get PATH",
	Short: "Download a stored object, decrypting it when age is configured",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		bs, err := blob.NewFromConfig(ctx, config.LoadBlobConfig())
		if err != nil {
			return fmt.Errorf("opening blob store: %w", err)
		}
		w, err := output(cmd)
		if err != nil {
			return err
		}
		if err := bs.Get(ctx, args[0], w); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	},
}

// token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin token for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, _ := cmd.Flags().GetString("sub")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetInt("ttl")
		auth := config.LoadAuthConfig()
		if role == "" {
			role = auth.AdminRole
		}
		if ttl <= 0 {
			ttl = auth.AccessTTLMin
		}
		tok, err := utils.NewAccessToken(auth.JWTSecret, sub, role, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
		return nil
	},
}

func init() {
	tablesCmd.AddCommand(tablesListCmd)

	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	importCmd.AddCommand(importJSONCmd)

	snapshotCmd.AddCommand(snapshotUploadCmd)
	snapshotCmd.AddCommand(snapshotGetCmd)
	snapshotGetCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	tokenCmd.Flags().String("sub", "seatctl", "Token subject")
	tokenCmd.Flags().String("role", "", "Role claim (default ADMIN_ROLE)")
	tokenCmd.Flags().Int("ttl", 0, "Lifetime in minutes (default ACCESS_TOKEN_TTL_MIN)")

	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(tokenCmd)
}
