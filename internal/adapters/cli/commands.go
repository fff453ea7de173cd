package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"billing-service/internal/adapters/web"
	"billing-service/internal/app"
	"billing-service/internal/core"
	"billing-service/migrations"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the JSON API on SERVER_PORT.

Without DATABASE_URL the server still starts; document endpoints answer 503
with a "configure DATABASE_URL" message until it is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if rt.cfg.DatabaseURL == "" {
				rt.log.Warn("DATABASE_URL is not set; document storage is locked")
			}
			svc, err := rt.serviceWithStore(ctx)
			if err != nil {
				return err
			}
			if rt.cfg.JWTSecret == "" {
				rt.log.Warn("JWT_SECRET is not set; API routes are locked")
			}

			srv := &http.Server{
				Addr: rt.cfg.Addr(),
				Handler: web.NewHandler(svc, web.Options{
					AllowedOrigins: rt.cfg.Origins(),
					JWTSecret:      rt.cfg.JWTSecret,
					Logger:         rt.log,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return runServer(ctx, srv, rt.log)
		},
	}
}

// runServer serves until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.openStore(cmd.Context()); err != nil {
				return err
			}
			applied, err := migrations.Apply(cmd.Context(), rt.gateway.Pool(), rt.log)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				printf(cmd.OutOrStdout(), "Schema is up to date.\n")
				return nil
			}
			printf(cmd.OutOrStdout(), "Applied migrations: %v\n", applied)
			return nil
		},
	}
}

// totalsInput is the JSON read by the totals command.
type totalsInput struct {
	Items []struct {
		Description string           `json:"description"`
		Quantity    decimal.Decimal  `json:"quantity"`
		Price       decimal.Decimal  `json:"price"`
		TaxRate     *decimal.Decimal `json:"tax_rate"`
	} `json:"items"`
	Discount *core.Discount `json:"discount"`
}

func newTotalsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Compute document totals from JSON on stdin",
		Example: `  echo '{"items":[{"quantity":2,"price":"50"}],"discount":{"kind":"PERCENT","value":10}}' | billing totals`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in totalsInput
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&in); err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}

			req := app.PreviewTotalsRequest{Discount: in.Discount}
			for _, it := range in.Items {
				req.Items = append(req.Items, app.ItemInput{
					Description: it.Description,
					Quantity:    it.Quantity,
					Price:       it.Price,
					TaxRate:     it.TaxRate,
				})
			}
			res, err := svc.PreviewTotals(cmd.Context(), req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res.Display)
		},
	}
}

func newDocumentsCommand(rt *runtime) *cobra.Command {
	docs := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Inspect stored documents",
	}

	var docType, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List an account's documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.requireAccount(); err != nil {
				return err
			}
			t := core.DocumentType(docType)
			if t != "" && !t.Valid() {
				return fmt.Errorf("unknown document type %q", docType)
			}
			svc, err := rt.serviceWithStore(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.ListDocuments(cmd.Context(), app.ListDocumentsRequest{
				AccountID: rt.account,
				Type:      t,
				Status:    core.DocumentStatus(status),
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			printf(tw, "ID\tDATE\tTYPE\tCLIENT\tTOTAL\tSTATUS\tSYNC\n")
			for _, d := range res.Documents {
				printf(tw, "%s\t%s\t%s\t%s\t%s %s\t%s\t%s\n",
					d.ID, d.Date.Format("2006-01-02"), d.Type, d.ClientName,
					d.Total.StringFixed(2), d.Currency, d.Status, d.SyncState)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if res.Offline {
				printf(cmd.ErrOrStderr(), "storage unreachable: showing queued documents only\n")
			}
			return nil
		},
	}
	list.Flags().StringVar(&docType, "type", "", "invoice, quote or expense")
	list.Flags().StringVar(&status, "status", "", "filter by status, e.g. Created")

	docs.AddCommand(list)
	return docs
}

func newExportCommand(rt *runtime) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the account's document register as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.requireAccount(); err != nil {
				return err
			}
			svc, err := rt.serviceWithStore(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := svc.ExportDocuments(cmd.Context(), rt.account, f); err != nil {
				f.Close()
				_ = os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			printf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "documents.xlsx", "output file")
	return cmd
}

func newTokenCommand(rt *runtime) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an API bearer token for --account",
		Long:  "Sign a bearer token with JWT_SECRET whose subject is the account id.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.requireAccount(); err != nil {
				return err
			}
			if rt.cfg.JWTSecret == "" {
				return core.NewConfigError("API tokens", "JWT_SECRET")
			}
			token, err := web.IssueToken(rt.cfg.JWTSecret, rt.account, ttl)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
