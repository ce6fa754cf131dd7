package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

func addBlobs(topLevel *cobra.Command) {
	var addr string

	cmd := &cobra.Command{
		Use:   "blobs",
		Short: base.Wrap80("Serve diary pictures at the blob-url the views hand out."),
		Example: `
diary blobs
diary blobs --addr 0.0.0.0:8081
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			listen := addr
			if listen == "" {
				u, err := url.Parse(a.Config.BlobURL)
				if err != nil {
					return fmt.Errorf("invalid blob-url: %w", err)
				}
				listen = u.Host
			}

			mux := http.NewServeMux()
			mux.Handle("/o/", a.Blobs)
			srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "serving pictures on http://%s/o/\n", ln.Addr())

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			err = srv.Serve(ln)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: the host of blob-url)")
	topLevel.AddCommand(cmd)
}
