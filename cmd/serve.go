package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/midiscan/constants"
	"github.com/jsphweid/midiscan/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", constants.GetListenAddr(), "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves analyses over http",
	Long: `Serves POST /analyze, GET /analyses/{id} and GET /analyses?id=...

Results are kept in DynamoDB when MIDISCAN_DYNAMO_TABLE is set and in memory
otherwise. SIGHUP reloads the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		srv, err := NewServer(cfg, st, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go watchReload(ctx, srv, resolvedConfigPath())

		httpServer := &http.Server{
			Addr:              listenAddr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdown)
		}()

		log.WithField("addr", listenAddr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func openStore() (store.Store, error) {
	table := constants.GetDynamoTable()
	if table == "" {
		return store.NewMemory(), nil
	}
	log.WithField("table", table).Info("storing results in DynamoDB")
	return store.NewDynamoSession(constants.GetAWSRegion(), constants.GetDynamoEndpoint(), table)
}

// watchReload reloads the config on SIGHUP. Bursts of signals collapse into
// one reload.
func watchReload(ctx context.Context, srv *Server, path string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	debounced := debounce.New(500 * time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			debounced(func() { srv.Reload(path) })
		}
	}
}
