// Command treasury-node runs the treasury engine as a long-running process:
// it loads a genesis-style config, opens the LevelDB store, starts the
// JSON-RPC/websocket server and the Prometheus metrics server, and blocks
// until interrupted. Grounded in cmd/quantum-node/main.go's cobra root
// command wired to viper-bound flags.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SaitamaCoderVN/d2d-program/treasury/config"
	"github.com/SaitamaCoderVN/d2d-program/treasury/engine"
	"github.com/SaitamaCoderVN/d2d-program/treasury/events"
	"github.com/SaitamaCoderVN/d2d-program/treasury/monitoring"
	"github.com/SaitamaCoderVN/d2d-program/treasury/pda"
	"github.com/SaitamaCoderVN/d2d-program/treasury/rpc"
	"github.com/SaitamaCoderVN/d2d-program/treasury/store"
	"github.com/SaitamaCoderVN/d2d-program/treasury/types"
	"github.com/SaitamaCoderVN/d2d-program/treasury/vault"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "treasury-node",
		Short: "Run the shared-liquidity deployment treasury node",
		RunE:  runNode,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the node's JSON config file")
	rootCmd.PersistentFlags().String("rpc-addr", "", "override the RPC listen address")
	rootCmd.PersistentFlags().String("metrics-addr", "", "override the metrics listen address")
	_ = viper.BindPFlag("rpc_listen_addr", rootCmd.PersistentFlags().Lookup("rpc-addr"))
	_ = viper.BindPFlag("metrics_listen_addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("treasury-node: %v", err)
	}
}

func runNode(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr := viper.GetString("rpc_listen_addr"); addr != "" {
		cfg.RPCListenAddr = addr
	}
	if addr := viper.GetString("metrics_listen_addr"); addr != "" {
		cfg.MetricsListenAddr = addr
	}

	persisted, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer persisted.Close()

	admin, err := cfg.AdminPubkey()
	if err != nil {
		return fmt.Errorf("invalid admin pubkey: %w", err)
	}
	devWallet, err := cfg.DevWalletPubkey()
	if err != nil {
		return fmt.Errorf("invalid dev_wallet pubkey: %w", err)
	}
	programID, err := cfg.ProgramIDPubkey()
	if err != nil {
		return fmt.Errorf("invalid program_id pubkey: %w", err)
	}

	vaults := vault.Vaults{
		Treasury: types.Pubkey(pda.TreasuryVaultAddress(programID)),
		Reward:   types.Pubkey(pda.RewardVaultAddress(programID)),
		Platform: types.Pubkey(pda.PlatformVaultAddress(programID)),
	}
	ledger := vault.NewLedger()
	sink := events.NewSink()
	eng := engine.New(vaults, ledger, sink)
	eng.AttachStore(persisted)
	if err := eng.Restore(); err != nil {
		return fmt.Errorf("failed to restore persisted state: %w", err)
	}

	if err := eng.Initialize(admin, devWallet, cfg.InitialApyBps); err != nil && types.KindOf(err) != types.ErrKindAlreadyInitialized {
		return fmt.Errorf("failed to initialize treasury pool: %w", err)
	}
	log.Printf("treasury-node: initialized with admin=%s dev_wallet=%s program_id=%s", admin.Hex(), devWallet.Hex(), programID.Hex())

	reg := prometheus.DefaultRegisterer
	metrics := monitoring.NewMetrics(reg)
	monitoringSrv := monitoring.NewServer(cfg.MetricsListenAddr, eng, sink, metrics)

	rpcSrv := rpc.NewServer(cfg.RPCListenAddr, eng, sink, metrics, cfg.RPCRateLimitPerMinute)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		log.Printf("treasury-node: rpc listening on %s", cfg.RPCListenAddr)
		errCh <- rpcSrv.ListenAndServe()
	}()
	go func() {
		log.Printf("treasury-node: metrics listening on %s", cfg.MetricsListenAddr)
		errCh <- monitoringSrv.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Println("treasury-node: shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
