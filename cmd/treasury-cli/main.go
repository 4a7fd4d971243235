// Command treasury-cli is an operator/backer command client for a running
// treasury-node, issuing JSON-RPC calls over HTTP. Grounded in
// cmd/validator-cli/main.go's flag-driven command dispatch, migrated here
// to cobra subcommands. It covers initialize, stake_sol, unstake_sol,
// claim_rewards, credit_fee_to_pool, emergency_pause and update_apy, plus
// the get_pool and get_deposit reads; the deploy-funding, admin-withdraw and
// suspend_expired_programs methods have no subcommand.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var rpcAddr string

func main() {
	root := &cobra.Command{
		Use:   "treasury-cli",
		Short: "Operate a shared-liquidity deployment treasury node",
	}
	root.PersistentFlags().StringVar(&rpcAddr, "rpc", "http://127.0.0.1:8645/rpc", "treasury-node RPC endpoint")

	root.AddCommand(
		newInitializeCmd(),
		newStakeCmd(),
		newUnstakeCmd(),
		newClaimCmd(),
		newCreditFeeCmd(),
		newEmergencyPauseCmd(),
		newUpdateApyCmd(),
		newGetPoolCmd(),
		newGetDepositCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Fatalf("treasury-cli: %v", err)
	}
}

func call(method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(rpcAddr, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	return parsed.Result, nil
}

func printResult(result json.RawMessage) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		fmt.Println(string(result))
		return
	}
	fmt.Println(pretty.String())
}

func newInitializeCmd() *cobra.Command {
	var admin, devWallet string
	var apyBps uint64
	cmd := &cobra.Command{
		Use:   "initialize",
		Short: "Create the treasury pool singleton",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("initialize", map[string]interface{}{
				"admin": admin, "dev_wallet": devWallet, "initial_apy_bps": apyBps,
			})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin pubkey (hex)")
	cmd.Flags().StringVar(&devWallet, "dev-wallet", "", "dev_wallet pubkey (hex)")
	cmd.Flags().Uint64Var(&apyBps, "apy-bps", 0, "initial APY, in bps")
	return cmd
}

func newStakeCmd() *cobra.Command {
	var backer string
	var amount uint64
	var lockPeriod int64
	cmd := &cobra.Command{
		Use:   "stake",
		Short: "stake_sol: deposit principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("stake_sol", map[string]interface{}{
				"backer": backer, "amount": amount, "lock_period": lockPeriod,
			})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&backer, "backer", "", "backer pubkey (hex)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in lamports")
	cmd.Flags().Int64Var(&lockPeriod, "lock-period", 0, "lock period, seconds (metadata only)")
	return cmd
}

func newUnstakeCmd() *cobra.Command {
	var backer string
	var amount uint64
	cmd := &cobra.Command{
		Use:   "unstake",
		Short: "unstake_sol: withdraw principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("unstake_sol", map[string]interface{}{"backer": backer, "amount": amount})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&backer, "backer", "", "backer pubkey (hex)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in lamports")
	return cmd
}

func newClaimCmd() *cobra.Command {
	var backer string
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "claim_rewards: claim all pending rewards",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("claim_rewards", map[string]interface{}{"backer": backer})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&backer, "backer", "", "backer pubkey (hex)")
	return cmd
}

func newCreditFeeCmd() *cobra.Command {
	var admin string
	var feeReward, feePlatform uint64
	cmd := &cobra.Command{
		Use:   "credit-fee",
		Short: "credit_fee_to_pool: raw fee-credit interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("credit_fee_to_pool", map[string]interface{}{
				"admin": admin, "fee_reward": feeReward, "fee_platform": feePlatform,
			})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin pubkey (hex)")
	cmd.Flags().Uint64Var(&feeReward, "fee-reward", 0, "reward-pool fee amount")
	cmd.Flags().Uint64Var(&feePlatform, "fee-platform", 0, "platform-pool fee amount")
	return cmd
}

func newEmergencyPauseCmd() *cobra.Command {
	var admin string
	var flag bool
	cmd := &cobra.Command{
		Use:   "emergency-pause",
		Short: "emergency_pause: toggle the pause flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("emergency_pause", map[string]interface{}{"admin": admin, "flag": flag})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin pubkey (hex)")
	cmd.Flags().BoolVar(&flag, "flag", true, "pause state to set")
	return cmd
}

func newUpdateApyCmd() *cobra.Command {
	var admin string
	var bps uint64
	cmd := &cobra.Command{
		Use:   "update-apy",
		Short: "update_apy: update the metadata-only APY",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("update_apy", map[string]interface{}{"admin": admin, "bps": bps})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin pubkey (hex)")
	cmd.Flags().Uint64Var(&bps, "bps", 0, "new APY in bps, max 10000")
	return cmd
}

func newGetPoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-pool",
		Short: "Fetch the current TreasuryPool snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("get_pool", map[string]interface{}{})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
}

func newGetDepositCmd() *cobra.Command {
	var backer string
	cmd := &cobra.Command{
		Use:   "get-deposit",
		Short: "Fetch a backer's deposit ledger entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := call("get_deposit", map[string]interface{}{"backer": backer})
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&backer, "backer", "", "backer pubkey (hex)")
	return cmd
}
