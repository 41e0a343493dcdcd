package cli

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/LeJamon/goScalingd/internal/core/stableswap"
	"github.com/LeJamon/goScalingd/internal/core/vm"
	"github.com/LeJamon/goScalingd/internal/host"
)

var label string

var instantiateCmd = &cobra.Command{
	Use:   "instantiate <msg-json>",
	Short: "Instantiate the contract",
	Long: `Instantiate a new contract from a JSON InstantiateMsg, signed with the key
file. The signer becomes the contract admin. Example:

  scalingd instantiate --label pool-833 \
    '{"pool_id":833,"scale_first":true,"hub":"r...","owner":"r...","decimals":4}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if label == "" {
			return errors.New("--label is required")
		}
		return submit(cmd, host.ActionInstantiate, label, args[0])
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute <contract> <msg-json>",
	Short: "Execute a message against a contract",
	Long: `Execute a JSON ExecuteMsg, signed with the key file. Examples:

  scalingd execute r... '{"update_scaling_factor":{}}'
  scalingd execute r... '{"update_config":{"decimals":6}}'
  scalingd execute r... '{"update_ownership":"accept_ownership"}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(cmd, host.ActionExecute, args[0], args[1])
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <contract> [msg-json]",
	Short: "Migrate a contract (admin only)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := "{}"
		if len(args) == 2 {
			msg = args[1]
		}
		return submit(cmd, host.ActionMigrate, args[0], msg)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <contract> <msg-json>",
	Short: "Query a contract",
	Long: `Run a read-only JSON QueryMsg. Examples:

  scalingd query r... '{"config":{}}'
  scalingd query r... '{"ownership":{}}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !json.Valid([]byte(args[1])) {
			return errors.New("message is not valid JSON")
		}
		h, err := provider.GetBackend()
		if err != nil {
			return err
		}
		out, err := h.Query(cmd.Context(), args[0], []byte(args[1]))
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err != nil {
			return fmt.Errorf("contract answered with invalid JSON: %w", err)
		}
		buf.WriteByte('\n')
		_, err = buf.WriteTo(cmd.OutOrStdout())
		return err
	},
}

func init() {
	instantiateCmd.Flags().StringVar(&label, "label", "", "contract label, part of the derived address")
	rootCmd.AddCommand(instantiateCmd, executeCmd, migrateCmd, queryCmd)
}

// callResult is what state-changing commands print.
type callResult struct {
	Contract   string         `json:"contract"`
	Height     uint64         `json:"height"`
	Attributes []vm.Attribute `json:"attributes"`
	Messages   []messageView  `json:"messages,omitempty"`
}

// messageView shows a decoded instruction when its type is known and the
// raw bytes otherwise.
type messageView struct {
	TypeURL string      `json:"type_url"`
	Value   interface{} `json:"value"`
}

func viewMessage(a *anypb.Any) messageView {
	if a.GetTypeUrl() == stableswap.TypeURL {
		if msg, err := stableswap.FromAny(a); err == nil {
			return messageView{TypeURL: a.GetTypeUrl(), Value: msg}
		}
	}
	return messageView{TypeURL: a.GetTypeUrl(), Value: hex.EncodeToString(a.GetValue())}
}

func submit(cmd *cobra.Command, action, target, msg string) error {
	if !json.Valid([]byte(msg)) {
		return errors.New("message is not valid JSON")
	}
	h, err := provider.GetBackend()
	if err != nil {
		return err
	}
	signer, err := provider.GetSigner()
	if err != nil {
		return err
	}

	env, err := host.SealNext(cmd.Context(), h, signer, host.Envelope{
		ChainID:  h.ChainID(),
		Action:   action,
		Contract: target,
		Msg:      json.RawMessage(msg),
	})
	if err != nil {
		return err
	}
	addr, res, err := h.Submit(cmd.Context(), env)
	if err != nil {
		return err
	}
	if res == nil {
		res = vm.NewResponse()
	}

	result := callResult{Contract: addr, Attributes: res.Attributes}
	for _, m := range res.Messages {
		result.Messages = append(result.Messages, viewMessage(m))
	}
	if result.Height, err = h.Height(cmd.Context()); err != nil {
		return err
	}
	return printJSON(cmd, result)
}
