// Package app implements fleetboardctl, the command line view of the
// vehicle lifecycle board.
package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/leetrental/fleetboard/internal/board/client"
	"github.com/leetrental/fleetboard/internal/board/core/model"
	"github.com/leetrental/fleetboard/internal/board/core/service"
	"github.com/leetrental/fleetboard/internal/lifecycle"
	"github.com/leetrental/fleetboard/pkg/app"
)

const commandDesc = `fleetboardctl talks to a running fleetboard gateway: list the board,
inspect what a transition needs, move vehicles, and force refreshes.`

type ctl struct {
	gateway string
	timeout time.Duration
}

func (c *ctl) client() *client.Client {
	return client.New(c.gateway, c.timeout)
}

func (c *ctl) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func NewCommand() *app.App {
	c := &ctl{}

	a := app.NewApp(
		"fleetboardctl",
		"Interact with the vehicle lifecycle board",
		app.WithDescription(commandDesc),
		app.WithNoConfig(),
	)

	root := a.Command()
	root.PersistentFlags().StringVar(&c.gateway, "gateway", "http://127.0.0.1:8080", "Gateway endpoint.")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 15*time.Second, "Request timeout.")

	root.AddCommand(
		c.newBoardCommand(),
		c.newResolveCommand(),
		c.newMoveCommand(),
		c.newCancelCommand(),
		c.newRefreshCommand(),
	)
	return a
}

func (c *ctl) newBoardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "List every vehicle grouped by lifecycle state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context()
			defer cancel()

			columns, err := c.client().Board(ctx)
			if err != nil {
				return err
			}
			printBoard(cmd, columns)
			return nil
		},
	}
}

func (c *ctl) newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve VEHICLE TARGET_STATE",
		Short: "Show the action and fields a transition would need",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			from, err := currentState(ctx, c.client(), args[0])
			if err != nil {
				return err
			}
			to := lifecycle.VehicleState(args[1])

			// An inspection must not open the vehicle's transition window
			// on the gateway; the policy table answers locally.
			fields, err := lifecycle.Resolve(from, to)
			if err != nil {
				return err
			}
			action := lifecycle.ActionName(from, to)

			cmd.Printf("Action: %s (%s -> %s)\n", action, from, args[1])
			if len(fields) == 0 {
				cmd.Println("No fields required.")
				return nil
			}

			table := uitable.New()
			table.AddRow("FIELD", "KIND", "REQUIRED", "DETAILS")
			for _, f := range fields {
				table.AddRow(f.Name, string(f.Kind), strconv.FormatBool(f.Required), fieldDetails(f))
			}
			cmd.Println(table)
			return nil
		},
	}
}

func (c *ctl) newMoveCommand() *cobra.Command {
	var data []string

	cmd := &cobra.Command{
		Use:   "move VEHICLE TARGET_STATE",
		Short: "Attempt a state transition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()
			cl := c.client()

			from, err := currentState(ctx, cl, args[0])
			if err != nil {
				return err
			}
			to := lifecycle.VehicleState(args[1])

			_, fields, err := cl.Resolve(ctx, args[0], from, to)
			if err != nil {
				return err
			}

			payload, err := buildPayload(fields, data)
			if err != nil {
				_ = cl.Cancel(ctx, args[0])
				return err
			}

			outcome, err := cl.Complete(ctx, args[0], to, payload)
			if err != nil {
				_ = cl.Cancel(ctx, args[0])
				return err
			}

			switch outcome.Result {
			case model.ResultSuccess:
				cmd.Printf("Applied: %s is now %s\n", args[0], outcome.AppliedState)
				for _, d := range outcome.CreatedDocuments {
					cmd.Printf("Created: %s %s\n", d.Type, d.ID)
				}
			case model.ResultRejected:
				cmd.Printf("Rejected: %s\n", outcome.Message)
			case model.ResultFailed:
				return fmt.Errorf("attempt failed, board marked stale: %s", outcome.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&data, "data", "d", nil, "Field value as name=value. Repeatable.")
	return cmd
}

func (c *ctl) newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel VEHICLE",
		Short: "Abandon a vehicle's pending transition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context()
			defer cancel()

			if err := c.client().Cancel(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Cancelled pending transition for %s\n", args[0])
			return nil
		},
	}
}

func (c *ctl) newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a re-fetch from the record keeper and print the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context()
			defer cancel()

			columns, err := c.client().Refresh(ctx)
			if err != nil {
				return err
			}
			printBoard(cmd, columns)
			return nil
		},
	}
}

func printBoard(cmd *cobra.Command, columns []service.Column) {
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("STATE", "VEHICLE", "PLATE", "MODEL", "ODOMETER", "AGREEMENT")
	for _, col := range columns {
		for _, v := range col.Vehicles {
			table.AddRow(string(col.State), v.ID, v.LicensePlate, v.Model,
				strconv.FormatFloat(v.Odometer, 'f', 0, 64), v.CurrentAgreementRef)
		}
	}
	cmd.Println(table)
}

func currentState(ctx context.Context, cl *client.Client, vehicleID string) (lifecycle.VehicleState, error) {
	columns, err := cl.Board(ctx)
	if err != nil {
		return "", err
	}
	for _, col := range columns {
		for _, v := range col.Vehicles {
			if v.ID == vehicleID {
				return col.State, nil
			}
		}
	}
	return "", fmt.Errorf("vehicle %s not on the board", vehicleID)
}

// buildPayload coerces name=value pairs to the kinds the resolved fields
// expect, so numbers and booleans survive the JSON round trip typed.
func buildPayload(fields []lifecycle.FieldRequirement, data []string) (lifecycle.Payload, error) {
	kinds := map[string]lifecycle.FieldKind{}
	for _, f := range fields {
		kinds[f.Name] = f.Kind
	}

	payload := lifecycle.Payload{}
	for _, pair := range data {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("malformed --data %q, want name=value", pair)
		}

		switch kinds[name] {
		case lifecycle.KindNumber:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("field %s: %q is not a number", name, value)
			}
			payload[name] = n
		case lifecycle.KindBoolean:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %q is not a boolean", name, value)
			}
			payload[name] = b
		default:
			payload[name] = value
		}
	}
	return payload, nil
}

func fieldDetails(f lifecycle.FieldRequirement) string {
	switch {
	case len(f.Options) > 0:
		return "one of: " + strings.Join(f.Options, ", ")
	case f.LinkTo != "":
		return "links to " + f.LinkTo
	case f.Default != nil:
		return fmt.Sprintf("default %v", f.Default)
	default:
		return ""
	}
}
