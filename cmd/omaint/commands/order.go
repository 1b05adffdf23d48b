package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openmaint/openmaint/pkg/policy"
	"github.com/openmaint/openmaint/pkg/stores"
	"github.com/openmaint/openmaint/pkg/workorder"
)

// actorFlags holds the acting user flags shared by order subcommands.
type actorFlags struct {
	id   string
	name string
	role string
}

func (f *actorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "actor", "", "acting user ID")
	cmd.Flags().StringVar(&f.name, "actor-name", "", "acting user display name")
	cmd.Flags().StringVar(&f.role, "actor-role", "admin", "acting user role (admin, supervisor, tecnico, encargado_linea)")
	_ = cmd.MarkFlagRequired("actor")
}

func (f *actorFlags) actor() workorder.Actor {
	return workorder.Actor{ID: f.id, Name: f.name, Role: f.role}
}

func newOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage work orders",
	}

	cmd.AddCommand(newOrderCreateCommand())
	cmd.AddCommand(newOrderListCommand())
	cmd.AddCommand(newOrderShowCommand())
	cmd.AddCommand(newOrderTransitionCommand())

	return cmd
}

func newOrderCreateCommand() *cobra.Command {
	var (
		actor actorFlags
		spec  workorder.NewOrderSpec
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work order",
		Long: `Create a preventive or corrective work order.

Preventive orders receive the default checklist template and may carry a
recurrence rule. Corrective orders carry failure and spare part data
instead.`,
		Example: `  # Monthly preventive order
  omaint order create --actor u-1 --title "Revisión mensual" --type preventivo \
    --machine m-1 --scheduled-date 2024-04-01 --recurrence mensual

  # Corrective order after a breakdown
  omaint order create --actor u-1 --title "Fuga de aceite" --type correctivo \
    --machine m-2 --priority alta --failure-cause desgaste`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			factory := workorder.NewFactory(
				workorder.SystemClock{},
				workorder.UUIDGenerator{},
				stores.NewTemplateSource(store),
			)

			order, history, err := factory.Create(spec, actor.actor())
			if err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}

			if err := store.CreateOrder(ctx, order); err != nil {
				return err
			}
			if err := store.AppendHistory(ctx, history); err != nil {
				return err
			}
			auditAction(ctx, store, "create", actor.actor(), order.ID)

			log.Info().
				Str("order_id", order.ID).
				Str("type", string(order.Type)).
				Msg("Work order created")

			return printJSON(order)
		},
	}

	actor.register(cmd)
	cmd.Flags().StringVar(&spec.Title, "title", "", "order title")
	cmd.Flags().StringVar(&spec.Description, "description", "", "order description")
	cmd.Flags().StringVar((*string)(&spec.Type), "type", "", "order type (preventivo, correctivo)")
	cmd.Flags().StringVar((*string)(&spec.Priority), "priority", "", "priority (baja, media, alta, critica)")
	cmd.Flags().StringVar(&spec.MachineID, "machine", "", "machine ID")
	cmd.Flags().StringVar(&spec.AssignedTo, "assigned-to", "", "assigned technician user ID")
	cmd.Flags().StringVar(&spec.ScheduledDate, "scheduled-date", "", "scheduled date (YYYY-MM-DD)")
	cmd.Flags().StringVar((*string)(&spec.Recurrence), "recurrence", "", "recurrence (diario, semanal, mensual, trimestral, anual)")
	cmd.Flags().Float64Var(&spec.EstimatedHours, "estimated-hours", 0, "planned effort in hours")
	cmd.Flags().StringVar(&spec.FailureCause, "failure-cause", "", "failure cause code (corrective orders)")
	cmd.Flags().StringVar(&spec.SparePartUsed, "spare-part", "", "spare part used (corrective orders)")
	cmd.Flags().StringVar(&spec.SparePartReference, "spare-part-ref", "", "spare part reference (corrective orders)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("machine")

	return cmd
}

func newOrderListCommand() *cobra.Command {
	var (
		status    string
		orderType string
		machineID string
		assigned  string
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders",
		Example: `  # All pending orders
  omaint order list --status pendiente

  # Corrective orders on a machine
  omaint order list --type correctivo --machine m-2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			orders, err := store.ListOrders(ctx, stores.OrderFilter{
				Status:     workorder.Status(status),
				Type:       workorder.OrderType(orderType),
				MachineID:  machineID,
				AssignedTo: assigned,
				Limit:      limit,
				Offset:     offset,
			})
			if err != nil {
				return err
			}

			return printJSON(orders)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&orderType, "type", "", "filter by type")
	cmd.Flags().StringVar(&machineID, "machine", "", "filter by machine ID")
	cmd.Flags().StringVar(&assigned, "assigned-to", "", "filter by assigned technician")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum results")
	cmd.Flags().IntVar(&offset, "offset", 0, "results to skip")

	return cmd
}

func newOrderShowCommand() *cobra.Command {
	var withHistory bool

	cmd := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			order, err := store.GetOrder(ctx, args[0])
			if err != nil {
				return err
			}

			if !withHistory {
				return printJSON(order)
			}

			history, err := store.ListHistory(ctx, args[0])
			if err != nil {
				return err
			}

			return printJSON(struct {
				Order   *workorder.WorkOrder     `json:"order"`
				History []workorder.HistoryEntry `json:"history"`
			}{order, history})
		},
	}

	cmd.Flags().BoolVar(&withHistory, "history", false, "include the change history")

	return cmd
}

func newOrderTransitionCommand() *cobra.Command {
	var (
		actor         actorFlags
		title         string
		description   string
		priority      string
		status        string
		assignedTo    string
		scheduledDate string
		date          string
		reason        string
		notes         string
		signature     string
		checkedItems  []string
		failureCause  string
	)

	cmd := &cobra.Command{
		Use:   "transition <order-id> <action>",
		Short: "Apply a lifecycle transition to a work order",
		Long: `Apply a transition (start, complete, cancel, postpone, partial_close,
edit) to a work order.

The transition is authorized against the loaded policies, validated by
the state machine, and persisted atomically together with its change
history and, for completed recurring preventive orders, the successor
order.`,
		Example: `  # Start work
  omaint order transition wo-1 start --actor u-2 --actor-role tecnico

  # Complete, checking the remaining checklist items
  omaint order transition wo-1 complete --actor u-2 --actor-role tecnico \
    --check c-1 --check c-2 --signature "data:image/png;base64,..."

  # Postpone to next week
  omaint order transition wo-1 postpone --actor u-2 --actor-role tecnico \
    --date 2024-04-08 --reason "Falta de repuestos"

  # Close partially with pending work documented
  omaint order transition wo-1 partial_close --actor u-2 --actor-role tecnico \
    --notes "Pendiente cambio de filtro"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orderID := args[0]
			action := workorder.Action(args[1])

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			order, err := store.GetOrder(ctx, orderID)
			if err != nil {
				return err
			}

			if cfg.Policy.Enabled {
				if err := authorize(ctx, cfg.Policy.Paths, actor.actor(), action, order); err != nil {
					return err
				}
			}

			payload := &workorder.Payload{}
			setIfChanged(cmd, "title", &payload.Title, title)
			setIfChanged(cmd, "description", &payload.Description, description)
			setIfChanged(cmd, "assigned-to", &payload.AssignedTo, assignedTo)
			setIfChanged(cmd, "scheduled-date", &payload.ScheduledDate, scheduledDate)
			setIfChanged(cmd, "date", &payload.Date, date)
			setIfChanged(cmd, "reason", &payload.Reason, reason)
			setIfChanged(cmd, "notes", &payload.Notes, notes)
			setIfChanged(cmd, "signature", &payload.TechnicianSignature, signature)
			setIfChanged(cmd, "failure-cause", &payload.FailureCause, failureCause)
			if cmd.Flags().Changed("priority") {
				p := workorder.Priority(priority)
				payload.Priority = &p
			}
			if cmd.Flags().Changed("status") {
				s := workorder.Status(status)
				payload.Status = &s
			}
			if len(checkedItems) > 0 {
				payload.Checklist = checkItems(order.Checklist, checkedItems)
			}

			machine := workorder.NewStateMachine(workorder.SystemClock{}, workorder.UUIDGenerator{})
			result, err := machine.Apply(order, action, payload, actor.actor())
			if err != nil {
				return fmt.Errorf("transition rejected: %w", err)
			}

			if err := store.ApplyTransition(ctx, result, order.Version); err != nil {
				return err
			}
			auditAction(ctx, store, string(action), actor.actor(), orderID)

			log.Info().
				Str("order_id", orderID).
				Str("action", string(action)).
				Str("status", string(result.Order.Status)).
				Bool("successor", result.Successor != nil).
				Msg("Transition applied")

			return printJSON(result)
		},
	}

	actor.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "new title (edit)")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	cmd.Flags().StringVar(&status, "status", "", "target status (edit only)")
	cmd.Flags().StringVar(&assignedTo, "assigned-to", "", "new assigned technician")
	cmd.Flags().StringVar(&scheduledDate, "scheduled-date", "", "new scheduled date (edit only)")
	cmd.Flags().StringVar(&date, "date", "", "new date for postpone (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reason, "reason", "", "postpone reason")
	cmd.Flags().StringVar(&notes, "notes", "", "notes (required for partial_close)")
	cmd.Flags().StringVar(&signature, "signature", "", "technician signature")
	cmd.Flags().StringSliceVar(&checkedItems, "check", nil, "checklist item IDs to mark as checked")
	cmd.Flags().StringVar(&failureCause, "failure-cause", "", "new failure cause")

	return cmd
}

// setIfChanged assigns the flag value to the payload field only when the
// flag was explicitly set, so unset flags leave the field untouched.
func setIfChanged(cmd *cobra.Command, flag string, dst **string, value string) {
	if cmd.Flags().Changed(flag) {
		v := value
		*dst = &v
	}
}

// checkItems returns the checklist with the named items marked checked.
func checkItems(items []workorder.ChecklistItem, ids []string) []workorder.ChecklistItem {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]workorder.ChecklistItem, len(items))
	copy(out, items)
	for i := range out {
		if wanted[out[i].ID] {
			out[i].Checked = true
		}
	}
	return out
}

// authorize evaluates the loaded policies for the requested transition.
func authorize(ctx context.Context, paths []string, actor workorder.Actor, action workorder.Action, order *workorder.WorkOrder) error {
	engine, err := policy.NewEngine(log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create policy engine: %w", err)
	}

	if len(paths) > 0 {
		if err := engine.LoadPolicies(ctx, paths); err != nil {
			return fmt.Errorf("failed to load policies: %w", err)
		}
	}

	result, err := engine.Authorize(ctx, &policy.AuthInput{
		Actor:  actor,
		Action: action,
		Order:  policy.SummarizeOrder(order),
	})
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	for _, w := range result.Warnings {
		log.Warn().Msg(w)
	}
	if !result.Allowed {
		for _, v := range result.Violations {
			log.Error().Str("policy", v.Policy).Str("severity", string(v.Severity)).Msg(v.Message)
		}
		return fmt.Errorf("action %s denied for role %s", action, actor.Role)
	}

	return nil
}

// auditAction best-effort records an audit entry for a CLI action.
func auditAction(ctx context.Context, store stores.Store, action string, actor workorder.Actor, orderID string) {
	entry := &stores.AuditEntry{
		Action:    action,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		OrderID:   &orderID,
		Timestamp: time.Now(),
	}
	if err := store.CreateAuditEntry(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("Failed to record audit entry")
	}
}
