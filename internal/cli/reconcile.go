package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation cycle and exit",
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command) error {
			svc := rt.reservationService()
			defer svc.Wait()

			runID := uuid.NewString()
			result, err := svc.Reconcile(ctx, runID)

			fmt.Fprintf(cmd.OutOrStdout(), "run %s: completed=%d cancelled=%d failed=%d\n",
				runID, result.Completed, result.Cancelled, result.Failed)

			return err
		}),
	}
}
