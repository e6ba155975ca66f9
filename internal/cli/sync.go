package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/errors"
)

// newSyncCmd creates the sync command.
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [parent-id...]",
		Short: "Re-run the child synchronizer from stored definitions",
		Long: `Re-run the child synchronizer from stored definitions.

Synchronization is idempotent, so this is always safe: existing children
are refreshed in place and nothing is created or retired unless the stored
definition actually changed. With no arguments every stored parent is
synchronized.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), args)
		},
	}
}

func runSync(ctx context.Context, parentIDs []string) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPathFromContext(ctx))
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(parentIDs) == 0 {
		parentIDs, err = st.ParentIDs(ctx)
		if err != nil {
			return err
		}
	}
	if len(parentIDs) == 0 {
		printInfo("Nothing to synchronize")
		return nil
	}

	syncer := card.NewSyncer(st, logger)
	spinner := newSpinner(ctx, "Synchronizing...")
	spinner.Start()

	now := time.Now()
	totals := card.SyncResult{}
	for _, parentID := range parentIDs {
		def, ok, err := st.ParentDefinition(ctx, parentID)
		if err != nil {
			spinner.StopWithError("Synchronization failed")
			return err
		}
		if !ok {
			spinner.StopWithError("Synchronization failed")
			return errors.New(errors.ErrCodeParentNotFound, "no occlusions stored for %s", parentID)
		}

		parent, _, err := st.Parent(ctx, parentID)
		if err != nil {
			spinner.StopWithError("Synchronization failed")
			return err
		}
		parent.ID = parentID

		res, err := syncer.Sync(ctx, parent, def, now)
		if err != nil {
			spinner.StopWithError("Synchronization failed")
			return err
		}

		totals.Created = append(totals.Created, res.Created...)
		totals.Updated = append(totals.Updated, res.Updated...)
		totals.Retired = append(totals.Retired, res.Retired...)
		totals.Active = append(totals.Active, res.Active...)
	}

	if err := st.Persist(ctx); err != nil {
		spinner.StopWithError("Synchronization failed")
		return err
	}
	spinner.Stop()

	printSuccess("Synchronized %d parent(s)", len(parentIDs))
	printKeyValue("Active", fmt.Sprintf("%d", len(totals.Active)))
	printKeyValue("Created", fmt.Sprintf("%d", len(totals.Created)))
	printKeyValue("Updated", fmt.Sprintf("%d", len(totals.Updated)))
	printKeyValue("Retired", fmt.Sprintf("%d", len(totals.Retired)))
	for _, id := range totals.Retired {
		printDetail("retired %s", id)
	}
	return nil
}
