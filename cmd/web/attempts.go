package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"barista-web/pkg/common/config"
	dao "barista-web/pkg/core/registration/repository/dao/impl"
)

func attemptsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "List recent registration attempts from the audit table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := cfg.InitDB()
			if err != nil {
				return err
			}

			attempts, err := dao.NewGormAttemptRepository(db).Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tUSERNAME\tOUTCOME\tSTATUS\tCLIENT IP")
			for _, a := range attempts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					a.CreatedAt.Format("2006-01-02 15:04:05"), a.Username, a.Outcome, a.StatusCode, a.ClientIP)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of attempts to show")
	return cmd
}
