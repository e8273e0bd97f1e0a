package main

import (
	"fmt"
	"strconv"

	"student-tracker/internal/client"

	"github.com/spf13/cobra"
)

var (
	studentID int
	assumeYes bool
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work with tasks on a running server",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks (all or of one student)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := client.NewAPI(cfg.BaseURL, nil)
		if err != nil {
			return err
		}
		view := client.NewTaskView(api, studentID, cmd.OutOrStdout())
		if err := view.Load(cmd.Context()); err != nil {
			return err
		}
		view.Render()
		return nil
	},
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("номер задачи должен быть числом: %q", args[0])
		}

		api, err := client.NewAPI(cfg.BaseURL, nil)
		if err != nil {
			return err
		}

		// до подтверждения сеть не трогаем: токен и список запрашиваются после "y".
		// view пустой, поэтому после удаления Reload выводит свежий список.
		out := cmd.OutOrStdout()
		view := client.NewTaskView(api, studentID, out)

		var confirm client.Confirmer = client.NewPrompt(cmd.InOrStdin(), out)
		if assumeYes {
			confirm = client.AlwaysConfirm{}
		}

		notify := client.WriterNotifier{W: cmd.ErrOrStderr()}
		outcome := client.NewDeleter(api, confirm, notify, view).DeleteTask(cmd.Context(), args[0])
		switch outcome {
		case client.Rejected, client.Failed:
			return fmt.Errorf("task %s not deleted (%s)", args[0], outcome)
		}
		return nil
	},
}

func init() {
	tasksCmd.PersistentFlags().IntVar(&studentID, "student", 0, "limit the task list to one student")
	tasksDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	tasksCmd.AddCommand(tasksListCmd, tasksDeleteCmd)
}
