package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/solacehq/solace/internal/task"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage the task list",
	}

	cmd.AddCommand(
		newTasksListCmd(),
		newTasksAddCmd(),
		newTasksDoneCmd(),
		newTasksRmCmd(),
	)

	return cmd
}

func newTasksListCmd() *cobra.Command {
	var (
		user     string
		status   string
		category string
		priority string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, highest priority first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			filter := task.Filter{
				Status:   task.Status(status),
				Category: category,
				Priority: task.Priority(priority),
			}
			if filter.Status != "" && !task.ValidStatus(filter.Status) {
				return fmt.Errorf("unknown status %q", status)
			}
			if filter.Priority != "" && !task.ValidPriority(filter.Priority) {
				return fmt.Errorf("unknown priority %q", priority)
			}

			tasks, err := a.tasks.List(user, filter)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks.")
				return nil
			}

			for _, t := range tasks {
				printTask(t)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "default", "user identifier")
	cmd.Flags().StringVar(&status, "status", "", "filter: pending, in_progress, completed, cancelled")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&priority, "priority", "", "filter: low, medium, high")

	return cmd
}

func newTasksAddCmd() *cobra.Command {
	var (
		user     string
		priority string
		category string
		due      string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			t := task.Task{
				UserID:   user,
				Title:    args[0],
				Category: category,
				Priority: task.Priority(priority),
			}
			if t.Priority != "" && !task.ValidPriority(t.Priority) {
				return fmt.Errorf("unknown priority %q", priority)
			}
			if due != "" {
				d, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("parse due date: %w", err)
				}
				t.DueDate = &d
			}

			created, err := a.tasks.Create(t)
			if err != nil {
				return err
			}
			printTask(created)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "default", "user identifier")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, or high (default medium)")
	cmd.Flags().StringVar(&category, "category", "", "free-form category")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")

	return cmd
}

func newTasksDoneCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			completed := task.StatusCompleted
			t, err := a.tasks.Apply(user, args[0], task.Update{Status: &completed})
			if err != nil {
				return err
			}
			printTask(t)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "default", "user identifier")

	return cmd
}

func newTasksRmCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tasks.Delete(user, args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "default", "user identifier")

	return cmd
}

func printTask(t task.Task) {
	fmt.Printf("[%s/%s] %s", t.Priority, t.Status, t.Title)
	if t.Category != "" {
		fmt.Printf(" #%s", t.Category)
	}
	if t.DueDate != nil {
		fmt.Printf(" (due %s)", t.DueDate.Format("2006-01-02"))
	}
	fmt.Printf("\n  id: %s\n", t.ID)
}
