package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var employeesCmd = &cobra.Command{
	Use:   "employees [search]",
	Short: "List enrolled employees",
	Long: `Lists enrolled employees ordered by name. An optional search term
filters by name or code, ignoring case and diacritics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEmployees,
}

var employeesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an employee and retrain the model",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeesDelete,
}

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(employeesDeleteCmd)
}

func runEmployees(cmd *cobra.Command, args []string) error {
	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	search := ""
	if len(args) > 0 {
		search = args[0]
	}

	employees, err := svcs.store.ListEmployees(ctx, search)
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}

	if len(employees) == 0 {
		fmt.Println("No employees found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME\tENROLLED")
	fmt.Fprintln(w, "--\t----\t----\t--------")

	for i := range employees {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			employees[i].ID, employees[i].Code, employees[i].Name,
			employees[i].CreatedAt.Format("2006-01-02"))
	}

	w.Flush()

	fmt.Printf("\nTotal: %d employees\n", len(employees))

	return nil
}

func runEmployeesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid employee id %q", args[0])
	}

	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emp, err := svcs.store.GetEmployeeByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil {
		return fmt.Errorf("employee %d not found", id)
	}

	if err := svcs.store.DeleteEmployee(ctx, id); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	fmt.Printf("Deleted %s (%s)\n", emp.Name, emp.Code)

	event, err := svcs.recognizer.Train(ctx, nil)
	if err != nil {
		return fmt.Errorf("employee deleted but retrain failed: %w", err)
	}
	if event.Trained {
		fmt.Printf("Model retrained: %d employees, %d instances\n", event.Employees, event.Instances)
	} else {
		fmt.Println("Model cleared: not enough samples remain.")
	}

	return nil
}
