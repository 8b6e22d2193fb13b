package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-clock/internal/camera"
	"github.com/kozaktomas/face-clock/internal/policy"
	"github.com/kozaktomas/face-clock/internal/session"
	"github.com/kozaktomas/face-clock/internal/store"
)

var kioskCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Run the camera attendance loop",
	Long: `Run the kiosk: open the camera, recognize enrolled employees, and
record attendance according to the time of day. Ambiguous periods
(early morning, lunch) prompt the operator for the action.`,
	RunE: runKiosk,
}

func init() {
	rootCmd.AddCommand(kioskCmd)
}

func runKiosk(cmd *cobra.Command, args []string) error {
	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	if svcs.detector.Degraded() {
		return fmt.Errorf("the kiosk needs face detection; check FACECLOCK_CASCADE_PATH")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trainAtStartup(ctx, svcs)

	cam, err := camera.Open(svcs.cfg.Camera)
	if err != nil {
		return err
	}
	fmt.Printf("Camera open on device %d\n", cam.Device())

	sess := session.New(cam, svcs.recognizer, svcs.store,
		svcs.cfg.Session, svcs.cfg.Recog.StabilityWindow)
	sess.Notify = printEvent
	sess.Choose = promptChoice

	err = sess.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println("Kiosk stopped")
		return nil
	}
	return err
}

func printEvent(e session.Event) {
	switch e.State {
	case session.StateStandby:
		fmt.Println("[standby]")
	case session.StateScanning:
		fmt.Printf("[scanning] %s\n", e.Message)
	case session.StateVerifying:
		fmt.Println("[verifying]")
	case session.StateResolved:
		name := "unknown"
		if e.Employee != nil {
			name = fmt.Sprintf("%s (%s)", e.Employee.Name, e.Employee.Code)
		}
		fmt.Printf("[resolved] %s: %s (confidence %.0f)\n", name, e.Message, e.Confidence)
	}
}

// promptChoice asks the operator to pick one of the allowed actions.
// An empty answer skips logging.
func promptChoice(emp store.Employee, d policy.Decision) (store.Action, bool) {
	fmt.Printf("%s (%s), choose an action:\n", emp.Name, emp.Code)
	for i, action := range d.Allowed {
		fmt.Printf("  %d) %s\n", i+1, action.Label())
	}
	fmt.Print("> ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(d.Allowed) {
		fmt.Println("No such option, skipping")
		return "", false
	}
	return d.Allowed[n-1], true
}
