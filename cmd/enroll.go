package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-clock/internal/camera"
	"github.com/kozaktomas/face-clock/internal/enroll"
	"github.com/kozaktomas/face-clock/internal/vision"
)

var (
	enrollName  string
	enrollImage string
	enrollForce bool
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a new employee",
	Long: `Enroll a new employee from a camera capture or an image file.
The face is stored with flipped and gamma-adjusted variants as training
samples and the model is retrained immediately.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().StringVar(&enrollName, "name", "", "Employee display name (required)")
	enrollCmd.Flags().StringVar(&enrollImage, "image", "", "Image file to enroll from (default: camera capture)")
	enrollCmd.Flags().BoolVar(&enrollForce, "force", false, "Enroll even if the face matches an existing employee")
	enrollCmd.MarkFlagRequired("name")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	if svcs.detector.Degraded() {
		return fmt.Errorf("enrollment needs face detection; check FACECLOCK_CASCADE_PATH")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	frame, err := captureEnrollFrame(svcs)
	if err != nil {
		return err
	}

	emp, err := svcs.enroller.Enroll(ctx, enrollName, frame, enrollForce)
	if err != nil {
		var dup *enroll.DuplicateError
		if errors.As(err, &dup) {
			fmt.Fprintf(os.Stderr, "Refusing to enroll: %s\n", dup.Error())
			fmt.Fprintln(os.Stderr, "Re-run with --force to enroll anyway.")
			os.Exit(1)
		}
		return err
	}

	fmt.Printf("Enrolled %s as %s (id %d)\n", emp.Name, emp.Code, emp.ID)
	return nil
}

func captureEnrollFrame(svcs *services) (image.Image, error) {
	if enrollImage != "" {
		img, err := vision.LoadGray(enrollImage)
		if err != nil {
			return nil, fmt.Errorf("could not load %s: %w", enrollImage, err)
		}
		return img, nil
	}

	cam, err := camera.Open(svcs.cfg.Camera)
	if err != nil {
		return nil, err
	}
	defer cam.Close()

	fmt.Println("Look at the camera...")
	frame, err := cam.NextFrame()
	if err != nil {
		return nil, err
	}
	return frame, nil
}
