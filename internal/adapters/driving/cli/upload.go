package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

var (
	uploadSlot string
	uploadRole string
	uploadEdit bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a banner image and crop it",
	Long: `Uploads an image to the upload endpoint and opens a crop session for a
slot on the uploaded copy. The image is fitted with the role's policy.

Without --edit the fitted crop is saved immediately. With --edit the crop
editor opens first; cancelling it leaves the slot's committed crop as it was.
A failed upload never changes the committed crop.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadSlot, "slot", "", "banner slot to crop")
	uploadCmd.Flags().StringVar(&uploadRole, "role", "", "banner role of the slot")
	uploadCmd.Flags().BoolVar(&uploadEdit, "edit", false, "open the crop editor before saving")
	_ = uploadCmd.MarkFlagRequired("slot")
	_ = uploadCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if cropService == nil {
		return errNoCropService
	}

	role, err := parseRole(uploadRole)
	if err != nil {
		return err
	}
	if uploadEdit {
		if err := requireTerminal(); err != nil {
			return err
		}
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	session, err := cropService.Upload(cmd.Context(), uploadSlot, role, filepath.Base(path), f, domain.Size{})
	if err != nil {
		return err
	}
	meta := session.Metadata()
	cmd.Printf("Uploaded %s as %s\n", filepath.Base(path), meta.Src)

	if uploadEdit {
		image, err := resolveImage(cmd, meta.Src, 0, 0)
		if err != nil {
			session.Cancel()
			return err
		}
		return runEditor(cmd, session, image)
	}

	saved, err := session.Save(cmd.Context())
	if err != nil {
		session.Cancel()
		return err
	}
	cmd.Println("Crop saved.")
	printCrop(cmd, uploadSlot, saved)
	return nil
}
